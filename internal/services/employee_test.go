package services

import (
	"testing"

	"github.com/mirelo/perfhub/backend/internal/models"
)

// A single-row fetch has no requested scope to degrade, so the org-wide
// capability widens it directly. Without the capability, rows outside the
// actor's report chain come back as not found.
func TestEmployeeGetByID_Visibility(t *testing.T) {
	db := newTestDB(t)

	viewer := models.Employee{Name: "viewer", Email: "viewer@test", CanViewOrgWide: true}
	db.Create(&viewer)
	manager := models.Employee{Name: "manager", Email: "manager@test"}
	db.Create(&manager)
	outsider := models.Employee{Name: "outsider", Email: "outsider@test"}
	db.Create(&outsider)

	svc := NewEmployeeService(db)

	if _, err := svc.GetByID(outsider.ID, viewer.ID); err != nil {
		t.Errorf("org-wide viewer should fetch any employee: %v", err)
	}

	if _, err := svc.GetByID(outsider.ID, manager.ID); err == nil {
		t.Error("expected not-found for an out-of-chain employee without the capability")
	}

	if _, err := svc.GetByID(manager.ID, manager.ID); err != nil {
		t.Errorf("an employee can always fetch themselves: %v", err)
	}
}
