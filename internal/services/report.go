package services

import (
	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/gorm"
)

// ReportService exposes read access to reports, filtered through the scope
// rules. Report creation lives in EvaluationService; the override fields are
// the only post-creation mutation and live there too.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

type ReportListRequest struct {
	EmployeeID uint   `form:"employee_id"`
	GoalID     uint   `form:"goal_id"`
	Scope      string `form:"scope"` // direct-reports (default) or organization
}

// ListVisible returns reports whose employees fall inside the actor's
// resolved scope, plus the actor's own reports.
func (s *ReportService) ListVisible(actorID uint, req *ReportListRequest) ([]models.Report, error) {
	var actor models.Employee
	if err := s.db.First(&actor, actorID).Error; err != nil {
		return nil, err
	}

	var employees []models.Employee
	if err := s.db.Find(&employees).Error; err != nil {
		return nil, err
	}

	caps := ResolvePermissions(&actor)
	visible := VisibleEmployees(employees, actorID, req.Scope, caps)

	var reports []models.Report
	query := s.db.Preload("CriterionScores").Order("submission_date DESC")
	if req.EmployeeID != 0 {
		query = query.Where("employee_id = ?", req.EmployeeID)
	}
	if req.GoalID != 0 {
		query = query.Where("goal_id = ?", req.GoalID)
	}
	if err := query.Find(&reports).Error; err != nil {
		return nil, err
	}

	return VisibleReports(reports, visible, actorID), nil
}

// GetByID returns one report if the actor may see it. Single-row fetches
// carry no requested scope, so the org-wide capability widens them directly;
// the explicit-request rule applies only to list scopes.
func (s *ReportService) GetByID(id, actorID uint) (*models.Report, error) {
	var report models.Report
	if err := s.db.Preload("CriterionScores").First(&report, id).Error; err != nil {
		return nil, err
	}

	if report.EmployeeID == actorID {
		return &report, nil
	}

	var actor models.Employee
	if err := s.db.First(&actor, actorID).Error; err != nil {
		return nil, err
	}
	if ResolvePermissions(&actor).CanViewOrgWide {
		return &report, nil
	}

	var employees []models.Employee
	if err := s.db.Find(&employees).Error; err != nil {
		return nil, err
	}
	var emp models.Employee
	if err := s.db.First(&emp, report.EmployeeID).Error; err != nil {
		return nil, err
	}
	if !IsInScope(employees, &emp, actorID) {
		return nil, response.NewNotFound("report not found")
	}
	return &report, nil
}
