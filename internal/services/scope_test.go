package services

import (
	"testing"

	"github.com/mirelo/perfhub/backend/internal/models"
)

func uintPtr(v uint) *uint { return &v }

// Org chart used across the scope tests:
//
//	1 (manager)
//	├── 2 ── 4
//	│        └── 6
//	└── 3 ── 5
//	7 (unrelated root)
func scopeFixture() []models.Employee {
	return []models.Employee{
		{ID: 1, Name: "manager"},
		{ID: 2, Name: "direct-a", ManagerID: uintPtr(1)},
		{ID: 3, Name: "direct-b", ManagerID: uintPtr(1)},
		{ID: 4, Name: "skip-a", ManagerID: uintPtr(2)},
		{ID: 5, Name: "skip-b", ManagerID: uintPtr(3)},
		{ID: 6, Name: "deep", ManagerID: uintPtr(4)},
		{ID: 7, Name: "outsider"},
	}
}

func idsOf(emps []models.Employee) map[uint]bool {
	out := make(map[uint]bool, len(emps))
	for _, e := range emps {
		out[e.ID] = true
	}
	return out
}

// An employee is a direct report iff its ManagerID equals the actor's ID.
func TestDirectReports(t *testing.T) {
	employees := scopeFixture()

	got := idsOf(DirectReports(employees, 1))

	for _, e := range employees {
		isDirect := e.ManagerID != nil && *e.ManagerID == 1
		if got[e.ID] != isDirect {
			t.Errorf("employee %d: in direct reports = %v, manager match = %v", e.ID, got[e.ID], isDirect)
		}
	}
	if len(got) != 2 {
		t.Errorf("expected 2 direct reports, got %d", len(got))
	}
}

func TestReportsToDepth(t *testing.T) {
	employees := scopeFixture()

	tests := []struct {
		name  string
		depth int
		want  []uint
	}{
		{"depth 1 is direct only", 1, []uint{2, 3}},
		{"depth 2 adds skip level", 2, []uint{2, 3, 4, 5}},
		{"depth 3 reaches third level", 3, []uint{2, 3, 4, 5, 6}},
		{"depth 0 is empty", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idsOf(ReportsToDepth(employees, 1, tt.depth))
			if len(got) != len(tt.want) {
				t.Fatalf("got %d employees, want %d", len(got), len(tt.want))
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("employee %d missing from result", id)
				}
			}
		})
	}
}

func TestReportsToDepth_CycleTerminates(t *testing.T) {
	// 1 -> 2 -> 3 -> 1 manager cycle
	employees := []models.Employee{
		{ID: 1, ManagerID: uintPtr(3)},
		{ID: 2, ManagerID: uintPtr(1)},
		{ID: 3, ManagerID: uintPtr(2)},
	}

	got := idsOf(ReportsToDepth(employees, 1, 10))

	if got[1] {
		t.Error("actor must not appear in its own report set")
	}
	if !got[2] || !got[3] {
		t.Errorf("expected employees 2 and 3 in result, got %v", got)
	}
}

func TestVisibleEmployees_WideningRequiresCapability(t *testing.T) {
	employees := scopeFixture()

	// Without the org-wide capability the request silently degrades.
	got := idsOf(VisibleEmployees(employees, 1, ScopeOrganization, Capabilities{}))
	if got[6] || got[7] {
		t.Errorf("org-wide request without capability must degrade to two levels, got %v", got)
	}
	if !got[2] || !got[4] {
		t.Errorf("degraded scope should still include direct and skip reports, got %v", got)
	}

	// With the capability the full roster is visible.
	got = idsOf(VisibleEmployees(employees, 1, ScopeOrganization, Capabilities{CanViewOrgWide: true}))
	if len(got) != len(employees) {
		t.Errorf("org-wide scope should include all %d employees, got %d", len(employees), len(got))
	}
}

func TestVisibleEmployees_DirectReportsScope(t *testing.T) {
	employees := scopeFixture()

	// The capability changes nothing unless org-wide is actually requested.
	got := idsOf(VisibleEmployees(employees, 1, ScopeDirectReports, Capabilities{CanViewOrgWide: true}))

	want := []uint{2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %d employees, want %d", len(got), len(want))
	}
	for _, id := range want {
		if !got[id] {
			t.Errorf("employee %d missing from result", id)
		}
	}
}

func TestVisibleEmployees_Idempotent(t *testing.T) {
	employees := scopeFixture()

	first := idsOf(VisibleEmployees(employees, 1, ScopeDirectReports, Capabilities{}))
	second := idsOf(VisibleEmployees(employees, 1, ScopeDirectReports, Capabilities{}))

	if len(first) != len(second) {
		t.Fatalf("resolution not stable: %d vs %d employees", len(first), len(second))
	}
	for id := range first {
		if !second[id] {
			t.Errorf("employee %d present in first resolution but not second", id)
		}
	}
}

func TestIsInScope(t *testing.T) {
	employees := scopeFixture()

	tests := []struct {
		name  string
		empID uint
		want  bool
	}{
		{"direct report", 2, true},
		{"skip-level report", 4, true},
		{"third level is out", 6, false},
		{"unrelated root is out", 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var emp *models.Employee
			for i := range employees {
				if employees[i].ID == tt.empID {
					emp = &employees[i]
				}
			}
			if got := IsInScope(employees, emp, 1); got != tt.want {
				t.Errorf("IsInScope(%d) = %v, want %v", tt.empID, got, tt.want)
			}
		})
	}

	if IsInScope(employees, nil, 1) {
		t.Error("nil employee must never be in scope")
	}
}

// Override authority is stricter than visibility: a skip-level report is
// visible but not overridable.
func TestCanOverride_StricterThanVisibility(t *testing.T) {
	employees := scopeFixture()

	direct := &employees[1] // ID 2
	skip := &employees[3]   // ID 4

	if !CanOverride(direct, 1) {
		t.Error("direct manager should be able to override")
	}
	if !IsInScope(employees, skip, 1) {
		t.Fatal("fixture broken: skip-level report should be visible")
	}
	if CanOverride(skip, 1) {
		t.Error("skip-level manager must not be able to override")
	}
	if CanOverride(nil, 1) {
		t.Error("nil employee must not be overridable")
	}
}

func TestVisibleReports(t *testing.T) {
	reports := []models.Report{
		{ID: 10, EmployeeID: 2},
		{ID: 11, EmployeeID: 6},
		{ID: 12, EmployeeID: 1}, // the actor's own report
	}
	visible := []models.Employee{{ID: 2}, {ID: 4}}

	got := VisibleReports(reports, visible, 1)

	ids := make(map[uint]bool)
	for _, r := range got {
		ids[r.ID] = true
	}
	if !ids[10] {
		t.Error("report of visible employee should be included")
	}
	if ids[11] {
		t.Error("report of out-of-scope employee should be excluded")
	}
	if !ids[12] {
		t.Error("the actor's own reports are always visible")
	}
}
