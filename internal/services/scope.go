package services

import (
	"github.com/mirelo/perfhub/backend/internal/models"
	"gorm.io/gorm"
)

// Requested visibility scopes. An "organization" request without the
// org-wide capability silently degrades to "direct-reports" rather than
// erroring.
const (
	ScopeDirectReports = "direct-reports"
	ScopeOrganization  = "organization"
)

// ScopeService computes the employee and report sets an acting manager may
// see. All traversal logic is pure over in-memory employee slices; the DB is
// only touched to fetch the collections.
type ScopeService struct {
	db *gorm.DB
}

func NewScopeService(db *gorm.DB) *ScopeService {
	return &ScopeService{db: db}
}

// ScopeResult is the resolved visibility boundary for an actor.
type ScopeResult struct {
	EmployeeIDs []uint `json:"employee_ids"`
	ReportIDs   []uint `json:"report_ids"`
}

// DirectReports returns employees whose ManagerID equals actorID.
func DirectReports(employees []models.Employee, actorID uint) []models.Employee {
	var out []models.Employee
	for _, e := range employees {
		if e.ManagerID != nil && *e.ManagerID == actorID {
			out = append(out, e)
		}
	}
	return out
}

// ReportsToDepth returns the reports of actorID down to maxDepth levels.
// Depth 1 is direct reports, depth 2 adds skip-level reports, and so on.
// Visited tracking makes a manager cycle terminate instead of recursing
// forever; the stored graph is expected to be a forest but is not enforced.
func ReportsToDepth(employees []models.Employee, actorID uint, maxDepth int) []models.Employee {
	var out []models.Employee
	visited := map[uint]bool{actorID: true}

	frontier := []uint{actorID}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []uint
		for _, managerID := range frontier {
			for _, e := range DirectReports(employees, managerID) {
				if visited[e.ID] {
					continue
				}
				visited[e.ID] = true
				out = append(out, e)
				next = append(next, e.ID)
			}
		}
		frontier = next
	}

	return out
}

// AllReports returns the full transitive closure of reports under actorID.
func AllReports(employees []models.Employee, actorID uint) []models.Employee {
	return ReportsToDepth(employees, actorID, len(employees))
}

// visibleDepth is the product rule: direct reports plus one skip level.
const visibleDepth = 2

// VisibleEmployees resolves the employee set the actor may view. An
// organization-wide request widens to everyone only when the actor holds the
// capability; otherwise it degrades to the two-level traversal.
func VisibleEmployees(employees []models.Employee, actorID uint, requestedScope string, caps Capabilities) []models.Employee {
	if requestedScope == ScopeOrganization && caps.CanViewOrgWide {
		out := make([]models.Employee, len(employees))
		copy(out, employees)
		return out
	}
	return ReportsToDepth(employees, actorID, visibleDepth)
}

// IsInScope answers the per-row access check for a single employee without
// materializing the full set: true iff emp is a direct or skip-level report
// of the actor.
func IsInScope(employees []models.Employee, emp *models.Employee, actorID uint) bool {
	if emp == nil || emp.ManagerID == nil {
		return false
	}
	if *emp.ManagerID == actorID {
		return true
	}
	// Skip level: emp's manager must be a direct report of the actor.
	for _, e := range employees {
		if e.ID == *emp.ManagerID {
			return e.ManagerID != nil && *e.ManagerID == actorID
		}
	}
	return false
}

// CanOverride reports whether actorID may write a manager override on emp's
// reports. Deliberately stricter than visibility: only the exact direct
// manager qualifies, never a skip-level manager.
func CanOverride(emp *models.Employee, actorID uint) bool {
	return emp != nil && emp.ManagerID != nil && *emp.ManagerID == actorID
}

// VisibleReports derives report visibility from employee visibility: a report
// is visible iff its employee is in the visible set, plus the actor's own
// reports regardless of scope.
func VisibleReports(reports []models.Report, visible []models.Employee, actorID uint) []models.Report {
	ids := make(map[uint]bool, len(visible)+1)
	for _, e := range visible {
		ids[e.ID] = true
	}
	ids[actorID] = true

	var out []models.Report
	for _, r := range reports {
		if ids[r.EmployeeID] {
			out = append(out, r)
		}
	}
	return out
}

// ResolveScope fetches the collections and resolves the actor's visibility
// boundary as ID sets for the presentation layer.
func (s *ScopeService) ResolveScope(actorID uint, requestedScope string) (*ScopeResult, error) {
	var actor models.Employee
	if err := s.db.First(&actor, actorID).Error; err != nil {
		return nil, err
	}

	var employees []models.Employee
	if err := s.db.Find(&employees).Error; err != nil {
		return nil, err
	}

	caps := ResolvePermissions(&actor)
	visible := VisibleEmployees(employees, actorID, requestedScope, caps)

	var reports []models.Report
	if err := s.db.Find(&reports).Error; err != nil {
		return nil, err
	}
	visibleReports := VisibleReports(reports, visible, actorID)

	result := &ScopeResult{
		EmployeeIDs: make([]uint, 0, len(visible)),
		ReportIDs:   make([]uint, 0, len(visibleReports)),
	}
	for _, e := range visible {
		result.EmployeeIDs = append(result.EmployeeIDs, e.ID)
	}
	for _, r := range visibleReports {
		result.ReportIDs = append(result.ReportIDs, r.ID)
	}
	return result, nil
}

// CanOverrideReport loads the report's employee and answers the override
// authority check for the actor.
func (s *ScopeService) CanOverrideReport(reportID, actorID uint) (bool, error) {
	var report models.Report
	if err := s.db.First(&report, reportID).Error; err != nil {
		return false, err
	}
	var emp models.Employee
	if err := s.db.First(&emp, report.EmployeeID).Error; err != nil {
		return false, err
	}
	return CanOverride(&emp, actorID), nil
}
