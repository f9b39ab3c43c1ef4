package services

import (
	"strings"

	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/pkg/logger"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/gorm"
)

// FrequencyService resolves the effective reporting cadence for an
// employee/project pair and manages the three-tier settings behind it.
// Precedence, most specific wins: employee > project > global.
type FrequencyService struct {
	db *gorm.DB
}

func NewFrequencyService(db *gorm.DB) *FrequencyService {
	return &FrequencyService{db: db}
}

// FrequencyResult is the effective cadence for an employee/project pair.
type FrequencyResult struct {
	SelectedDays []string `json:"selected_days"`
	Source       string   `json:"source"` // employee, project, global
}

// splitDays parses a comma-separated weekday list, dropping empty parts.
func splitDays(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinDays(days []string) string {
	return strings.Join(days, ",")
}

// resolveDays is the pure precedence chain over already-fetched settings.
// A per-employee entry wins; else a per-project entry; else the global
// selection when the organization is in global mode.
func resolveDays(settings *models.ManagerSettings, empFreq *models.EmployeeFrequency, projFreq *models.ProjectFrequency) *FrequencyResult {
	if empFreq != nil {
		return &FrequencyResult{SelectedDays: splitDays(empFreq.SelectedDays), Source: "employee"}
	}
	if projFreq != nil {
		return &FrequencyResult{SelectedDays: splitDays(projFreq.SelectedDays), Source: "project"}
	}
	if settings != nil && settings.GlobalFrequency {
		return &FrequencyResult{SelectedDays: splitDays(settings.SelectedDays), Source: "global"}
	}
	// Per-entity mode with no entry for this pair: no expected days.
	return &FrequencyResult{Source: "global"}
}

// Resolve computes the effective cadence for an employee/project pair.
func (s *FrequencyService) Resolve(employeeID, projectID uint) (*FrequencyResult, error) {
	settings, err := s.loadSettings()
	if err != nil {
		return nil, err
	}

	var empFreq models.EmployeeFrequency
	var empPtr *models.EmployeeFrequency
	if err := s.db.Where("employee_id = ?", employeeID).First(&empFreq).Error; err == nil {
		empPtr = &empFreq
	}

	var projFreq models.ProjectFrequency
	var projPtr *models.ProjectFrequency
	if projectID != 0 {
		if err := s.db.Where("project_id = ?", projectID).First(&projFreq).Error; err == nil {
			projPtr = &projFreq
		}
	}

	return resolveDays(settings, empPtr, projPtr), nil
}

func (s *FrequencyService) loadSettings() (*models.ManagerSettings, error) {
	var settings models.ManagerSettings
	if err := s.db.First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateGlobalRequest mutates the organization-wide cadence. Gated on
// CanSetGlobalFrequency; the narrower per-entity writes are gated on
// CanManageSettings instead.
type UpdateGlobalRequest struct {
	GlobalFrequency *bool    `json:"global_frequency"`
	SelectedDays    []string `json:"selected_days"`
}

func (s *FrequencyService) UpdateGlobal(caps Capabilities, req *UpdateGlobalRequest) (*models.ManagerSettings, error) {
	if !caps.CanSetGlobalFrequency {
		return nil, response.NewPolicyDenied("setting the global frequency requires the global-frequency permission")
	}

	settings, err := s.loadSettings()
	if err != nil {
		return nil, err
	}

	if req.GlobalFrequency != nil {
		settings.GlobalFrequency = *req.GlobalFrequency
		if !*req.GlobalFrequency {
			// Leaving global mode clears the org-wide day selection; cadence
			// now comes from per-project/per-employee entries only.
			settings.SelectedDays = ""
		}
	}
	if req.SelectedDays != nil {
		settings.SelectedDays = joinDays(req.SelectedDays)
	}

	if err := s.db.Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// SetEmployeeDays upserts the per-employee cadence entry.
func (s *FrequencyService) SetEmployeeDays(caps Capabilities, employeeID uint, days []string) error {
	if !caps.CanManageSettings {
		return response.NewPolicyDenied("managing frequency settings requires the settings permission")
	}

	var freq models.EmployeeFrequency
	err := s.db.Where("employee_id = ?", employeeID).First(&freq).Error
	if err == gorm.ErrRecordNotFound {
		return s.db.Create(&models.EmployeeFrequency{
			EmployeeID:   employeeID,
			SelectedDays: joinDays(days),
		}).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&freq).Update("selected_days", joinDays(days)).Error
}

// SetProjectDays upserts the per-project cadence entry.
func (s *FrequencyService) SetProjectDays(caps Capabilities, projectID uint, days []string) error {
	if !caps.CanManageSettings {
		return response.NewPolicyDenied("managing frequency settings requires the settings permission")
	}

	var freq models.ProjectFrequency
	err := s.db.Where("project_id = ?", projectID).First(&freq).Error
	if err == gorm.ErrRecordNotFound {
		return s.db.Create(&models.ProjectFrequency{
			ProjectID:    projectID,
			SelectedDays: joinDays(days),
		}).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&freq).Update("selected_days", joinDays(days)).Error
}

// SyncEmployeeSelection reconciles the per-employee entries against a new
// selection: entries for deselected employees are pruned, newly selected
// employees are seeded with an empty day set. Stale entries are never left
// behind.
func (s *FrequencyService) SyncEmployeeSelection(caps Capabilities, employeeIDs []uint) error {
	if !caps.CanManageSettings {
		return response.NewPolicyDenied("managing frequency settings requires the settings permission")
	}

	selected := make(map[uint]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		selected[id] = true
	}

	var existing []models.EmployeeFrequency
	if err := s.db.Find(&existing).Error; err != nil {
		return err
	}

	have := make(map[uint]bool, len(existing))
	for _, f := range existing {
		have[f.EmployeeID] = true
		if !selected[f.EmployeeID] {
			if err := s.db.Delete(&models.EmployeeFrequency{}, f.ID).Error; err != nil {
				return err
			}
			logger.Debug().Uint("employee_id", f.EmployeeID).Msg("pruned employee frequency")
		}
	}

	for _, id := range employeeIDs {
		if !have[id] {
			if err := s.db.Create(&models.EmployeeFrequency{EmployeeID: id}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// SyncProjectSelection mirrors SyncEmployeeSelection for projects.
func (s *FrequencyService) SyncProjectSelection(caps Capabilities, projectIDs []uint) error {
	if !caps.CanManageSettings {
		return response.NewPolicyDenied("managing frequency settings requires the settings permission")
	}

	selected := make(map[uint]bool, len(projectIDs))
	for _, id := range projectIDs {
		selected[id] = true
	}

	var existing []models.ProjectFrequency
	if err := s.db.Find(&existing).Error; err != nil {
		return err
	}

	have := make(map[uint]bool, len(existing))
	for _, f := range existing {
		have[f.ProjectID] = true
		if !selected[f.ProjectID] {
			if err := s.db.Delete(&models.ProjectFrequency{}, f.ID).Error; err != nil {
				return err
			}
			logger.Debug().Uint("project_id", f.ProjectID).Msg("pruned project frequency")
		}
	}

	for _, id := range projectIDs {
		if !have[id] {
			if err := s.db.Create(&models.ProjectFrequency{ProjectID: id}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
