package services

import (
	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/gorm"
)

// SettingsService manages the organization-scoped settings row. Writes
// require the manage-settings capability; the global-frequency asymmetry is
// enforced in FrequencyService.
type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

func (s *SettingsService) Get() (*models.ManagerSettings, error) {
	var settings models.ManagerSettings
	if err := s.db.First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

type UpdateSettingsRequest struct {
	AllowLateSubmissions *bool   `json:"allow_late_submissions"`
	HolidayCountry       *string `json:"holiday_country"`
	WebhookEnabled       *bool   `json:"webhook_enabled"`
	WebhookURL           *string `json:"webhook_url"`
	WebhookFormat        *string `json:"webhook_format"`
}

func (s *SettingsService) Update(caps Capabilities, req *UpdateSettingsRequest) (*models.ManagerSettings, error) {
	if !caps.CanManageSettings {
		return nil, response.NewPolicyDenied("managing settings requires the manage-settings permission")
	}

	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.AllowLateSubmissions != nil {
		updates["allow_late_submissions"] = *req.AllowLateSubmissions
	}
	if req.HolidayCountry != nil {
		updates["holiday_country"] = *req.HolidayCountry
	}
	if req.WebhookEnabled != nil {
		updates["webhook_enabled"] = *req.WebhookEnabled
	}
	if req.WebhookURL != nil {
		updates["webhook_url"] = *req.WebhookURL
	}
	if req.WebhookFormat != nil {
		updates["webhook_format"] = *req.WebhookFormat
	}
	if len(updates) > 0 {
		if err := s.db.Model(settings).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get()
}
