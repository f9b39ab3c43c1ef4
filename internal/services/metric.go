package services

import (
	"github.com/mirelo/perfhub/backend/internal/models"
	"gorm.io/gorm"
)

// MetricService manages the standardized cross-project metrics that feed
// holistic score blending.
type MetricService struct {
	db *gorm.DB
}

func NewMetricService(db *gorm.DB) *MetricService {
	return &MetricService{db: db}
}

func (s *MetricService) List() ([]models.Metric, error) {
	var metrics []models.Metric
	if err := s.db.Order("name ASC").Find(&metrics).Error; err != nil {
		return nil, err
	}
	return metrics, nil
}

type CreateMetricRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Selected    bool   `json:"selected"`
}

func (s *MetricService) Create(req *CreateMetricRequest) (*models.Metric, error) {
	metric := models.Metric{
		Name:        req.Name,
		Description: req.Description,
		Selected:    req.Selected,
	}
	if err := s.db.Create(&metric).Error; err != nil {
		return nil, err
	}
	return &metric, nil
}

// SetSelection marks exactly the given metric ids as selected.
func (s *MetricService) SetSelection(ids []uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Metric{}).Where("selected = ?", true).Update("selected", false).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&models.Metric{}).Where("id IN ?", ids).Update("selected", true).Error
	})
}

func (s *MetricService) Delete(id uint) error {
	return s.db.Delete(&models.Metric{}, id).Error
}
