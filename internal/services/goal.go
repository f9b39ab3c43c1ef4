package services

import (
	"fmt"
	"time"

	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/gorm"
)

type GoalService struct {
	db *gorm.DB
}

func NewGoalService(db *gorm.DB) *GoalService {
	return &GoalService{db: db}
}

type CriterionInput struct {
	Name   string `json:"name" binding:"required"`
	Weight int    `json:"weight" binding:"required"`
}

type CreateGoalRequest struct {
	ProjectID    uint             `json:"project_id" binding:"required"`
	Name         string           `json:"name" binding:"required"`
	Instructions string           `json:"instructions"`
	Deadline     *time.Time       `json:"deadline"`
	Criteria     []CriterionInput `json:"criteria" binding:"required,min=1"`
}

// validateCriteria enforces the creation-time invariant: weights are positive
// integers summing to exactly 100.
func validateCriteria(criteria []CriterionInput) error {
	sum := 0
	for _, c := range criteria {
		if c.Weight <= 0 {
			return response.NewValidation(fmt.Sprintf("criterion %q must have a positive weight", c.Name))
		}
		sum += c.Weight
	}
	if sum != 100 {
		return response.NewValidation(fmt.Sprintf("criteria weights must sum to 100, got %d", sum))
	}
	return nil
}

func (s *GoalService) Create(req *CreateGoalRequest, createdBy uint) (*models.Goal, error) {
	if err := validateCriteria(req.Criteria); err != nil {
		return nil, err
	}

	var project models.Project
	if err := s.db.First(&project, req.ProjectID).Error; err != nil {
		return nil, response.NewValidation("project does not exist")
	}

	goal := models.Goal{
		ProjectID:    req.ProjectID,
		Name:         req.Name,
		Instructions: req.Instructions,
		Deadline:     req.Deadline,
		CreatedBy:    createdBy,
	}
	for _, c := range req.Criteria {
		goal.Criteria = append(goal.Criteria, models.Criterion{Name: c.Name, Weight: c.Weight})
	}

	if err := s.db.Create(&goal).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

type UpdateGoalRequest struct {
	Name          *string          `json:"name"`
	Instructions  *string          `json:"instructions"`
	Deadline      *time.Time       `json:"deadline"`
	ClearDeadline bool             `json:"clear_deadline"`
	Criteria      []CriterionInput `json:"criteria"`
}

func (s *GoalService) Update(id uint, req *UpdateGoalRequest) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.First(&goal, id).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Instructions != nil {
		updates["instructions"] = *req.Instructions
	}
	if req.ClearDeadline {
		updates["deadline"] = nil
	} else if req.Deadline != nil {
		updates["deadline"] = *req.Deadline
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&goal).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Criteria != nil {
			// Replacing criteria re-runs the sum check; partial edits that
			// would leave the weights off 100 are rejected whole.
			if err := validateCriteria(req.Criteria); err != nil {
				return err
			}
			if err := tx.Where("goal_id = ?", id).Delete(&models.Criterion{}).Error; err != nil {
				return err
			}
			for _, c := range req.Criteria {
				if err := tx.Create(&models.Criterion{GoalID: id, Name: c.Name, Weight: c.Weight}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Criteria").First(&goal, id)
	return &goal, nil
}

func (s *GoalService) GetByID(id uint) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.Preload("Criteria").First(&goal, id).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

type GoalListRequest struct {
	ProjectID uint `form:"project_id"`
}

func (s *GoalService) List(req *GoalListRequest) ([]models.Goal, error) {
	var goals []models.Goal
	query := s.db.Preload("Criteria")
	if req.ProjectID != 0 {
		query = query.Where("project_id = ?", req.ProjectID)
	}
	if err := query.Order("created_at DESC").Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (s *GoalService) Delete(id uint) error {
	var count int64
	s.db.Model(&models.Report{}).Where("goal_id = ?", id).Count(&count)
	if count > 0 {
		return response.NewConflict("goal has evaluated reports and cannot be deleted")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ?", id).Delete(&models.Criterion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Goal{}, id).Error
	})
}
