package services

import (
	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type ProjectListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Name     string `form:"name"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

// List returns paginated projects
func (s *ProjectService) List(req *ProjectListRequest) (*ProjectListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var projects []models.Project
	var total int64

	query := s.db.Model(&models.Project{})
	if req.Name != "" {
		query = query.Where("name LIKE ?", "%"+req.Name+"%")
	}
	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Assignees").Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

func (s *ProjectService) GetByID(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Preload("Assignees").First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	AssigneeIDs []uint `json:"assignee_ids"`
}

func (s *ProjectService) Create(req *CreateProjectRequest, createdBy uint) (*models.Project, error) {
	for _, id := range req.AssigneeIDs {
		var emp models.Employee
		if err := s.db.First(&emp, id).Error; err != nil {
			return nil, response.NewValidation("assignee does not exist")
		}
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   createdBy,
	}
	for _, id := range req.AssigneeIDs {
		project.Assignees = append(project.Assignees, models.ProjectAssignee{EmployeeID: id})
	}

	if err := s.db.Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	AssigneeIDs []uint  `json:"assignee_ids"`
}

func (s *ProjectService) Update(id uint, req *UpdateProjectRequest) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if len(updates) > 0 {
			if err := tx.Model(&project).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.AssigneeIDs != nil {
			if err := tx.Where("project_id = ?", id).Delete(&models.ProjectAssignee{}).Error; err != nil {
				return err
			}
			for _, empID := range req.AssigneeIDs {
				if err := tx.Create(&models.ProjectAssignee{ProjectID: id, EmployeeID: empID}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Assignees").First(&project, id)
	return &project, nil
}

func (s *ProjectService) Delete(id uint) error {
	var count int64
	s.db.Model(&models.Goal{}).Where("project_id = ?", id).Count(&count)
	if count > 0 {
		return response.NewConflict("project has goals and cannot be deleted")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectAssignee{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
}
