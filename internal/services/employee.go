package services

import (
	"errors"
	"strings"

	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/internal/utils"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/gorm"
)

type EmployeeService struct {
	db *gorm.DB
}

func NewEmployeeService(db *gorm.DB) *EmployeeService {
	return &EmployeeService{db: db}
}

type EmployeeListRequest struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	Name     string `form:"name"`
	Role     string `form:"role"`
	Scope    string `form:"scope"` // direct-reports (default) or organization
}

type EmployeeListResponse struct {
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Items    []models.Employee `json:"items"`
}

// ListVisible returns the employees the actor may see, resolved through the
// scope rules, with in-memory filtering and pagination. The whole collection
// is fetched first because visibility is a graph property, not a row filter.
func (s *EmployeeService) ListVisible(actorID uint, req *EmployeeListRequest) (*EmployeeListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

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

	var filtered []models.Employee
	for _, e := range visible {
		if req.Name != "" && !containsFold(e.Name, req.Name) {
			continue
		}
		if req.Role != "" && e.Role != req.Role {
			continue
		}
		filtered = append(filtered, e)
	}

	total := len(filtered)
	start := (req.Page - 1) * req.PageSize
	if start > total {
		start = total
	}
	end := start + req.PageSize
	if end > total {
		end = total
	}

	return &EmployeeListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    filtered[start:end],
	}, nil
}

// GetByID returns an employee, honoring the actor's visibility: out-of-scope
// employees are reported as not found rather than forbidden. Single-row
// fetches carry no requested scope, so the org-wide capability widens them
// directly; the explicit-request rule applies only to list scopes.
func (s *EmployeeService) GetByID(id, actorID uint) (*models.Employee, error) {
	var emp models.Employee
	if err := s.db.First(&emp, id).Error; err != nil {
		return nil, err
	}

	if id == actorID {
		return &emp, nil
	}

	var actor models.Employee
	if err := s.db.First(&actor, actorID).Error; err != nil {
		return nil, err
	}
	if ResolvePermissions(&actor).CanViewOrgWide {
		return &emp, nil
	}

	var employees []models.Employee
	if err := s.db.Find(&employees).Error; err != nil {
		return nil, err
	}
	if !IsInScope(employees, &emp, actorID) {
		return nil, response.NewNotFound("employee not found")
	}
	return &emp, nil
}

type CreateEmployeeRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role" binding:"omitempty,oneof=manager employee"`
	ManagerID *uint  `json:"manager_id"`
}

func (s *EmployeeService) Create(req *CreateEmployeeRequest) (*models.Employee, error) {
	var existing models.Employee
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, response.NewConflict("email already registered")
	}

	if req.ManagerID != nil {
		var manager models.Employee
		if err := s.db.First(&manager, *req.ManagerID).Error; err != nil {
			return nil, response.NewValidation("manager does not exist")
		}
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = "employee"
	}

	emp := models.Employee{
		Name:      req.Name,
		Email:     req.Email,
		Password:  hash,
		Role:      role,
		ManagerID: req.ManagerID,
	}
	if err := s.db.Create(&emp).Error; err != nil {
		return nil, err
	}
	return &emp, nil
}

type UpdateEmployeeRequest struct {
	Name                  *string `json:"name"`
	Role                  *string `json:"role" binding:"omitempty,oneof=manager employee"`
	ManagerID             *uint   `json:"manager_id"`
	ClearManager          bool    `json:"clear_manager"`
	CanSetGlobalFrequency *bool   `json:"can_set_global_frequency"`
	CanViewOrgWide        *bool   `json:"can_view_org_wide"`
	CanManageSettings     *bool   `json:"can_manage_settings"`
}

func (s *EmployeeService) Update(id uint, req *UpdateEmployeeRequest) (*models.Employee, error) {
	var emp models.Employee
	if err := s.db.First(&emp, id).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.ClearManager {
		updates["manager_id"] = nil
	} else if req.ManagerID != nil {
		if *req.ManagerID == id {
			return nil, response.NewValidation("an employee cannot manage themselves")
		}
		updates["manager_id"] = *req.ManagerID
	}
	if req.CanSetGlobalFrequency != nil {
		updates["can_set_global_frequency"] = *req.CanSetGlobalFrequency
	}
	if req.CanViewOrgWide != nil {
		updates["can_view_org_wide"] = *req.CanViewOrgWide
	}
	if req.CanManageSettings != nil {
		updates["can_manage_settings"] = *req.CanManageSettings
	}

	if len(updates) > 0 {
		if err := s.db.Model(&emp).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	s.db.First(&emp, id)
	return &emp, nil
}

func (s *EmployeeService) Delete(id uint) error {
	var emp models.Employee
	if err := s.db.First(&emp, id).Error; err != nil {
		return err
	}
	if emp.IsAccountOwner {
		return response.NewPolicyDenied("the account owner cannot be deleted")
	}
	return s.db.Delete(&models.Employee{}, id).Error
}

// GetByEmail is used by the auth flow.
func (s *EmployeeService) GetByEmail(email string) (*models.Employee, error) {
	var emp models.Employee
	if err := s.db.Where("email = ?", email).First(&emp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
