package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/gorm"
)

// InvitationService creates and lists pending invites. Token delivery and the
// rest of the token lifecycle are outside the engine's scope.
type InvitationService struct {
	db *gorm.DB
}

func NewInvitationService(db *gorm.DB) *InvitationService {
	return &InvitationService{db: db}
}

const invitationTTL = 14 * 24 * time.Hour

type CreateInvitationRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"omitempty,oneof=manager employee"`
}

func (s *InvitationService) Create(req *CreateInvitationRequest, invitedBy uint) (*models.Invitation, error) {
	var existing models.Employee
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, response.NewConflict("email already belongs to an employee")
	}

	role := req.Role
	if role == "" {
		role = "employee"
	}

	inv := models.Invitation{
		Email:     req.Email,
		Token:     uuid.NewString(),
		Role:      role,
		InvitedBy: invitedBy,
		ExpiresAt: time.Now().Add(invitationTTL),
	}
	if err := s.db.Create(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *InvitationService) List() ([]models.Invitation, error) {
	var invitations []models.Invitation
	if err := s.db.Order("created_at DESC").Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// Accept marks the invitation accepted. Creating the employee record is the
// caller's concern.
func (s *InvitationService) Accept(token string) (*models.Invitation, error) {
	var inv models.Invitation
	if err := s.db.Where("token = ?", token).First(&inv).Error; err != nil {
		return nil, response.NewNotFound("invitation not found")
	}
	if inv.AcceptedAt != nil {
		return nil, response.NewConflict("invitation already accepted")
	}
	if time.Now().After(inv.ExpiresAt) {
		return nil, response.NewValidation("invitation has expired")
	}

	now := time.Now()
	if err := s.db.Model(&inv).Update("accepted_at", now).Error; err != nil {
		return nil, err
	}
	inv.AcceptedAt = &now
	return &inv, nil
}

func (s *InvitationService) Revoke(id uint) error {
	return s.db.Delete(&models.Invitation{}, id).Error
}
