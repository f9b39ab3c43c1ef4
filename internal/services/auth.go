package services

import (
	"errors"
	"time"

	"github.com/mirelo/perfhub/backend/internal/config"
	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/internal/utils"
	"gorm.io/gorm"
)

type AuthService struct {
	db  *gorm.DB
	jwt *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwt *config.JWTConfig) *AuthService {
	return &AuthService{db: db, jwt: jwt}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token        string           `json:"token"`
	Employee     *models.Employee `json:"employee"`
	Capabilities Capabilities     `json:"capabilities"`
	ExpireAt     time.Time        `json:"expire_at"`
}

// Login authenticates an employee and returns a JWT token plus the resolved
// capability set so the client never re-derives permissions.
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	var emp models.Employee
	if err := s.db.Where("email = ?", req.Email).First(&emp).Error; err != nil {
		return nil, errors.New("invalid email or password")
	}

	if !utils.CheckPassword(req.Password, emp.Password) {
		return nil, errors.New("invalid email or password")
	}

	token, err := utils.GenerateToken(emp.ID, emp.Email, emp.Role, s.jwt.ExpireHour)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s.db.Model(&emp).Update("last_login", now)
	emp.LastLogin = &now

	return &LoginResponse{
		Token:        token,
		Employee:     &emp,
		Capabilities: ResolvePermissions(&emp),
		ExpireAt:     now.Add(time.Duration(s.jwt.ExpireHour) * time.Hour),
	}, nil
}

func (s *AuthService) GetEmployeeByID(id uint) (*models.Employee, error) {
	var emp models.Employee
	if err := s.db.First(&emp, id).Error; err != nil {
		return nil, err
	}
	return &emp, nil
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func (s *AuthService) ChangePassword(employeeID uint, req *ChangePasswordRequest) error {
	var emp models.Employee
	if err := s.db.First(&emp, employeeID).Error; err != nil {
		return errors.New("employee not found")
	}

	if !utils.CheckPassword(req.OldPassword, emp.Password) {
		return errors.New("incorrect old password")
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	emp.Password = hashed
	return s.db.Save(&emp).Error
}

// CreateOwnerIfNotExists seeds the default account owner on first boot.
func (s *AuthService) CreateOwnerIfNotExists() error {
	var count int64
	s.db.Model(&models.Employee{}).Where("is_account_owner = ?", true).Count(&count)

	if count == 0 {
		hashed, err := utils.HashPassword("owner")
		if err != nil {
			return err
		}

		owner := models.Employee{
			Name:           "Account Owner",
			Email:          "owner@perfhub.local",
			Password:       hashed,
			Role:           "manager",
			IsAccountOwner: true,
		}

		return s.db.Create(&owner).Error
	}

	return nil
}
