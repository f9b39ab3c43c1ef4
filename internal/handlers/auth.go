package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirelo/perfhub/backend/internal/config"
	"github.com/mirelo/perfhub/backend/internal/middleware"
	"github.com/mirelo/perfhub/backend/internal/services"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: services.NewAuthService(db, &cfg.JWT),
	}
}

// Login handles employee login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		services.LogWarning("auth", "login_failed", "Login failed for "+req.Email, nil, c.ClientIP(), nil)
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	services.LogInfo("auth", "login", "Employee logged in", &resp.Employee.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, resp)
}

// GetCurrentEmployee returns the logged-in employee with resolved capabilities
// GET /api/auth/me
func (h *AuthHandler) GetCurrentEmployee(c *gin.Context) {
	emp, err := h.authService.GetEmployeeByID(middleware.GetEmployeeID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"employee":     emp,
		"capabilities": services.ResolvePermissions(emp),
	})
}

// ChangePassword updates the logged-in employee's password
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.ChangePassword(middleware.GetEmployeeID(c), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed successfully"})
}

// Logout handles employee logout (client-side token removal)
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

// CreateOwnerIfNotExists seeds the default account owner
func (h *AuthHandler) CreateOwnerIfNotExists() error {
	return h.authService.CreateOwnerIfNotExists()
}
