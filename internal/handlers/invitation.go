package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mirelo/perfhub/backend/internal/middleware"
	"github.com/mirelo/perfhub/backend/internal/services"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/gorm"
)

type InvitationHandler struct {
	invitationService *services.InvitationService
}

func NewInvitationHandler(db *gorm.DB) *InvitationHandler {
	return &InvitationHandler{
		invitationService: services.NewInvitationService(db),
	}
}

// Create issues an invitation token for a new employee
// POST /api/invitations
func (h *InvitationHandler) Create(c *gin.Context) {
	var req services.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	invitation, err := h.invitationService.Create(&req, middleware.GetEmployeeID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, invitation)
}

// List returns all invitations
// GET /api/invitations
func (h *InvitationHandler) List(c *gin.Context) {
	invitations, err := h.invitationService.List()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, invitations)
}

// Accept marks an invitation accepted. Unauthenticated: the token is the
// credential.
// POST /api/invitations/accept
func (h *InvitationHandler) Accept(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	invitation, err := h.invitationService.Accept(req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, invitation)
}

// Revoke deletes a pending invitation
// DELETE /api/invitations/:id
func (h *InvitationHandler) Revoke(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid invitation id")
		return
	}

	if err := h.invitationService.Revoke(uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "invitation revoked"})
}
