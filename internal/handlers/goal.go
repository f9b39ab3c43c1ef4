package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mirelo/perfhub/backend/internal/middleware"
	"github.com/mirelo/perfhub/backend/internal/services"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/gorm"
)

type GoalHandler struct {
	goalService *services.GoalService
}

func NewGoalHandler(db *gorm.DB) *GoalHandler {
	return &GoalHandler{
		goalService: services.NewGoalService(db),
	}
}

// List returns goals, optionally filtered by project
// GET /api/goals
func (h *GoalHandler) List(c *gin.Context) {
	var req services.GoalListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	goals, err := h.goalService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, goals)
}

// GetByID returns one goal with its criteria
// GET /api/goals/:id
func (h *GoalHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid goal id")
		return
	}

	goal, err := h.goalService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "goal not found")
		return
	}

	response.Success(c, goal)
}

// Create adds a goal with its weighted criteria
// POST /api/goals
func (h *GoalHandler) Create(c *gin.Context) {
	var req services.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	goal, err := h.goalService.Create(&req, middleware.GetEmployeeID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, goal)
}

// Update modifies a goal, replacing its criteria when provided
// PUT /api/goals/:id
func (h *GoalHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid goal id")
		return
	}

	var req services.UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	goal, err := h.goalService.Update(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, goal)
}

// Delete removes a goal
// DELETE /api/goals/:id
func (h *GoalHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid goal id")
		return
	}

	if err := h.goalService.Delete(uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "goal deleted successfully"})
}
