package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mirelo/perfhub/backend/internal/middleware"
	"github.com/mirelo/perfhub/backend/internal/services"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/gorm"
)

type EmployeeHandler struct {
	employeeService *services.EmployeeService
}

func NewEmployeeHandler(db *gorm.DB) *EmployeeHandler {
	return &EmployeeHandler{
		employeeService: services.NewEmployeeService(db),
	}
}

// List returns the employees visible to the actor
// GET /api/employees
func (h *EmployeeHandler) List(c *gin.Context) {
	var req services.EmployeeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.employeeService.ListVisible(middleware.GetEmployeeID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// GetByID returns one visible employee
// GET /api/employees/:id
func (h *EmployeeHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid employee id")
		return
	}

	emp, err := h.employeeService.GetByID(uint(id), middleware.GetEmployeeID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, emp)
}

// GetPermissions returns the resolved capability set for an employee
// GET /api/employees/:id/permissions
func (h *EmployeeHandler) GetPermissions(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid employee id")
		return
	}

	emp, err := h.employeeService.GetByID(uint(id), middleware.GetEmployeeID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, services.ResolvePermissions(emp))
}

// Create adds an employee
// POST /api/employees
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req services.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	emp, err := h.employeeService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, emp)
}

// Update modifies an employee, including permission flags and manager
// PUT /api/employees/:id
func (h *EmployeeHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid employee id")
		return
	}

	var req services.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	emp, err := h.employeeService.Update(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, emp)
}

// Delete removes an employee
// DELETE /api/employees/:id
func (h *EmployeeHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid employee id")
		return
	}

	if err := h.employeeService.Delete(uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "employee deleted successfully"})
}
