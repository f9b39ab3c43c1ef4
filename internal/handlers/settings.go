package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mirelo/perfhub/backend/internal/middleware"
	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/internal/services"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/gorm"
)

type SettingsHandler struct {
	db               *gorm.DB
	settingsService  *services.SettingsService
	frequencyService *services.FrequencyService
	holidayService   *services.HolidayService
}

func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{
		db:               db,
		settingsService:  services.NewSettingsService(db),
		frequencyService: services.NewFrequencyService(db),
		holidayService:   services.NewHolidayService(),
	}
}

// actorCapabilities resolves the capability set for the logged-in employee.
func (h *SettingsHandler) actorCapabilities(c *gin.Context) (services.Capabilities, error) {
	var actor models.Employee
	if err := h.db.First(&actor, middleware.GetEmployeeID(c)).Error; err != nil {
		return services.Capabilities{}, err
	}
	return services.ResolvePermissions(&actor), nil
}

// Get returns the organization settings
// GET /api/settings
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settingsService.Get()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, settings)
}

// Update modifies the organization settings
// PUT /api/settings
func (h *SettingsHandler) Update(c *gin.Context) {
	caps, err := h.actorCapabilities(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req services.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	settings, err := h.settingsService.Update(caps, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, settings)
}

// GetHolidayCountries lists the supported reminder calendars
// GET /api/settings/holiday-countries
func (h *SettingsHandler) GetHolidayCountries(c *gin.Context) {
	response.Success(c, h.holidayService.GetSupportedCountries())
}

// ResolveFrequency returns the effective cadence for an employee/project pair
// GET /api/frequency?employee_id=1&project_id=2
func (h *SettingsHandler) ResolveFrequency(c *gin.Context) {
	employeeID, _ := strconv.ParseUint(c.Query("employee_id"), 10, 32)
	projectID, _ := strconv.ParseUint(c.Query("project_id"), 10, 32)
	if employeeID == 0 {
		response.BadRequest(c, "employee_id is required")
		return
	}

	result, err := h.frequencyService.Resolve(uint(employeeID), uint(projectID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateGlobalFrequency changes the organization-wide cadence
// PUT /api/frequency/global
func (h *SettingsHandler) UpdateGlobalFrequency(c *gin.Context) {
	caps, err := h.actorCapabilities(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req services.UpdateGlobalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	settings, err := h.frequencyService.UpdateGlobal(caps, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, settings)
}

type setDaysRequest struct {
	SelectedDays []string `json:"selected_days" binding:"required"`
}

// SetEmployeeDays sets the per-employee cadence
// PUT /api/frequency/employees/:id
func (h *SettingsHandler) SetEmployeeDays(c *gin.Context) {
	caps, err := h.actorCapabilities(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid employee id")
		return
	}

	var req setDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.frequencyService.SetEmployeeDays(caps, uint(id), req.SelectedDays); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "employee frequency updated"})
}

// SetProjectDays sets the per-project cadence
// PUT /api/frequency/projects/:id
func (h *SettingsHandler) SetProjectDays(c *gin.Context) {
	caps, err := h.actorCapabilities(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req setDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.frequencyService.SetProjectDays(caps, uint(id), req.SelectedDays); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "project frequency updated"})
}

type syncSelectionRequest struct {
	IDs []uint `json:"ids"`
}

// SyncEmployeeSelection reconciles per-employee entries with a new selection
// PUT /api/frequency/employees
func (h *SettingsHandler) SyncEmployeeSelection(c *gin.Context) {
	caps, err := h.actorCapabilities(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req syncSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.frequencyService.SyncEmployeeSelection(caps, req.IDs); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "employee selection synced"})
}

// SyncProjectSelection reconciles per-project entries with a new selection
// PUT /api/frequency/projects
func (h *SettingsHandler) SyncProjectSelection(c *gin.Context) {
	caps, err := h.actorCapabilities(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req syncSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.frequencyService.SyncProjectSelection(caps, req.IDs); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "project selection synced"})
}
