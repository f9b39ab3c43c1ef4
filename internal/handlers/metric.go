package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mirelo/perfhub/backend/internal/services"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/gorm"
)

type MetricHandler struct {
	metricService *services.MetricService
}

func NewMetricHandler(db *gorm.DB) *MetricHandler {
	return &MetricHandler{
		metricService: services.NewMetricService(db),
	}
}

// List returns all standardized metrics
// GET /api/metrics
func (h *MetricHandler) List(c *gin.Context) {
	metrics, err := h.metricService.List()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, metrics)
}

// Create adds a custom metric
// POST /api/metrics
func (h *MetricHandler) Create(c *gin.Context) {
	var req services.CreateMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	metric, err := h.metricService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, metric)
}

type metricSelectionRequest struct {
	IDs []uint `json:"ids"`
}

// SetSelection replaces the selected metric set
// PUT /api/metrics/selection
func (h *MetricHandler) SetSelection(c *gin.Context) {
	var req metricSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.metricService.SetSelection(req.IDs); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "metric selection updated"})
}

// Delete removes a metric
// DELETE /api/metrics/:id
func (h *MetricHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid metric id")
		return
	}

	if err := h.metricService.Delete(uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "metric deleted successfully"})
}
