package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mirelo/perfhub/backend/internal/config"
	"github.com/mirelo/perfhub/backend/internal/middleware"
	"github.com/mirelo/perfhub/backend/internal/services"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/gorm"
)

type ReportHandler struct {
	reportService     *services.ReportService
	evaluationService *services.EvaluationService
	scopeService      *services.ScopeService
}

func NewReportHandler(db *gorm.DB, cfg *config.Config) *ReportHandler {
	scorer := services.NewAIService(db, &cfg.OpenAI)
	return &ReportHandler{
		reportService:     services.NewReportService(db),
		evaluationService: services.NewEvaluationService(db, scorer),
		scopeService:      services.NewScopeService(db),
	}
}

// EvaluationService exposes the underlying service for queue wiring
func (h *ReportHandler) EvaluationService() *services.EvaluationService {
	return h.evaluationService
}

// Submit evaluates a report against the selected goals
// POST /api/reports
func (h *ReportHandler) Submit(c *gin.Context) {
	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	actorID := middleware.GetEmployeeID(c)
	if req.EmployeeID == 0 {
		req.EmployeeID = actorID
	}

	// When the async queue is up, hand the batch off and acknowledge;
	// otherwise score inline and return the evaluated reports. The gate runs
	// here either way so a blocked or unknown selection is rejected to the
	// actor, never silently dropped by the worker.
	queue := services.GetTaskQueue()
	if queue != nil && queue.IsAsync() {
		if err := h.evaluationService.CheckAdmissible(req.GoalIDs); err != nil {
			response.Error(c, err)
			return
		}
		if err := queue.Enqueue(&services.EvaluationTask{
			EmployeeID: req.EmployeeID,
			ActorID:    actorID,
			ReportText: req.ReportText,
			GoalIDs:    req.GoalIDs,
		}); err != nil {
			response.Error(c, err)
			return
		}
		services.LogInfo("report", "submit_queued", "Report submission queued", &actorID, c.ClientIP(),
			map[string]interface{}{"employee_id": req.EmployeeID, "goal_ids": req.GoalIDs})
		c.JSON(http.StatusAccepted, gin.H{"message": "submission queued for evaluation"})
		return
	}

	reports, err := h.evaluationService.Submit(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	services.LogInfo("report", "submit", "Report submitted and evaluated", &actorID, c.ClientIP(),
		map[string]interface{}{"employee_id": req.EmployeeID, "goal_ids": req.GoalIDs})
	response.Created(c, reports)
}

// List returns the reports visible to the actor
// GET /api/reports
func (h *ReportHandler) List(c *gin.Context) {
	var req services.ReportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	reports, err := h.reportService.ListVisible(middleware.GetEmployeeID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, reports)
}

// GetByID returns one visible report with its criterion scores
// GET /api/reports/:id
func (h *ReportHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid report id")
		return
	}

	report, err := h.reportService.GetByID(uint(id), middleware.GetEmployeeID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, report)
}

// ApplyOverride records a manager override on a report
// PUT /api/reports/:id/override
func (h *ReportHandler) ApplyOverride(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid report id")
		return
	}

	var req services.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	actorID := middleware.GetEmployeeID(c)
	report, err := h.evaluationService.ApplyOverride(uint(id), actorID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	services.LogInfo("report", "override", "Manager override applied", &actorID, c.ClientIP(),
		map[string]interface{}{"report_id": report.ID, "override_score": req.Score})
	response.Success(c, report)
}

// ClearOverride removes a manager override from a report
// DELETE /api/reports/:id/override
func (h *ReportHandler) ClearOverride(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid report id")
		return
	}

	actorID := middleware.GetEmployeeID(c)
	report, err := h.evaluationService.ClearOverride(uint(id), actorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	services.LogInfo("report", "override_clear", "Manager override cleared", &actorID, c.ClientIP(),
		map[string]interface{}{"report_id": report.ID})
	response.Success(c, report)
}

// CanOverride answers whether the actor may override a given report
// GET /api/reports/:id/can-override
func (h *ReportHandler) CanOverride(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid report id")
		return
	}

	allowed, err := h.scopeService.CanOverrideReport(uint(id), middleware.GetEmployeeID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"can_override": allowed})
}

// ResolveScope returns the actor's visibility boundary as ID sets
// GET /api/scope
func (h *ReportHandler) ResolveScope(c *gin.Context) {
	result, err := h.scopeService.ResolveScope(middleware.GetEmployeeID(c), c.Query("scope"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Summarize returns an employee's period summary with the holistic score
// GET /api/employees/:id/summary?from=2026-01-01&to=2026-04-01
func (h *ReportHandler) Summarize(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid employee id")
		return
	}

	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		response.BadRequest(c, "invalid or missing from date, expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		response.BadRequest(c, "invalid or missing to date, expected YYYY-MM-DD")
		return
	}

	summary, err := h.evaluationService.Summarize(c.Request.Context(), uint(id), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, summary)
}
