package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/pkg/logger"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/gorm"
)

// EvaluationService turns raw per-criterion AI scores into canonical,
// optionally overridden evaluation results, and owns the report submission
// flow end to end: gate check, per-goal scoring, all-or-nothing persistence.
type EvaluationService struct {
	db     *gorm.DB
	scorer Scorer
}

func NewEvaluationService(db *gorm.DB, scorer Scorer) *EvaluationService {
	return &EvaluationService{db: db, scorer: scorer}
}

// WeightedScore computes the weighted average of the AI scores over the
// goal's criteria. The denominator is the actual sum of the weights that
// received a score, never a hard-coded 100, so a goal whose weights drifted
// from the creation-time check still aggregates sanely. Criteria the AI
// skipped are returned as gaps; out-of-range scores pass through on the AI
// service's declared range contract.
func WeightedScore(criteria []models.Criterion, scores []ScoredCriterion) (float64, []string) {
	byName := make(map[string]float64, len(scores))
	for _, s := range scores {
		byName[s.CriterionName] = s.Score
	}

	var weightedSum float64
	var weightTotal int
	var missing []string

	for _, c := range criteria {
		score, ok := byName[c.Name]
		if !ok {
			missing = append(missing, c.Name)
			continue
		}
		weightedSum += score * float64(c.Weight)
		weightTotal += c.Weight
	}

	if weightTotal == 0 {
		return 0, missing
	}
	return weightedSum / float64(weightTotal), missing
}

// uniqueIDs drops duplicate IDs, keeping first-seen order.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// SubmitRequest is one report text submitted against one or more goals.
type SubmitRequest struct {
	EmployeeID uint   `json:"employee_id"`
	ReportText string `json:"report_text" binding:"required"`
	GoalIDs    []uint `json:"goal_ids" binding:"required,min=1"`
}

// Submit evaluates the report text against every selected goal and persists
// one Report row per goal, all sharing the same text and submission date.
//
// The gate runs per goal before any AI call. AI calls are sequential and
// fail-fast: one failure aborts the whole batch and nothing is persisted.
// The store gives no multi-row transaction guarantee across entity types, so
// the all-or-nothing write is done here in one transaction.
func (s *EvaluationService) Submit(ctx context.Context, req *SubmitRequest) ([]models.Report, error) {
	goalIDs := uniqueIDs(req.GoalIDs)

	var settings models.ManagerSettings
	if err := s.db.First(&settings).Error; err != nil {
		return nil, err
	}

	var goals []models.Goal
	if err := s.db.Preload("Criteria").Where("id IN ?", goalIDs).Find(&goals).Error; err != nil {
		return nil, err
	}
	if len(goals) != len(goalIDs) {
		return nil, response.NewNotFound("one or more selected goals do not exist")
	}

	now := time.Now()
	if err := CheckSubmission(goals, &settings, now); err != nil {
		return nil, err
	}

	// One AI call per goal, issued sequentially to bound load on the scoring
	// service. The first failure aborts the batch before anything is written.
	reports := make([]models.Report, 0, len(goals))
	for i := range goals {
		goal := &goals[i]

		criteria := make([]CriterionWeight, 0, len(goal.Criteria))
		for _, c := range goal.Criteria {
			criteria = append(criteria, CriterionWeight{Name: c.Name, Weight: c.Weight})
		}

		result, err := s.scorer.Score(ctx, &ScoringRequest{
			ReportText:   req.ReportText,
			Criteria:     criteria,
			Instructions: goal.Instructions,
		})
		if err != nil {
			logger.Error().Err(err).Uint("goal_id", goal.ID).Msg("scoring failed, aborting submission batch")
			return nil, response.NewUpstreamFailure(fmt.Sprintf("scoring failed for goal %q: %v", goal.Name, err))
		}

		score, missing := WeightedScore(goal.Criteria, result.CriteriaScores)
		for _, name := range missing {
			logger.Warn().Uint("goal_id", goal.ID).Str("criterion", name).Msg("AI response missing criterion score")
		}

		report := models.Report{
			EmployeeID:      req.EmployeeID,
			GoalID:          goal.ID,
			ReportText:      req.ReportText,
			SubmissionDate:  now,
			Reasoning:       result.Reasoning,
			EvaluationScore: score,
		}
		for _, cs := range result.CriteriaScores {
			report.CriterionScores = append(report.CriterionScores, models.CriterionScore{
				CriterionName: cs.CriterionName,
				Score:         cs.Score,
			})
		}
		reports = append(reports, report)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range reports {
			if err := tx.Create(&reports[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Uint("employee_id", req.EmployeeID).Int("goals", len(reports)).Msg("submission evaluated and persisted")
	return reports, nil
}

// CheckAdmissible runs the submission gate for a goal selection without
// scoring anything. The queued submission path uses it so a blocked or
// unknown selection is rejected to the actor instead of failing later in the
// worker.
func (s *EvaluationService) CheckAdmissible(goalIDs []uint) error {
	goalIDs = uniqueIDs(goalIDs)

	var settings models.ManagerSettings
	if err := s.db.First(&settings).Error; err != nil {
		return err
	}

	var goals []models.Goal
	if err := s.db.Where("id IN ?", goalIDs).Find(&goals).Error; err != nil {
		return err
	}
	if len(goals) != len(goalIDs) {
		return response.NewNotFound("one or more selected goals do not exist")
	}

	return CheckSubmission(goals, &settings, time.Now())
}

// OverrideRequest sets or replaces a manager override on a report.
type OverrideRequest struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// ApplyOverride records a manager override score with its mandatory
// reasoning. Only the employee's direct manager may write one. The override
// never touches EvaluationScore or the criterion scores; it is a parallel,
// display-precedent value.
func (s *EvaluationService) ApplyOverride(reportID, actorID uint, req *OverrideRequest) (*models.Report, error) {
	if req.Score < 0 || req.Score > 10 {
		return nil, response.NewValidation("override score must be between 0 and 10")
	}
	if req.Reasoning == "" {
		return nil, response.NewValidation("override reasoning is required")
	}

	var report models.Report
	if err := s.db.First(&report, reportID).Error; err != nil {
		return nil, response.NewNotFound("report not found")
	}

	var emp models.Employee
	if err := s.db.First(&emp, report.EmployeeID).Error; err != nil {
		return nil, err
	}
	if !CanOverride(&emp, actorID) {
		return nil, response.NewPolicyDenied("only the employee's direct manager may override an evaluation")
	}

	updates := map[string]interface{}{
		"manager_overall_score":      req.Score,
		"manager_override_reasoning": req.Reasoning,
	}
	if err := s.db.Model(&report).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.notifyOverride(&emp, &report, req)

	s.db.Preload("CriterionScores").First(&report, reportID)
	return &report, nil
}

// notifyOverride posts a webhook notice for the override. Best effort; a
// webhook failure never fails the override itself.
func (s *EvaluationService) notifyOverride(emp *models.Employee, report *models.Report, req *OverrideRequest) {
	var settings models.ManagerSettings
	if err := s.db.First(&settings).Error; err != nil {
		return
	}

	var goal models.Goal
	s.db.First(&goal, report.GoalID)

	notice := &OverrideNotification{
		EmployeeName:  emp.Name,
		GoalName:      goal.Name,
		OriginalScore: report.EvaluationScore,
		OverrideScore: req.Score,
		Reasoning:     req.Reasoning,
	}
	if err := NewNotificationService(s.db).SendOverrideNotice(&settings, notice); err != nil {
		logger.Warnf("Override webhook notice failed: %v", err)
	}
}

// ClearOverride removes an override. Both fields clear together; a report
// never carries a score without reasoning or vice versa.
func (s *EvaluationService) ClearOverride(reportID, actorID uint) (*models.Report, error) {
	var report models.Report
	if err := s.db.First(&report, reportID).Error; err != nil {
		return nil, response.NewNotFound("report not found")
	}

	var emp models.Employee
	if err := s.db.First(&emp, report.EmployeeID).Error; err != nil {
		return nil, err
	}
	if !CanOverride(&emp, actorID) {
		return nil, response.NewPolicyDenied("only the employee's direct manager may clear an override")
	}

	updates := map[string]interface{}{
		"manager_overall_score":      nil,
		"manager_override_reasoning": "",
	}
	if err := s.db.Model(&report).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.db.Preload("CriterionScores").First(&report, reportID)
	return &report, nil
}

// AverageEvaluationScore is the plain average over a report set.
func AverageEvaluationScore(reports []models.Report) float64 {
	if len(reports) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reports {
		sum += r.EvaluationScore
	}
	return sum / float64(len(reports))
}

// HolisticScore blends the average report evaluation score with the average
// of the standardized metric scores, 50/50. The blend is deliberately not
// configurable. With no metric scores it is just the report average.
func HolisticScore(reports []models.Report, metricScores []float64) float64 {
	reportAvg := AverageEvaluationScore(reports)
	if len(metricScores) == 0 {
		return reportAvg
	}

	var metricSum float64
	for _, s := range metricScores {
		metricSum += s
	}
	metricAvg := metricSum / float64(len(metricScores))

	return (reportAvg + metricAvg) / 2
}

// PeriodSummary is an employee's headline performance figure for a period.
type PeriodSummary struct {
	EmployeeID    uint      `json:"employee_id"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	ReportCount   int       `json:"report_count"`
	AverageScore  float64   `json:"average_score"`
	HolisticScore float64   `json:"holistic_score"`
	MetricsUsed   []string  `json:"metrics_used,omitempty"`
}

// Summarize computes the period summary for an employee. When the
// organization has selected standardized metrics, the period's report texts
// are AI-analyzed against them and blended in; otherwise the summary is the
// plain report average. A metric-analysis failure degrades to the plain
// average rather than failing the summary.
func (s *EvaluationService) Summarize(ctx context.Context, employeeID uint, from, to time.Time) (*PeriodSummary, error) {
	var reports []models.Report
	if err := s.db.Where("employee_id = ? AND submission_date >= ? AND submission_date < ?", employeeID, from, to).
		Find(&reports).Error; err != nil {
		return nil, err
	}

	summary := &PeriodSummary{
		EmployeeID:   employeeID,
		From:         from,
		To:           to,
		ReportCount:  len(reports),
		AverageScore: AverageEvaluationScore(reports),
	}

	var metrics []models.Metric
	s.db.Where("selected = ?", true).Find(&metrics)
	if len(metrics) == 0 || len(reports) == 0 {
		summary.HolisticScore = summary.AverageScore
		return summary, nil
	}

	metricScores, names, err := s.analyzeMetrics(ctx, reports, metrics)
	if err != nil {
		logger.Warn().Err(err).Uint("employee_id", employeeID).Msg("metric analysis failed, using report average only")
		summary.HolisticScore = summary.AverageScore
		return summary, nil
	}

	summary.MetricsUsed = names
	summary.HolisticScore = HolisticScore(reports, metricScores)
	return summary, nil
}

// analyzeMetrics scores the period's combined report text against the
// selected metrics, treated as equally weighted criteria.
func (s *EvaluationService) analyzeMetrics(ctx context.Context, reports []models.Report, metrics []models.Metric) ([]float64, []string, error) {
	var combined string
	for _, r := range reports {
		combined += r.ReportText + "\n\n"
	}

	criteria := make([]CriterionWeight, 0, len(metrics))
	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		criteria = append(criteria, CriterionWeight{Name: m.Name, Weight: 1})
		names = append(names, m.Name)
	}

	result, err := s.scorer.Score(ctx, &ScoringRequest{
		ReportText:   combined,
		Criteria:     criteria,
		Instructions: "Assess the reports against the organization's standardized metrics.",
	})
	if err != nil {
		return nil, nil, err
	}

	scores := make([]float64, 0, len(result.CriteriaScores))
	for _, cs := range result.CriteriaScores {
		scores = append(scores, cs.Score)
	}
	return scores, names, nil
}
