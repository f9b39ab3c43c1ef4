package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/pkg/response"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Employee{},
		&models.Project{},
		&models.Goal{},
		&models.Criterion{},
		&models.Report{},
		&models.CriterionScore{},
		&models.ManagerSettings{},
		&models.EmployeeFrequency{},
		&models.ProjectFrequency{},
		&models.Metric{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// stubScorer returns a fixed score for every requested criterion, failing
// outright from the failOn-th call onward.
type stubScorer struct {
	calls  int
	failOn int // 1-based call index that starts failing; 0 never fails
	score  float64
}

func (s *stubScorer) Score(ctx context.Context, req *ScoringRequest) (*ScoringResult, error) {
	s.calls++
	if s.failOn != 0 && s.calls >= s.failOn {
		return nil, errors.New("model unavailable")
	}

	result := &ScoringResult{Reasoning: "stub"}
	for _, c := range req.Criteria {
		result.CriteriaScores = append(result.CriteriaScores, ScoredCriterion{
			CriterionName: c.Name,
			Score:         s.score,
		})
	}
	return result, nil
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWeightedScore(t *testing.T) {
	criteria := []models.Criterion{
		{Name: "Code Quality", Weight: 60},
		{Name: "Communication", Weight: 40},
	}
	scores := []ScoredCriterion{
		{CriterionName: "Code Quality", Score: 8},
		{CriterionName: "Communication", Score: 5},
	}

	got, missing := WeightedScore(criteria, scores)

	if !almostEqual(got, 6.8) {
		t.Errorf("WeightedScore = %v, want 6.8", got)
	}
	if len(missing) != 0 {
		t.Errorf("unexpected missing criteria: %v", missing)
	}
}

// The weighted average stays inside the range of its inputs whatever the
// weights are.
func TestWeightedScore_InsideInputRange(t *testing.T) {
	tests := []struct {
		name    string
		weights []int
		scores  []float64
	}{
		{"even split", []int{50, 50}, []float64{3, 9}},
		{"lopsided", []int{90, 10}, []float64{2, 10}},
		{"three criteria", []int{20, 30, 50}, []float64{4, 7, 9}},
		{"weights not summing to 100", []int{3, 7}, []float64{6, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var criteria []models.Criterion
			var scored []ScoredCriterion
			lo, hi := tt.scores[0], tt.scores[0]
			for i, w := range tt.weights {
				name := string(rune('a' + i))
				criteria = append(criteria, models.Criterion{Name: name, Weight: w})
				scored = append(scored, ScoredCriterion{CriterionName: name, Score: tt.scores[i]})
				lo = math.Min(lo, tt.scores[i])
				hi = math.Max(hi, tt.scores[i])
			}

			got, _ := WeightedScore(criteria, scored)
			if got < lo || got > hi {
				t.Errorf("WeightedScore = %v, outside input range [%v, %v]", got, lo, hi)
			}
		})
	}
}

// A criterion the AI skipped drops out of both the numerator and the
// denominator and is reported as a gap.
func TestWeightedScore_MissingCriterion(t *testing.T) {
	criteria := []models.Criterion{
		{Name: "a", Weight: 60},
		{Name: "b", Weight: 40},
	}
	scores := []ScoredCriterion{
		{CriterionName: "a", Score: 8},
	}

	got, missing := WeightedScore(criteria, scores)

	if !almostEqual(got, 8) {
		t.Errorf("WeightedScore = %v, want 8 (only scored criterion)", got)
	}
	if len(missing) != 1 || missing[0] != "b" {
		t.Errorf("missing = %v, want [b]", missing)
	}
}

func TestWeightedScore_NoScores(t *testing.T) {
	criteria := []models.Criterion{{Name: "a", Weight: 100}}

	got, missing := WeightedScore(criteria, nil)

	if got != 0 {
		t.Errorf("WeightedScore = %v, want 0 with no scores", got)
	}
	if len(missing) != 1 {
		t.Errorf("missing = %v, want one entry", missing)
	}
}

func TestAverageEvaluationScore(t *testing.T) {
	if got := AverageEvaluationScore(nil); got != 0 {
		t.Errorf("empty set average = %v, want 0", got)
	}

	reports := []models.Report{
		{EvaluationScore: 6},
		{EvaluationScore: 8},
	}
	if got := AverageEvaluationScore(reports); !almostEqual(got, 7) {
		t.Errorf("average = %v, want 7", got)
	}
}

func TestHolisticScore(t *testing.T) {
	reports := []models.Report{
		{EvaluationScore: 6},
		{EvaluationScore: 8},
	}

	// No metrics: plain report average.
	if got := HolisticScore(reports, nil); !almostEqual(got, 7) {
		t.Errorf("HolisticScore without metrics = %v, want 7", got)
	}

	// Metrics present: fixed 50/50 blend.
	got := HolisticScore(reports, []float64{9, 10})
	want := (7.0 + 9.5) / 2
	if !almostEqual(got, want) {
		t.Errorf("HolisticScore = %v, want %v", got, want)
	}
}

func TestSubmit_PersistsOneReportPerGoal(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.ManagerSettings{AllowLateSubmissions: true})
	seedGoal(t, db, "alpha", nil)
	seedGoal(t, db, "beta", nil)

	svc := NewEvaluationService(db, &stubScorer{score: 7})

	reports, err := svc.Submit(context.Background(), &SubmitRequest{
		EmployeeID: 1,
		ReportText: "shipped the thing",
		GoalIDs:    []uint{1, 2},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}

	for _, r := range reports {
		if r.ReportText != "shipped the thing" {
			t.Errorf("report text = %q", r.ReportText)
		}
		if !almostEqual(r.EvaluationScore, 7) {
			t.Errorf("EvaluationScore = %v, want 7", r.EvaluationScore)
		}
		if r.ManagerOverallScore != nil {
			t.Error("fresh report must not carry an override")
		}
	}
	if !reports[0].SubmissionDate.Equal(reports[1].SubmissionDate) {
		t.Error("batch reports should share one submission date")
	}

	var count int64
	db.Model(&models.Report{}).Count(&count)
	if count != 2 {
		t.Errorf("persisted %d reports, want 2", count)
	}
}

// One scoring failure mid-batch leaves no rows behind.
func TestSubmit_PartialFailurePersistsNothing(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.ManagerSettings{AllowLateSubmissions: true})
	seedGoal(t, db, "alpha", nil)
	seedGoal(t, db, "beta", nil)
	seedGoal(t, db, "gamma", nil)

	scorer := &stubScorer{score: 7, failOn: 2}
	svc := NewEvaluationService(db, scorer)

	_, err := svc.Submit(context.Background(), &SubmitRequest{
		EmployeeID: 1,
		ReportText: "partial",
		GoalIDs:    []uint{1, 2, 3},
	})
	if err == nil {
		t.Fatal("expected error from failing scorer")
	}

	appErr, ok := err.(*response.AppError)
	if !ok {
		t.Fatalf("expected *response.AppError, got %T", err)
	}
	if appErr.HTTPStatus != 502 {
		t.Errorf("HTTPStatus = %d, expected 502", appErr.HTTPStatus)
	}
	if scorer.calls != 2 {
		t.Errorf("fail-fast: scorer called %d times, want 2", scorer.calls)
	}

	var count int64
	db.Model(&models.Report{}).Count(&count)
	if count != 0 {
		t.Errorf("expected zero persisted reports after failure, got %d", count)
	}
}

// The gate runs before any scoring; a blocked goal means zero AI calls.
func TestSubmit_GateRunsBeforeScoring(t *testing.T) {
	db := newTestDB(t)
	// An update after create persists the false value past the column's
	// default:true tag, which makes gorm skip zero-value fields on insert.
	db.Create(&models.ManagerSettings{})
	db.Model(&models.ManagerSettings{}).Where("1 = 1").Update("allow_late_submissions", false)
	past := time.Now().Add(-time.Hour)
	seedGoal(t, db, "open", nil)
	seedGoal(t, db, "expired", &past)

	scorer := &stubScorer{score: 7}
	svc := NewEvaluationService(db, scorer)

	_, err := svc.Submit(context.Background(), &SubmitRequest{
		EmployeeID: 1,
		ReportText: "late",
		GoalIDs:    []uint{1, 2},
	})
	if err == nil {
		t.Fatal("expected gate rejection")
	}
	if scorer.calls != 0 {
		t.Errorf("scorer called %d times before gate, want 0", scorer.calls)
	}
}

// Repeating a goal ID in the selection is not an unknown-goal error; the
// duplicates collapse and each distinct goal is scored once.
func TestSubmit_DuplicateGoalIDs(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.ManagerSettings{AllowLateSubmissions: true})
	seedGoal(t, db, "alpha", nil)
	seedGoal(t, db, "beta", nil)

	scorer := &stubScorer{score: 7}
	svc := NewEvaluationService(db, scorer)

	reports, err := svc.Submit(context.Background(), &SubmitRequest{
		EmployeeID: 1,
		ReportText: "text",
		GoalIDs:    []uint{1, 2, 1, 2, 2},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports for 2 distinct goals, got %d", len(reports))
	}
	if scorer.calls != 2 {
		t.Errorf("scorer called %d times, want once per distinct goal", scorer.calls)
	}
}

// CheckAdmissible runs the same gate as Submit without touching the scorer,
// so the queued path can reject a bad selection before it is enqueued.
func TestCheckAdmissible(t *testing.T) {
	db := newTestDB(t)
	// An update after create persists the false value past the column's
	// default:true tag, which makes gorm skip zero-value fields on insert.
	db.Create(&models.ManagerSettings{})
	db.Model(&models.ManagerSettings{}).Where("1 = 1").Update("allow_late_submissions", false)
	past := time.Now().Add(-time.Hour)
	seedGoal(t, db, "open", nil)
	seedGoal(t, db, "expired", &past)

	svc := NewEvaluationService(db, nil)

	if err := svc.CheckAdmissible([]uint{1}); err != nil {
		t.Errorf("open goal should be admissible: %v", err)
	}

	err := svc.CheckAdmissible([]uint{1, 2})
	if err == nil {
		t.Fatal("expected rejection for expired goal")
	}
	appErr, ok := err.(*response.AppError)
	if !ok {
		t.Fatalf("expected *response.AppError, got %T", err)
	}
	if appErr.HTTPStatus != 403 {
		t.Errorf("HTTPStatus = %d, expected 403", appErr.HTTPStatus)
	}
	if !strings.Contains(appErr.Message, "expired") {
		t.Errorf("rejection %q should name the blocked goal", appErr.Message)
	}

	err = svc.CheckAdmissible([]uint{1, 99})
	if err == nil {
		t.Fatal("expected rejection for unknown goal id")
	}
	if appErr, ok := err.(*response.AppError); !ok || appErr.HTTPStatus != 404 {
		t.Errorf("unknown goal should map to 404, got %v", err)
	}
}

func TestSubmit_UnknownGoal(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.ManagerSettings{AllowLateSubmissions: true})
	seedGoal(t, db, "alpha", nil)

	svc := NewEvaluationService(db, &stubScorer{score: 7})

	_, err := svc.Submit(context.Background(), &SubmitRequest{
		EmployeeID: 1,
		ReportText: "text",
		GoalIDs:    []uint{1, 99},
	})
	if err == nil {
		t.Fatal("expected error for unknown goal id")
	}
}

func TestApplyOverride_Validation(t *testing.T) {
	svc := NewEvaluationService(nil, nil)

	tests := []struct {
		name string
		req  OverrideRequest
	}{
		{"score above range", OverrideRequest{Score: 10.5, Reasoning: "r"}},
		{"score below range", OverrideRequest{Score: -1, Reasoning: "r"}},
		{"empty reasoning", OverrideRequest{Score: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ApplyOverride(1, 1, &tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			appErr, ok := err.(*response.AppError)
			if !ok {
				t.Fatalf("expected *response.AppError, got %T", err)
			}
			if appErr.HTTPStatus != 422 {
				t.Errorf("HTTPStatus = %d, expected 422", appErr.HTTPStatus)
			}
		})
	}
}

func TestApplyOverride_DirectManagerOnly(t *testing.T) {
	db := newTestDB(t)
	manager := models.Employee{Name: "manager", Email: "manager@test"}
	db.Create(&manager)
	emp := models.Employee{Name: "report", Email: "report@test", ManagerID: &manager.ID}
	db.Create(&emp)
	skipManager := models.Employee{Name: "grandboss", Email: "grandboss@test"}
	db.Create(&skipManager)

	report := models.Report{EmployeeID: emp.ID, GoalID: 1, EvaluationScore: 6.5}
	db.Create(&report)

	svc := NewEvaluationService(db, nil)

	// Someone other than the direct manager is rejected.
	_, err := svc.ApplyOverride(report.ID, skipManager.ID, &OverrideRequest{Score: 9, Reasoning: "great quarter"})
	if err == nil {
		t.Fatal("expected policy rejection for non-manager")
	}

	// The direct manager succeeds; the AI score is untouched.
	got, err := svc.ApplyOverride(report.ID, manager.ID, &OverrideRequest{Score: 9, Reasoning: "great quarter"})
	if err != nil {
		t.Fatalf("ApplyOverride failed: %v", err)
	}
	if got.ManagerOverallScore == nil || *got.ManagerOverallScore != 9 {
		t.Errorf("ManagerOverallScore = %v, want 9", got.ManagerOverallScore)
	}
	if got.ManagerOverrideReasoning != "great quarter" {
		t.Errorf("ManagerOverrideReasoning = %q", got.ManagerOverrideReasoning)
	}
	if !almostEqual(got.EvaluationScore, 6.5) {
		t.Errorf("EvaluationScore changed to %v, must stay 6.5", got.EvaluationScore)
	}
	if !almostEqual(got.DisplayScore(), 9) {
		t.Errorf("DisplayScore = %v, want the override", got.DisplayScore())
	}
}

func TestClearOverride_RemovesBothFields(t *testing.T) {
	db := newTestDB(t)
	manager := models.Employee{Name: "manager", Email: "manager@test"}
	db.Create(&manager)
	emp := models.Employee{Name: "report", Email: "report@test", ManagerID: &manager.ID}
	db.Create(&emp)

	score := 9.0
	report := models.Report{
		EmployeeID:               emp.ID,
		GoalID:                   1,
		EvaluationScore:          6.5,
		ManagerOverallScore:      &score,
		ManagerOverrideReasoning: "great quarter",
	}
	db.Create(&report)

	svc := NewEvaluationService(db, nil)

	got, err := svc.ClearOverride(report.ID, manager.ID)
	if err != nil {
		t.Fatalf("ClearOverride failed: %v", err)
	}
	if got.ManagerOverallScore != nil {
		t.Errorf("ManagerOverallScore = %v, want nil", got.ManagerOverallScore)
	}
	if got.ManagerOverrideReasoning != "" {
		t.Errorf("ManagerOverrideReasoning = %q, want empty", got.ManagerOverrideReasoning)
	}
	if !almostEqual(got.DisplayScore(), 6.5) {
		t.Errorf("DisplayScore = %v, want the AI score after clearing", got.DisplayScore())
	}
}

func seedGoal(t *testing.T, db *gorm.DB, name string, deadline *time.Time) {
	t.Helper()
	goal := models.Goal{ProjectID: 1, Name: name, Deadline: deadline}
	if err := db.Create(&goal).Error; err != nil {
		t.Fatalf("failed to seed goal: %v", err)
	}
	if err := db.Create(&models.Criterion{GoalID: goal.ID, Name: "quality", Weight: 100}).Error; err != nil {
		t.Fatalf("failed to seed criterion: %v", err)
	}
}
