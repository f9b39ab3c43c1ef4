package services

import (
	"strings"
	"testing"
	"time"

	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/pkg/response"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestIsSubmissionBlocked(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name      string
		deadline  *time.Time
		allowLate bool
		want      bool
	}{
		{"no deadline", nil, false, false},
		{"future deadline", timePtr(future), false, false},
		{"past deadline, late allowed", timePtr(past), true, false},
		{"past deadline, late disallowed", timePtr(past), false, true},
		{"deadline exactly now", timePtr(now), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := &models.Goal{Name: "g", Deadline: tt.deadline}
			settings := &models.ManagerSettings{AllowLateSubmissions: tt.allowLate}

			if got := IsSubmissionBlocked(goal, settings, now); got != tt.want {
				t.Errorf("IsSubmissionBlocked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSubmissionBlocked_NilGoal(t *testing.T) {
	if IsSubmissionBlocked(nil, &models.ManagerSettings{}, time.Now()) {
		t.Error("nil goal must never be blocked")
	}
}

// Flipping the policy re-admits a previously blocked goal without touching
// the goal itself.
func TestIsSubmissionBlocked_PolicyFlip(t *testing.T) {
	now := time.Now()
	goal := &models.Goal{Name: "g", Deadline: timePtr(now.Add(-time.Hour))}

	if !IsSubmissionBlocked(goal, &models.ManagerSettings{AllowLateSubmissions: false}, now) {
		t.Error("expected blocked under strict policy")
	}
	if IsSubmissionBlocked(goal, &models.ManagerSettings{AllowLateSubmissions: true}, now) {
		t.Error("expected admissible after relaxing the policy")
	}
}

func TestBlockedGoalNames(t *testing.T) {
	now := time.Now()
	past := timePtr(now.Add(-time.Hour))
	future := timePtr(now.Add(time.Hour))

	goals := []models.Goal{
		{Name: "expired-a", Deadline: past},
		{Name: "open", Deadline: future},
		{Name: "no-deadline"},
		{Name: "expired-b", Deadline: past},
	}
	settings := &models.ManagerSettings{AllowLateSubmissions: false}

	got := BlockedGoalNames(goals, settings, now)

	if len(got) != 2 {
		t.Fatalf("expected 2 blocked goals, got %d: %v", len(got), got)
	}
	if got[0] != "expired-a" || got[1] != "expired-b" {
		t.Errorf("blocked names = %v", got)
	}
}

func TestCheckSubmission(t *testing.T) {
	now := time.Now()
	past := timePtr(now.Add(-time.Hour))
	settings := &models.ManagerSettings{AllowLateSubmissions: false}

	if err := CheckSubmission([]models.Goal{{Name: "open"}}, settings, now); err != nil {
		t.Errorf("unblocked selection should pass, got %v", err)
	}

	// One blocked goal rejects the whole selection, naming the offenders.
	goals := []models.Goal{
		{Name: "open"},
		{Name: "expired", Deadline: past},
	}
	err := CheckSubmission(goals, settings, now)
	if err == nil {
		t.Fatal("expected error for blocked goal")
	}

	appErr, ok := err.(*response.AppError)
	if !ok {
		t.Fatalf("expected *response.AppError, got %T", err)
	}
	if appErr.HTTPStatus != 403 {
		t.Errorf("HTTPStatus = %d, expected 403", appErr.HTTPStatus)
	}
	if !strings.Contains(appErr.Message, "expired") {
		t.Errorf("error should name the blocked goal, got %q", appErr.Message)
	}
	if strings.Contains(appErr.Message, "open") {
		t.Errorf("error should not name admissible goals, got %q", appErr.Message)
	}
}
