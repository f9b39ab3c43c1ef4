package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/pkg/response"
)

// IsSubmissionBlocked reports whether a report may not be created against the
// goal right now: blocked iff the goal has a deadline that already passed and
// the organization disallows late submissions. Goals without a deadline are
// always admissible.
func IsSubmissionBlocked(goal *models.Goal, settings *models.ManagerSettings, now time.Time) bool {
	if goal == nil || goal.Deadline == nil {
		return false
	}
	if !goal.Deadline.Before(now) {
		return false
	}
	return settings != nil && !settings.AllowLateSubmissions
}

// BlockedGoalNames returns the names of the goals in the selection that the
// gate rejects. Evaluated per goal before any AI call is made.
func BlockedGoalNames(goals []models.Goal, settings *models.ManagerSettings, now time.Time) []string {
	var blocked []string
	for i := range goals {
		if IsSubmissionBlocked(&goals[i], settings, now) {
			blocked = append(blocked, goals[i].Name)
		}
	}
	return blocked
}

// CheckSubmission admits or rejects a multi-goal selection as a whole. If any
// selected goal is blocked the entire submission is rejected with the
// offending goal names; the actor must deselect them or an administrator must
// relax the late-submission policy.
func CheckSubmission(goals []models.Goal, settings *models.ManagerSettings, now time.Time) error {
	blocked := BlockedGoalNames(goals, settings, now)
	if len(blocked) == 0 {
		return nil
	}
	return response.NewPolicyDenied(fmt.Sprintf(
		"submission deadline passed for: %s", strings.Join(blocked, ", ")))
}
