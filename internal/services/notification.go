package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/pkg/logger"
	"gorm.io/gorm"
)

// NotificationService posts check-in reminders and override notices to the
// webhook configured in manager settings.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

type ReminderNotification struct {
	EmployeeName string
	EmployeeID   uint
	Weekday      string
	Source       string // employee, project, global
}

type OverrideNotification struct {
	EmployeeName  string
	GoalName      string
	OriginalScore float64
	OverrideScore float64
	Reasoning     string
}

func (s *NotificationService) SendReminder(settings *models.ManagerSettings, n *ReminderNotification) error {
	if !settings.WebhookEnabled || settings.WebhookURL == "" {
		return nil
	}

	msg := fmt.Sprintf("🔔 **Check-in Reminder**\n\n%s has a report due today (%s cadence, %s).",
		n.EmployeeName, n.Source, n.Weekday)
	return s.send(settings, msg)
}

func (s *NotificationService) SendOverrideNotice(settings *models.ManagerSettings, n *OverrideNotification) error {
	if !settings.WebhookEnabled || settings.WebhookURL == "" {
		return nil
	}

	reasoning := n.Reasoning
	if len(reasoning) > 200 {
		reasoning = reasoning[:200] + "..."
	}

	msg := fmt.Sprintf(`📝 **Score Override**

**Employee**: %s
**Goal**: %s
**AI Score**: %.1f → **Override**: %.1f

%s`, n.EmployeeName, n.GoalName, n.OriginalScore, n.OverrideScore, reasoning)
	return s.send(settings, msg)
}

func (s *NotificationService) send(settings *models.ManagerSettings, msg string) error {
	var err error
	switch settings.WebhookFormat {
	case "slack":
		err = s.sendSlack(settings.WebhookURL, msg)
	default:
		err = s.sendGeneric(settings.WebhookURL, msg)
	}

	if err != nil {
		logger.Errorf("[Notification] Failed to send webhook: %v", err)
		return err
	}
	return nil
}

func (s *NotificationService) sendSlack(webhookURL, msg string) error {
	// Slack mrkdwn uses single asterisks for bold
	text := strings.ReplaceAll(msg, "**", "*")
	payload := map[string]interface{}{
		"text": text,
		"blocks": []map[string]interface{}{
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": text,
				},
			},
		},
	}
	return s.postJSON(webhookURL, payload)
}

func (s *NotificationService) sendGeneric(webhookURL, msg string) error {
	payload := map[string]interface{}{
		"content": msg,
	}
	return s.postJSON(webhookURL, payload)
}

func (s *NotificationService) postJSON(webhookURL string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	logger.Debugf("[Notification] POST %s, payload length: %d", webhookURL, len(body))

	resp, err := http.Post(webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
