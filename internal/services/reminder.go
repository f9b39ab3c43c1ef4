package services

import (
	"time"

	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ReminderService posts check-in reminders each morning to employees whose
// resolved cadence includes the current weekday. Public holidays in the
// configured country are skipped entirely.
type ReminderService struct {
	db            *gorm.DB
	frequency     *FrequencyService
	holidays      *HolidayService
	notifications *NotificationService
	cronScheduler *cron.Cron
}

func NewReminderService(db *gorm.DB, frequency *FrequencyService, holidays *HolidayService, notifications *NotificationService) *ReminderService {
	return &ReminderService{
		db:            db,
		frequency:     frequency,
		holidays:      holidays,
		notifications: notifications,
	}
}

func (s *ReminderService) StartScheduler() {
	s.cronScheduler = cron.New()

	// 09:00 server time every day; the run itself decides whether
	// anything is due.
	if _, err := s.cronScheduler.AddFunc("0 9 * * *", func() {
		if err := s.RunReminders(time.Now()); err != nil {
			logger.Errorf("[Reminder] Run failed: %v", err)
		}
	}); err != nil {
		logger.Errorf("[Reminder] Failed to schedule: %v", err)
		return
	}

	s.cronScheduler.Start()
	logger.Infof("[Reminder] Scheduler started")
}

func (s *ReminderService) StopScheduler() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

// RunReminders evaluates every employee's cadence for the given day and
// sends a reminder for each match.
func (s *ReminderService) RunReminders(now time.Time) error {
	var settings models.ManagerSettings
	if err := s.db.First(&settings).Error; err != nil {
		return err
	}

	if s.holidays.IsHoliday(now, settings.HolidayCountry) {
		logger.Infof("[Reminder] %s is a holiday in %s, skipping", now.Format("2006-01-02"), settings.HolidayCountry)
		return nil
	}

	weekday := now.Weekday().String()

	var employees []models.Employee
	if err := s.db.Find(&employees).Error; err != nil {
		return err
	}

	sent := 0
	for _, emp := range employees {
		due, result, err := s.dueOn(emp.ID, weekday)
		if err != nil {
			logger.Errorf("[Reminder] Failed to resolve cadence for employee %d: %v", emp.ID, err)
			continue
		}
		if !due {
			continue
		}

		if err := s.notifications.SendReminder(&settings, &ReminderNotification{
			EmployeeName: emp.Name,
			EmployeeID:   emp.ID,
			Weekday:      weekday,
			Source:       result.Source,
		}); err != nil {
			continue
		}
		sent++
	}

	if sent > 0 {
		logger.Infof("[Reminder] Sent %d reminders for %s", sent, weekday)
	}
	return nil
}

// DueToday reports whether the employee's resolved cadence includes today.
func (s *ReminderService) DueToday(employeeID uint, now time.Time) (bool, error) {
	due, _, err := s.dueOn(employeeID, now.Weekday().String())
	return due, err
}

func (s *ReminderService) dueOn(employeeID uint, weekday string) (bool, *FrequencyResult, error) {
	result, err := s.frequency.Resolve(employeeID, 0)
	if err != nil {
		return false, nil, err
	}

	for _, day := range result.SelectedDays {
		if day == weekday {
			return true, result, nil
		}
	}
	return false, result, nil
}
