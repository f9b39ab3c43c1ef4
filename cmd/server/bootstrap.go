package main

import (
	"context"

	"github.com/mirelo/perfhub/backend/internal/config"
	"github.com/mirelo/perfhub/backend/internal/handlers"
	"github.com/mirelo/perfhub/backend/internal/models"
	"github.com/mirelo/perfhub/backend/internal/services"
	"github.com/mirelo/perfhub/backend/internal/utils"
	"github.com/mirelo/perfhub/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg             *config.Config
	reminderService *services.ReminderService
	taskQueue       services.TaskQueue
	worker          *services.Worker
	authHandler     *handlers.AuthHandler
	reportHandler   *handlers.ReportHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	// Activity log writes + retention cleanup
	services.InitActivityLogger(models.DB)
	services.StartLogCleanupScheduler(models.DB)

	// Check-in reminder scheduler
	frequencyService := services.NewFrequencyService(models.DB)
	holidayService := services.NewHolidayService()
	notificationService := services.NewNotificationService(models.DB)
	reminderService := services.NewReminderService(models.DB, frequencyService, holidayService, notificationService)
	reminderService.StartScheduler()

	reportHandler := handlers.NewReportHandler(models.DB, cfg)

	// Task queue (uses Redis if enabled, otherwise sync mode); both paths run
	// the same submission pipeline.
	processor := func(ctx context.Context, task *services.EvaluationTask) error {
		_, err := reportHandler.EvaluationService().Submit(ctx, &services.SubmitRequest{
			EmployeeID: task.EmployeeID,
			ReportText: task.ReportText,
			GoalIDs:    task.GoalIDs,
		})
		return err
	}

	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(processor)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(processor)
			worker.Start()
		}
	}

	// Seed the default account owner
	authHandler := handlers.NewAuthHandler(models.DB, cfg)
	if err := authHandler.CreateOwnerIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create account owner")
	}

	return &appServices{
		cfg:             cfg,
		reminderService: reminderService,
		taskQueue:       taskQueue,
		worker:          worker,
		authHandler:     authHandler,
		reportHandler:   reportHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.reminderService.StopScheduler()

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("All services stopped")
}
