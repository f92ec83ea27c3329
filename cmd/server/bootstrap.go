package main

import (
	"context"

	"github.com/huangang/shiftledger/internal/config"
	"github.com/huangang/shiftledger/internal/handlers"
	"github.com/huangang/shiftledger/internal/models"
	"github.com/huangang/shiftledger/internal/services"
	"github.com/huangang/shiftledger/internal/utils"
	"github.com/huangang/shiftledger/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	db        *gorm.DB
	metrics   *services.Metrics
	events    services.EventPublisher
	taskQueue services.TaskQueue
	worker    *services.Worker
	scheduler *services.InvoiceScheduler

	authHandler      *handlers.AuthHandler
	shiftHandler     *handlers.ShiftHandler
	invoiceHandler   *handlers.InvoiceHandler
	logHandler       *handlers.ActivityLogHandler
	projectHandler   *handlers.ProjectHandler
	employeeHandler  *handlers.EmployeeHandler
	billingHandler   *handlers.BillingHandler
	dashboardHandler *handlers.DashboardHandler
	healthHandler    *handlers.HealthHandler
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
	db := models.GetDB()

	metrics := services.NewMetrics()
	metrics.WatchActiveShifts(db)
	events := services.NewEventPublisher(&cfg.RabbitMQ)

	logs := services.NewActivityLogService(db)
	users := services.NewUserService(db, logs)
	projects := services.NewProjectService(db, logs)
	billing := services.NewBillingService(db)
	shifts := services.NewShiftService(db, &cfg.Shifts, logs, events, metrics)
	invoices := services.NewInvoiceService(db, &cfg.Invoice, events, metrics)
	holidays := services.NewHolidayService()
	dashboard := services.NewDashboardService(db, &cfg.Dashboard, holidays, invoices)
	auth := services.NewAuthService(db, &cfg.JWT, &cfg.LDAP, users)

	if err := auth.CreateAdminIfNotExists(context.Background(), &cfg.Admin); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	// Uses Redis if enabled, otherwise runs batches in-process
	processor := services.InvoiceBatchProcessor(invoices)
	taskQueue := services.NewTaskQueue(&cfg.Redis)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(processor)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		worker.SetProcessor(processor)
		if err := worker.Start(); err != nil {
			logger.Error().Err(err).Msg("Failed to start worker")
		}
	}

	var scheduler *services.InvoiceScheduler
	if cfg.Invoice.SchedulerEnabled {
		scheduler = services.NewInvoiceScheduler(&cfg.Invoice, taskQueue, services.NewSchedulerLockService(db))
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("Invoice scheduler disabled")
			scheduler = nil
		}
	}

	return &appServices{
		db:        db,
		metrics:   metrics,
		events:    events,
		taskQueue: taskQueue,
		worker:    worker,
		scheduler: scheduler,

		authHandler:      handlers.NewAuthHandler(auth, users),
		shiftHandler:     handlers.NewShiftHandler(shifts),
		invoiceHandler:   handlers.NewInvoiceHandler(invoices),
		logHandler:       handlers.NewActivityLogHandler(logs),
		projectHandler:   handlers.NewProjectHandler(projects, users),
		employeeHandler:  handlers.NewEmployeeHandler(users, invoices, billing),
		billingHandler:   handlers.NewBillingHandler(billing),
		dashboardHandler: handlers.NewDashboardHandler(dashboard, holidays),
		healthHandler:    handlers.NewHealthHandler(db, taskQueue, shifts),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	if s.scheduler != nil {
		s.scheduler.Stop()
		logger.Info().Msg("Invoice scheduler stopped")
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	if err := s.events.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close event publisher")
	}
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}
