package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/salesdesk/crm-api/internal/auth"
	"github.com/salesdesk/crm-api/internal/config"
	"github.com/salesdesk/crm-api/internal/database"
	"github.com/salesdesk/crm-api/internal/http/handler"
	"github.com/salesdesk/crm-api/internal/http/middleware"
	"github.com/salesdesk/crm-api/internal/http/router"
	"github.com/salesdesk/crm-api/internal/jobs"
	"github.com/salesdesk/crm-api/internal/logger"
	"github.com/salesdesk/crm-api/internal/repository"
	"github.com/salesdesk/crm-api/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	leadSourceRepo := repository.NewLeadSourceRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	leadLostRepo := repository.NewLeadLostRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	dealRepo := repository.NewDealRepository(db)
	dealArchiveRepo := repository.NewDealArchiveRepository(db)
	followupRepo := repository.NewFollowupRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)
	productRepo := repository.NewProductRepository(db)

	// Services
	assignment := service.NewAssignmentValidator(userRepo)
	leadService := service.NewLeadService(leadRepo, leadLostRepo, customerRepo, leadSourceRepo, userRepo, assignment, log, db)
	leadSourceService := service.NewLeadSourceService(leadSourceRepo, log)
	customerService := service.NewCustomerService(customerRepo, userRepo, assignment, log)
	dealService := service.NewDealService(dealRepo, dealArchiveRepo, customerRepo, userRepo, assignment, log, db)
	followupService := service.NewFollowupService(followupRepo, customerRepo, userRepo, assignment, log)
	noteService := service.NewNoteService(noteRepo, customerRepo, dealRepo, leadRepo, log)
	quotationService := service.NewQuotationService(quotationRepo, numberSequenceRepo, customerRepo, productRepo, assignment, log, db)
	productService := service.NewProductService(productRepo, log)
	userService := service.NewUserService(userRepo, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	healthHandler := handler.NewHealthHandler(db)
	leadHandler := handler.NewLeadHandler(leadService, log)
	leadSourceHandler := handler.NewLeadSourceHandler(leadSourceService, log)
	customerHandler := handler.NewCustomerHandler(customerService, log)
	dealHandler := handler.NewDealHandler(dealService, log)
	followupHandler := handler.NewFollowupHandler(followupService, log)
	noteHandler := handler.NewNoteHandler(noteService, log)
	quotationHandler := handler.NewQuotationHandler(quotationService, log)
	productHandler := handler.NewProductHandler(productService, log)
	userHandler := handler.NewUserHandler(userService, log)

	rt := router.NewRouter(
		cfg,
		log,
		authMiddleware,
		rateLimiter,
		healthHandler,
		leadHandler,
		leadSourceHandler,
		customerHandler,
		dealHandler,
		followupHandler,
		noteHandler,
		quotationHandler,
		productHandler,
		userHandler,
	)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)
		reminderJob := jobs.NewFollowupReminderJob(followupRepo, userRepo, log)
		if err := scheduler.AddJob("followup-reminder", cfg.Jobs.FollowupReminderCron, reminderJob.Run); err != nil {
			log.Error("Failed to register followup reminder job", zap.Error(err))
		} else {
			scheduler.Start()
		}
	} else {
		log.Info("Background jobs disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
