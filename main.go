// File: reviewdesk/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reviewdesk/config"
	"reviewdesk/cron"
	"reviewdesk/database"
	assignmentRepo "reviewdesk/database/repository/assignment"
	conversationRepo "reviewdesk/database/repository/conversation"
	reminderRepo "reviewdesk/database/repository/reminder"
	settingsRepo "reviewdesk/database/repository/settings"
	"reviewdesk/handlers"
	"reviewdesk/middleware"
	"reviewdesk/routes"
	"reviewdesk/services/notification"
	"reviewdesk/services/reminders"
	"reviewdesk/services/settings"
	"reviewdesk/services/tasks"
	"reviewdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	database.InitDB()
	utils.InitRedis()
	db := database.DB()

	// repositories.
	remRepo := reminderRepo.NewMongoReminderRepo(db)
	if err := remRepo.EnsureIndexes(); err != nil {
		logger.Fatal("main: failed to ensure reminder indexes", zap.Error(err))
	}
	asgRepo := assignmentRepo.NewMongoAssignmentRepo(db)
	convRepo := conversationRepo.NewMongoConversationRepo(db)
	setRepo := settingsRepo.NewMongoSettingsRepo(db)

	// job queue.
	queueOpt := utils.QueueRedisOpt()
	queueClient := asynq.NewClient(queueOpt)
	defer queueClient.Close()
	inspector := asynq.NewInspector(queueOpt)
	defer inspector.Close()
	scheduler := tasks.NewAsynqScheduler(queueClient, inspector, config.AppConfig.ReminderQueue, config.AppConfig.ReminderMaxRetry)

	// notification channels.
	broadcasters := notification.MultiBroadcaster{
		notification.NewRedisBroadcaster(utils.GetCacheClient(), logger),
	}
	fcmClient, err := utils.NewFCMClient(ctx)
	if err != nil {
		logger.Sugar().Warnf("main: push broadcast disabled: %v", err)
	} else if fcmClient != nil {
		broadcasters = append(broadcasters, notification.NewFCMBroadcaster(fcmClient, logger))
	}

	conversations, err := notification.NewDefaultConversationService(convRepo)
	if err != nil {
		logger.Fatal("main: failed to initialize conversation service", zap.Error(err))
	}

	emailSender := notification.NewSMTPSender(notification.SMTPConfig{
		Host:     config.AppConfig.SMTPHost,
		Port:     config.AppConfig.SMTPPort,
		Username: config.AppConfig.SMTPUsername,
		Password: config.AppConfig.SMTPPassword,
		From:     config.AppConfig.SMTPFrom,
	}, config.AppConfig.EmailRatePerSec)

	// settings.
	settingsProvider := settings.NewProvider(setRepo, config.AppConfig.SettingsCacheTTL, utils.GetCacheClient(), logger.Named("settings"))
	go settingsProvider.Watch(ctx)

	// services.
	loc := config.ReferenceLocation()
	reminderService := &reminders.DefaultReminderService{
		Reminders:       remRepo,
		Assignments:     asgRepo,
		Config:          settingsProvider,
		Scheduler:       scheduler,
		Email:           emailSender,
		Conversations:   conversations,
		Broadcaster:     broadcasters,
		Logger:          logger.Named("reminders"),
		Location:        loc,
		SystemBotID:     config.AppConfig.SystemBotID,
		DeliveryTimeout: config.AppConfig.DeliveryTimeout,
	}

	// background workers.
	worker := cron.InitReminderWorker(reminderService, logger.Named("worker"))
	if _, err := cron.StartReminderScanner(ctx, reminderService, cron.ScanSpec(config.AppConfig.ReminderScanCron, loc), logger.Named("scanner")); err != nil {
		logger.Fatal("main: failed to start reminder scanner", zap.Error(err))
	}
	utils.StartHealthMonitor(ctx, utils.GetCacheClient(), database.MongoClient)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	reminderHandler := handlers.NewReminderHandler(reminderService, settingsProvider)
	handlerBundle := &handlers.HandlerBundle{
		InternalToken: config.AppConfig.InternalAPIToken,

		// Ops endpoints.
		HealthHandler:  handlers.HealthHandler,
		MetricsHandler: handlers.MetricsHandler(),

		// Reminder endpoints.
		ScanRemindersHandler:       reminderHandler.ScanHandler,
		ProcessReminderHandler:     reminderHandler.ProcessHandler,
		CancelRemindersHandler:     reminderHandler.CancelHandler,
		RescheduleRemindersHandler: reminderHandler.RescheduleHandler,
		ListRemindersHandler:       reminderHandler.ListHandler,
		InvalidateSettingsHandler:  reminderHandler.InvalidateSettingsHandler,
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	stop()
	worker.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if err := database.Disconnect(shutdownCtx); err != nil {
		logger.Sugar().Warnf("main: mongo disconnect: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
