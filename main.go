package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beautybook/config"
	"beautybook/cron"
	"beautybook/database"
	providerRepo "beautybook/database/repository/provider"
	schedulerRepo "beautybook/database/repository/scheduler"
	userRepoPkg "beautybook/database/repository/user"
	"beautybook/handlers"
	"beautybook/metrics"
	"beautybook/middleware"
	"beautybook/routes"
	"beautybook/services/booking"
	"beautybook/services/notification"
	"beautybook/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()
	metrics.Register()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// repositories.
	var (
		provRepo    providerRepo.ProviderRepository
		userRepo    userRepoPkg.UserRepository
		calendar    schedulerRepo.SchedulerRepository
		mongoClient *mongo.Client
	)
	if config.UsesMemoryStore() {
		logger.Warn("main: using the in-memory store, data is lost on restart")
		provRepo = providerRepo.NewMemoryProviderRepo()
		userRepo = userRepoPkg.NewMemoryUserRepo()
		calendar = schedulerRepo.NewMemorySchedulerRepo()
	} else {
		database.InitDB()
		mongoClient = database.MongoClient
		provRepo = providerRepo.NewMongoProviderRepo()
		userRepo = userRepoPkg.NewMongoUserRepo()
		calendar = schedulerRepo.NewMongoSchedulerRepo()
	}
	seedProviders(rootCtx, provRepo)

	// notifications and booking-flow snapshots need Redis; without it notifications are only logged.
	var (
		dispatcher   booking.Dispatcher = notification.LogDispatcher{}
		snapshots    booking.SnapshotCache
		redisClients []*redis.Client
		queueClient  *asynq.Client
		inspector    *asynq.Inspector
		worker       *cron.NotificationWorker
	)
	if utils.RedisConfigured() {
		cache := utils.GetCacheClient()
		redisClients = append(redisClients, cache)
		snapshots = booking.NewRedisSnapshotCache(cache, time.Duration(config.AppConfig.SnapshotTTLSeconds)*time.Second)

		queueClient = asynq.NewClient(utils.QueueRedisOpt())
		inspector = asynq.NewInspector(utils.QueueRedisOpt())
		dispatcher = notification.NewQueueDispatcher(queueClient, inspector, config.AppConfig.NotificationQueueName)

		if config.AppConfig.FirebaseCredentialsFile != "" {
			fcm, err := utils.FirebaseInit(rootCtx)
			if err != nil {
				logger.Sugar().Fatalf("main: failed to initialize firebase: %v", err)
			}
			worker = cron.NewNotificationWorker(notification.NewFCMSender(fcm, userRepo, provRepo), calendar)
			worker.Start(rootCtx)
		} else {
			logger.Warn("main: FIREBASE_CREDENTIALS_FILE not set, queued notifications will not be pushed")
		}
	} else {
		logger.Warn("main: REDIS_ADDR not set, notifications are logged only")
	}

	// services.
	engine := booking.NewDefaultSchedulingEngine(calendar, provRepo, dispatcher)
	engine.Snapshots = snapshots
	engine.MaxAttempts = config.AppConfig.BookingMaxAttempts
	engine.RetryBase = time.Duration(config.AppConfig.BookingRetryBaseMs) * time.Millisecond
	engine.ReminderLead = time.Duration(config.AppConfig.ReminderLeadMinutes) * time.Minute

	sweeper, err := cron.NewCompletionSweeper(engine, config.AppConfig.CompletionSweepSpec)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid COMPLETION_SWEEP_SPEC %q: %v", config.AppConfig.CompletionSweepSpec, err)
	}
	sweeper.Start()

	utils.StartHealthMonitor(rootCtx, redisClients, mongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewBookingHandler(engine),
		handlers.NewCalendarHandler(engine),
		handlers.NewDeviceHandler(userRepo, provRepo),
	)
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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	stop()
	sweeper.Stop()
	if worker != nil {
		worker.Shutdown()
	}
	if queueClient != nil {
		_ = queueClient.Close()
		_ = inspector.Close()
	}
	if err := database.Close(ctx); err != nil {
		logger.Error("main: failed to disconnect from MongoDB", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

// seedProviders upserts the providers listed under PROVIDERS in the configuration.
func seedProviders(ctx context.Context, repo providerRepo.ProviderRepository) {
	logger := utils.GetLogger()
	for i := range config.AppConfig.Providers {
		p := config.AppConfig.Providers[i]
		if p.ID == "" {
			logger.Warn("main: skipping configured provider without id", zap.String("name", p.Profile.ProviderName))
			continue
		}
		if err := repo.Upsert(ctx, &p); err != nil {
			logger.Sugar().Fatalf("main: failed to seed provider %s: %v", p.ID, err)
		}
	}
	if n := len(config.AppConfig.Providers); n > 0 {
		logger.Info("main: seeded providers", zap.Int("count", n))
	}
}
