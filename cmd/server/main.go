package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"webhook-service/config"
	"webhook-service/internal/api"
	"webhook-service/internal/backoff"
	"webhook-service/internal/broker"
	"webhook-service/internal/redisclient"
	"webhook-service/internal/service"
	"webhook-service/internal/store"
	"webhook-service/internal/util"
	"webhook-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting webhook service")

	tp, err := util.InitTracer("webhook-service", cfg.Server.Env, cfg.Observ.JaegerEndpoint, cfg.Observ.TraceSampleRatio)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	repo, err := openRepository(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open repository", zap.Error(err))
	}
	defer repo.Close()
	logger.Info("Repository ready", zap.String("driver", cfg.Database.Driver))

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	queue := redisclient.NewTaskQueue(redisClient, cfg.Redis.QueueName)

	var notifier service.Notifier
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotification)
		defer producer.Close()
		notifier = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicNotification))
	}

	finance := service.NewFinanceService()
	processors := service.NewProcessors(repo, finance, notifier)
	eventService := service.NewEventService(repo, queue, processors, cfg.Retry.MaxRetries)
	orderService := service.NewOrderService(repo)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	taskWorker := worker.NewTaskWorker(
		eventService,
		queue,
		backoff.NewCalculator(cfg.Retry.BaseDelay),
		cfg.Worker.Concurrency,
		cfg.Worker.PollInterval,
	)
	taskWorker.Start(workerCtx)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(eventService, orderService, repo, cfg.Webhook.HMACSecret)
	handler.SetupRoutes(router)

	if cfg.Webhook.HMACSecret == "" {
		logger.Warn("HMAC_SECRET_KEY is not set, webhook deliveries will be rejected")
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	taskWorker.Stop()

	logger.Info("Server exited")
}

func openRepository(cfg config.DatabaseConfig) (store.Repository, error) {
	if cfg.Driver == "memory" {
		return store.NewMemoryStore(), nil
	}

	db, err := store.NewStore(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MigrateOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	return db, nil
}
