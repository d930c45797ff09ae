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

	"invoice-desk/config"
	"invoice-desk/internal/api"
	"invoice-desk/internal/apiclient"
	"invoice-desk/internal/broker"
	"invoice-desk/internal/redisclient"
	"invoice-desk/internal/service"
	"invoice-desk/internal/session"
	"invoice-desk/internal/store"
	"invoice-desk/internal/util"
	"invoice-desk/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting invoice desk", zap.String("remote", cfg.Remote.BaseURL))

	tp, err := util.InitTracer(cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))

	remote := apiclient.NewClient(cfg.Remote.BaseURL, cfg.Remote.Timeout)

	deps := service.Deps{
		Remote:    remote,
		Snapshots: redisClient,
		Tally:     redisClient,
		Locker:    redisClient,
	}

	// The journal is optional: without Postgres the desk still invoices.
	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Warn("Database unavailable, submissions will not be journaled", zap.Error(err))
	} else {
		defer db.Close()
		if err := db.Migrate(); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		deps.Journal = db
		logger.Info("Database connected")
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var tallyWorker *worker.TallyWorker
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Brokers[0] != "" {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicDesk)
		defer producer.Close()
		deps.Events = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicDesk))

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicDesk, cfg.Kafka.ConsumerGroup)
		tallyWorker = worker.NewTallyWorker(consumer, redisClient, time.Local)
		go func() {
			if err := tallyWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Tally worker error", zap.Error(err))
			}
		}()
	} else {
		logger.Warn("No Kafka brokers configured, desk events are disabled")
	}

	deskService := service.NewDeskService(deps, service.Options{
		PageSize:       cfg.Desk.PageSize,
		SearchDebounce: cfg.Desk.SearchDebounce,
		SubmitTimeout:  cfg.Desk.SubmitTimeout,
		IdleTTL:        cfg.Desk.SessionTTL,
	})
	go deskService.RunSweeper(workerCtx, time.Minute)

	sessions := session.NewManager(
		remote,
		session.NewRedisStore(redisClient),
		session.NewTokenIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		cfg.Desk.SessionTTL,
	)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(deskService, sessions, remote)
	handler.AddReadinessCheck("redis", redisClient.Ping)
	if db != nil {
		handler.AddReadinessCheck("database", db.Ping)
	}
	handler.SetupRoutes(router)

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

	workerCancel()
	if tallyWorker != nil {
		if err := tallyWorker.Stop(); err != nil {
			logger.Warn("Error stopping tally worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
