package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/triage-desk/ticket-router/internal/api/http"
	"github.com/triage-desk/ticket-router/internal/api/http/handlers"
	"github.com/triage-desk/ticket-router/internal/config"
	"github.com/triage-desk/ticket-router/internal/events"
	"github.com/triage-desk/ticket-router/internal/mq"
	"github.com/triage-desk/ticket-router/internal/observability"
	"github.com/triage-desk/ticket-router/internal/persistence"
	"github.com/triage-desk/ticket-router/internal/realtime"
	"github.com/triage-desk/ticket-router/internal/service"
	"github.com/triage-desk/ticket-router/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	store := pg.Store()

	if cfg.Directory.SeedDemoUsers {
		if err := persistence.SeedDemoUsers(ctx, store.Repos().Users, logger); err != nil {
			logger.Fatal("failed to seed users", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	userCache := redis.DirectoryCache(cfg.Directory.CacheTTL())

	var relay mq.Publisher
	if cfg.Notification.AMQPURL != "" {
		p, err := mq.NewRabbitPublisher(cfg.Notification.AMQPURL, cfg.Notification.AMQPExchange, logger)
		if err != nil {
			logger.Warn("amqp relay disabled", zap.Error(err))
		} else {
			relay = p
		}
	}

	dispatcher := events.NewInMemoryDispatcher()
	hub := realtime.NewHub(logger.Named("hub"))
	notifications := service.NewNotificationService(dispatcher, hub, relay, logger.Named("notifications"))
	workerDone := worker.StartNotificationWorker(ctx, notifications, relay, cfg.Notification.QueueSize, logger)

	directory := service.NewDirectory(store, userCache, logger.Named("directory"))
	ledger := service.NewMessageLedger(store)
	visibility := service.NewVisibility(store, directory, ledger)
	workflow := service.NewWorkflowService(service.WorkflowDependencies{
		Store:      store,
		Directory:  directory,
		Ledger:     ledger,
		Dispatcher: dispatcher,
		Logger:     logger.Named("workflow"),
	})

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSOrigins,
	})

	dependencies := map[string]handlers.Dependency{"redis": redis}
	if pg.Enabled() {
		dependencies["postgres"] = pg
	}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies, hub, metrics),
		Users:   handlers.NewUsersHandler(directory),
		Tickets: handlers.NewTicketsHandler(workflow, visibility),
		WS: handlers.NewWSHandler(directory, hub,
			cfg.Notification.PingInterval(),
			cfg.Notification.WriteTimeout(),
			logger.Named("ws")),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	<-workerDone
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
