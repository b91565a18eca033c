package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stsphera/notify-engine/internal/cache"
	"github.com/stsphera/notify-engine/internal/config"
	"github.com/stsphera/notify-engine/internal/handler"
	"github.com/stsphera/notify-engine/internal/infra/postgresql"
	"github.com/stsphera/notify-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/stsphera/notify-engine/internal/infra/redis"
	"github.com/stsphera/notify-engine/internal/observability"
	"github.com/stsphera/notify-engine/internal/queue"
	"github.com/stsphera/notify-engine/internal/quiet"
	"github.com/stsphera/notify-engine/internal/repository"
	"github.com/stsphera/notify-engine/internal/resolver"
	"github.com/stsphera/notify-engine/internal/service"
	"github.com/stsphera/notify-engine/internal/telegram"
	"github.com/stsphera/notify-engine/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	queueRepo := repository.NewGormQueueRepo(db)
	recipientRepo := repository.NewGormRecipientRepo(db)

	var projectRepo repository.ProjectRepository = repository.NewGormProjectRepo(db)
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		client, err := infraredis.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis initialization failed", zap.Error(err))
		}
		defer client.Close()
		rdb = client

		cached, err := cache.NewProjectNameCache(projectRepo, client, logger)
		if err != nil {
			logger.Fatal("project cache initialization failed", zap.Error(err))
		}
		projectRepo = cached
	}

	recipientResolver, err := resolver.New(recipientRepo)
	if err != nil {
		logger.Fatal("resolver initialization failed", zap.Error(err))
	}

	tgClient, err := telegram.NewClient(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal("telegram client initialization failed", zap.Error(err))
	}

	dispatcher, err := service.NewDispatcher(
		queueRepo,
		recipientResolver,
		projectRepo,
		tgClient,
		quiet.NewPolicy(cfg.QuietUTCOffsetHours),
		service.DispatcherOptions{
			BatchSize:    cfg.BatchSize,
			RetryDelay:   cfg.RetryDelay,
			SendInterval: cfg.SendInterval,
			Retention:    cfg.Retention,
		},
		logger,
	)
	if err != nil {
		logger.Fatal("dispatcher initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher.SetMetrics(metrics)

	enqueueService, err := service.NewEnqueueService(queueRepo, cfg.MaxAttempts, logger)
	if err != nil {
		logger.Fatal("enqueue service initialization failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterEventRoutes(app, enqueueService); err != nil {
		logger.Fatal("event routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterDispatchRoutes(app, dispatcher, cfg.TriggerSecret); err != nil {
		logger.Fatal("dispatch routes registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("notify-engine worker started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if cfg.TickInterval > 0 {
		g.Go(func() error {
			return runTicker(gctx, dispatcher, cfg.TickInterval, logger)
		})
	}

	if cfg.RabbitMQURL != "" {
		rmq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			logger.Fatal("rabbitmq initialization failed", zap.Error(err))
		}
		consumer := queue.NewRabbitMQConsumer(rmq, 1, logger)
		defer consumer.Close()

		g.Go(func() error {
			return consumer.Consume(gctx, intakeHandler(enqueueService))
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped with error", zap.Error(err))
	}
}

// runTicker drives periodic dispatch invocations. A zero interval disables
// the loop entirely, leaving only the HTTP trigger.
func runTicker(ctx context.Context, dispatcher *service.Dispatcher, interval time.Duration, logger *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := dispatcher.RunOnce(ctx); err != nil {
				logger.Error("dispatch invocation failed", zap.Error(err))
			}
		}
	}
}

// intakeHandler maps broker event messages onto the enqueue contract shared
// with the HTTP entry point.
func intakeHandler(enqueue *service.EnqueueService) queue.MessageHandler {
	return func(ctx context.Context, msg queue.EventMessage) error {
		_, err := enqueue.Enqueue(ctx, service.EnqueueRequest{
			EventType:     msg.EventType,
			ProjectID:     msg.ProjectID,
			Payload:       msg.Payload,
			TargetRoles:   msg.TargetRoles,
			TargetChatIDs: msg.TargetChatIDs,
			Priority:      string(msg.Priority),
			ScheduledAt:   msg.ScheduledAt,
		})
		return err
	}
}
