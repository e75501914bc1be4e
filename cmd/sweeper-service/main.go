package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jobtrack/jobtrack-be/internal/config"
	"github.com/jobtrack/jobtrack-be/internal/liveness"
	"github.com/jobtrack/jobtrack-be/internal/notify"
	"github.com/jobtrack/jobtrack-be/internal/store"
	"github.com/jobtrack/jobtrack-be/internal/sweep"
	"github.com/jobtrack/jobtrack-be/shared/logger"
	"github.com/jobtrack/jobtrack-be/shared/postgresql"
	"github.com/jobtrack/jobtrack-be/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("SWEEPER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/sweeper-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateSweeperConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting sweeper service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.Int("sweep_interval_minutes", cfg.Liveness.SweepIntervalMinutes),
		slog.Int("sweep_concurrency", cfg.Liveness.SweepConcurrency),
	)

	// Initialize the optional RabbitMQ event publisher
	var notifier notify.Notifier
	var rabbitClient *rabbitmq.Client
	if cfg.RabbitMQ.Enabled {
		rabbitClient, err = initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		notifier = notify.NewAMQPNotifier(rabbitClient, appLogger.Logger)
		appLogger.Info("RabbitMQ event publisher enabled")
	}

	// Initialize record store
	recordStore, storeCleanup, err := initStore(cfg, appLogger.Logger, notifier)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	appLogger.Info("Record store ready",
		slog.String("backend", cfg.Store.Backend),
	)

	// Wire the sweeper and its scheduler
	prober := liveness.NewHTTPProber(cfg.Liveness.ProbeTimeout, appLogger.Logger)
	sweeper := sweep.NewSweeper(&sweep.Config{
		Logger:      appLogger.Logger,
		Store:       recordStore,
		Prober:      prober,
		Concurrency: cfg.Liveness.SweepConcurrency,
	})
	scheduler := sweep.NewScheduler(sweeper, cfg.Liveness.SweepIntervalMinutes, appLogger.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	appLogger.Info("Sweeper service is running")

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down sweeper...")

	cancel()
	scheduler.Stop()

	storeCleanup()
	if rabbitClient != nil {
		rabbitClient.Close()
	}

	appLogger.Info("Sweeper shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initStore opens the configured store backend and returns it with a
// cleanup function closing whatever the backend owns.
func initStore(cfg *config.Config, logger *slog.Logger, notifier notify.Notifier) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		dbClient, err := postgresql.NewClient(&postgresql.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}, logger)
		if err != nil {
			return nil, nil, err
		}

		pgStore, err := store.NewPostgresStore(context.Background(), dbClient, logger, notifier)
		if err != nil {
			dbClient.Close()
			return nil, nil, err
		}
		return pgStore, func() { dbClient.Close() }, nil

	default:
		badgerStore, err := store.OpenBadger(cfg.Store.Badger.Path, logger, notifier)
		if err != nil {
			return nil, nil, err
		}
		return badgerStore, func() { badgerStore.Close() }, nil
	}
}

// initRabbitMQ initializes the RabbitMQ event publisher
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}
