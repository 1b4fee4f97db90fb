package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gantryhq/gantry/config"
	"github.com/gantryhq/gantry/internal/repositories/estimate"
	"github.com/gantryhq/gantry/internal/repositories/estimateresource"
	"github.com/gantryhq/gantry/internal/repositories/lineitem"
	"github.com/gantryhq/gantry/internal/repositories/resourceallocation"
	"github.com/gantryhq/gantry/internal/repositories/statusassignment"
	"github.com/gantryhq/gantry/internal/repositories/statustype"
	"github.com/gantryhq/gantry/pkg/allocations"
	"github.com/gantryhq/gantry/pkg/database"
	"github.com/gantryhq/gantry/pkg/events"
	"github.com/gantryhq/gantry/pkg/kafka"
	"github.com/gantryhq/gantry/pkg/routes/health"
	"github.com/gantryhq/gantry/pkg/routes/project"
	"github.com/gantryhq/gantry/pkg/routes/status"
	"github.com/gantryhq/gantry/pkg/server"
	"github.com/gantryhq/gantry/pkg/summary"
	"github.com/gantryhq/gantry/pkg/tasks"
	"github.com/gantryhq/gantry/pkg/tracing"
	"github.com/gantryhq/gantry/pkg/tracing/exporters"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(&cfg, logger); err != nil {
		logger.WithError(err).Error("Service exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger ectologger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEnabled {
		shutdown, err := tracing.Init(ctx, cfg.AppName, exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Warn("Failed to shut down tracing")
			}
		}()
	}

	sqlxDB, err := connectDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer sqlxDB.Close()

	if err := runMigrations(cfg, logger, sqlxDB); err != nil {
		return err
	}

	db := database.NewDatabaseInstance(sqlxDB, logger)

	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:     strings.Split(cfg.KafkaBrokers, ","),
			Topic:       cfg.KafkaTaskEventsTopic,
			Compression: cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
	}
	emitter := events.NewEmitter(producer, logger)

	estimates := estimate.NewRepository(db, logger)
	lineItems := lineitem.NewRepository(db, logger)
	statusTypes := statustype.NewRepository(db, logger)
	statusAssignments := statusassignment.NewRepository(db, logger)
	resourceAllocations := resourceallocation.NewRepository(db, logger)
	estimateResources := estimateresource.NewRepository(db, logger)

	summaryService := summary.NewService(estimates, lineItems, resourceAllocations, statusAssignments, estimateResources, logger)
	taskService := tasks.NewService(db, estimates, lineItems, statusTypes, statusAssignments, emitter, logger)
	allocationService := allocations.NewService(db, estimates, lineItems, resourceAllocations, emitter, logger)

	e := server.New(cfg, logger)

	api := e.Group("/api")
	project.NewHandler(summaryService, taskService, allocationService, logger).Register(api.Group("/project"))
	status.NewHandler(statusTypes, logger).Register(api.Group("/status"))

	checker := health.NewChecker(sqlxDB, version)
	checker.RegisterRoutes(e)
	checker.SetReady(true)

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Infof("Starting %s on port %d", cfg.AppName, cfg.Port)
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return e.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

func connectDatabase(cfg *config.Config, logger ectologger.Logger) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseUserName,
		cfg.DatabasePassword,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)

	var db *sqlx.DB
	var err error
	for attempt := 0; attempt <= cfg.DatabaseReconnectRetryCount; attempt++ {
		db, err = sqlx.Connect(cfg.DatabaseDriver, dsn)
		if err == nil {
			break
		}
		logger.WithError(err).Warnf("Database connection attempt %d failed", attempt+1)
		time.Sleep(time.Duration(attempt+1) * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	return db, nil
}

func runMigrations(cfg *config.Config, logger ectologger.Logger, db *sqlx.DB) error {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	ms := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
	})

	return ms.Migrate(cfg.DatabaseName, driver)
}
