package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/localpulse/localpulse-engine/pkg/config"
	"github.com/localpulse/localpulse-engine/pkg/database"
	"github.com/localpulse/localpulse-engine/pkg/handlers"
	"github.com/localpulse/localpulse-engine/pkg/logging"
	"github.com/localpulse/localpulse-engine/pkg/metrics"
	"github.com/localpulse/localpulse-engine/pkg/middleware"
	"github.com/localpulse/localpulse-engine/pkg/repositories"
	"github.com/localpulse/localpulse-engine/pkg/searchvolume"
	"github.com/localpulse/localpulse-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Engine exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting localpulse-engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	if err := migrate(cfg, logger); err != nil {
		return err
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	volumeClient, err := searchvolume.NewHTTPClient(&searchvolume.Config{
		Endpoint: cfg.VolumeAPI.Endpoint,
		APIKey:   cfg.VolumeAPI.APIKey,
		Timeout:  cfg.VolumeAPI.Timeout(),
	}, logger)
	if err != nil {
		return err
	}

	metrics.Init(db, logger)

	keywordRepo := repositories.NewKeywordRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	locationRepo := repositories.NewLocationRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)

	settingsService := services.NewSettingsService(settingsRepo, logger)
	refreshService := services.NewRefreshService(db, keywordRepo, locationRepo, settingsService, volumeClient,
		services.RefreshTargeting{
			Language:       cfg.VolumeAPI.Language,
			SearchPartners: cfg.VolumeAPI.SearchPartners,
		},
		cfg.Engine.RefreshConcurrency, logger)
	keywordService := services.NewKeywordService(db, keywordRepo, categoryRepo, locationRepo, refreshService, logger)
	keyphraseService := services.NewKeyphraseService(keywordRepo, categoryRepo, locationRepo, settingsService, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewKeyphraseHandler(keyphraseService, logger).RegisterRoutes(mux)
	handlers.NewKeywordHandler(keywordService, logger).RegisterRoutes(mux)
	handlers.NewRefreshHandler(refreshService, logger).RegisterRoutes(mux)
	handlers.NewSettingsHandler(settingsService, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metrics.Handler())

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: middleware.RequestLogger(logger)(mux),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// migrate applies pending schema migrations over a short-lived database/sql
// connection; the pgx pool is only opened once the schema is current.
func migrate(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	return database.RunMigrations(sqlDB, cfg.Engine.MigrationsPath, logger)
}
