package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/rentpulse/pricing-engine/pkg/config"
	"github.com/rentpulse/pricing-engine/pkg/database"
	"github.com/rentpulse/pricing-engine/pkg/handlers"
	"github.com/rentpulse/pricing-engine/pkg/llm"
	"github.com/rentpulse/pricing-engine/pkg/middleware"
	"github.com/rentpulse/pricing-engine/pkg/repositories"
	"github.com/rentpulse/pricing-engine/pkg/services"
	"github.com/rentpulse/pricing-engine/pkg/services/workqueue"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Build structured logger
	var logger *zap.Logger
	if cfg.Env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("db_host", cfg.Database.Host),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model))

	ctx := context.Background()

	// Run migrations using database/sql (required by golang-migrate)
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	// Connection pool for the application
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	listingRepo := repositories.NewListingRepository(db)
	calendarRepo := repositories.NewCalendarRepository(db)
	sampleRepo := repositories.NewMarketSampleRepository(db)
	featuresRepo := repositories.NewFeaturesRepository(db)
	recRepo := repositories.NewRecommendationRepository(db)

	// Completion client for the quoting pipeline
	llmClient, err := llm.NewCompletionClient(&llm.Config{
		Provider: cfg.LLM.Provider,
		Endpoint: cfg.LLM.Endpoint,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		Timeout:  cfg.LLM.Timeout(),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create completion client", zap.Error(err))
	}

	// Services
	resolver := services.NewMarketDataResolver(sampleRepo, logger)
	recSvc := services.NewRecommendationService(listingRepo, sampleRepo, featuresRepo, recRepo, resolver, logger)
	quoteSvc := services.NewQuoteService(listingRepo, featuresRepo, recRepo, resolver, llmClient, cfg.LLM.Temperature, logger)

	// Background work queue for quoting and refresh tasks
	queue := workqueue.New(logger)
	defer queue.Cancel()

	windowDays := cfg.Pricing.DefaultWindowDays

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewListingHandler(listingRepo, calendarRepo, windowDays, logger).RegisterRoutes(mux)
	handlers.NewRecommendationHandler(recSvc, queue, windowDays, logger).RegisterRoutes(mux)
	handlers.NewQuoteHandler(listingRepo, quoteSvc, queue, windowDays, logger).RegisterRoutes(mux)
	handlers.NewTaskHandler(queue, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting pricing-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
