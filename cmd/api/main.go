package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kpi-report-service/internal/config"

	reportsHttp "kpi-report-service/internal/reports/adapters/http/fiber"
	reportsRepoPg "kpi-report-service/internal/reports/adapters/postgres"
	reportsUsecase "kpi-report-service/internal/reports/core/usecase"
	"kpi-report-service/internal/reports/core/views"

	sessionsHttp "kpi-report-service/internal/sessions/adapters/http/fiber"
	"kpi-report-service/internal/sessions/adapters/kpiggybank"
	"kpi-report-service/internal/sessions/adapters/memory"
	sessionsRepoPg "kpi-report-service/internal/sessions/adapters/postgres"
	sessionsPorts "kpi-report-service/internal/sessions/core/ports"
	sessionsUsecase "kpi-report-service/internal/sessions/core/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	_ "kpi-report-service/docs"
)

// @title KPI Report Service API
// @version 1.0
// @description Ingests authentication-flow session telemetry and serves aggregated KPI reports.
// @BasePath /
func main() {
	// Config
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	var (
		store   sessionsPorts.SessionStorePort
		scanner sessionsPorts.SessionScannerPort
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		mem := memory.NewStore()
		store, scanner = mem, mem
	default:
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("failed to open postgres: %v", err)
		}
		defer db.Close()

		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)

		repo := sessionsRepoPg.NewSessionRepository(sessionsRepoPg.NewSQLDB(db))
		if err := repo.Migrate(ctx); err != nil {
			log.Fatalf("failed to migrate postgres: %v", err)
		}
		store = repo
		scanner = reportsRepoPg.NewSessionReader(reportsRepoPg.NewSQLDB(db))
	}

	// Usecases
	fetcher := kpiggybank.NewClient(cfg.TelemetryURL, &http.Client{Timeout: 30 * time.Minute})
	ingestUC := sessionsUsecase.NewIngestSessionsUseCase(fetcher, store, catalog, logger)

	registry, err := views.NewRegistry(catalog)
	if err != nil {
		log.Fatalf("failed to build views: %v", err)
	}
	engine := views.NewEngine(registry, scanner, views.WithShards(cfg.ViewShards), views.WithLogger(logger))
	getReportUC := reportsUsecase.NewGetReportUseCase(engine, catalog)

	// HTTP (Fiber) app + handlers
	app := fiber.New()

	ingestHandler := sessionsHttp.NewIngestHandler(ingestUC)
	app.Post("/ingest", ingestHandler.Ingest)

	reportHandler := reportsHttp.NewReportHandler(getReportUC, logger)
	app.Get("/reports", reportHandler.ListReports)
	app.Get("/reports/:family", reportHandler.GetReport)

	app.Get("/internal/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger
	app.Get("/docs/*", fiberSwagger.WrapHandler)

	// Scheduled refresh
	if cfg.RefreshInterval > 0 {
		go runRefresh(ctx, ingestUC, cfg.RefreshInterval, cfg.RefreshWindow, time.Now, logger)
		logger.Info("scheduled refresh enabled", "interval", cfg.RefreshInterval, "window", cfg.RefreshWindow)
	}

	// Graceful shutdown
	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			logger.Error("fiber stopped", "error", err)
		}
	}()

	logger.Info("server started", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver, "views", len(registry.Names()))

	<-ctx.Done()

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("fiber shutdown error", "error", err)
	}

	logger.Info("server exiting")
}
