package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/symptom-checker/internal/audit"
	"github.com/vcscsvcscs/symptom-checker/internal/config"
	"github.com/vcscsvcscs/symptom-checker/internal/handler"
	"github.com/vcscsvcscs/symptom-checker/internal/llm"
	"github.com/vcscsvcscs/symptom-checker/internal/logging"
	"github.com/vcscsvcscs/symptom-checker/internal/observability"
	"github.com/vcscsvcscs/symptom-checker/internal/server"
	"github.com/vcscsvcscs/symptom-checker/internal/service"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("provider", cfg.Model.Provider),
		zap.String("analysis_api_key", logging.KeyPresence(cfg.Model.AnalysisAPIKey)),
		zap.String("report_api_key", logging.KeyPresence(cfg.Model.ReportAPIKey)),
	)

	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, observability.TracingOptions{
		Environment: cfg.Server.Environment,
		Version:     version,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Model gateways. A missing key leaves the pipeline unconfigured and
	// its endpoint answers API_KEY_MISSING.
	analysisClient, err := llm.NewCompleter(cfg.Model.AnalysisProvider(), logger)
	if err != nil {
		logger.Fatal("Failed to initialize analysis model client", zap.Error(err))
	}
	reportClient, err := llm.NewCompleter(cfg.Model.ReportProvider(), logger)
	if err != nil {
		logger.Fatal("Failed to initialize report model client", zap.Error(err))
	}
	if analysisClient == nil {
		logger.Warn("GEMINI_API_KEY not set, symptom analysis is disabled")
	}
	if reportClient == nil {
		logger.Warn("GEMINI_API_KEY_2 not set, report generation is disabled")
	}

	// Optional audit database
	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		pool, err = pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to audit database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("Failed to ping audit database", zap.Error(err))
		}
		logger.Info("Successfully connected to audit database")
	}

	auditLogger := audit.NewLogger(pool, logger)
	if err := auditLogger.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to prepare audit schema", zap.Error(err))
	}
	var database handler.Pinger
	if auditLogger.Persistent() {
		database = auditLogger
	}

	symptomService := service.NewSymptomService(analysisClient, cfg.Model.AnalysisGeneration(), logger)
	reportService := service.NewReportService(reportClient, cfg.Model.ReportGeneration(), logger)

	validator, err := handler.NewRequestValidator()
	if err != nil {
		logger.Fatal("Failed to load request schema", zap.Error(err))
	}

	symptomHandler := handler.NewSymptomHandler(symptomService, reportService, validator, auditLogger, logger)
	healthHandler := handler.NewHealthHandler(symptomService, reportService, database, version, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := server.NewRouter(server.RouterOptions{
		Symptoms:    symptomHandler,
		Health:      healthHandler,
		ServiceName: cfg.Tracing.ServiceName,
		Tracing:     cfg.Tracing.Enabled,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Server exited")
}
