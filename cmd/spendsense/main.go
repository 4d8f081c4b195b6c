package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spendsense/config"
	"spendsense/internal/api"
	"spendsense/internal/catalog"
	"spendsense/internal/pipeline"
	"spendsense/internal/repository/memory"
	"spendsense/internal/service"
	"spendsense/pkg/crypto"
	"spendsense/pkg/metrics"
)

const (
	appName = "spendsense"
)

func main() {
	logger := setupLogger()
	cfg := config.LoadConfig()
	logger.Info("Starting application",
		slog.String("name", appName))

	metricsCollector := metrics.NewMetricsCollector(logger)
	signer := crypto.NewSigner(cfg.SignerKey, logger)

	transactionFeed := memory.NewTransactionFeed()
	accountFeed := memory.NewAccountFeed()
	profileFeed := memory.NewProfileFeed()
	bundleStore := memory.NewBundleStore()
	if cfg.SeedDemoData {
		seedDemoUsers(transactionFeed, accountFeed, profileFeed, logger)
	}

	pipelineCfg := pipeline.DefaultConfig()
	pipelineCfg.PrimaryWindow = cfg.PrimaryWindow
	pipelineCfg.EducationMin = cfg.EducationMin
	pipelineCfg.EducationMax = cfg.EducationMax
	pipelineCfg.OfferCap = cfg.OfferCap
	insightPipeline := pipeline.New(catalog.Default(), pipelineCfg, signer, logger)

	eventService := service.NewEventService(
		[]service.EventSink{&service.LogSink{Logger: logger}},
		cfg.EventWorkers,
		logger,
	)
	insightService := service.NewInsightService(
		insightPipeline,
		transactionFeed,
		accountFeed,
		profileFeed,
		bundleStore,
		eventService,
		metricsCollector,
		logger,
	)

	apiHandler := api.NewAPIHandler(insightService, signer, logger)
	metricsServer := metricsCollector.StartMetricsServer(cfg.MetricsAddr)
	httpServer := startHTTPServer(apiHandler, cfg.HTTPAddr, logger)
	waitForShutdown(logger, httpServer, metricsServer, eventService, metricsCollector)
	logger.Info("Application shutdown complete")
}

func setupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func startHTTPServer(apiHandler *api.APIHandler, addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	apiHandler.RegisterRoutes(mux)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"name": "%s", "status": "ok"}`, appName)
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(
	logger *slog.Logger,
	httpServer *http.Server,
	metricsServer *http.Server,
	eventService *service.EventService,
	metricsCollector *metrics.MetricsCollector,
) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}

	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}

	if err := eventService.Shutdown(ctx); err != nil {
		logger.Error("Event service shutdown failed", slog.String("error", err.Error()))
	}
	if err := metricsCollector.Shutdown(ctx); err != nil {
		logger.Error("Metrics collector shutdown failed", slog.String("error", err.Error()))
	}
}
