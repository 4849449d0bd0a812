package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wbreport/internal/delivery"
	"wbreport/internal/engine"
	"wbreport/internal/infrastructure"
	"wbreport/internal/usecase"
	"wbreport/pkg/config"
	"wbreport/pkg/logger"
	"wbreport/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("Starting server")

	m := metrics.New()

	// Upstream clients
	httpClient := infrastructure.NewHTTPClient(cfg.Wildberries, log, m)
	wbClient := infrastructure.NewWildberriesClient(cfg.Wildberries, httpClient, log)
	sink := infrastructure.NewSinkClient(httpClient, cfg.Export.SinkURL, cfg.Export.SinkSecret, log)

	// Storage
	reports := infrastructure.NewReportRepository(cfg.Report.MaxStoredReports, log)
	costPrices := infrastructure.NewCostPriceRepository(log)

	// Services
	reportService := usecase.NewReportService(wbClient, reports, costPrices, sink, log, m, usecase.ReportOptions{
		CreditFallback: engine.CreditFallback{
			Body:     cfg.Report.CreditBodyFallback,
			Interest: cfg.Report.CreditInterestFallback,
		},
		TaxRatePercent:     cfg.Report.TaxRatePercent,
		PrevBufferMinLines: cfg.Report.PrevBufferMinLines,
		SKU: engine.SKUResolverConfig{
			BatchSize:        cfg.Wildberries.SKUBatchSize,
			BatchDelay:       cfg.Wildberries.SKUBatchDelay,
			RateLimitRetries: cfg.Wildberries.RateLimitRetries,
			RateLimitBackoff: cfg.Wildberries.RateLimitBackoff,
			RateLimitCeiling: cfg.Wildberries.RateLimitCeiling,
			MaxRetries:       cfg.Wildberries.MaxRetries,
			RetryBackoff:     cfg.Wildberries.RetryBackoff,
		},
	})
	costPriceService := usecase.NewCostPriceService(costPrices, wbClient, log)

	handlers := delivery.NewHTTPHandlers(reportService, costPriceService, log)
	router := delivery.NewHTTPRouter(handlers, log, m, prometheus.DefaultGatherer, cfg.Server.RequestTimeout).SetupRoutes()

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		os.Exit(1)
	}
	log.Info("Server stopped")
}
