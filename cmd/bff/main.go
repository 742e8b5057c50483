package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/notainsight/nota-insight-bff-go/internal/config"
	"github.com/notainsight/nota-insight-bff-go/internal/domain"
	"github.com/notainsight/nota-insight-bff-go/internal/handler"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/cache"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/client"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/observability"
	"github.com/notainsight/nota-insight-bff-go/internal/infra/resilience"
	"github.com/notainsight/nota-insight-bff-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("backend_api_url", cfg.BackendAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Duration("review_session_ttl", cfg.ReviewSessionTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	pageCache := cache.New[*domain.InvoicePage](cfg.CacheTTL)
	summaryCache := cache.New[*domain.DashboardSummary](cfg.CacheTTL)
	subscriptionCache := cache.New[*domain.Subscription](cfg.CacheTTL)
	sessionCache := cache.New[*service.Session](cfg.ReviewSessionTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("backend-api")

	// --- Backend client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	backend := client.NewBackend(httpClient, cfg.BackendAPIURL, cb, resilienceCfg, logger)

	// --- Services ---
	reviewSvc := service.NewReviewService(backend, backend, sessionCache, pageCache, logger, metrics)
	invoiceSvc := service.NewInvoiceService(backend, pageCache, logger, metrics)
	dashboardSvc := service.NewDashboardService(backend, backend, backend, summaryCache, logger, metrics)
	subscriptionSvc := service.NewSubscriptionService(backend, subscriptionCache, logger, metrics)
	adminSvc := service.NewAdminService(backend, logger, metrics)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Dashboard:    dashboardSvc,
		Invoices:     invoiceSvc,
		Review:       reviewSvc,
		Subscription: subscriptionSvc,
		Admin:        adminSvc,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
