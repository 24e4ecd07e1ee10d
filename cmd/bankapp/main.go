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

	"github.com/themyzteziz/bankapp/internal/api"
	"github.com/themyzteziz/bankapp/internal/config"
	"github.com/themyzteziz/bankapp/internal/ledger"
	"github.com/themyzteziz/bankapp/internal/service"
	"github.com/themyzteziz/bankapp/internal/storage"
	"github.com/themyzteziz/bankapp/internal/storage/file"
	"github.com/themyzteziz/bankapp/internal/storage/memory"
	"github.com/themyzteziz/bankapp/internal/storage/redisstore"
	"github.com/themyzteziz/bankapp/pkg/crypto"
	"github.com/themyzteziz/bankapp/pkg/metrics"
)

const (
	appName = "bankapp"
)

func main() {
	logger := setupLogger()
	logger.Info("Starting application",
		slog.String("name", appName))

	cfgPath := os.Getenv("BANKAPP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := setupStorage(cfg, logger)
	if err != nil {
		logger.Error("Failed to set up storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	collector := metrics.NewCollector(logger)
	signer := crypto.NewSigner(cfg.SigningSecret, logger)
	accountLedger := ledger.NewLedger(store, collector, logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := accountLedger.Initialize(initCtx); err != nil {
		cancel()
		logger.Error("Failed to load accounts", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cancel()

	var interestService *service.InterestService
	if cfg.Interest.Enabled {
		interestService = service.NewInterestService(
			accountLedger,
			cfg.Interest.AnnualRatePercent,
			cfg.Interest.Interval.Std(),
			logger,
		)
		interestService.Start()
	}

	apiHandler := api.NewAPIHandler(accountLedger, signer, cfg.DefaultCurrency, logger)
	metricsServer := collector.StartMetricsServer(cfg.MetricsAddr)
	httpServer := startHTTPServer(cfg.ListenAddr, apiHandler, logger)

	waitForShutdown(logger, accountLedger, httpServer, metricsServer, interestService)
	logger.Info("Application shutdown complete")
}

func setupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func setupStorage(cfg config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendMemory:
		logger.Warn("Using in-memory storage, accounts will not survive a restart")
		return memory.NewStore(), nil
	case config.StorageBackendFile:
		return file.NewStore(cfg.Storage.Dir)
	case config.StorageBackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return redisstore.NewStore(ctx, cfg.Storage.RedisAddr)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

func startHTTPServer(addr string, apiHandler *api.APIHandler, logger *slog.Logger) *http.Server {
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
	accountLedger *ledger.Ledger,
	httpServer *http.Server,
	metricsServer *http.Server,
	interestService *service.InterestService,
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

	if interestService != nil {
		if err := interestService.Shutdown(ctx); err != nil {
			logger.Error("Interest service shutdown failed", slog.String("error", err.Error()))
		}
	}

	if err := accountLedger.SaveAccounts(ctx); err != nil {
		logger.Error("Final account flush failed", slog.String("error", err.Error()))
	}
}
