package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"monthlyexpenses/internal/backend"
	"monthlyexpenses/internal/cache"
	"monthlyexpenses/internal/cli"
	apphttp "monthlyexpenses/internal/http"
	applog "monthlyexpenses/internal/log"
	"monthlyexpenses/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	svc := services.NewLedgerService(res.Picker, services.Options{
		CacheSize:        cfg.CacheSize,
		CacheTTL:         cfg.CacheTTL,
		RangeConcurrency: cfg.RangeConcurrency,
		Publisher:        res.Publisher,
		Logger:           logger,
	})
	if cfg.LedgerDir != "" {
		if err := svc.SelectFolder(context.Background(), cfg.LedgerDir); err != nil {
			logger.Warn("Initial folder not selected", applog.FieldFolder, cfg.LedgerDir, applog.FieldError, err)
		}
	}

	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	caches.Register(svc.Cache())
	caches.StartCleanup(cfg.CacheTTL)

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{Logger: logger})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		caches.Stop()
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	logger.Info("Starting monthlyexpenses server",
		applog.FieldOperation, applog.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"save_events", res.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
