package main

import (
	"context"
	"errors"
	"os"
	"time"

	"monthlyexpenses/internal/amqp"
	"monthlyexpenses/internal/backend"
	"monthlyexpenses/internal/cli"
	"monthlyexpenses/internal/config"
	applog "monthlyexpenses/internal/log"
	"monthlyexpenses/internal/sheets"
	gsheet "monthlyexpenses/internal/sheets/google"
	"monthlyexpenses/internal/sheets/memory"
	"monthlyexpenses/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	var mirror sheets.LedgerMirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetPrefix:     cfg.GoogleSheetPrefix,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		mirror = memory.New()
		logger.Info("Google Sheets disabled, mirroring in memory")
	}
	w := worker.NewMirrorWorker(mirror, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if cfg.MirrorBackfill != "" {
		backfill(ctx, logger, cfg, w)
	}

	client, err := amqp.ConnectWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 2*time.Minute)
	if err != nil {
		logger.Error("Failed to connect to AMQP broker", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	logger.Info("Consuming ledger saved messages",
		applog.FieldOperation, applog.OpStartup,
		"queue", cfg.AMQPQueue)
	if err := client.ConsumeLedgerSaved(ctx, w.HandleLedgerSaved); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}

// backfill mirrors every month already stored in the MIRROR_BACKFILL folder
// before live messages are consumed. Failures are logged and do not stop the
// worker.
func backfill(ctx context.Context, logger *applog.Logger, cfg *config.Config, w *worker.MirrorWorker) {
	location := cfg.MirrorBackfill
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Backfill skipped", applog.FieldError, err)
		return
	}
	// The worker only reads; it must not publish save events of its own.
	bcfg.AMQPURL = ""
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Backfill skipped", applog.FieldError, err)
		return
	}
	defer res.Close()

	f, err := res.Picker.Pick(ctx, location)
	if err != nil {
		logger.Error("Backfill skipped", applog.FieldFolder, location, applog.FieldError, err)
		return
	}
	if _, err := w.Backfill(ctx, f); err != nil {
		logger.Error("Backfill failed", applog.FieldFolder, location, applog.FieldError, err)
	}
}
