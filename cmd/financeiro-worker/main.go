package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/Josehuhu/financeiro/internal/amqp"
	"github.com/Josehuhu/financeiro/internal/cli"
	"github.com/Josehuhu/financeiro/internal/export"
	gsheet "github.com/Josehuhu/financeiro/internal/export/google"
	"github.com/Josehuhu/financeiro/internal/history"
	"github.com/Josehuhu/financeiro/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting financeiro-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	store := cli.OpenStore(logger, cfg)
	hist := history.NewStore(store.KV())

	// Report export is optional; without a spreadsheet only the history
	// mirror runs.
	var report export.ReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		report = client
		logger.Info("Google Sheets export enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := store.Close(); err != nil {
			logger.Error("Storage close error", "error", err)
		}
	})

	amqpClient, err := amqp.Dial(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.New(hist, store, report)

	if _, err := w.ExportBacklog(ctx); err != nil {
		logger.Error("Startup backlog export failed", "error", err)
		// Keep running; the periodic sweep retries.
	}

	if err := w.Run(ctx, amqpClient, cfg.ExportInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
