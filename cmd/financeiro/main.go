package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/Josehuhu/financeiro/internal/amqp"
	"github.com/Josehuhu/financeiro/internal/cli"
	"github.com/Josehuhu/financeiro/internal/history"
	apphttp "github.com/Josehuhu/financeiro/internal/http"
	"github.com/Josehuhu/financeiro/internal/ledger"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting financeiro")

	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.OpenStore(logger, cfg)

	hist := history.NewStore(store.KV())

	// AMQP fan-out is optional; without a URL events stay local.
	var publisher ledger.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("AMQP event fan-out enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	svc := ledger.NewService(store, hist, publisher)
	srv := apphttp.NewServer(":"+cfg.Port, svc, hist)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		if err := svc.Close(); err != nil {
			logger.Error("Storage close error", "error", err)
		}
	})

	logger.Info("Starting financeiro server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
