package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"holdings/internal/amqp"
	"holdings/internal/cache"
	"holdings/internal/cli"
	apphttp "holdings/internal/http"
	"holdings/internal/log"
	"holdings/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx := context.Background()
	result := cli.InitBackend(ctx, cfg, logger)
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	balance := services.NewBalanceService(result.Backend, cli.BalanceOptions(cfg), logger)

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(balance.Cache())
	cacheManager.StartCleanup(5 * time.Minute)
	defer cacheManager.Stop()

	// Change messages are optional: without AMQP the worker relies on its ticker.
	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	holdings := services.NewHoldingService(result.Backend, balance, publisher, logger)

	exporter, err := cli.NewExporter(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Balance:   balance,
		Holdings:  holdings,
		Exporter:  exporter,
		Snapshots: result.Snapshots,
		Currency:  cfg.DisplayCurrency,
	}, logger)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting holdings server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"currency", cfg.DisplayCurrency)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
