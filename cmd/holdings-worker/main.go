package main

import (
	"os"
	"time"

	"holdings/internal/amqp"
	"holdings/internal/cli"
	"holdings/internal/log"
	"holdings/internal/services"
	"holdings/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting holdings-worker")

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	result := cli.InitBackend(ctx, cfg, logger)
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()
	if result.Snapshots == nil {
		logger.Error("Snapshot store unavailable - set SQLITE_DB_PATH")
		os.Exit(1)
	}

	balance := services.NewBalanceService(result.Backend, cli.BalanceOptions(cfg), logger)

	snapshotWorker := worker.NewSnapshotWorker(balance, result.Snapshots, worker.SnapshotWorkerConfig{
		Interval:        cfg.SnapshotInterval,
		SnapshotOnStart: true,
	}, logger)

	var consumer worker.ChangeConsumer
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		consumer = amqpClient
	} else {
		logger.Info("AMQP disabled - periodic snapshots only")
	}

	if err := snapshotWorker.Run(ctx, consumer); err != nil {
		logger.Error("Snapshot worker failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
