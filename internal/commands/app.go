package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"holdings/internal/backend"
	"holdings/internal/cli"
	"holdings/internal/config"
	"holdings/internal/log"
	"holdings/internal/services"
)

// app is what every backend-reading subcommand opens. Logs go to stderr so
// stdout stays machine readable.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	backend *backend.BackendResult
	balance *services.BalanceService
}

func loadConfig(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	level := log.ParseLevel(cfg.LogLevel)
	if level == slog.LevelInfo {
		level = slog.LevelWarn
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})
	return cfg, logger, nil
}

func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", backendConfig.Type, err)
	}
	return &app{
		cfg:     cfg,
		logger:  logger,
		backend: result,
		balance: services.NewBalanceService(result.Backend, cli.BalanceOptions(cfg), logger),
	}, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}
