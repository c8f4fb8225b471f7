package backend

import (
	"context"
	"fmt"

	"holdings/internal/log"
	"holdings/internal/source/memory"
	"holdings/internal/source/rest"
	"holdings/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case RESTBackend:
		return f.withSnapshots(f.createRESTBackend(config), config)
	case MemoryBackend:
		res, err := f.createMemoryBackend(config)
		if err != nil {
			return nil, err
		}
		return f.withSnapshots(res, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// An empty database is seeded from the data directory once.
	if n, err := repo.CountHoldings(ctx); err == nil && n == 0 && config.DataDirectory != "" {
		seed, err := memory.NewFromDir(config.DataDirectory)
		if err != nil {
			f.logger.Warn("Failed to read seed holdings", log.FieldError, err)
		} else if records, _ := seed.ListHoldings(ctx); len(records) > 0 {
			inserted, err := repo.ImportHoldings(ctx, records)
			if err != nil {
				repo.Close()
				return nil, fmt.Errorf("seed SQLite repository: %w", err)
			}
			f.logger.Info("Seeded SQLite backend", "inserted", inserted)
		}
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend:   repo,
		Snapshots: repo,
		Cleanup:   repo.Close,
	}, nil
}

func (f *DefaultFactory) createRESTBackend(config Config) *BackendResult {
	client := rest.New(config.UpstreamURL, config.UpstreamTimeout,
		rest.WithEnvelopePath(config.UpstreamEnvelopePath),
		rest.WithLogger(f.logger))

	f.logger.Info("Initialized REST backend",
		"upstream_url", config.UpstreamURL,
		"envelope_path", config.UpstreamEnvelopePath)

	return &BackendResult{Backend: client}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := memory.NewFromDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &BackendResult{Backend: store}, nil
}

// withSnapshots attaches a SQLite snapshot store to a non-SQLite backend
// when a database path is configured.
func (f *DefaultFactory) withSnapshots(res *BackendResult, config Config) (*BackendResult, error) {
	if config.SQLiteDBPath == "" {
		return res, nil
	}
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
	}
	res.Snapshots = repo
	res.Cleanup = repo.Close
	return res, nil
}
