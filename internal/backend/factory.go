package backend

import (
	"context"
	"fmt"

	"tally/internal/config"
	applog "tally/internal/log"
	"tally/internal/storage"
	"tally/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentStorage),
	}
}

// New opens the backend selected by the application config.
func New(ctx context.Context, appConfig *config.Config, logger *applog.Logger) (*Backend, error) {
	cfg, err := FromAppConfig(appConfig)
	if err != nil {
		return nil, err
	}
	return NewFactory(logger).CreateBackend(ctx, cfg)
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	default:
		return f.createMemoryBackend(config)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*Backend, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	if err := repo.Ping(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to reach SQLite database: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &Backend{Type: SQLiteBackend, Store: repo, Ready: repo.Ping}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*Backend, error) {
	st := memory.New()
	if config.SeedFile != "" {
		var err error
		st, err = memory.NewFromFile(config.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed file: %w", err)
		}
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)
	return &Backend{
		Type:  MemoryBackend,
		Store: st,
		Ready: func(context.Context) error { return nil },
	}, nil
}
