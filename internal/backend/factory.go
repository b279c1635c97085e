package backend

import (
	"context"
	"fmt"

	"freelanceflow/internal/log"
	"freelanceflow/internal/storage"
	"freelanceflow/internal/storage/memory"
)

// Result is an opened store and the function that closes it.
type Result struct {
	Store   storage.Store
	Cleanup func() error
}

// Factory opens the store named by a Config.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"schema_version", repo.SchemaVersion())

	return &Result{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*Result, error) {
	if config.DataDirectory == "" {
		f.logger.Info("Initialized memory backend", "persistent", false)
		store := memory.New()
		return &Result{Store: store, Cleanup: store.Close}, nil
	}

	store, err := memory.NewFromDir(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)

	return &Result{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}
