package backend

import (
	"context"
	"fmt"

	"masarif/internal/blob"
	"masarif/internal/blob/file"
	"masarif/internal/blob/memory"
	"masarif/internal/blob/sealed"
	applog "masarif/internal/log"
	"masarif/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case MemoryBackend:
		result = f.createMemoryBackend()
	case FileBackend:
		result, err = f.createFileBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.Sealed() {
		store, err := sealed.New(result.Store, config.EncryptionKey, config.SigningKey)
		if err != nil {
			_ = result.Close()
			return nil, fmt.Errorf("failed to seal %s backend: %w", config.Type, err)
		}
		result.Store = store
		result.Sealed = true
	}

	f.logger.Info("Initialized blob backend",
		applog.FieldBackend, config.Type.String(),
		"sealed", result.Sealed)
	return result, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Warn("Memory backend selected, expenses will not survive a restart")
	return &BackendResult{Store: memory.NewStore()}
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	store, err := file.NewStore(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file backend: %w", err)
	}
	f.logger.Debug("File backend ready", "data_directory", config.DataDirectory)
	return &BackendResult{Store: store}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	if err := repo.Ping(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to reach SQLite database: %w", err)
	}
	version, upgraded := repo.SchemaVersion()
	if upgraded {
		f.logger.Info("Blob schema upgraded", "db_path", config.SQLiteDBPath, "schema_version", version)
	}
	f.logger.Debug("SQLite backend ready", "db_path", config.SQLiteDBPath, "schema_version", version)
	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

var _ blob.Store = (*storage.SQLiteRepository)(nil)
