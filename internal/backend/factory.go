package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"monthlyexpenses/internal/amqp"
	"monthlyexpenses/internal/folder"
	"monthlyexpenses/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case DirBackend:
		res = f.createDirBackend(config)
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		res = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachPublisher(res, config)
	return res, nil
}

func (f *DefaultFactory) createDirBackend(config Config) *BackendResult {
	f.logger.Info("Initialized directory backend", "create_missing", config.CreateDir)
	return &BackendResult{Picker: folder.DirPicker{Create: config.CreateDir}}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Picker: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return &BackendResult{Picker: folder.NewMemoryPickerFromDir(dataDir)}
}

// attachPublisher connects the save event publisher. A broker that cannot be
// reached is logged and skipped; saving works without it.
func (f *DefaultFactory) attachPublisher(res *BackendResult, config Config) {
	if config.AMQPURL == "" {
		return
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without save events", "error", err)
		return
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	res.Publisher = client
	storeCleanup := res.Cleanup
	res.Cleanup = func() error {
		var errs []error
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close AMQP client: %w", err))
		}
		if storeCleanup != nil {
			if err := storeCleanup(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
