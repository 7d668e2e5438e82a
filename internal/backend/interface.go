package backend

import (
	"context"

	"monthlyexpenses/internal/folder"
	"monthlyexpenses/internal/services"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult carries the folder store for the selected backend and the
// optional save event publisher.
type BackendResult struct {
	Picker folder.Picker
	// Publisher is nil when no broker is configured.
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Close runs Cleanup when there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Directory backend
	CreateDir bool

	// SQLite specific
	SQLiteDBPath string

	// Save events, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Memory backend seed directory
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	DirBackend    BackendType = "fs"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case DirBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
