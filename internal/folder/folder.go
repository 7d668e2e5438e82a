// Package folder defines the store that holds month files and provides the
// directory and in-memory implementations of it.
package folder

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a file does not exist in the folder.
	ErrNotFound = errors.New("file not found")
	// ErrCancelled is returned when no folder was chosen.
	ErrCancelled = errors.New("folder selection cancelled")
)

// Ports for the folder collaborator.
type (
	// Folder reads and writes whole files by name.
	Folder interface {
		// Location identifies the folder for display and cache keys.
		Location() string
		// ReadFile returns the file text or ErrNotFound.
		ReadFile(ctx context.Context, name string) (string, error)
		// WriteFile replaces the file text. Without createIfMissing a missing
		// file yields ErrNotFound.
		WriteFile(ctx context.Context, name, text string, createIfMissing bool) error
	}

	// Lister enumerates the file names held by a folder, sorted.
	Lister interface {
		List(ctx context.Context) ([]string, error)
	}

	// Statter reports the current version of a file without reading it.
	Statter interface {
		// Stat returns the file's stamp or ErrNotFound.
		Stat(ctx context.Context, name string) (Stamp, error)
	}

	// Picker opens the folder the user selected.
	Picker interface {
		Pick(ctx context.Context, location string) (Folder, error)
	}
)

// Stamp identifies one version of a file. Any write, including one made
// outside this process, changes it.
type Stamp struct {
	ModTime  time.Time
	Size     int64
	Revision int64
}

func (s Stamp) Equal(o Stamp) bool {
	return s.ModTime.Equal(o.ModTime) && s.Size == o.Size && s.Revision == o.Revision
}
