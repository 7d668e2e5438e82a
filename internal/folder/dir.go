package folder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirPicker opens directories on the local file system.
type DirPicker struct {
	// Create makes missing directories instead of failing the pick.
	Create bool
}

// Pick opens location as a Folder. An empty location counts as a cancelled
// selection.
func (p DirPicker) Pick(_ context.Context, location string) (Folder, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrCancelled
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("resolve folder: %w", err)
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, os.ErrNotExist) && p.Create:
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("create folder: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("open folder: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("open folder: %s is not a directory", abs)
	}
	return &Dir{path: abs}, nil
}

// Dir is a Folder backed by a directory. Files live directly inside it.
type Dir struct {
	path string
}

// NewDir returns a Folder for path without checking it.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

func (d *Dir) Location() string { return d.path }

func (d *Dir) ReadFile(_ context.Context, name string) (string, error) {
	p, err := d.file(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

// Stat reports the modification time and size of name.
func (d *Dir) Stat(_ context.Context, name string) (Stamp, error) {
	p, err := d.file(name)
	if err != nil {
		return Stamp{}, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return Stamp{}, ErrNotFound
	}
	if err != nil {
		return Stamp{}, fmt.Errorf("stat %s: %w", name, err)
	}
	return Stamp{ModTime: info.ModTime(), Size: info.Size()}, nil
}

// WriteFile goes through a temporary file and a rename so a failed write
// never leaves a truncated month behind.
func (d *Dir) WriteFile(_ context.Context, name, text string, createIfMissing bool) error {
	p, err := d.file(name)
	if err != nil {
		return err
	}
	if !createIfMissing {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
	}
	tmp, err := os.CreateTemp(d.path, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	_, werr := tmp.WriteString(text)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(tmp.Name(), 0o644)
	}
	if werr != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp file for %s: %w", name, werr)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// List returns the regular files of the directory, sorted by name.
func (d *Dir) List(_ context.Context) ([]string, error) {
	des, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.path, err)
	}
	var names []string
	for _, de := range des {
		if de.Type().IsRegular() && !strings.HasSuffix(de.Name(), ".tmp") {
			names = append(names, de.Name())
		}
	}
	return names, nil
}

func (d *Dir) file(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(d.path, name), nil
}
