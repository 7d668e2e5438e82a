package folder

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// MemoryPicker keeps folders in process memory. Picking the same location
// twice returns the same folder.
type MemoryPicker struct {
	mu      sync.Mutex
	folders map[string]*Memory
}

func NewMemoryPicker() *MemoryPicker {
	return &MemoryPicker{folders: map[string]*Memory{}}
}

// NewMemoryPickerFromDir seeds location "seed" with every *.csv file found
// in base. Unreadable or missing directories seed nothing.
func NewMemoryPickerFromDir(base string) *MemoryPicker {
	p := NewMemoryPicker()
	seed := NewMemory("seed")
	matches, _ := filepath.Glob(filepath.Join(base, "*.csv"))
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			continue
		}
		seed.put(filepath.Base(m), string(data))
	}
	p.folders[seed.location] = seed
	return p
}

func (p *MemoryPicker) Pick(_ context.Context, location string) (Folder, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrCancelled
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if f, ok := p.folders[location]; ok {
		return f, nil
	}
	f := NewMemory(location)
	p.folders[location] = f
	return f, nil
}

// Memory is an in-memory Folder.
type Memory struct {
	mu       sync.Mutex
	location string
	files    map[string]memoryFile
	revision int64
}

type memoryFile struct {
	text     string
	revision int64
}

func NewMemory(location string) *Memory {
	return &Memory{location: location, files: map[string]memoryFile{}}
}

// put stores text under a fresh revision. Callers hold mu or own m.
func (m *Memory) put(name, text string) {
	m.revision++
	m.files[name] = memoryFile{text: text, revision: m.revision}
}

func (m *Memory) Location() string { return m.location }

func (m *Memory) ReadFile(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[name]
	if !ok {
		return "", ErrNotFound
	}
	return f.text, nil
}

func (m *Memory) Stat(_ context.Context, name string) (Stamp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[name]
	if !ok {
		return Stamp{}, ErrNotFound
	}
	return Stamp{Size: int64(len(f.text)), Revision: f.revision}, nil
}

func (m *Memory) WriteFile(_ context.Context, name, text string, createIfMissing bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok && !createIfMissing {
		return ErrNotFound
	}
	m.put(name, text)
	return nil
}

// Names lists the stored file names, sorted.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for name := range m.files {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	return m.Names(), nil
}
