// Package cache keeps recently decoded month ledgers so repeated range
// totals do not re-read every file.
package cache

import (
	"log/slog"
	"time"
)

// Cache is a keyed store of values that may expire.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired items on demand.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans registered caches.
type Manager struct {
	caches      []Cleaner
	logger      *slog.Logger
	started     bool
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:      logger,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache. It must be called before StartCleanup.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := 0
			for _, c := range m.caches {
				cleaned += c.CleanExpired()
			}
			if cleaned > 0 {
				m.logger.Debug("Expired cache entries removed", "component", "cache", "count", cleaned)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup goroutine started by StartCleanup.
func (m *Manager) Stop() {
	select {
	case <-m.stopCleanup:
		return
	default:
	}
	close(m.stopCleanup)
	if m.started {
		<-m.cleanupDone
	}
}
