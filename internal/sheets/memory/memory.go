package memory

import (
	"context"
	"sort"
	"sync"

	"monthlyexpenses/internal/core"
	ports "monthlyexpenses/internal/sheets"
)

// Store is an in-process LedgerMirror for development and tests.
type Store struct {
	mu     sync.Mutex
	months map[core.Month][]core.Entry
	writes int
}

var _ ports.LedgerMirror = (*Store)(nil)

func New() *Store {
	return &Store{months: map[core.Month][]core.Entry{}}
}

// WriteMonth replaces the stored copy of month.
func (s *Store) WriteMonth(_ context.Context, month core.Month, entries []core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.months[month] = append([]core.Entry{}, entries...)
	s.writes++
	return nil
}

// Month returns the mirrored entries of month.
func (s *Store) Month(month core.Month) ([]core.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.months[month]
	if !ok {
		return nil, false
	}
	return append([]core.Entry{}, entries...), true
}

// Months lists the mirrored months in calendar order.
func (s *Store) Months() []core.Month {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Month, 0, len(s.months))
	for m := range s.months {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Writes counts WriteMonth calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
