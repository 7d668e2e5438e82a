package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"monthlyexpenses/internal/cache"
	"monthlyexpenses/internal/core"
	"monthlyexpenses/internal/folder"
	"monthlyexpenses/internal/ledger"
	applog "monthlyexpenses/internal/log"
)

var (
	ErrFolderNotSelected = errors.New("no folder selected")
	ErrNoEntries         = errors.New("no entries to save")
	ErrInvalidRange      = errors.New("range start is after range end")
	ErrListUnsupported   = errors.New("folder cannot list its files")
)

// Publisher is notified after a month file has been rewritten.
type Publisher interface {
	PublishLedgerSaved(ctx context.Context, folder, month, content string, entries int) error
}

// Options tunes a LedgerService. Zero values pick sensible defaults.
type Options struct {
	CacheSize        int
	CacheTTL         time.Duration
	RangeConcurrency int
	Publisher        Publisher
	Logger           *applog.Logger
}

// LedgerService runs the read-modify-write cycle of month files in the
// selected folder and answers the aggregate questions asked about them.
//
// Only one process is expected to write a folder at a time; concurrent
// external edits between the read and the write of SaveMonth are lost.
type LedgerService struct {
	picker    folder.Picker
	publisher Publisher
	logger    *applog.Logger
	limit     int

	mu      sync.RWMutex
	current folder.Folder

	// Serializes SaveMonth so two requests cannot interleave a month's read and write.
	saveMu sync.Mutex

	ledgers *cache.LRUCache[cachedLedger]

	// genMu guards gens, bumped per cache key by every save. A load only
	// caches what it read if no save happened meanwhile.
	genMu sync.Mutex
	gens  map[string]uint64
}

// cachedLedger is a decoded month file and the stamp of the version decoded.
type cachedLedger struct {
	stamp   folder.Stamp
	entries []core.Entry
}

func NewLedgerService(picker folder.Picker, opts Options) *LedgerService {
	if opts.CacheSize < 1 {
		opts.CacheSize = 24
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.RangeConcurrency < 1 {
		opts.RangeConcurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentLedger})
	}
	return &LedgerService{
		picker:    picker,
		publisher: opts.Publisher,
		logger:    opts.Logger.WithComponent(applog.ComponentLedger),
		limit:     opts.RangeConcurrency,
		ledgers:   cache.NewLRUCache[cachedLedger](opts.CacheSize, opts.CacheTTL),
		gens:      map[string]uint64{},
	}
}

// Cache exposes the ledger cache so it can be registered for cleanup.
func (s *LedgerService) Cache() *cache.LRUCache[cachedLedger] {
	return s.ledgers
}

// SelectFolder picks location as the current folder. On failure the previous
// selection is kept.
func (s *LedgerService) SelectFolder(ctx context.Context, location string) error {
	f, err := s.picker.Pick(ctx, location)
	if err != nil {
		s.logger.WarnContext(ctx, "Folder selection failed",
			applog.FieldOperation, applog.OpPickFolder,
			applog.FieldFolder, location,
			applog.FieldError, err)
		return err
	}

	s.mu.Lock()
	s.current = f
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Folder selected",
		applog.FieldOperation, applog.OpPickFolder,
		applog.FieldFolder, f.Location())
	return nil
}

// Folder returns the location of the selected folder, or "" when none is.
func (s *LedgerService) Folder() string {
	if f := s.folder(); f != nil {
		return f.Location()
	}
	return ""
}

func (s *LedgerService) folder() folder.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// LoadMonth returns the entries stored for month. A month without a file is
// an empty ledger with found set to false.
func (s *LedgerService) LoadMonth(ctx context.Context, month core.Month) (core.MonthlyLedger, bool, error) {
	f := s.folder()
	if f == nil {
		return core.MonthlyLedger{}, false, ErrFolderNotSelected
	}
	entries, found, err := s.load(ctx, f, month)
	if err != nil {
		return core.MonthlyLedger{}, false, err
	}
	return core.MonthlyLedger{Month: month, Entries: entries}, found, nil
}

// load returns the decoded month file. Folders that can report a file's
// stamp get their decoded ledgers cached; a cached ledger is only served
// while the file still has the stamp it was decoded from. Missing files are
// never cached.
func (s *LedgerService) load(ctx context.Context, f folder.Folder, month core.Month) ([]core.Entry, bool, error) {
	statter, ok := f.(folder.Statter)
	if !ok {
		return s.read(ctx, f, month)
	}

	key := cacheKey(f, month)
	gen := s.generation(key)
	// Stat before reading: a write in between leaves an older stamp in the
	// cache, which the next load detects.
	stamp, err := statter.Stat(ctx, month.FileName())
	if errors.Is(err, folder.ErrNotFound) {
		s.ledgers.Delete(key)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("stat %s: %w", month.FileName(), err)
	}
	if cached, ok := s.ledgers.Get(key); ok && cached.stamp.Equal(stamp) {
		return cloneEntries(cached.entries), true, nil
	}

	entries, found, err := s.read(ctx, f, month)
	if err != nil || !found {
		return entries, found, err
	}
	s.store(key, gen, cachedLedger{stamp: stamp, entries: cloneEntries(entries)})
	return entries, true, nil
}

// read decodes the month file straight from the folder.
func (s *LedgerService) read(ctx context.Context, f folder.Folder, month core.Month) ([]core.Entry, bool, error) {
	text, err := f.ReadFile(ctx, month.FileName())
	if errors.Is(err, folder.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", month.FileName(), err)
	}

	entries := ledger.Decode(text)
	for _, e := range entries {
		if !e.Type.Known() {
			s.logger.WarnContext(ctx, "Unknown expense type in month file",
				applog.NewFields().
					WithMonth(f.Location(), month.String()).
					WithEntry(string(e.Type), e.Subtype, e.Amount).
					ToSlice()...)
		}
	}
	if entries == nil {
		entries = []core.Entry{}
	}
	s.logger.DebugContext(ctx, "Month file loaded",
		append(applog.NewFields().
			WithOperation(applog.OpLoadMonth).
			WithMonth(f.Location(), month.String()).
			ToSlice(), applog.FieldEntries, len(entries))...)
	return entries, true, nil
}

func (s *LedgerService) generation(key string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[key]
}

// invalidate drops the cached ledger for key and makes loads started before
// now unable to cache their result.
func (s *LedgerService) invalidate(key string) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.gens[key]++
	s.ledgers.Delete(key)
}

// store caches v unless key was invalidated after gen was taken.
func (s *LedgerService) store(key string, gen uint64, v cachedLedger) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gens[key] == gen {
		s.ledgers.Set(key, v)
	}
}

// Months lists the months that have a file in the selected folder, oldest
// first. Files whose name is not YYYY-MM.csv are ignored.
func (s *LedgerService) Months(ctx context.Context) ([]core.Month, error) {
	f := s.folder()
	if f == nil {
		return nil, ErrFolderNotSelected
	}
	lister, ok := f.(folder.Lister)
	if !ok {
		return nil, ErrListUnsupported
	}
	names, err := lister.List(ctx)
	if err != nil {
		return nil, err
	}
	months := make([]core.Month, 0, len(names))
	for _, name := range names {
		m, err := core.ParseMonth(strings.TrimSuffix(name, ".csv"))
		if err != nil || m.FileName() != name {
			continue
		}
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months, nil
}

// SaveMonth merges entries into the stored file for month and writes the
// result back, creating the file when needed.
func (s *LedgerService) SaveMonth(ctx context.Context, month core.Month, entries []core.Entry) (core.MonthlyLedger, error) {
	f := s.folder()
	if f == nil {
		return core.MonthlyLedger{}, ErrFolderNotSelected
	}
	if len(entries) == 0 {
		return core.MonthlyLedger{}, ErrNoEntries
	}
	if month.IsZero() {
		return core.MonthlyLedger{}, core.ErrInvalidMonth
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	key := cacheKey(f, month)
	// Always read the file itself; the cache may predate an external edit.
	existing, _, err := s.read(ctx, f, month)
	if err != nil {
		return core.MonthlyLedger{}, err
	}

	merged := ledger.MergeByKey(entries, existing)
	text := ledger.Encode(month.String(), merged)
	err = f.WriteFile(ctx, month.FileName(), text, true)
	s.invalidate(key)
	if err != nil {
		return core.MonthlyLedger{}, fmt.Errorf("write %s: %w", month.FileName(), err)
	}

	for _, e := range entries {
		s.logger.DebugContext(ctx, "Entry merged into month",
			applog.NewFields().
				WithMonth(f.Location(), month.String()).
				WithEntry(string(e.Type), e.Subtype, e.Amount).
				ToSlice()...)
	}
	applog.NewStructuredLogger(s.logger).LogLedgerSaved(ctx, f.Location(), month.String(), len(entries), len(merged))

	if s.publisher != nil {
		if err := s.publisher.PublishLedgerSaved(ctx, f.Location(), month.String(), text, len(merged)); err != nil {
			// The file is already written; a lost event only delays the mirror.
			s.logger.ErrorContext(ctx, "Failed to publish ledger saved event",
				applog.FieldOperation, applog.OpPublish,
				applog.FieldMonth, month.String(),
				applog.FieldError, err)
		}
	}

	return core.MonthlyLedger{Month: month, Entries: merged}, nil
}

// LoadRange loads every month from start through end. Months without a file
// come back as empty ledgers.
func (s *LedgerService) LoadRange(ctx context.Context, start, end core.Month) ([]core.MonthlyLedger, error) {
	f := s.folder()
	if f == nil {
		return nil, ErrFolderNotSelected
	}
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	months := core.MonthRange(start, end)
	out := make([]core.MonthlyLedger, len(months))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, m := range months {
		g.Go(func() error {
			entries, _, err := s.load(gctx, f, m)
			if err != nil {
				return err
			}
			out[i] = core.MonthlyLedger{Month: m, Entries: entries}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// TotalForType sums the amounts of type t from start through end inclusive.
func (s *LedgerService) TotalForType(ctx context.Context, start, end core.Month, t core.ExpenseType) (float64, error) {
	ledgers, err := s.LoadRange(ctx, start, end)
	if err != nil {
		return 0, err
	}
	total := ledger.SumByType(ledgers, t)

	s.logger.InfoContext(ctx, "Range total computed",
		applog.NewFields().
			WithOperation(applog.OpTotal).
			WithRange(start.String(), end.String(), string(t)).
			ToSlice()...)
	return total, nil
}

// MonthDeviations compares a month's entries with the catalog defaults.
func (s *LedgerService) MonthDeviations(ctx context.Context, month core.Month) ([]ledger.Deviation, error) {
	l, _, err := s.LoadMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	return ledger.ComputeDeviations(l.Entries, core.DefaultBudgets()), nil
}

func cacheKey(f folder.Folder, m core.Month) string {
	return f.Location() + "|" + m.String()
}

func cloneEntries(in []core.Entry) []core.Entry {
	if in == nil {
		return nil
	}
	return append([]core.Entry(nil), in...)
}
