package services

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monthlyexpenses/internal/core"
	"monthlyexpenses/internal/folder"
	applog "monthlyexpenses/internal/log"
)

type publishedEvent struct {
	folder, month, content string
	entries                int
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (p *fakePublisher) PublishLedgerSaved(_ context.Context, folder, month, content string, entries int) error {
	p.events = append(p.events, publishedEvent{folder, month, content, entries})
	return p.err
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Component: applog.ComponentLedger, Output: io.Discard})
}

func newTestService(t *testing.T, pub Publisher) (*LedgerService, *folder.MemoryPicker) {
	t.Helper()
	picker := folder.NewMemoryPicker()
	svc := NewLedgerService(picker, Options{Publisher: pub, Logger: quietLogger()})
	require.NoError(t, svc.SelectFolder(context.Background(), "home"))
	return svc, picker
}

func writeFile(t *testing.T, picker *folder.MemoryPicker, location, name, text string) {
	t.Helper()
	f, err := picker.Pick(context.Background(), location)
	require.NoError(t, err)
	require.NoError(t, f.WriteFile(context.Background(), name, text, true))
}

func readFile(t *testing.T, picker *folder.MemoryPicker, location, name string) string {
	t.Helper()
	f, err := picker.Pick(context.Background(), location)
	require.NoError(t, err)
	text, err := f.ReadFile(context.Background(), name)
	require.NoError(t, err)
	return text
}

func TestLedgerServiceRequiresFolder(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(folder.NewMemoryPicker(), Options{Logger: quietLogger()})

	assert.Equal(t, "", svc.Folder())

	_, _, err := svc.LoadMonth(ctx, core.MustMonth("2024-01"))
	assert.ErrorIs(t, err, ErrFolderNotSelected)

	_, err = svc.SaveMonth(ctx, core.MustMonth("2024-01"), []core.Entry{{Type: core.Rent, Amount: 1}})
	assert.ErrorIs(t, err, ErrFolderNotSelected)

	_, err = svc.TotalForType(ctx, core.MustMonth("2024-01"), core.MustMonth("2024-02"), core.Rent)
	assert.ErrorIs(t, err, ErrFolderNotSelected)
}

func TestSelectFolderKeepsPreviousOnCancel(t *testing.T) {
	svc, _ := newTestService(t, nil)

	err := svc.SelectFolder(context.Background(), "   ")
	assert.ErrorIs(t, err, folder.ErrCancelled)
	assert.Equal(t, "home", svc.Folder())

	require.NoError(t, svc.SelectFolder(context.Background(), "other"))
	assert.Equal(t, "other", svc.Folder())
}

func TestLoadMonthMissingFileIsEmpty(t *testing.T) {
	svc, _ := newTestService(t, nil)

	l, found, err := svc.LoadMonth(context.Background(), core.MustMonth("2024-03"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, l.Entries)
	assert.Equal(t, core.MustMonth("2024-03"), l.Month)
}

func TestLoadMonthDecodesFile(t *testing.T) {
	svc, picker := newTestService(t, nil)
	writeFile(t, picker, "home", "2024-03.csv",
		"month,type,subtype,amount\n2024-03,rent,,1200\n2024-03,misc extra,gift,25.5")

	l, found, err := svc.LoadMonth(context.Background(), core.MustMonth("2024-03"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []core.Entry{
		{Type: core.Rent, Amount: 1200},
		{Type: core.MiscExtra, Subtype: "gift", Amount: 25.5},
	}, l.Entries)
}

func TestLoadMonthReturnsCopies(t *testing.T) {
	svc, picker := newTestService(t, nil)
	writeFile(t, picker, "home", "2024-03.csv", "month,type,subtype,amount\n2024-03,rent,,1200")

	first, _, err := svc.LoadMonth(context.Background(), core.MustMonth("2024-03"))
	require.NoError(t, err)
	first.Entries[0].Amount = 1

	second, _, err := svc.LoadMonth(context.Background(), core.MustMonth("2024-03"))
	require.NoError(t, err)
	assert.Equal(t, 1200.0, second.Entries[0].Amount)
}

func TestSaveMonthCreatesFile(t *testing.T) {
	pub := &fakePublisher{}
	svc, picker := newTestService(t, pub)

	saved, err := svc.SaveMonth(context.Background(), core.MustMonth("2024-05"), []core.Entry{
		{Type: core.Rent, Amount: 1200},
		{Type: core.Groceries, Amount: 80.5},
	})
	require.NoError(t, err)
	assert.Len(t, saved.Entries, 2)

	want := "month,type,subtype,amount\n2024-05,rent,,1200\n2024-05,groceries,,80.5"
	assert.Equal(t, want, readFile(t, picker, "home", "2024-05.csv"))

	require.Len(t, pub.events, 1)
	assert.Equal(t, publishedEvent{folder: "home", month: "2024-05", content: want, entries: 2}, pub.events[0])
}

func TestSaveMonthMergesWithExisting(t *testing.T) {
	svc, picker := newTestService(t, nil)
	writeFile(t, picker, "home", "2024-05.csv",
		"month,type,subtype,amount\n2024-05,rent,,1200\n2024-05,misc extra,gift,10")

	// Prime the cache, then change the file behind the service's back.
	_, _, err := svc.LoadMonth(context.Background(), core.MustMonth("2024-05"))
	require.NoError(t, err)
	writeFile(t, picker, "home", "2024-05.csv",
		"month,type,subtype,amount\n2024-05,rent,,1300\n2024-05,misc extra,gift,10")

	_, err = svc.SaveMonth(context.Background(), core.MustMonth("2024-05"), []core.Entry{
		{Type: core.Groceries, Amount: 50},
		{Type: core.MiscExtra, Subtype: "gift", Amount: 5},
	})
	require.NoError(t, err)

	// New entries come first, existing keys are summed into them.
	assert.Equal(t,
		"month,type,subtype,amount\n2024-05,groceries,,50\n2024-05,misc extra,gift,15\n2024-05,rent,,1300",
		readFile(t, picker, "home", "2024-05.csv"))

	l, _, err := svc.LoadMonth(context.Background(), core.MustMonth("2024-05"))
	require.NoError(t, err)
	assert.Len(t, l.Entries, 3)
}

func TestSaveMonthRejectsEmptyDraft(t *testing.T) {
	svc, picker := newTestService(t, nil)

	_, err := svc.SaveMonth(context.Background(), core.MustMonth("2024-05"), nil)
	assert.ErrorIs(t, err, ErrNoEntries)

	f, _ := picker.Pick(context.Background(), "home")
	assert.Empty(t, f.(*folder.Memory).Names())
}

func TestSaveMonthPublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, picker := newTestService(t, pub)

	_, err := svc.SaveMonth(context.Background(), core.MustMonth("2024-05"), []core.Entry{{Type: core.Rent, Amount: 1}})
	require.NoError(t, err)
	assert.Contains(t, readFile(t, picker, "home", "2024-05.csv"), "2024-05,rent,,1")
}

func TestTotalForType(t *testing.T) {
	svc, picker := newTestService(t, nil)
	writeFile(t, picker, "home", "2023-12.csv", "month,type,subtype,amount\n2023-12,groceries,,100")
	writeFile(t, picker, "home", "2024-01.csv", "month,type,subtype,amount\n2024-01,groceries,,50.25\n2024-01,rent,,900")
	// 2024-02 has no file.
	writeFile(t, picker, "home", "2024-03.csv", "month,type,subtype,amount\n2024-03,groceries,,10")

	ctx := context.Background()
	total, err := svc.TotalForType(ctx, core.MustMonth("2023-12"), core.MustMonth("2024-03"), core.Groceries)
	require.NoError(t, err)
	assert.InDelta(t, 160.25, total, 1e-9)

	total, err = svc.TotalForType(ctx, core.MustMonth("2024-02"), core.MustMonth("2024-02"), core.Groceries)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)

	_, err = svc.TotalForType(ctx, core.MustMonth("2024-03"), core.MustMonth("2024-01"), core.Groceries)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestTotalForTypeUndefinedAmount(t *testing.T) {
	svc, picker := newTestService(t, nil)
	writeFile(t, picker, "home", "2024-01.csv", "month,type,subtype,amount\n2024-01,groceries,,abc\n2024-01,groceries,,5")

	total, err := svc.TotalForType(context.Background(), core.MustMonth("2024-01"), core.MustMonth("2024-01"), core.Groceries)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(total))
}

func TestMonthDeviations(t *testing.T) {
	svc, picker := newTestService(t, nil)
	writeFile(t, picker, "home", "2024-01.csv",
		"month,type,subtype,amount\n2024-01,rent,,1200\n2024-01,groceries,,500\n2024-01,internet,,15")

	devs, err := svc.MonthDeviations(context.Background(), core.MustMonth("2024-01"))
	require.NoError(t, err)
	require.Len(t, devs, 2)

	assert.Equal(t, core.Groceries, devs[0].Type)
	assert.True(t, devs[0].IsOver)
	assert.InDelta(t, 100, devs[0].Diff, 1e-9)
	assert.InDelta(t, 25, devs[0].Percent, 1e-9)

	assert.Equal(t, core.Internet, devs[1].Type)
	assert.False(t, devs[1].IsOver)
	assert.InDelta(t, -50, devs[1].Percent, 1e-9)
}

func TestMonths(t *testing.T) {
	svc, picker := newTestService(t, nil)
	writeFile(t, picker, "home", "2024-02.csv", "month,type,subtype,amount")
	writeFile(t, picker, "home", "2023-11.csv", "month,type,subtype,amount")
	writeFile(t, picker, "home", "notes.txt", "hello")
	writeFile(t, picker, "home", "2024-13.csv", "")

	months, err := svc.Months(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.Month{core.MustMonth("2023-11"), core.MustMonth("2024-02")}, months)
}

func newDirService(t *testing.T) (*LedgerService, string) {
	t.Helper()
	dir := t.TempDir()
	svc := NewLedgerService(folder.DirPicker{}, Options{Logger: quietLogger()})
	require.NoError(t, svc.SelectFolder(context.Background(), dir))
	return svc, dir
}

func TestLoadMonthSeesFileCreatedAfterMiss(t *testing.T) {
	ctx := context.Background()
	svc, dir := newDirService(t)
	may := core.MustMonth("2024-05")

	_, found, err := svc.LoadMonth(ctx, may)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024-05.csv"),
		[]byte("month,type,subtype,amount\n2024-05,rent,,900"), 0o644))

	months, err := svc.Months(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Month{may}, months)

	l, found, err := svc.LoadMonth(ctx, may)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []core.Entry{{Type: core.Rent, Amount: 900}}, l.Entries)

	total, err := svc.TotalForType(ctx, may, may, core.Rent)
	require.NoError(t, err)
	assert.Equal(t, 900.0, total)
}

func TestLoadMonthSeesExternalEdit(t *testing.T) {
	ctx := context.Background()
	svc, picker := newTestService(t, nil)
	writeFile(t, picker, "home", "2024-06.csv", "month,type,subtype,amount\n2024-06,rent,,900")

	l, _, err := svc.LoadMonth(ctx, core.MustMonth("2024-06"))
	require.NoError(t, err)
	require.Equal(t, 900.0, l.Entries[0].Amount)

	// Same length, different content.
	writeFile(t, picker, "home", "2024-06.csv", "month,type,subtype,amount\n2024-06,rent,,950")

	l, _, err = svc.LoadMonth(ctx, core.MustMonth("2024-06"))
	require.NoError(t, err)
	assert.Equal(t, 950.0, l.Entries[0].Amount)
}

func TestLoadMonthCachesUnchangedFile(t *testing.T) {
	ctx := context.Background()
	svc, picker := newTestService(t, nil)
	writeFile(t, picker, "home", "2024-07.csv", "month,type,subtype,amount\n2024-07,rent,,900")

	for i := 0; i < 3; i++ {
		_, found, err := svc.LoadMonth(ctx, core.MustMonth("2024-07"))
		require.NoError(t, err)
		require.True(t, found)
	}
	stats := svc.Cache().Stats()
	assert.Equal(t, int64(2), stats.Hits)
}

func TestStaleLoadDoesNotOverwriteSave(t *testing.T) {
	svc, _ := newTestService(t, nil)
	key := "home|2024-08"

	// A load takes its generation, then a save invalidates the key before
	// the load gets to cache what it read.
	gen := svc.generation(key)
	svc.invalidate(key)
	svc.store(key, gen, cachedLedger{entries: []core.Entry{{Type: core.Rent, Amount: 1}}})

	_, ok := svc.Cache().Get(key)
	assert.False(t, ok)

	svc.store(key, svc.generation(key), cachedLedger{})
	_, ok = svc.Cache().Get(key)
	assert.True(t, ok)
}
