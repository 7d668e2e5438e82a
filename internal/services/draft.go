package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"monthlyexpenses/internal/core"
	"monthlyexpenses/internal/ledger"
)

// ErrIndexOutOfRange is returned when an edit or delete targets no entry.
var ErrIndexOutOfRange = errors.New("entry index out of range")

// Draft holds the entries typed in for a month before they are saved.
// It is not safe for concurrent use.
type Draft struct {
	entries []core.Entry
}

// Add merges a new entry into the draft; an entry with the same type and
// subtype has its amount increased.
func (d *Draft) Add(t core.ExpenseType, subtype, amount string) (core.Entry, error) {
	e, err := parseEntry(t, subtype, amount)
	if err != nil {
		return core.Entry{}, err
	}
	d.entries = ledger.MergeByKey(d.entries, []core.Entry{e})
	return e, nil
}

// Edit replaces the entry at index. Unlike Add it does not merge with an
// entry that already has the new key.
func (d *Draft) Edit(index int, t core.ExpenseType, subtype, amount string) (core.Entry, error) {
	if index < 0 || index >= len(d.entries) {
		return core.Entry{}, ErrIndexOutOfRange
	}
	e, err := parseEntry(t, subtype, amount)
	if err != nil {
		return core.Entry{}, err
	}
	updated := append([]core.Entry(nil), d.entries...)
	updated[index] = e
	d.entries = updated
	return e, nil
}

func (d *Draft) Delete(index int) error {
	if index < 0 || index >= len(d.entries) {
		return ErrIndexOutOfRange
	}
	updated := make([]core.Entry, 0, len(d.entries)-1)
	updated = append(updated, d.entries[:index]...)
	d.entries = append(updated, d.entries[index+1:]...)
	return nil
}

// Entries returns a copy of the draft entries.
func (d *Draft) Entries() []core.Entry {
	return append([]core.Entry{}, d.entries...)
}

func (d *Draft) Len() int { return len(d.entries) }

func (d *Draft) Reset() { d.entries = nil }

// CanAdd reports whether the add button would be enabled for this input.
func CanAdd(t core.ExpenseType, subtype, amount string) bool {
	_, err := parseEntry(t, subtype, amount)
	return err == nil
}

// CanSubmit reports whether the draft could be saved.
func (d *Draft) CanSubmit(month string, folderSelected bool) bool {
	if _, err := core.ParseMonth(month); err != nil {
		return false
	}
	return folderSelected && len(d.entries) > 0
}

// Submit saves the draft into month and clears it on success. On failure
// the draft is left untouched.
func (d *Draft) Submit(ctx context.Context, svc *LedgerService, month core.Month) (core.MonthlyLedger, error) {
	saved, err := svc.SaveMonth(ctx, month, d.Entries())
	if err != nil {
		return core.MonthlyLedger{}, err
	}
	d.Reset()
	return saved, nil
}

func parseEntry(t core.ExpenseType, subtype, amount string) (core.Entry, error) {
	v, err := core.ParseAmount(amount)
	if err != nil {
		return core.Entry{}, fmt.Errorf("amount %q: %w", strings.TrimSpace(amount), err)
	}
	return core.NewEntry(t, subtype, v)
}
