package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

type (
	// Entry is one line item of a month. Type and Subtype together form the
	// entry key; an empty Subtype means "no subtype".
	Entry struct {
		Type    ExpenseType `json:"type"`
		Subtype string      `json:"subtype,omitempty"`
		Amount  float64     `json:"amount"`
	}

	// Month is a calendar month, rendered as YYYY-MM.
	Month struct {
		Year  int
		Month time.Month
	}

	// MonthlyLedger holds the entries stored for one month.
	MonthlyLedger struct {
		Month   Month
		Entries []Entry
	}
)

var (
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrUnknownType    = errors.New("unknown expense type")
	ErrMissingSubtype = errors.New("misc extra entries need a subtype")
	ErrInvalidSubtype = errors.New("subtype cannot contain commas or line breaks")
)

// ParseMonth parses a YYYY-MM month key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MustMonth is ParseMonth for literals known to be valid.
func MustMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// FileName is the per-month file name inside a ledger folder.
func (m Month) FileName() string {
	return m.String() + ".csv"
}

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Before reports whether m is strictly earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// MonthRange lists every month from start through end inclusive in
// chronological order. It is empty when end is before start.
func MonthRange(start, end Month) []Month {
	if end.Before(start) {
		return nil
	}
	var out []Month
	for m := start; !end.Before(m); m = m.Next() {
		out = append(out, m)
	}
	return out
}

// Key returns the merge identity of the entry.
func (e Entry) Key() EntryKey {
	return EntryKey{Type: e.Type, Subtype: e.Subtype}
}

// EntryKey is the (type, subtype) pair under which entries are summed.
type EntryKey struct {
	Type    ExpenseType
	Subtype string
}

// HasAmount reports whether the amount decoded to a number.
func (e Entry) HasAmount() bool {
	return !math.IsNaN(e.Amount)
}

// NewEntry builds a validated entry from user input. The subtype is kept only
// for MiscExtra, where it is required and must fit in one unquoted CSV field.
func NewEntry(t ExpenseType, subtype string, amount float64) (Entry, error) {
	if !t.Known() {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return Entry{}, ErrInvalidAmount
	}
	subtype = strings.TrimSpace(subtype)
	if t != MiscExtra {
		subtype = ""
	} else if subtype == "" {
		return Entry{}, ErrMissingSubtype
	} else if strings.ContainsAny(subtype, ",\r\n") {
		// Month files are never quoted; these would split the row.
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidSubtype, subtype)
	}
	return Entry{Type: t, Subtype: subtype, Amount: amount}, nil
}
