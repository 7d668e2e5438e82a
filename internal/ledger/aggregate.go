package ledger

import (
	"math"

	"github.com/shopspring/decimal"

	"monthlyexpenses/internal/core"
)

// NegligibleDiff is the smallest absolute difference from a default budget
// that is reported as a deviation.
const NegligibleDiff = 0.01

// Deviation describes how far one entry is from its category default.
type Deviation struct {
	Type    core.ExpenseType `json:"type"`
	Subtype string           `json:"subtype,omitempty"`
	Actual  float64          `json:"actual"`
	Default float64          `json:"default"`
	Diff    float64          `json:"diff"`
	// Percent is Diff relative to Default, rounded to one decimal.
	Percent float64 `json:"percent"`
	IsOver  bool    `json:"is_over"`
}

// MergeByKey adds every entry of additions into a copy of base. Entries with
// the same (type, subtype) are summed, including duplicates already present
// in base, so every key appears once. Keys keep the order of their first
// appearance. Neither input is modified.
func MergeByKey(base, additions []core.Entry) []core.Entry {
	out := make([]core.Entry, 0, len(base)+len(additions))
	index := make(map[core.EntryKey]int, len(base)+len(additions))

	for _, src := range [][]core.Entry{base, additions} {
		for _, e := range src {
			if i, ok := index[e.Key()]; ok {
				merged := out[i]
				merged.Amount += e.Amount
				out[i] = merged
				continue
			}
			index[e.Key()] = len(out)
			out = append(out, e)
		}
	}
	return out
}

// SumByType totals the amounts of entries of type t across all ledgers.
func SumByType(ledgers []core.MonthlyLedger, t core.ExpenseType) float64 {
	var total float64
	for _, l := range ledgers {
		for _, e := range l.Entries {
			if e.Type == t {
				total += e.Amount
			}
		}
	}
	return total
}

// ComputeDeviations compares every entry against defaults. Entries within
// NegligibleDiff of their default are left out, as are entries whose type
// has no positive default and entries without a numeric amount.
func ComputeDeviations(entries []core.Entry, defaults map[core.ExpenseType]float64) []Deviation {
	var out []Deviation
	for _, e := range entries {
		def, ok := defaults[e.Type]
		if !ok || def <= 0 || !e.HasAmount() {
			continue
		}
		diff := e.Amount - def
		if math.Abs(diff) < NegligibleDiff {
			continue
		}
		out = append(out, Deviation{
			Type:    e.Type,
			Subtype: e.Subtype,
			Actual:  e.Amount,
			Default: def,
			Diff:    diff,
			Percent: roundPercent(diff / def * 100),
			IsOver:  diff > 0,
		})
	}
	return out
}

func roundPercent(p float64) float64 {
	if math.IsInf(p, 0) || math.IsNaN(p) {
		return p
	}
	return decimal.NewFromFloat(p).Round(1).InexactFloat64()
}
