package http

import (
	"math"

	"monthlyexpenses/internal/core"
	"monthlyexpenses/internal/ledger"
)

// entryView is an entry as the API shows it. Undefined amounts are null.
type entryView struct {
	Type    core.ExpenseType `json:"type"`
	Label   string           `json:"label"`
	Subtype string           `json:"subtype,omitempty"`
	Amount  *float64         `json:"amount"`
	Display string           `json:"display"`
}

func newEntryViews(entries []core.Entry) []entryView {
	out := make([]entryView, len(entries))
	for i, e := range entries {
		out[i] = entryView{
			Type:    e.Type,
			Label:   core.DisplayName(e.Type),
			Subtype: e.Subtype,
			Amount:  amountPtr(e.Amount),
			Display: core.FormatAmount(e.Amount),
		}
	}
	return out
}

func amountPtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type ledgerView struct {
	Month   string      `json:"month"`
	Found   bool        `json:"found"`
	Entries []entryView `json:"entries"`
	Notice  string      `json:"notice,omitempty"`
}

type draftView struct {
	Entries []entryView `json:"entries"`
	Count   int         `json:"count"`
}

type deviationView struct {
	Label string `json:"label"`
	ledger.Deviation
}

func newDeviationViews(devs []ledger.Deviation) []deviationView {
	out := make([]deviationView, len(devs))
	for i, d := range devs {
		out[i] = deviationView{Label: core.DisplayName(d.Type), Deviation: d}
	}
	return out
}

type totalView struct {
	Type    core.ExpenseType `json:"type"`
	Label   string           `json:"label"`
	Start   string           `json:"start"`
	End     string           `json:"end"`
	Total   *float64         `json:"total"`
	Display string           `json:"display"`
}

type typeView struct {
	Type         core.ExpenseType `json:"type"`
	Label        string           `json:"label"`
	Default      float64          `json:"default"`
	NeedsSubtype bool             `json:"needs_subtype"`
}

func catalogViews() []typeView {
	types := core.Types()
	out := make([]typeView, len(types))
	for i, t := range types {
		def, _ := core.DefaultBudget(t)
		out[i] = typeView{Type: t, Label: core.DisplayName(t), Default: def, NeedsSubtype: t == core.MiscExtra}
	}
	return out
}

type folderView struct {
	Location string `json:"location"`
	Selected bool   `json:"selected"`
}
