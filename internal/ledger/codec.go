// Package ledger converts per-month CSV text to entries and back, and
// aggregates entries across one or more months.
//
// The format is deliberately minimal and byte compatible with existing
// folders: a fixed header line, then month,type,subtype,amount rows. Fields
// are never quoted, so a comma inside a subtype corrupts the row.
package ledger

import (
	"math"
	"strconv"
	"strings"

	"monthlyexpenses/internal/core"
)

// Header is the first line of every month file.
const Header = "month,type,subtype,amount"

// Decode parses the text of a month file. The first line is always treated
// as the header and dropped. The month column is ignored; types are passed
// through without validation and malformed amounts decode to NaN.
func Decode(text string) []core.Entry {
	lines := strings.Split(text, "\n")
	if len(lines) <= 1 {
		return nil
	}

	entries := make([]core.Entry, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		entries = append(entries, core.Entry{
			Type:    core.ExpenseType(field(fields, 1)),
			Subtype: field(fields, 2),
			Amount:  decodeAmount(fields),
		})
	}
	return entries
}

// Encode renders entries as the text of the month file for month.
func Encode(month string, entries []core.Entry) string {
	var b strings.Builder
	b.WriteString(Header)
	for _, e := range entries {
		b.WriteByte('\n')
		b.WriteString(month)
		b.WriteByte(',')
		b.WriteString(string(e.Type))
		b.WriteByte(',')
		b.WriteString(e.Subtype)
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(e.Amount, 'f', -1, 64))
	}
	return b.String()
}

func field(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return fields[i]
}

// decodeAmount follows the lenient numeric conversion the files were written
// with: surrounding whitespace is ignored, an empty field is zero and a
// missing field or anything unparsable is NaN.
func decodeAmount(fields []string) float64 {
	if len(fields) < 4 {
		return math.NaN()
	}
	s := strings.TrimSpace(fields[3])
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
