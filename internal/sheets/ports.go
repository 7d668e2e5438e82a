package sheets

import (
	"context"

	"monthlyexpenses/internal/core"
)

// LedgerMirror receives a full copy of a month's ledger after every save.
// Writing a month replaces whatever the mirror held for it before.
type LedgerMirror interface {
	WriteMonth(ctx context.Context, month core.Month, entries []core.Entry) error
}
