package worker

import (
	"context"
	"fmt"
	"strings"

	"monthlyexpenses/internal/amqp"
	"monthlyexpenses/internal/core"
	"monthlyexpenses/internal/folder"
	"monthlyexpenses/internal/ledger"
	applog "monthlyexpenses/internal/log"
	"monthlyexpenses/internal/sheets"
)

// MirrorWorker copies saved month ledgers into a LedgerMirror.
type MirrorWorker struct {
	mirror sheets.LedgerMirror
	logger *applog.Logger
}

func NewMirrorWorker(mirror sheets.LedgerMirror, logger *applog.Logger) *MirrorWorker {
	return &MirrorWorker{mirror: mirror, logger: logger.WithComponent(applog.ComponentWorker)}
}

// HandleLedgerSaved mirrors the month carried by msg. Messages with a bad
// month are dropped rather than retried since they can never succeed.
func (w *MirrorWorker) HandleLedgerSaved(ctx context.Context, msg *amqp.LedgerSavedMessage) error {
	month, err := core.ParseMonth(msg.Month)
	if err != nil {
		w.logger.WarnContext(ctx, "Dropping ledger saved message with invalid month",
			applog.FieldMonth, msg.Month,
			applog.FieldFolder, msg.Folder,
			applog.FieldError, err)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing ledger saved message",
		applog.FieldOperation, applog.OpMirror,
		applog.FieldFolder, msg.Folder,
		applog.FieldMonth, month.String(),
		applog.FieldEntries, msg.Entries)

	return w.mirrorText(ctx, month, msg.Content)
}

// Backfill mirrors every month file found in f. It stops at the first
// failure.
func (w *MirrorWorker) Backfill(ctx context.Context, f folder.Folder) (int, error) {
	lister, ok := f.(folder.Lister)
	if !ok {
		return 0, fmt.Errorf("folder %s cannot list its files", f.Location())
	}
	names, err := lister.List(ctx)
	if err != nil {
		return 0, err
	}

	mirrored := 0
	for _, name := range names {
		month, err := core.ParseMonth(strings.TrimSuffix(name, ".csv"))
		if err != nil || month.FileName() != name {
			continue
		}
		text, err := f.ReadFile(ctx, name)
		if err != nil {
			return mirrored, fmt.Errorf("read %s: %w", name, err)
		}
		if err := w.mirrorText(ctx, month, text); err != nil {
			return mirrored, err
		}
		mirrored++
	}

	w.logger.InfoContext(ctx, "Backfill complete",
		applog.FieldFolder, f.Location(),
		"months", mirrored)
	return mirrored, nil
}

func (w *MirrorWorker) mirrorText(ctx context.Context, month core.Month, text string) error {
	entries := ledger.Decode(text)
	if err := w.mirror.WriteMonth(ctx, month, entries); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mirror month",
			applog.FieldOperation, applog.OpMirror,
			applog.FieldMonth, month.String(),
			applog.FieldError, err)
		return fmt.Errorf("mirror %s: %w", month, err)
	}
	return nil
}
