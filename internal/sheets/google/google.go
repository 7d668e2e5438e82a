package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"monthlyexpenses/internal/core"
	"monthlyexpenses/internal/ledger"
	ports "monthlyexpenses/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors month ledgers into tabs of one spreadsheet, one tab per month.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	prefix        string
}

var _ ports.LedgerMirror = (*Client)(nil)

// Config selects the spreadsheet and the credentials used to reach it.
// CredentialsJSON takes precedence over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	SheetPrefix     string
	CredentialsFile string
	CredentialsJSON string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	prefix := strings.TrimSpace(cfg.SheetPrefix)
	if prefix == "" {
		prefix = "Expenses"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, prefix: prefix}, nil
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", cfg.CredentialsFile)
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteMonth replaces the contents of the month's tab with the ledger rows,
// creating the tab on first use.
func (c *Client) WriteMonth(ctx context.Context, month core.Month, entries []core.Entry) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	title := sheetTitle(c.prefix, month)
	if err := c.ensureSheet(ctx, title); err != nil {
		return err
	}

	rng := quoteSheet(title)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", title, err)
	}

	vr := &gsheet.ValueRange{Values: monthRows(month, entries)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Month mirrored to sheet", "sheet", title, "rows", len(entries))
	return nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Created sheet", "sheet", title)
	return nil
}

// sheetTitle returns "<prefix> YYYY-MM".
func sheetTitle(prefix string, month core.Month) string {
	return strings.TrimSpace(prefix) + " " + month.String()
}

// quoteSheet wraps a sheet title for use in A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// monthRows lays the ledger out the way the CSV file does, header first.
// Undefined amounts become empty cells.
func monthRows(month core.Month, entries []core.Entry) [][]any {
	rows := make([][]any, 0, len(entries)+1)
	header := strings.Split(ledger.Header, ",")
	hr := make([]any, len(header))
	for i, h := range header {
		hr[i] = h
	}
	rows = append(rows, hr)

	for _, e := range entries {
		var amount any = e.Amount
		if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) {
			amount = ""
		}
		rows = append(rows, []any{month.String(), string(e.Type), e.Subtype, amount})
	}
	return rows
}
