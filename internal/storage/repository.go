package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"monthlyexpenses/internal/folder"

	_ "modernc.org/sqlite"
)

// SQLiteRepository keeps month files as rows of one database. Each picked
// location is a separate namespace of file names.
type SQLiteRepository struct {
	db *sql.DB
}

var _ folder.Picker = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Pick implements folder.Picker.
func (r *SQLiteRepository) Pick(_ context.Context, location string) (folder.Folder, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, folder.ErrCancelled
	}
	return &sqliteFolder{db: r.db, location: location}, nil
}

type sqliteFolder struct {
	db       *sql.DB
	location string
}

func (f *sqliteFolder) Location() string { return "sqlite:" + f.location }

// List returns the file names stored under the folder, sorted.
func (f *sqliteFolder) List(ctx context.Context) ([]string, error) {
	rows, err := f.db.QueryContext(ctx,
		`SELECT name FROM ledger_files WHERE folder = ? ORDER BY name`, f.location)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan file name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Stat reports the row's revision, which every write increments.
func (f *sqliteFolder) Stat(ctx context.Context, name string) (folder.Stamp, error) {
	var st folder.Stamp
	err := f.db.QueryRowContext(ctx,
		`SELECT revision, length(content) FROM ledger_files WHERE folder = ? AND name = ?`,
		f.location, name).Scan(&st.Revision, &st.Size)
	if errors.Is(err, sql.ErrNoRows) {
		return folder.Stamp{}, folder.ErrNotFound
	}
	if err != nil {
		return folder.Stamp{}, fmt.Errorf("stat %s: %w", name, err)
	}
	return st, nil
}

func (f *sqliteFolder) ReadFile(ctx context.Context, name string) (string, error) {
	var content string
	err := f.db.QueryRowContext(ctx,
		`SELECT content FROM ledger_files WHERE folder = ? AND name = ?`,
		f.location, name).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", folder.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return content, nil
}

func (f *sqliteFolder) WriteFile(ctx context.Context, name, text string, createIfMissing bool) error {
	now := time.Now().UTC()
	if !createIfMissing {
		res, err := f.db.ExecContext(ctx,
			`UPDATE ledger_files SET content = ?, updated_at = ?, revision = revision + 1 WHERE folder = ? AND name = ?`,
			text, now, f.location, name)
		if err != nil {
			return fmt.Errorf("update %s: %w", name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update %s: %w", name, err)
		}
		if n == 0 {
			return folder.ErrNotFound
		}
		return nil
	}

	_, err := f.db.ExecContext(ctx,
		`INSERT INTO ledger_files (folder, name, content, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(folder, name) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at,
		   revision = ledger_files.revision + 1`,
		f.location, name, text, now)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", name, err)
	}

	slog.DebugContext(ctx, "Month file saved to SQLite",
		"folder", f.location,
		"name", name,
		"bytes", len(text))
	return nil
}
