// Package store implements the SQLite-backed item store used by the gop
// server. It holds generic keyed items (files, text snippets) plus the
// singleton clipboard record, which has replace-in-place semantics: at most
// one clipboard row exists at any time and writes to it are atomic upserts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // register the sqlite driver for sql.Open

	"github.com/suvarnak/gop/internal/item"
	"github.com/suvarnak/gop/internal/protocol"
)

// ErrNotFound is returned when a requested item does not exist. This covers
// the explicit "no clipboard set yet" case as well as lookups by ID.
var ErrNotFound = errors.New("item not found")

// IsNotFound returns true if the error means "no such item".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Schema is the SQL that Open executes. The partial unique index on
// type='clipboard' is what makes the clipboard a true singleton: the upsert
// in UpsertClipboard conflicts against it, so there is no SELECT-then-branch
// window where two writers could both insert.
const Schema = `
CREATE TABLE IF NOT EXISTS items (
    id         TEXT PRIMARY KEY,
    device     TEXT NOT NULL,
    type       TEXT NOT NULL,
    name       TEXT NOT NULL,
    content    TEXT,
    path       TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS items_clipboard_singleton
    ON items (type) WHERE type = 'clipboard';
`

// Store provides durable item storage backed by a SQLite database file.
// It is safe for concurrent use; all write serialization happens at the
// storage layer.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the schema exists. WAL mode and a 10s busy timeout keep
// concurrent readers and the single writer from tripping over each other.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=10000;`,
		`PRAGMA foreign_keys=ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database. Implements io.Closer.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable. Useful for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// AddItem inserts a new item. Validates the item before writing; the ID
// must not already exist.
func (s *Store) AddItem(ctx context.Context, i *item.Item) error {
	if err := i.Validate(); err != nil {
		return fmt.Errorf("invalid item: %w", err)
	}

	const q = `
INSERT INTO items (id, device, type, name, content, path, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	createdAt := i.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, q,
		i.ID, i.Device, string(i.Type), i.Name, i.Content, i.Path,
		createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

// GetItem retrieves an item by its full ID.
// Returns ErrNotFound if no item has that ID.
func (s *Store) GetItem(ctx context.Context, id string) (*item.Item, error) {
	const q = `
SELECT id, device, type, name, content, path, created_at
FROM items WHERE id = ?`

	i, err := scanItem(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read item: %w", err)
	}
	return i, nil
}

// ListItems returns all items, newest first.
func (s *Store) ListItems(ctx context.Context) ([]*item.Item, error) {
	const q = `
SELECT id, device, type, name, content, path, created_at
FROM items ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return items, nil
}

// CountItems returns the total number of stored items.
func (s *Store) CountItems(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

// DeleteItem removes an item by its full ID.
// Returns ErrNotFound if no item has that ID.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count deleted rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// UpsertClipboard creates or replaces the singleton clipboard record.
// On first push it creates the record with a fresh ID; on every subsequent
// push it overwrites content, device, and name in place while keeping the
// original ID. The write is a single atomic statement against the
// clipboard singleton index, so concurrent pushes resolve last-writer-wins
// with no duplicate rows.
func (s *Store) UpsertClipboard(ctx context.Context, content, device string) (*item.Clipboard, error) {
	const q = `
INSERT INTO items (id, device, type, name, content, created_at)
VALUES (?, ?, 'clipboard', ?, ?, ?)
ON CONFLICT (type) WHERE type = 'clipboard'
DO UPDATE SET content = excluded.content,
              device  = excluded.device,
              name    = excluded.name`

	_, err := s.db.ExecContext(ctx, q,
		item.NewID(), device, item.ShortName(item.TypeClipboard), content,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert clipboard: %w", err)
	}

	return s.GetClipboard(ctx)
}

// GetClipboard returns the current clipboard record with its content
// fingerprint, or ErrNotFound if nothing has been pushed yet. The empty
// case is expected, not exceptional.
func (s *Store) GetClipboard(ctx context.Context) (*item.Clipboard, error) {
	const q = `
SELECT id, device, type, name, content, path, created_at
FROM items WHERE type = 'clipboard'`

	i, err := scanItem(s.db.QueryRowContext(ctx, q))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read clipboard: %w", err)
	}

	return &item.Clipboard{
		Item:        *i,
		Fingerprint: protocol.Fingerprint(i.Content),
	}, nil
}

// scannable is satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanItem(row scannable) (*item.Item, error) {
	var (
		i       item.Item
		typ     string
		content sql.NullString
		path    sql.NullString
		created string
	)

	if err := row.Scan(&i.ID, &i.Device, &typ, &i.Name, &content, &path, &created); err != nil {
		return nil, err
	}

	i.Type = item.Type(typ)
	i.Content = content.String
	i.Path = path.String

	// created_at may be RFC3339 (written by us) or SQLite's default
	// "YYYY-MM-DD HH:MM:SS" form from earlier schema versions.
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		i.CreatedAt = t
	} else if t, err := time.Parse("2006-01-02 15:04:05", created); err == nil {
		i.CreatedAt = t.UTC()
	}

	return &i, nil
}
