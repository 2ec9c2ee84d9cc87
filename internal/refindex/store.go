package refindex

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/renshaw/smartlinks/internal/models"
)

// Store persists index entries so a restart can serve the last good snapshot
// before sources are re-enumerated. Implementations are write-behind: the
// in-memory snapshot is always the read path.
type Store interface {
	LoadAll() ([]models.Entry, error)
	ReplaceAll(entries []models.Entry) error
	Put(entries []models.Entry) error
	DeleteByLocator(prefix, locator string) error
	Close() error
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	prefix    TEXT NOT NULL,
	name_key  TEXT NOT NULL,
	display   TEXT NOT NULL DEFAULT '',
	locator   TEXT NOT NULL,
	title     TEXT NOT NULL DEFAULT '',
	url       TEXT NOT NULL DEFAULT '',
	media_url TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (prefix, name_key)
);

CREATE INDEX IF NOT EXISTS idx_entries_locator ON entries(prefix, locator);
`

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	conn *sql.DB
}

// Verify SQLiteStore satisfies Store at compile time.
var _ Store = (*SQLiteStore)(nil)

// OpenStore opens (or creates) the SQLite database and applies the schema.
func OpenStore(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("refindex: open store: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("refindex: ping store: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("refindex: apply schema: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// LoadAll returns every persisted entry.
func (s *SQLiteStore) LoadAll() ([]models.Entry, error) {
	rows, err := s.conn.Query(`SELECT prefix, name_key, display, locator, title, url, media_url FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("refindex: load all: %w", err)
	}
	defer rows.Close()

	var out []models.Entry
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.Prefix, &e.NameKey, &e.Display, &e.Locator,
			&e.Attrs.Title, &e.Attrs.URL, &e.Attrs.MediaURL); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ReplaceAll swaps the whole persisted set within one transaction.
func (s *SQLiteStore) ReplaceAll(entries []models.Entry) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("refindex: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("refindex: clear entries: %w", err)
	}
	if err := putTx(tx, entries); err != nil {
		return err
	}
	return tx.Commit()
}

// Put inserts or overwrites entries.
func (s *SQLiteStore) Put(entries []models.Entry) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("refindex: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := putTx(tx, entries); err != nil {
		return err
	}
	return tx.Commit()
}

func putTx(tx *sql.Tx, entries []models.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO entries (prefix, name_key, display, locator, title, url, media_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(prefix, name_key) DO UPDATE SET
			display   = excluded.display,
			locator   = excluded.locator,
			title     = excluded.title,
			url       = excluded.url,
			media_url = excluded.media_url
	`)
	if err != nil {
		return fmt.Errorf("refindex: prepare put: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.Prefix, e.NameKey, e.Display, e.Locator,
			e.Attrs.Title, e.Attrs.URL, e.Attrs.MediaURL); err != nil {
			return fmt.Errorf("refindex: put entry: %w", err)
		}
	}
	return nil
}

// DeleteByLocator removes every entry for one entity.
func (s *SQLiteStore) DeleteByLocator(prefix, locator string) error {
	if _, err := s.conn.Exec(`DELETE FROM entries WHERE prefix = ? AND locator = ?`, prefix, locator); err != nil {
		return fmt.Errorf("refindex: delete by locator: %w", err)
	}
	return nil
}
