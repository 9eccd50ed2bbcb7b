package gallery

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/moments-app/moments/internal/model"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store on a single-table SQLite database: one row
// per collection, the body being the versioned JSON envelope.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS collections (
    name TEXT PRIMARY KEY,
    body TEXT NOT NULL
);
`

// NewSQLite opens (or creates) the store database at dsn and ensures the
// schema. For in-memory use pass "file::memory:?cache=shared".
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	} else if !strings.Contains(dsn, "_journal_mode") {
		dsn += "&_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads all persisted collections. Missing or corrupt collections
// yield their empty defaults.
func (s *SQLiteStore) Load() (*model.Snapshot, error) {
	rows, err := s.db.Query(`SELECT name, body FROM collections`)
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	defer rows.Close()

	raw := map[string][]byte{}
	for rows.Next() {
		var name, body string
		if err := rows.Scan(&name, &body); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		raw[name] = []byte(body)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}

	return decodeSnapshot(raw), nil
}

func (s *SQLiteStore) SaveRecords(records []model.ImageRecord) error {
	if records == nil {
		records = []model.ImageRecord{}
	}
	return s.ApplyAtomic(records, nil, nil)
}

func (s *SQLiteStore) SavePayloads(payloads map[string]string) error {
	if payloads == nil {
		payloads = map[string]string{}
	}
	return s.ApplyAtomic(nil, payloads, nil)
}

func (s *SQLiteStore) SaveLikes(likes map[int64]bool) error {
	if likes == nil {
		likes = map[int64]bool{}
	}
	return s.ApplyAtomic(nil, nil, likes)
}

// ApplyAtomic writes all non-nil collections in one transaction.
func (s *SQLiteStore) ApplyAtomic(records []model.ImageRecord, payloads map[string]string, likes map[int64]bool) error {
	changed, err := encodeChanged(records, payloads, likes)
	if err != nil {
		return fmt.Errorf("encode collections: %w", err)
	}
	if len(changed) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Error().Err(err).Msg("ApplyAtomic: rollback failed")
		}
	}()

	for name, body := range changed {
		_, err := tx.Exec(`
			INSERT INTO collections (name, body) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET body = excluded.body`,
			name, string(body),
		)
		if err != nil {
			return fmt.Errorf("write collection %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
