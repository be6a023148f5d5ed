package history

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists transcripts in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	turns      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: open")
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "sqlite: create schema")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) ([]Turn, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT turns FROM conversations WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: load conversation")
	}

	var turns []Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, errors.Wrap(err, "sqlite: decode turns")
	}
	return turns, nil
}

func (s *SQLiteStore) Save(ctx context.Context, id string, turns []Turn) error {
	raw, err := json.Marshal(turns)
	if err != nil {
		return errors.Wrap(err, "sqlite: encode turns")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, turns, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET turns = excluded.turns, updated_at = CURRENT_TIMESTAMP`,
		id, string(raw))
	return errors.Wrap(err, "sqlite: save conversation")
}

func (s *SQLiteStore) Close(context.Context) error { return s.db.Close() }
