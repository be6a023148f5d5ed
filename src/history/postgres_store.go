package history

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// PostgresStore persists transcripts in Postgres via a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	turns      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: connect")
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "postgres: create schema")
	}
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Load(ctx context.Context, id string) ([]Turn, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT turns FROM conversations WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "postgres: load conversation")
	}

	var turns []Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, errors.Wrap(err, "postgres: decode turns")
	}
	return turns, nil
}

func (p *PostgresStore) Save(ctx context.Context, id string, turns []Turn) error {
	raw, err := json.Marshal(turns)
	if err != nil {
		return errors.Wrap(err, "postgres: encode turns")
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO conversations (id, turns, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET turns = excluded.turns, updated_at = now()`,
		id, raw)
	return errors.Wrap(err, "postgres: save conversation")
}

func (p *PostgresStore) Close(context.Context) error {
	p.pool.Close()
	return nil
}
