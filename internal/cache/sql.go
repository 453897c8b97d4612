package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS match_lists (
	of_id      VARCHAR(100) PRIMARY KEY,
	data       BYTEA        NOT NULL,
	updated_at TIMESTAMPTZ  NOT NULL DEFAULT now()
)`
	selectSQL = `SELECT data FROM match_lists WHERE of_id = $1`
	upsertSQL = `INSERT INTO match_lists (of_id, data, updated_at) VALUES ($1, $2, now())
ON CONFLICT (of_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
)

// SQL stores payloads in the match_lists table of a Postgres database
type SQL struct {
	db *sqlx.DB
}

// NewSQL wraps an open database handle
func NewSQL(db *sqlx.DB) *SQL {
	return &SQL{db: db}
}

// OpenSQL connects to Postgres and makes sure the table exists
func OpenSQL(ctx context.Context, dsn string) (*SQL, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := NewSQL(db)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the match_lists table if missing
func (s *SQL) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("creating match_lists table: %w", err)
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	if err := s.db.GetContext(ctx, &data, selectSQL, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &Error{Op: "get", Key: key, Err: fmt.Errorf("selecting match list: %w", err)}
	}
	return data, nil
}

func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertSQL, key, value); err != nil {
		return &Error{Op: "put", Key: key, Err: fmt.Errorf("upserting match list: %w", err)}
	}
	return nil
}

// Close closes the database handle
func (s *SQL) Close() error {
	return s.db.Close()
}
