package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Dialect seleciona os placeholders do driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type sqlQueries struct {
	get    string
	upsert string
	remove string
	insert string // só se a chave não existir
	swap   string // só se o valor atual for o esperado
}

var queriesByDialect = map[Dialect]sqlQueries{
	DialectSQLite: {
		get: `SELECT value FROM kv_entries WHERE key = ?`,
		upsert: `INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		remove: `DELETE FROM kv_entries WHERE key = ?`,
		insert: `INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO NOTHING`,
		swap:   `UPDATE kv_entries SET value = ?, updated_at = ? WHERE key = ? AND value = ?`,
	},
	DialectPostgres: {
		get: `SELECT value FROM kv_entries WHERE key = $1`,
		upsert: `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		remove: `DELETE FROM kv_entries WHERE key = $1`,
		insert: `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, $3) ON CONFLICT (key) DO NOTHING`,
		swap:   `UPDATE kv_entries SET value = $1, updated_at = $2 WHERE key = $3 AND value = $4`,
	},
}

// SQLStore é o escopo de longa duração sobre a tabela kv_entries
// (SQLite local ou PostgreSQL). A tabela é criada pelas migrações goose.
type SQLStore struct {
	db      *sql.DB
	q       sqlQueries
	timeout time.Duration
}

// NewSQLStore cria o escopo. timeout limita cada comando (0 = sem limite extra).
func NewSQLStore(db *sql.DB, dialect Dialect, timeout time.Duration) (*SQLStore, error) {
	q, ok := queriesByDialect[dialect]
	if !ok {
		return nil, fmt.Errorf("storage: dialeto não suportado %q", dialect)
	}
	return &SQLStore{db: db, q: q, timeout: timeout}, nil
}

func (s *SQLStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var value string
	err := s.db.QueryRowContext(ctx, s.q.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, s.q.upsert, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, s.q.remove, key); err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

// CompareAndSwap grava numa única instrução condicional; a linha afetada diz se houve troca.
func (s *SQLStore) CompareAndSwap(ctx context.Context, key string, old *string, value string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	var (
		res sql.Result
		err error
	)
	if old == nil {
		res, err = s.db.ExecContext(ctx, s.q.insert, key, value, now)
	} else {
		res, err = s.db.ExecContext(ctx, s.q.swap, value, now, key, *old)
	}
	if err != nil {
		return false, fmt.Errorf("failed to swap kv[%s]: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to swap kv[%s]: %w", key, err)
	}
	return n == 1, nil
}
