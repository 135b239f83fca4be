package library

import (
	"database/sql"
	"fmt"
)

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// Store provides access to the catalog.
type Store struct {
	db *sql.DB
}

// NewStore creates a new library store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Begin starts a transaction.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func (s *Store) WithTx(fn func(tx *Tx) error) error {
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Tx wraps a database transaction with the same methods as Store.
type Tx struct {
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// resetKind deletes children first. The metadata cache and event log are kept.
func resetKind(q querier, kind Kind) error {
	var stmts []string
	switch kind {
	case KindMovie:
		stmts = []string{
			"DELETE FROM files WHERE movie_id IS NOT NULL",
			"DELETE FROM titles WHERE kind = 'movie'",
		}
	case KindSeries:
		stmts = []string{
			"DELETE FROM files WHERE episode_id IS NOT NULL",
			"DELETE FROM episodes",
			"DELETE FROM titles WHERE kind = 'series'",
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	for _, stmt := range stmts {
		if _, err := q.Exec(stmt); err != nil {
			return fmt.Errorf("clear %s: %w", kind, mapSQLiteError(err))
		}
	}
	return nil
}

// ResetKind removes the titles of one kind with their episodes and files.
func (s *Store) ResetKind(kind Kind) error {
	return s.WithTx(func(tx *Tx) error { return tx.ResetKind(kind) })
}

// ResetKind removes the titles of one kind within a transaction.
func (t *Tx) ResetKind(kind Kind) error { return resetKind(t.tx, kind) }
