// Package store is the PostgreSQL implementation of the service datastore.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/store-backoffice/internal/database"
	"github.com/safar/store-backoffice/internal/service"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type Store struct {
	db     *sql.DB
	txOpts database.TxOptions
}

var _ service.Store = (*Store)(nil)

func New(db *sql.DB, maxRetries int) *Store {
	opts := database.DefaultTxOptions()
	opts.MaxRetries = maxRetries
	return &Store{db: db, txOpts: opts}
}

// InTx runs fn in a READ COMMITTED transaction, retrying the whole callback
// on deadlocks and lock timeouts.
func (s *Store) InTx(ctx context.Context, fn func(tx service.Tx) error) error {
	return database.WithRetry(ctx, s.db, s.txOpts, func(tx *sql.Tx) error {
		return fn(&txStore{q: tx})
	})
}

type txStore struct {
	q querier
}

var _ service.Tx = (*txStore)(nil)

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return n, nil
}
