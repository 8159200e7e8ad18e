package sqlite

import (
	"context"
	"errors"

	"github.com/devasign/devasign/internal/api/store"
	"github.com/jmoiron/sqlx"
)

// errNestedTx is returned when a transaction-scoped store is asked for
// another transaction.
var errNestedTx = errors.New("sqlite: nested transactions are not supported")

// txStore is the store.Tx view of one sqlx transaction.
type txStore struct {
	repos
	tx *sqlx.Tx
}

func newTx(tx *sqlx.Tx) *txStore {
	return &txStore{repos: repos{q: tx}, tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close leaves the transaction alone; the owner commits or rolls back.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(context.Context) error { return nil }

func (t *txStore) ApplyMigrations() error { return errNestedTx }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, errNestedTx }

func (t *txStore) WithTx(context.Context, func(store.Tx) error) error { return errNestedTx }
