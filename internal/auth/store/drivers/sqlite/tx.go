package sqlite

import (
	"context"
	"database/sql"

	"github.com/shoptally/shoptally/internal/auth/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // outer DB stays open; caller will commit/rollback

// Ping is a no-op for transactions; the connection is already established.
func (t *txStore) Ping(ctx context.Context) error {
	return nil
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users                     { return &usersRepo{db: t.tx} }
func (t *txStore) PasswordHistory() store.PasswordHistory { return &passwordHistoryRepo{db: t.tx} }
func (t *txStore) RecoveryCodes() store.RecoveryCodes     { return &recoveryCodesRepo{db: t.tx} }
func (t *txStore) ActivityLogs() store.ActivityLogs       { return &activityLogsRepo{db: t.tx} }

func (t *txStore) ApplyMigrations() error { return nil } // no-op; migrations run before any tx starts
