package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// withTx runs fn inside a transaction. The transaction is rolled back when fn
// returns an error and committed otherwise.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return storageError(err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return storageError(err)
	}

	if err = tx.Commit(); err != nil {
		return storageError(err)
	}

	return nil
}
