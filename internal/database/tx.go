package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WithinTx runs fn inside a transaction on an exclusively-owned connection.
// The transaction commits only when fn returns nil; any error, panic or
// context cancellation rolls back every statement issued within the scope.
// The handle is released on every exit path.
func WithinTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback: %v (caused by: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// WithinImplicitTx is WithinTx for a single call site that does not need to
// compose with sibling statements. Repository write primitives use it when
// invoked without a caller-supplied transaction.
func WithinImplicitTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	return WithinTx(ctx, db, fn)
}
