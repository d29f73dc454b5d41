package store

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// affected turns an UPDATE/DELETE that touched no rows into ErrNotFound.
func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Tx exposes the store operations that must run together atomically, such
// as checking stock, decrementing it and writing the order that consumed it.
type Tx struct {
	tx *sqlx.Tx
}

func (s *Store) InTx(ctx context.Context, fn func(*Tx) error) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&Tx{tx: tx})
	})
}
