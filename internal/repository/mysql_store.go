package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// MySQLStore runs units of work inside database transactions. Row locks taken with
// SELECT ... FOR UPDATE serialise concurrent purchases, top-up reviews and stock draws.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, &sql.TxOptions{}, fn)
}

func (s *MySQLStore) View(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (s *MySQLStore) run(ctx context.Context, opts *sql.TxOptions, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&mysqlTx{tx: tx, readOnly: opts.ReadOnly}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

type mysqlTx struct {
	tx       *sql.Tx
	readOnly bool
}

// lockClause is appended to reads so that only read-write units take row locks.
func (r *mysqlTx) lockClause() string {
	if r.readOnly {
		return ""
	}
	return " FOR UPDATE"
}
