package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Tx is a transaction that collects side effects to run after commit.
type Tx struct {
	*sqlx.Tx
	dialect     Dialect
	afterCommit []AfterSaveCommitHook
}

func (tx *Tx) Dialect() Dialect {
	return tx.dialect
}

// OnCommit schedules fn to run after a successful commit. It is dropped
// on rollback.
func (tx *Tx) OnCommit(fn AfterSaveCommitHook) {
	if fn != nil {
		tx.afterCommit = append(tx.afterCommit, fn)
	}
}

// RunInTx runs fn inside a read-committed transaction. fn's error, or a
// panic, rolls back; otherwise the transaction commits and the OnCommit
// hooks run in registration order.
func (db *DB) RunInTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	opts := &sql.TxOptions{}
	if db.dialect == Postgres {
		opts.Isolation = sql.LevelReadCommitted
	}

	raw, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	tx := &Tx{Tx: raw, dialect: db.dialect}

	defer func() {
		if p := recover(); p != nil {
			_ = raw.Rollback()
			panic(p)
		} else if err != nil {
			_ = raw.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = raw.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", TranslateError(err))
	}

	for _, hook := range tx.afterCommit {
		hook()
	}

	return nil
}
