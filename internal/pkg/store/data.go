package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/paulexconde/eventmatch/internal/pkg/fault"
)

type dataStore[T any] struct {
	db        *DB
	tablename string
	columns   string
	hooks     Hooks[T]
	mu        sync.RWMutex
}

func NewDataStore[T any](db *DB, tablename string) *dataStore[T] {
	return &dataStore[T]{
		db:        db,
		tablename: tablename,
		columns:   strings.Join(getStructFieldNamesFromInstance(new(T)), ", "),
		mu:        sync.RWMutex{},
	}
}

func (s *dataStore[T]) Base() *DB {
	return s.db
}

func (s *dataStore[T]) Columns() string {
	return s.columns
}

func (s *dataStore[T]) Table() string {
	return s.tablename
}

func (s *dataStore[T]) SetHooks(hooks Hooks[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks.PreSave = append(s.hooks.PreSave, hooks.PreSave...)
	s.hooks.PostSave = append(s.hooks.PostSave, hooks.PostSave...)
	s.hooks.PreDelete = append(s.hooks.PreDelete, hooks.PreDelete...)
	s.hooks.PostDelete = append(s.hooks.PostDelete, hooks.PostDelete...)
	s.hooks.AfterSaveCommit = append(s.hooks.AfterSaveCommit, hooks.AfterSaveCommit...)
}

func (s *dataStore[T]) snapshotHooks() Hooks[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hooks
}

func (s *dataStore[T]) QueryRow(ctx context.Context, query string, args ...any) (any, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(query), args...)

	var result any

	err := row.Scan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, err
	}

	return result, nil
}

func (s *dataStore[T]) Get(ctx context.Context, query string, args ...any) (*T, error) {
	return s.get(ctx, s.db, query, args...)
}

func (s *dataStore[T]) GetTx(ctx context.Context, tx *Tx, query string, args ...any) (*T, error) {
	return s.get(ctx, tx, query, args...)
}

func (s *dataStore[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	return s.getByIDBase(ctx, s.db, id)
}

func (s *dataStore[T]) get(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (*T, error) {
	var result T

	if err := sqlx.GetContext(ctx, q, &result, q.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrNotFound
		}
		return nil, err
	}

	return &result, nil
}

func (s *dataStore[T]) Select(ctx context.Context, query string, args ...any) ([]T, error) {
	return s.selectAll(ctx, s.db, query, args...)
}

func (s *dataStore[T]) SelectTx(ctx context.Context, tx *Tx, query string, args ...any) ([]T, error) {
	return s.selectAll(ctx, tx, query, args...)
}

func (s *dataStore[T]) selectAll(ctx context.Context, q sqlx.ExtContext, query string, args ...any) ([]T, error) {
	results := []T{}

	if err := sqlx.SelectContext(ctx, q, &results, q.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []T{}, nil
		}
		return nil, err
	}

	return results, nil
}

func (s *dataStore[T]) Create(ctx context.Context, data DTO) (*T, error) {
	var model *T

	err := s.db.RunInTx(ctx, func(tx *Tx) error {
		var err error
		model, err = s.CreateTx(ctx, tx, data)
		return err
	})
	if err != nil {
		return nil, err
	}

	return model, nil
}

func (s *dataStore[T]) CreateTx(ctx context.Context, tx *Tx, data DTO) (*T, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if err := data.Validate(); err != nil {
		return nil, err
	}

	hooks := s.snapshotHooks()

	for _, hook := range hooks.PreSave {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := hook(ctx, tx, data, true); err != nil {
			return nil, err
		}
	}

	columns, placeholders := getStructFieldsFromDTO(data)

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id", s.tablename, columns, placeholders)

	bound, args, err := sqlx.Named(query, data)
	if err != nil {
		return nil, err
	}

	var id int64
	if err := tx.QueryRowxContext(ctx, tx.Rebind(bound), args...).Scan(&id); err != nil {
		return nil, TranslateError(err)
	}

	model, err := s.getByIDBase(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	for _, hook := range hooks.PostSave {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if err := hook(ctx, tx, data, model, true); err != nil {
			return nil, err
		}
	}

	for _, hook := range hooks.AfterSaveCommit {
		tx.OnCommit(hook(ctx, data, model, true))
	}

	return model, nil
}

func (s *dataStore[T]) Update(ctx context.Context, id int64, data DTO) (*T, error) {
	var model *T

	err := s.db.RunInTx(ctx, func(tx *Tx) error {
		var err error
		model, err = s.UpdateTx(ctx, tx, id, data)
		return err
	})
	if err != nil {
		return nil, err
	}

	return model, nil
}

func (s *dataStore[T]) UpdateTx(ctx context.Context, tx *Tx, id int64, data DTO) (*T, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if err := data.Validate(); err != nil {
		return nil, err
	}

	hooks := s.snapshotHooks()

	for _, hook := range hooks.PreSave {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := hook(ctx, tx, data, false); err != nil {
			return nil, err
		}
	}

	params := map[string]any{"id": id}
	setClause := getNonEmptyFieldsFromDTO(data, params)

	if setClause == "" {
		return nil, fmt.Errorf("no fields to update")
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", s.tablename, setClause)

	bound, args, err := sqlx.Named(query, params)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(bound), args...)
	if err != nil {
		return nil, TranslateError(err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fault.ErrNotFound
	}

	updatedModel, err := s.getByIDBase(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	for _, hook := range hooks.PostSave {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if err := hook(ctx, tx, data, updatedModel, false); err != nil {
			return nil, err
		}
	}

	for _, hook := range hooks.AfterSaveCommit {
		tx.OnCommit(hook(ctx, data, updatedModel, false))
	}

	return updatedModel, nil
}

func (s *dataStore[T]) DeleteWhere(ctx context.Context, column string, value any) error {
	return s.db.RunInTx(ctx, func(tx *Tx) error {
		query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.tablename, column)

		if _, err := tx.ExecContext(ctx, tx.Rebind(query), value); err != nil {
			return TranslateError(err)
		}
		return nil
	})
}

func (s *dataStore[T]) Delete(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, func(tx *Tx) error {
		return s.DeleteTx(ctx, tx, id)
	})
}

func (s *dataStore[T]) DeleteTx(ctx context.Context, tx *Tx, id int64) error {
	hooks := s.snapshotHooks()

	for _, hook := range hooks.PreDelete {
		if err := hook(ctx, tx, id); err != nil {
			return err
		}
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tablename)

	res, err := tx.ExecContext(ctx, tx.Rebind(query), id)
	if err != nil {
		return TranslateError(err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fault.ErrNotFound
	}

	for _, hook := range hooks.PostDelete {
		if err := hook(ctx, tx, id); err != nil {
			return err
		}
	}

	return nil
}

func (s *dataStore[T]) BulkUpdate(ctx context.Context, query string, args ...any) error {
	return s.db.RunInTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		return TranslateError(err)
	})
}

func (s *dataStore[T]) getByIDBase(ctx context.Context, q sqlx.ExtContext, id int64) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", s.columns, s.tablename)
	return s.get(ctx, q, query, id)
}
