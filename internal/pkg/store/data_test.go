package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulexconde/eventmatch/internal/pkg/fault"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
	"github.com/paulexconde/eventmatch/internal/pkg/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hostRow struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	Phone        string    `db:"phone"`
	Organization string    `db:"organization"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type newHost struct {
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	Phone        string    `db:"phone"`
	Organization string    `db:"organization"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (h *newHost) Validate() error {
	if h.Email == "" {
		return errors.New("email required")
	}
	return nil
}

type hostPatch struct {
	Name         string     `db:"name"`
	Organization *string    `db:"organization"`
	UpdatedAt    *time.Time `db:"updated_at"`
}

func (h *hostPatch) Validate() error { return nil }

func host(email string) *newHost {
	now := time.Now().UTC()
	return &newHost{Email: email, Name: "Ada", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := storetest.NewSQLite(t)
	require.NoError(t, db.Migrate(context.Background()))
	assert.Equal(t, store.SQLite, db.Dialect())
}

func TestDataStoreCreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	ds := store.NewDataStore[hostRow](storetest.NewSQLite(t), "hosts")

	created, err := ds.Create(ctx, host("ada@example.com"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "ada@example.com", created.Email)

	org := "Analytical Engines"
	updated, err := ds.Update(ctx, created.ID, &hostPatch{Organization: &org})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.Name, "empty fields are left untouched")
	assert.Equal(t, org, updated.Organization)

	_, err = ds.Update(ctx, created.ID+100, &hostPatch{Name: "nobody"})
	assert.ErrorIs(t, err, fault.ErrNotFound)

	require.NoError(t, ds.Delete(ctx, created.ID))
	_, err = ds.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, fault.ErrNotFound)
	assert.ErrorIs(t, ds.Delete(ctx, created.ID), fault.ErrNotFound)
}

func TestDataStoreUniqueViolation(t *testing.T) {
	ctx := context.Background()
	ds := store.NewDataStore[hostRow](storetest.NewSQLite(t), "hosts")

	_, err := ds.Create(ctx, host("dup@example.com"))
	require.NoError(t, err)

	_, err = ds.Create(ctx, host("dup@example.com"))
	assert.ErrorIs(t, err, fault.ErrUniqueViolation)
}

func TestDataStoreValidateRunsBeforeInsert(t *testing.T) {
	ds := store.NewDataStore[hostRow](storetest.NewSQLite(t), "hosts")

	_, err := ds.Create(context.Background(), host(""))
	assert.EqualError(t, err, "email required")
}

func TestAfterSaveCommitHooksRunOnlyOnCommit(t *testing.T) {
	ctx := context.Background()
	db := storetest.NewSQLite(t)
	ds := store.NewDataStore[hostRow](db, "hosts")

	var committed []string
	ds.SetHooks(store.Hooks[hostRow]{
		AfterSaveCommit: []func(ctx context.Context, data store.DTO, model *hostRow, isNew bool) store.AfterSaveCommitHook{
			func(ctx context.Context, data store.DTO, model *hostRow, isNew bool) store.AfterSaveCommitHook {
				return func() { committed = append(committed, model.Email) }
			},
		},
	})

	rollback := errors.New("rollback")
	err := db.RunInTx(ctx, func(tx *store.Tx) error {
		if _, err := ds.CreateTx(ctx, tx, host("gone@example.com")); err != nil {
			return err
		}
		return rollback
	})
	assert.ErrorIs(t, err, rollback)
	assert.Empty(t, committed)

	_, err = ds.Create(ctx, host("kept@example.com"))
	require.NoError(t, err)
	assert.Equal(t, []string{"kept@example.com"}, committed)

	all, err := ds.Select(ctx, "SELECT "+ds.Columns()+" FROM hosts ORDER BY id")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "kept@example.com", all[0].Email)
}

func TestQueryRowCount(t *testing.T) {
	ctx := context.Background()
	ds := store.NewDataStore[hostRow](storetest.NewSQLite(t), "hosts")

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := ds.Create(ctx, host(email))
		require.NoError(t, err)
	}

	got, err := ds.QueryRow(ctx, "SELECT COUNT(*) FROM hosts WHERE name = ?", "Ada")
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in   string
		want store.Dialect
		err  bool
	}{
		{in: "postgres", want: store.Postgres},
		{in: "PostgreSQL", want: store.Postgres},
		{in: "sqlite", want: store.SQLite},
		{in: "sqlite3", want: store.SQLite},
		{in: "mysql", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := store.ParseDialect(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == store.Postgres, got.ForUpdate() != "")
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/x.db?mode=ro", store.SQLiteDSN("file:/tmp/x.db?mode=ro"))
	assert.Contains(t, store.SQLiteDSN("/tmp/x.db"), "file:/tmp/x.db?")
	assert.Contains(t, store.SQLiteDSN("/tmp/x.db"), "_txlock=immediate")
}
