// Package storetest opens migrated throwaway databases for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/paulexconde/eventmatch/internal/pkg/store"
)

// NewSQLite returns a migrated SQLite database in t's temp dir.
func NewSQLite(t testing.TB) *store.DB {
	t.Helper()

	ctx := context.Background()
	db, err := store.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "eventmatch.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
