package paginator_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/paulexconde/eventmatch/internal/pkg/paginator"
	"github.com/paulexconde/eventmatch/internal/pkg/store"
	"github.com/paulexconde/eventmatch/internal/pkg/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hostRow struct {
	ID    int64  `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
}

func seedHosts(t *testing.T, db *store.DB, n int) {
	t.Helper()
	now := time.Now().UTC()
	for i := range n {
		_, err := db.ExecContext(context.Background(),
			db.Rebind("INSERT INTO hosts (email, name, password_hash, created_at, updated_at) VALUES (?, ?, 'x', ?, ?)"),
			fmt.Sprintf("host%02d@example.com", i), fmt.Sprintf("Host %02d", i), now, now)
		require.NoError(t, err)
	}
}

func TestPaginateQuery(t *testing.T) {
	db := storetest.NewSQLite(t)
	seedHosts(t, db, 25)

	ds := store.NewDataStore[hostRow](db, "hosts")
	p := paginator.NewPaginator[hostRow](ds)
	query := "SELECT id, email, name FROM hosts WHERE name LIKE ? ORDER BY id"

	tests := []struct {
		name      string
		page      int
		limit     int
		wantItems int
		wantPrev  *int
		wantNext  *int
		wantPage  int
	}{
		{name: "first page", page: 1, limit: 10, wantItems: 10, wantNext: intPtr(2), wantPage: 1},
		{name: "middle page", page: 2, limit: 10, wantItems: 10, wantPrev: intPtr(1), wantNext: intPtr(3), wantPage: 2},
		{name: "last page", page: 3, limit: 10, wantItems: 5, wantPrev: intPtr(2), wantPage: 3},
		{name: "page below one", page: 0, limit: 10, wantItems: 10, wantNext: intPtr(2), wantPage: 1},
		{name: "past the end", page: 9, limit: 10, wantItems: 0, wantPrev: intPtr(8), wantPage: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.PaginateQuery(context.Background(), query, []any{"Host%"}, tt.page, tt.limit)
			require.NoError(t, err)

			assert.Len(t, res.Items, tt.wantItems)
			assert.NotNil(t, res.Items)
			assert.Equal(t, 25, res.TotalItems)
			assert.Equal(t, 3, res.TotalPages)
			assert.Equal(t, tt.wantPage, res.CurrentPage)
			assert.Equal(t, tt.wantPrev, res.PrevPage)
			assert.Equal(t, tt.wantNext, res.NextPage)
		})
	}
}

func TestPaginateQueryKeepsOrder(t *testing.T) {
	db := storetest.NewSQLite(t)
	seedHosts(t, db, 5)

	p := paginator.NewPaginator[hostRow](store.NewDataStore[hostRow](db, "hosts"))
	res, err := p.PaginateQuery(context.Background(), "SELECT id, email, name FROM hosts ORDER BY email DESC", nil, 1, 2)
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, "host04@example.com", res.Items[0].Email)
	assert.Equal(t, "host03@example.com", res.Items[1].Email)
}

func TestNormalize(t *testing.T) {
	page, limit := paginator.Normalize(-1, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, paginator.DefaultLimit, limit)

	_, limit = paginator.Normalize(1, 1000)
	assert.Equal(t, paginator.MaxLimit, limit)
}

func intPtr(i int) *int { return &i }
