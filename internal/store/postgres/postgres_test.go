package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/JonMunkholm/poi-importer/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name      string
		filter    core.POIFilter
		wantWhere string
		wantArgs  []any
	}{
		{"none", core.POIFilter{}, "", nil},
		{"category", core.POIFilter{Category: "cafe"}, " WHERE category = $1", []any{"cafe"}},
		{"text search", core.POIFilter{Search: "abc"}, " WHERE external_id = $1", []any{"abc"}},
		{
			"numeric search and category",
			core.POIFilter{Category: "cafe", Search: "42"},
			" WHERE category = $1 AND (external_id = $2 OR id = $3)",
			[]any{"cafe", "42", int64(42)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildFilter(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

// TestStoreIntegration runs against a migrated PostGIS database named by
// POI_TEST_DATABASE_URL and is skipped otherwise.
func TestStoreIntegration(t *testing.T) {
	url := os.Getenv("POI_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("POI_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := Connect(ctx, url, PoolConfig{MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, "TRUNCATE points_of_interest, file_hashes RESTART IDENTITY")
	require.NoError(t, err)

	store := New(pool)
	rec, err := core.NewPOIRecord("1", "Gate", "", "landmark", 40.71, -74, []float64{3, 5})
	require.NoError(t, err)

	n, err := store.InsertMany(ctx, []core.POIRecord{rec, rec})
	require.NoError(t, err)
	assert.Equal(t, 2, n, "external_id is not unique")

	page, err := store.ListPOIs(ctx, core.POIFilter{Search: "1"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, core.Point{Longitude: -74, Latitude: 40.71}, page.Items[0].Location)
	assert.InDelta(t, 4.0, page.Items[0].AverageRating, 1e-9)

	known, err := store.Contains(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, known)
	require.NoError(t, store.Record(ctx, "abc"))
	require.NoError(t, store.Record(ctx, "abc"))
	known, err = store.Contains(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, known)
}
