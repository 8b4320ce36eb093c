package warehouse

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/trends-cli/internal/config"
)

func newTestSQLite(t *testing.T) *SQLiteWarehouse {
	t.Helper()
	wh, err := NewSQLite(
		config.WarehouseConfig{
			DatabaseURL: filepath.Join(t.TempDir(), "events.db"),
			EventsTable: "events",
			QueryQPS:    100,
		},
		config.ReportConfig{
			TargetPhrase: "pulex bucket",
			ColorTokens:  []string{"Red", "Blue", "Green", "Gray"},
		},
	)
	require.NoError(t, err)
	t.Cleanup(func() { wh.Close() })

	require.NoError(t, wh.EnsureSchema(context.Background()))
	return wh
}

func insertEvent(t *testing.T, wh *SQLiteWarehouse, day, name, params, items string) {
	t.Helper()
	_, err := wh.db.Exec(
		`INSERT INTO events (event_date, event_name, params, items) VALUES (?, ?, ?, ?)`,
		day, name, params, items,
	)
	require.NoError(t, err)
}

func TestSQLiteSearchVolume_FiltersAndBuckets(t *testing.T) {
	wh := newTestSQLite(t)
	ctx := context.Background()

	// Two matching searches in one week, mixed casing.
	insertEvent(t, wh, "20240108", "view_search_results", `{"search_term":"Pulex Bucket red"}`, `[]`)
	insertEvent(t, wh, "20240110", "view_search_results", `{"search_term":"cheap pulex bucket"}`, `[]`)
	// Non-matching term, wrong event, and out-of-range partition.
	insertEvent(t, wh, "20240109", "view_search_results", `{"search_term":"mop"}`, `[]`)
	insertEvent(t, wh, "20240109", "view_item", `{"search_term":"pulex bucket"}`, `[]`)
	insertEvent(t, wh, "20240201", "view_search_results", `{"search_term":"pulex bucket"}`, `[]`)

	rows, err := wh.SearchVolume(ctx, weekWindow(date(2024, 1, 1), date(2024, 1, 31)))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, date(2024, 1, 8), rows[0].Period)
	assert.Equal(t, int64(2), rows[0].Metric)
}

func TestSQLiteProductViews_ColorTokenRequired(t *testing.T) {
	wh := newTestSQLite(t)
	ctx := context.Background()

	insertEvent(t, wh, "20240108", "view_item", `{}`, `[{"item_name":"Pulex Bucket - Red"}]`)
	insertEvent(t, wh, "20240109", "view_item", `{}`, `[{"item_name":"Pulex Bucket - Red"}]`)
	insertEvent(t, wh, "20240109", "view_item", `{}`, `[{"item_name":"Pulex Bucket - Blue"}]`)
	// Target item without a tracked color token is excluded.
	insertEvent(t, wh, "20240109", "view_item", `{}`, `[{"item_name":"Pulex Bucket - Deluxe"}]`)
	// Unrelated item.
	insertEvent(t, wh, "20240109", "view_item", `{}`, `[{"item_name":"Red Mop"}]`)

	rows, err := wh.ProductViews(ctx, weekWindow(date(2024, 1, 1), date(2024, 1, 31)))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Pulex Bucket - Red", rows[0].Dimension)
	assert.Equal(t, int64(2), rows[0].Metric)
	assert.Equal(t, "Pulex Bucket - Blue", rows[1].Dimension)
	assert.Equal(t, int64(1), rows[1].Metric)
}

func TestSQLiteProductViews_MultipleItemsPerEvent(t *testing.T) {
	wh := newTestSQLite(t)
	ctx := context.Background()

	insertEvent(t, wh, "20240305", "view_item", `{}`,
		`[{"item_name":"Pulex Bucket - Green"},{"item_name":"Pulex Bucket - Gray"}]`)

	rows, err := wh.ProductViews(ctx, monthWindow(date(2024, 3, 1), date(2024, 3, 31)))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, date(2024, 3, 1), rows[0].Period)
	assert.Equal(t, date(2024, 3, 1), rows[1].Period)
}

func TestSQLiteSearchVolume_PartitionBoundariesInclusive(t *testing.T) {
	wh := newTestSQLite(t)
	ctx := context.Background()

	insertEvent(t, wh, "20240101", "view_search_results", `{"search_term":"pulex bucket"}`, `[]`)
	insertEvent(t, wh, "20240131", "view_search_results", `{"search_term":"pulex bucket"}`, `[]`)

	rows, err := wh.SearchVolume(ctx, monthWindow(date(2024, 1, 1), date(2024, 1, 31)))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].Metric)
}
