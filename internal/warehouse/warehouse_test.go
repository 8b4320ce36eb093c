package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/trends-cli/internal/config"
	"github.com/sells-group/trends-cli/internal/window"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekWindow(start, end time.Time) window.QueryWindow {
	return window.QueryWindow{Start: start, End: end, Bucket: window.Week, WeekStart: time.Monday}
}

func monthWindow(start, end time.Time) window.QueryWindow {
	return window.QueryWindow{Start: start, End: end, Bucket: window.Month, WeekStart: time.Monday}
}

func TestBucketize_MonthFoldsWholeMonth(t *testing.T) {
	w := monthWindow(date(2024, 1, 1), date(2024, 1, 31))
	rows := []dayRow{
		{day: "20240103", count: 2},
		{day: "20240129", count: 3},
	}

	out, err := bucketize(rows, w)
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, date(2024, 1, 1), out[0].Period)
	assert.Equal(t, int64(5), out[0].Metric)
}

func TestBucketize_WeekSumsAndSortsPeriodsAscending(t *testing.T) {
	w := weekWindow(date(2024, 1, 1), date(2024, 1, 31))
	rows := []dayRow{
		{day: "20240120", count: 1}, // week of Jan 15
		{day: "20240108", count: 2}, // week of Jan 8
		{day: "20240110", count: 3}, // week of Jan 8
	}

	out, err := bucketize(rows, w)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, date(2024, 1, 8), out[0].Period)
	assert.Equal(t, int64(5), out[0].Metric)
	assert.Equal(t, date(2024, 1, 15), out[1].Period)
	assert.Equal(t, int64(1), out[1].Metric)
}

func TestBucketize_CountDescendingWithinPeriod(t *testing.T) {
	w := weekWindow(date(2024, 1, 1), date(2024, 1, 31))
	rows := []dayRow{
		{day: "20240108", dim: "Pulex Bucket - Red", count: 2},
		{day: "20240109", dim: "Pulex Bucket - Blue", count: 7},
		{day: "20240110", dim: "Pulex Bucket - Red", count: 1},
		{day: "20240108", dim: "Pulex Bucket - Gray", count: 3},
	}

	out, err := bucketize(rows, w)
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Equal(t, "Pulex Bucket - Blue", out[0].Dimension)
	assert.Equal(t, int64(7), out[0].Metric)
	assert.Equal(t, "Pulex Bucket - Gray", out[1].Dimension)
	assert.Equal(t, "Pulex Bucket - Red", out[2].Dimension)
}

func TestBucketize_TieBreakByDimension(t *testing.T) {
	w := monthWindow(date(2024, 2, 1), date(2024, 2, 29))
	rows := []dayRow{
		{day: "20240205", dim: "b", count: 4},
		{day: "20240206", dim: "a", count: 4},
	}

	out, err := bucketize(rows, w)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Dimension)
	assert.Equal(t, "b", out[1].Dimension)
}

func TestBucketize_BadPartitionKey(t *testing.T) {
	w := weekWindow(date(2024, 1, 1), date(2024, 1, 31))

	_, err := bucketize([]dayRow{{day: "2024-01-08", count: 1}}, w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad partition key")
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(),
		config.WarehouseConfig{Driver: "bigtable"}, config.ReportConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
