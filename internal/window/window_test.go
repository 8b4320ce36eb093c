package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testNormalizer() Normalizer {
	return Normalizer{Min: date(2023, 1, 1), Max: date(2026, 12, 31), WeekStart: time.Monday}
}

func TestNormalize_IncompleteRange(t *testing.T) {
	n := testNormalizer()
	end := date(2024, 6, 1)

	_, err := n.Normalize(nil, &end, "Week")
	require.ErrorIs(t, err, ErrIncompleteRange)

	start := date(2024, 1, 1)
	_, err = n.Normalize(&start, nil, "Week")
	require.ErrorIs(t, err, ErrIncompleteRange)
}

func TestNormalize_UnknownGranularity(t *testing.T) {
	n := testNormalizer()
	start, end := date(2024, 1, 1), date(2024, 6, 1)

	_, err := n.Normalize(&start, &end, "Day")
	require.ErrorIs(t, err, ErrUnknownGranularity)
}

func TestNormalize_StartAfterEnd(t *testing.T) {
	n := testNormalizer()
	start, end := date(2024, 6, 1), date(2024, 1, 1)

	_, err := n.Normalize(&start, &end, "Week")
	require.ErrorIs(t, err, ErrIncompleteRange)
}

func TestNormalize_OutOfRange(t *testing.T) {
	n := testNormalizer()

	start, end := date(2022, 12, 31), date(2024, 1, 1)
	_, err := n.Normalize(&start, &end, "Week")
	require.ErrorIs(t, err, ErrOutOfRange)

	start, end = date(2024, 1, 1), date(2027, 1, 1)
	_, err = n.Normalize(&start, &end, "Month")
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestNormalize_GranularityMapping(t *testing.T) {
	n := testNormalizer()
	start, end := date(2024, 1, 1), date(2024, 6, 1)

	w, err := n.Normalize(&start, &end, "Week")
	require.NoError(t, err)
	assert.Equal(t, Week, w.Bucket)

	w, err = n.Normalize(&start, &end, "Month")
	require.NoError(t, err)
	assert.Equal(t, Month, w.Bucket)
}

func TestPartitions_Format(t *testing.T) {
	n := testNormalizer()
	start, end := date(2024, 3, 5), date(2024, 11, 30)

	w, err := n.Normalize(&start, &end, "Week")
	require.NoError(t, err)

	pr := w.Partitions()
	assert.Equal(t, "20240305", pr.Start)
	assert.Equal(t, "20241130", pr.End)
	assert.Len(t, pr.Start, 8)
	assert.Len(t, pr.End, 8)
	assert.LessOrEqual(t, pr.Start, pr.End)
}

func TestPartitions_ZeroPadding(t *testing.T) {
	w := QueryWindow{Start: date(2024, 1, 2), End: date(2024, 9, 9), Bucket: Week, WeekStart: time.Monday}

	pr := w.Partitions()
	assert.Equal(t, "20240102", pr.Start)
	assert.Equal(t, "20240909", pr.End)
}

func TestTruncate_WeekFoldsSameCalendarWeek(t *testing.T) {
	w := QueryWindow{Bucket: Week, WeekStart: time.Monday}

	// Monday and Saturday of the same week, 5 days apart.
	monday := date(2024, 1, 8)
	saturday := date(2024, 1, 13)
	assert.Equal(t, monday, w.Truncate(monday))
	assert.Equal(t, monday, w.Truncate(saturday))
}

func TestTruncate_WeekSundayStart(t *testing.T) {
	w := QueryWindow{Bucket: Week, WeekStart: time.Sunday}

	wednesday := date(2024, 1, 10)
	assert.Equal(t, date(2024, 1, 7), w.Truncate(wednesday))
	assert.Equal(t, date(2024, 1, 7), w.Truncate(date(2024, 1, 7)))
}

func TestTruncate_MonthFoldsDifferentWeeks(t *testing.T) {
	w := QueryWindow{Bucket: Month, WeekStart: time.Monday}

	// Same month, different calendar weeks.
	assert.Equal(t, date(2024, 1, 1), w.Truncate(date(2024, 1, 3)))
	assert.Equal(t, date(2024, 1, 1), w.Truncate(date(2024, 1, 29)))
}

func TestParseWeekStart(t *testing.T) {
	d, err := ParseWeekStart("monday")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d)

	d, err = ParseWeekStart("sunday")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, d)

	d, err = ParseWeekStart("")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d)

	_, err = ParseWeekStart("saturday")
	require.Error(t, err)
}
