// Package warehouse builds and executes the aggregation queries behind the
// search-volume and product-view trend series.
package warehouse

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/trends-cli/internal/config"
	"github.com/sells-group/trends-cli/internal/model"
	"github.com/sells-group/trends-cli/internal/window"
)

// Event names and parameter keys of the raw event feed.
const (
	searchEventName = "view_search_results"
	searchTermParam = "search_term"
	viewEventName   = "view_item"
	itemNameField   = "item_name"
)

// Warehouse executes the two trend aggregations. Drivers return day-grained
// counts keyed by the partition date; the shared fold below aligns them to
// calendar buckets so both drivers agree on what a period means.
type Warehouse interface {
	SearchVolume(ctx context.Context, w window.QueryWindow) ([]model.TimeSeriesRow, error)
	ProductViews(ctx context.Context, w window.QueryWindow) ([]model.TimeSeriesRow, error)
	Close() error
}

// New selects a warehouse driver from config.
func New(ctx context.Context, cfg config.WarehouseConfig, rep config.ReportConfig) (Warehouse, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg, rep)
	case "sqlite":
		return NewSQLite(cfg, rep)
	default:
		return nil, eris.Errorf("warehouse: unknown driver %q", cfg.Driver)
	}
}

// dayRow is one day-grained aggregate scanned from a driver.
type dayRow struct {
	day   string // partition key, YYYYMMDD
	dim   string
	count int64
}

// bucketize folds day-grained counts into the window's calendar buckets and
// applies the ordering contract: periods ascending, then counts descending
// within a period, then dimension ascending as the deterministic tie-break
// for top-N consumers.
func bucketize(rows []dayRow, w window.QueryWindow) ([]model.TimeSeriesRow, error) {
	type bucketKey struct {
		period time.Time
		dim    string
	}

	totals := make(map[bucketKey]int64, len(rows))
	for _, r := range rows {
		day, err := time.ParseInLocation("20060102", r.day, time.UTC)
		if err != nil {
			return nil, eris.Wrapf(err, "warehouse: bad partition key %q", r.day)
		}
		totals[bucketKey{w.Truncate(day), r.dim}] += r.count
	}

	out := make([]model.TimeSeriesRow, 0, len(totals))
	for k, n := range totals {
		out = append(out, model.TimeSeriesRow{Period: k.period, Metric: n, Dimension: k.dim})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Period.Equal(out[j].Period) {
			return out[i].Period.Before(out[j].Period)
		}
		if out[i].Metric != out[j].Metric {
			return out[i].Metric > out[j].Metric
		}
		return out[i].Dimension < out[j].Dimension
	})

	return out, nil
}

// containsPattern builds the case-insensitive LIKE pattern for the target
// phrase. Callers lower the matched expression on the SQL side.
func containsPattern(phrase string) string {
	return "%" + strings.ToLower(phrase) + "%"
}

// queryRate guards against an unset QPS, which would otherwise build a
// limiter that never admits a query.
func queryRate(qps float64) rate.Limit {
	if qps <= 0 {
		return rate.Inf
	}
	return rate.Limit(qps)
}
