package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"

	"github.com/sells-group/trends-cli/internal/config"
	"github.com/sells-group/trends-cli/internal/model"
	"github.com/sells-group/trends-cli/internal/window"
)

// SQLiteWarehouse runs the trend aggregations against a local snapshot of
// the event feed, using the same schema shape as the Postgres driver with
// params and items stored as JSON text.
type SQLiteWarehouse struct {
	db      *sql.DB
	table   string
	phrase  string
	colors  []string
	limiter *rate.Limiter
}

// NewSQLite opens the snapshot database at the configured path and applies
// the usual pragmas.
func NewSQLite(cfg config.WarehouseConfig, rep config.ReportConfig) (*SQLiteWarehouse, error) {
	db, err := sql.Open("sqlite", cfg.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "warehouse: exec %s", pragma)
		}
	}

	return &SQLiteWarehouse{
		db:      db,
		table:   cfg.EventsTable,
		phrase:  rep.TargetPhrase,
		colors:  rep.ColorTokens,
		limiter: rate.NewLimiter(queryRate(cfg.QueryQPS), 1),
	}, nil
}

// EnsureSchema creates the events table for a fresh snapshot file.
func (s *SQLiteWarehouse) EnsureSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			event_date TEXT NOT NULL,
			event_name TEXT NOT NULL,
			params     TEXT,
			items      TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_date ON %[1]s(event_date);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_name ON %[1]s(event_name);`, s.table)

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return eris.Wrap(err, "warehouse: create schema")
	}
	return nil
}

// SearchVolume counts search events whose term contains the target phrase,
// grouped per bucket of the window.
func (s *SQLiteWarehouse) SearchVolume(ctx context.Context, w window.QueryWindow) ([]model.TimeSeriesRow, error) {
	pr := w.Partitions()
	query := fmt.Sprintf(`
		SELECT event_date, COUNT(*) AS n
		FROM %s
		WHERE event_name = ?
		  AND LOWER(json_extract(params, '$.%s')) LIKE ?
		  AND event_date BETWEEN ? AND ?
		GROUP BY event_date
		ORDER BY event_date ASC`, s.table, searchTermParam)

	days, err := s.queryDays(ctx, query, false,
		searchEventName, containsPattern(s.phrase), pr.Start, pr.End)
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: search volume")
	}
	return bucketize(days, w)
}

// ProductViews counts item-view events for target items carrying one of the
// tracked color tokens, grouped per bucket and item name. Color matching
// uses instr because sqlite LIKE is case-insensitive for ASCII and the
// tokens are matched exactly as exported.
func (s *SQLiteWarehouse) ProductViews(ctx context.Context, w window.QueryWindow) ([]model.TimeSeriesRow, error) {
	pr := w.Partitions()

	args := []any{viewEventName, containsPattern(s.phrase)}
	colorConds := make([]string, 0, len(s.colors))
	for _, c := range s.colors {
		args = append(args, c)
		colorConds = append(colorConds, fmt.Sprintf("instr(json_extract(item.value, '$.%s'), ?) > 0", itemNameField))
	}
	args = append(args, pr.Start, pr.End)

	query := fmt.Sprintf(`
		SELECT e.event_date, json_extract(item.value, '$.%[2]s') AS item_name, COUNT(*) AS n
		FROM %[1]s AS e, json_each(e.items) AS item
		WHERE e.event_name = ?
		  AND LOWER(json_extract(item.value, '$.%[2]s')) LIKE ?
		  AND (%[3]s)
		  AND e.event_date BETWEEN ? AND ?
		GROUP BY 1, 2
		ORDER BY 1 ASC`, s.table, itemNameField, strings.Join(colorConds, " OR "))

	days, err := s.queryDays(ctx, query, true, args...)
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: product views")
	}
	return bucketize(days, w)
}

// Close closes the snapshot database.
func (s *SQLiteWarehouse) Close() error {
	return s.db.Close()
}

func (s *SQLiteWarehouse) queryDays(ctx context.Context, query string, dimensioned bool, args ...any) ([]dayRow, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limit wait")
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "query")
	}
	defer rows.Close()

	var out []dayRow
	for rows.Next() {
		var r dayRow
		if dimensioned {
			err = rows.Scan(&r.day, &r.dim, &r.count)
		} else {
			err = rows.Scan(&r.day, &r.count)
		}
		if err != nil {
			return nil, eris.Wrap(err, "scan row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate rows")
	}

	return out, nil
}
