package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/trends-cli/internal/config"
	"github.com/sells-group/trends-cli/internal/model"
	"github.com/sells-group/trends-cli/internal/window"
)

// Pool is the subset of pgxpool.Pool the warehouse issues queries through.
// pgxmock's PgxPoolIface satisfies it in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresWarehouse runs the trend aggregations against a date-partitioned
// events table in Postgres. Per-event parameters live in a params jsonb
// column and per-event items in an items jsonb array.
type PostgresWarehouse struct {
	pool    Pool
	table   string
	phrase  string
	colors  []string
	limiter *rate.Limiter
}

// NewPostgres connects a pgx pool to the configured events table. The
// warehouse quota is shared, so queries go through a local rate limiter.
func NewPostgres(ctx context.Context, cfg config.WarehouseConfig, rep config.ReportConfig) (*PostgresWarehouse, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "warehouse: ping postgres")
	}

	return &PostgresWarehouse{
		pool:    pool,
		table:   cfg.EventsTable,
		phrase:  rep.TargetPhrase,
		colors:  rep.ColorTokens,
		limiter: rate.NewLimiter(queryRate(cfg.QueryQPS), 1),
	}, nil
}

// SearchVolume counts search events whose term contains the target phrase,
// grouped per bucket of the window.
func (p *PostgresWarehouse) SearchVolume(ctx context.Context, w window.QueryWindow) ([]model.TimeSeriesRow, error) {
	pr := w.Partitions()
	query := fmt.Sprintf(`
		SELECT event_date, COUNT(*) AS n
		FROM %s
		WHERE event_name = $1
		  AND LOWER(params->>'%s') LIKE $2
		  AND event_date BETWEEN $3 AND $4
		GROUP BY event_date
		ORDER BY event_date ASC`, p.table, searchTermParam)

	days, err := p.queryDays(ctx, query, false,
		searchEventName, containsPattern(p.phrase), pr.Start, pr.End)
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: search volume")
	}
	return bucketize(days, w)
}

// ProductViews counts item-view events for target items carrying one of the
// tracked color tokens, grouped per bucket and item name.
func (p *PostgresWarehouse) ProductViews(ctx context.Context, w window.QueryWindow) ([]model.TimeSeriesRow, error) {
	pr := w.Partitions()

	args := []any{viewEventName, containsPattern(p.phrase)}
	colorConds := make([]string, 0, len(p.colors))
	for _, c := range p.colors {
		args = append(args, "%"+c+"%")
		colorConds = append(colorConds, fmt.Sprintf("item->>'%s' LIKE $%d", itemNameField, len(args)))
	}
	args = append(args, pr.Start, pr.End)

	query := fmt.Sprintf(`
		SELECT e.event_date, item->>'%[2]s' AS item_name, COUNT(*) AS n
		FROM %[1]s AS e, jsonb_array_elements(e.items) AS item
		WHERE e.event_name = $1
		  AND LOWER(item->>'%[2]s') LIKE $2
		  AND (%[3]s)
		  AND e.event_date BETWEEN $%[4]d AND $%[5]d
		GROUP BY e.event_date, item->>'%[2]s'
		ORDER BY e.event_date ASC`,
		p.table, itemNameField, strings.Join(colorConds, " OR "), len(args)-1, len(args))

	days, err := p.queryDays(ctx, query, true, args...)
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: product views")
	}
	return bucketize(days, w)
}

// Close releases the underlying pool.
func (p *PostgresWarehouse) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresWarehouse) queryDays(ctx context.Context, query string, dimensioned bool, args ...any) ([]dayRow, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limit wait")
		}
	}

	rows, err := p.pool.Query(ctx, query, args...)
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
