package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/trends-cli/internal/cache"
	"github.com/sells-group/trends-cli/internal/config"
	"github.com/sells-group/trends-cli/internal/export"
	"github.com/sells-group/trends-cli/internal/merge"
	"github.com/sells-group/trends-cli/internal/model"
	"github.com/sells-group/trends-cli/internal/warehouse"
	"github.com/sells-group/trends-cli/internal/window"
)

// Property pairs an export directory with its source label.
type Property struct {
	Label model.Source
	Dir   string
}

// Service runs render cycles. It is constructed once at startup and passed
// to every caller; it owns the result caches and holds the warehouse and
// loader it was built with.
type Service struct {
	wh     warehouse.Warehouse
	loader *export.Loader
	props  []Property
	norm   window.Normalizer
	topN   int

	series  *cache.Cache[[]model.TimeSeriesRow]
	exports *cache.Cache[model.PropertyData]
}

// NewService wires a Service from config and its two data sources.
func NewService(cfg *config.Config, wh warehouse.Warehouse, loader *export.Loader) (*Service, error) {
	min, max, err := cfg.Report.Bounds()
	if err != nil {
		return nil, err
	}
	weekStart, err := window.ParseWeekStart(cfg.Report.WeekStart)
	if err != nil {
		return nil, err
	}

	props := make([]Property, 0, len(cfg.Exports.Properties))
	for _, p := range cfg.Exports.Properties {
		props = append(props, Property{Label: model.Source(p.Label), Dir: p.Dir})
	}

	ttl := cfg.Report.CacheTTL()
	return &Service{
		wh:      wh,
		loader:  loader,
		props:   props,
		norm:    window.Normalizer{Min: min, Max: max, WeekStart: weekStart},
		topN:    cfg.Report.TopN,
		series:  cache.New[[]model.TimeSeriesRow](ttl),
		exports: cache.New[model.PropertyData](ttl),
	}, nil
}

// Run executes one render cycle. Validation errors abort the render and
// are returned for the user; every data-source failure stays scoped to its
// own section.
func (s *Service) Run(ctx context.Context, sel Selection) (*Report, error) {
	w, err := s.norm.Normalize(sel.Start, sel.End, sel.Granularity)
	if err != nil {
		return nil, err
	}

	rep := &Report{RenderID: uuid.NewString(), Window: w}
	pr := w.Partitions()
	log := zap.L().With(
		zap.String("render_id", rep.RenderID),
		zap.String("partition_start", pr.Start),
		zap.String("partition_end", pr.End),
		zap.String("bucket", string(w.Bucket)),
	)

	// The two warehouse fetches and the per-property loads are independent;
	// each lands its result or error in its own slot, so one failure never
	// cancels or corrupts the others.
	var g errgroup.Group

	g.Go(func() error {
		key := fmt.Sprintf("search|%s|%s|%s", pr.Start, pr.End, w.Bucket)
		rows, err := s.series.GetOrCompute(key, func() ([]model.TimeSeriesRow, error) {
			return s.wh.SearchVolume(ctx, w)
		})
		if err != nil {
			log.Warn("report: search volume fetch failed", zap.Error(err))
			rep.SearchVolume.Err = "Error loading search data"
			return nil
		}
		rep.SearchVolume.Rows = rows
		return nil
	})

	g.Go(func() error {
		key := fmt.Sprintf("views|%s|%s|%s", pr.Start, pr.End, w.Bucket)
		rows, err := s.series.GetOrCompute(key, func() ([]model.TimeSeriesRow, error) {
			return s.wh.ProductViews(ctx, w)
		})
		if err != nil {
			log.Warn("report: product views fetch failed", zap.Error(err))
			rep.ProductViews.Err = "Error loading product data"
			return nil
		}
		rep.ProductViews.Rows = rows
		return nil
	})

	loaded := make([]model.PropertyData, len(s.props))
	loadErrs := make([]error, len(s.props))
	for i, prop := range s.props {
		g.Go(func() error {
			key := fmt.Sprintf("property|%s|%s", prop.Label, prop.Dir)
			loaded[i], loadErrs[i] = s.exports.GetOrCompute(key, func() (model.PropertyData, error) {
				return s.loader.LoadProperty(prop.Dir, prop.Label)
			})
			return nil
		})
	}

	// Goroutines above never return errors; Wait is only the barrier the
	// merge step depends on.
	_ = g.Wait()

	for i, err := range loadErrs {
		if err == nil {
			continue
		}
		if eris.Is(err, export.ErrMissingProperty) {
			log.Info("report: property exports absent", zap.String("property", string(s.props[i].Label)))
			rep.Notes = append(rep.Notes, fmt.Sprintf("No export data found for property %q.", s.props[i].Label))
			continue
		}
		log.Warn("report: property load failed",
			zap.String("property", string(s.props[i].Label)), zap.Error(err))
		rep.Notes = append(rep.Notes, fmt.Sprintf("Error loading exports for property %q.", s.props[i].Label))
	}

	var merged merge.Merged
	if len(loaded) == 2 {
		merged = merge.Merge(loaded[0], loaded[1])
	}
	rep.Organic.Rows = merged.Chart
	for _, prop := range s.props {
		rep.TopQueries = append(rep.TopQueries, RankedTable{
			Source: prop.Label,
			Rows:   merge.TopByClicks(merged.Queries, prop.Label, s.topN),
		})
		rep.TopPages = append(rep.TopPages, RankedTable{
			Source: prop.Label,
			Rows:   merge.TopByClicks(merged.Pages, prop.Label, s.topN),
		})
	}

	log.Info("report: render complete",
		zap.Int("search_rows", len(rep.SearchVolume.Rows)),
		zap.Int("view_rows", len(rep.ProductViews.Rows)),
		zap.Int("organic_rows", len(rep.Organic.Rows)),
	)

	return rep, nil
}
