// Package report orchestrates one render cycle of the interest-trends
// report: normalize the selection, fan out the independent fetches, merge
// the export datasets, and hand aligned sections to presentation.
package report

import (
	"time"

	"github.com/sells-group/trends-cli/internal/model"
	"github.com/sells-group/trends-cli/internal/window"
)

// Selection is the raw user input for one render. Endpoints are pointers
// because the date picker can hand back an incomplete range.
type Selection struct {
	Start       *time.Time
	End         *time.Time
	Granularity string
}

// SeriesSection is one warehouse-derived trend series. A non-empty Err
// means the fetch failed and presentation shows the message instead of
// data; other sections are unaffected.
type SeriesSection struct {
	Rows []model.TimeSeriesRow
	Err  string
}

// ChartSection is the merged organic clicks/impressions series, split by
// source tag on the rows.
type ChartSection struct {
	Rows []model.ChartRow
	Err  string
}

// RankedTable is one top-N table scoped to a single property.
type RankedTable struct {
	Source model.Source
	Rows   []model.RankedEntityRow
}

// Report is everything one render cycle produces, ready for presentation.
type Report struct {
	RenderID     string
	Window       window.QueryWindow
	SearchVolume SeriesSection
	ProductViews SeriesSection
	Organic      ChartSection
	TopQueries   []RankedTable
	TopPages     []RankedTable

	// Notes carries at most one message per property whose exports could
	// not be loaded.
	Notes []string
}
