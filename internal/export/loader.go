// Package export loads the per-property organic-search export files and
// tags every row with its property of origin.
package export

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/trends-cli/internal/config"
	"github.com/sells-group/trends-cli/internal/model"
)

// ErrMissingProperty marks an entirely absent property directory. Callers
// surface it once per property, not per file.
var ErrMissingProperty = eris.New("export: property directory missing")

// Column names the export tool writes. The ranked files differ only in
// their leading entity column.
const (
	colDate        = "Date"
	colClicks      = "Clicks"
	colImpressions = "Impressions"
	colCTR         = "CTR"
	colPosition    = "Position"
	colTopQueries  = "Top queries"
	colTopPages    = "Top pages"
)

// chartDateLayouts are tried in order when parsing the chart export's date
// column. The export tool switches format with the account locale.
var chartDateLayouts = []string{time.DateOnly, "1/2/06", "01/02/2006"}

// Loader reads the three well-known export files out of a property
// directory. A missing file omits its dataset; only a missing directory is
// reported, and only once.
type Loader struct {
	chartFile   string
	queriesFile string
	pagesFile   string
}

// NewLoader creates a Loader using the configured export file names.
func NewLoader(cfg config.ExportsConfig) *Loader {
	return &Loader{
		chartFile:   cfg.ChartFile,
		queriesFile: cfg.QueriesFile,
		pagesFile:   cfg.PagesFile,
	}
}

// LoadProperty loads whichever of the three exports exist under dir,
// tagging every returned row with label.
func (l *Loader) LoadProperty(dir string, label model.Source) (model.PropertyData, error) {
	log := zap.L().With(zap.String("property", string(label)), zap.String("dir", dir))

	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return model.PropertyData{}, eris.Wrapf(ErrMissingProperty, "%s", dir)
	}

	var data model.PropertyData

	chart, present, err := loadTable(dir, l.chartFile)
	if err != nil {
		return model.PropertyData{}, err
	}
	if present {
		data.Chart, err = parseChart(chart, label, log)
		if err != nil {
			return model.PropertyData{}, err
		}
	}

	queries, present, err := loadTable(dir, l.queriesFile)
	if err != nil {
		return model.PropertyData{}, err
	}
	if present {
		data.Queries, err = parseRanked(queries, colTopQueries, label)
		if err != nil {
			return model.PropertyData{}, err
		}
	}

	pages, present, err := loadTable(dir, l.pagesFile)
	if err != nil {
		return model.PropertyData{}, err
	}
	if present {
		data.Pages, err = parseRanked(pages, colTopPages, label)
		if err != nil {
			return model.PropertyData{}, err
		}
	}

	log.Debug("export: property loaded",
		zap.Int("chart_rows", len(data.Chart)),
		zap.Int("query_rows", len(data.Queries)),
		zap.Int("page_rows", len(data.Pages)),
	)

	return data, nil
}

// parseChart converts the time-series export. A row whose date cell does
// not parse is dropped and logged; the rest of the load survives.
func parseChart(t *table, label model.Source, log *zap.Logger) ([]model.ChartRow, error) {
	if err := t.require(colDate, colClicks, colImpressions); err != nil {
		return nil, err
	}

	rows := make([]model.ChartRow, 0, len(t.rows))
	for _, raw := range t.rows {
		date, err := parseChartDate(t.col(raw, colDate))
		if err != nil {
			log.Warn("export: dropping chart row with malformed date",
				zap.String("date", t.col(raw, colDate)))
			continue
		}
		rows = append(rows, model.ChartRow{
			Date:        date,
			Clicks:      parseCountOr(t.col(raw, colClicks), 0),
			Impressions: parseCountOr(t.col(raw, colImpressions), 0),
			Source:      label,
		})
	}
	return rows, nil
}

// parseRanked converts a ranked-entity export; nameCol is the leading
// column that differs between the queries and pages files.
func parseRanked(t *table, nameCol string, label model.Source) ([]model.RankedEntityRow, error) {
	if err := t.require(nameCol, colClicks, colImpressions, colCTR, colPosition); err != nil {
		return nil, err
	}

	rows := make([]model.RankedEntityRow, 0, len(t.rows))
	for _, raw := range t.rows {
		rows = append(rows, model.RankedEntityRow{
			Name:        t.col(raw, nameCol),
			Clicks:      parseCountOr(t.col(raw, colClicks), 0),
			Impressions: parseCountOr(t.col(raw, colImpressions), 0),
			CTR:         parseRateOr(t.col(raw, colCTR), 0),
			Position:    parseFloatOr(t.col(raw, colPosition), 0),
			Source:      label,
		})
	}
	return rows, nil
}

func parseChartDate(s string) (time.Time, error) {
	for _, layout := range chartDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("export: unparseable date %q", s)
}

// parseCountOr parses a non-negative integer cell, tolerating thousands
// separators the UI export inserts.
func parseCountOr(s string, def int64) int64 {
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// parseRateOr parses a CTR cell, accepting both "3.5%" and "0.035".
func parseRateOr(s string, def float64) float64 {
	if pct := strings.TrimSuffix(s, "%"); pct != s {
		v, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
		if err != nil {
			return def
		}
		return v / 100
	}
	return parseFloatOr(s, def)
}

func parseFloatOr(s string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return def
	}
	return v
}
