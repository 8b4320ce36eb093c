// Package model defines the row types shared by the warehouse and export pipelines.
package model

import "time"

// Source identifies which search-console property a row came from. Every
// export row carries one before it reaches the merger; it is the only thing
// that distinguishes the two properties afterwards.
type Source string

const (
	SourceDirect     Source = "Direct"
	SourceCollection Source = "Collection"
)

// TimeSeriesRow is one bucket-aligned point of a warehouse trend series.
// Period is the truncated start of the calendar bucket containing the
// source events. Dimension is empty for search volume and holds the product
// variant name for product views.
type TimeSeriesRow struct {
	Period    time.Time `json:"period"`
	Metric    int64     `json:"metric"`
	Dimension string    `json:"dimension,omitempty"`
}

// ChartRow is one day of an organic-search performance export.
type ChartRow struct {
	Date        time.Time `json:"date"`
	Clicks      int64     `json:"clicks"`
	Impressions int64     `json:"impressions"`
	Source      Source    `json:"source"`
}

// RankedEntityRow is one entry of a ranked queries or pages export. CTR and
// Position are carried as opaque numerics; the export tool owns their
// semantics.
type RankedEntityRow struct {
	Name        string  `json:"name"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
	Source      Source  `json:"source"`
}

// PropertyData holds the three datasets exported for one property. A nil
// slice means the corresponding file was absent, which is a normal
// condition, not an error.
type PropertyData struct {
	Chart   []ChartRow        `json:"chart,omitempty"`
	Queries []RankedEntityRow `json:"queries,omitempty"`
	Pages   []RankedEntityRow `json:"pages,omitempty"`
}

// Empty reports whether none of the three datasets loaded.
func (p PropertyData) Empty() bool {
	return p.Chart == nil && p.Queries == nil && p.Pages == nil
}
