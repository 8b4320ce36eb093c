// Package merge unions the two property export datasets and provides the
// ranking views the presentation layer reads.
package merge

import (
	"sort"

	"github.com/sells-group/trends-cli/internal/model"
)

// Merged holds the cross-property union of each export dataset. A dataset
// is only populated when both properties loaded it; a one-sided union would
// present a misleading comparison, so partial merges are not attempted.
type Merged struct {
	Chart   []model.ChartRow
	Queries []model.RankedEntityRow
	Pages   []model.RankedEntityRow
}

// Merge unions the datasets of two properties row-wise. Source tags are
// preserved as loaded; no deduplication or coercion happens here.
func Merge(a, b model.PropertyData) Merged {
	var m Merged
	if a.Chart != nil && b.Chart != nil {
		m.Chart = concat(a.Chart, b.Chart)
	}
	if a.Queries != nil && b.Queries != nil {
		m.Queries = concat(a.Queries, b.Queries)
	}
	if a.Pages != nil && b.Pages != nil {
		m.Pages = concat(a.Pages, b.Pages)
	}
	return m
}

// TopByClicks returns the n highest-click rows of one source. The sort is
// stable so rows with equal clicks keep their original export order.
func TopByClicks(rows []model.RankedEntityRow, source model.Source, n int) []model.RankedEntityRow {
	filtered := make([]model.RankedEntityRow, 0, len(rows))
	for _, r := range rows {
		if r.Source == source {
			filtered = append(filtered, r)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Clicks > filtered[j].Clicks
	})

	if len(filtered) > n {
		filtered = filtered[:n]
	}
	return filtered
}

func concat[T any](a, b []T) []T {
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
