package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sells-group/trends-cli/internal/report"
)

// formatReport renders the sections as text tables. This is the thin
// presentation shell around the core; failed sections print their message
// and the rest render normally.
func formatReport(w io.Writer, rep *report.Report) {
	fmt.Fprintf(w, "Window: %s .. %s  (%s buckets)\n",
		rep.Window.Start.Format(time.DateOnly),
		rep.Window.End.Format(time.DateOnly),
		rep.Window.Bucket,
	)

	for _, note := range rep.Notes {
		fmt.Fprintf(w, "Note: %s\n", note)
	}

	fmt.Fprintln(w, "\n== Search Volume ==")
	switch {
	case rep.SearchVolume.Err != "":
		fmt.Fprintln(w, rep.SearchVolume.Err)
	case len(rep.SearchVolume.Rows) == 0:
		fmt.Fprintln(w, "No search data found for this date range.")
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PERIOD\tSEARCHES")
		for _, r := range rep.SearchVolume.Rows {
			fmt.Fprintf(tw, "%s\t%d\n", r.Period.Format(time.DateOnly), r.Metric)
		}
		tw.Flush()
	}

	fmt.Fprintln(w, "\n== Product Views by Variant ==")
	switch {
	case rep.ProductViews.Err != "":
		fmt.Fprintln(w, rep.ProductViews.Err)
	case len(rep.ProductViews.Rows) == 0:
		fmt.Fprintln(w, "No product view data found for this date range.")
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PERIOD\tVARIANT\tVIEWS")
		for _, r := range rep.ProductViews.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Period.Format(time.DateOnly), r.Dimension, r.Metric)
		}
		tw.Flush()
	}

	fmt.Fprintln(w, "\n== Organic Search Performance ==")
	if len(rep.Organic.Rows) == 0 {
		fmt.Fprintln(w, "No merged organic data (both property exports are required).")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tSOURCE\tCLICKS\tIMPRESSIONS")
		for _, r := range rep.Organic.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", r.Date.Format(time.DateOnly), r.Source, r.Clicks, r.Impressions)
		}
		tw.Flush()
	}

	formatRankedTables(w, "Top Queries", rep.TopQueries)
	formatRankedTables(w, "Top Pages", rep.TopPages)
}

func formatRankedTables(w io.Writer, title string, tables []report.RankedTable) {
	for _, table := range tables {
		fmt.Fprintf(w, "\n== %s (%s) ==\n", title, table.Source)
		if len(table.Rows) == 0 {
			fmt.Fprintln(w, "No data.")
			continue
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tCLICKS\tIMPRESSIONS\tCTR\tPOSITION")
		for _, r := range table.Rows {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.4f\t%.1f\n", r.Name, r.Clicks, r.Impressions, r.CTR, r.Position)
		}
		tw.Flush()
	}
}
