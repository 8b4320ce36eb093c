package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/trends-cli/internal/config"
	"github.com/sells-group/trends-cli/internal/export"
	"github.com/sells-group/trends-cli/internal/report"
	"github.com/sells-group/trends-cli/internal/warehouse"
)

var (
	reportStart       string
	reportEnd         string
	reportGranularity string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the trend report for a date range",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sel, err := parseSelection(reportStart, reportEnd, reportGranularity, cfg.Report)
		if err != nil {
			return err
		}

		wh, err := warehouse.New(ctx, cfg.Warehouse, cfg.Report)
		if err != nil {
			return eris.Wrap(err, "report: init warehouse")
		}
		defer wh.Close() //nolint:errcheck

		svc, err := report.NewService(cfg, wh, export.NewLoader(cfg.Exports))
		if err != nil {
			return eris.Wrap(err, "report: init service")
		}

		rep, err := svc.Run(ctx, sel)
		if err != nil {
			return err
		}

		formatReport(os.Stdout, rep)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportStart, "start", "", "range start, YYYY-MM-DD (default from config)")
	reportCmd.Flags().StringVar(&reportEnd, "end", "", "range end, YYYY-MM-DD (default from config)")
	reportCmd.Flags().StringVar(&reportGranularity, "granularity", "Week", "time granularity: Week or Month")
	rootCmd.AddCommand(reportCmd)
}

// parseSelection resolves flag values against the configured default range.
// An explicitly empty endpoint stays nil so the normalizer rejects it as an
// incomplete selection.
func parseSelection(start, end, granularity string, rep config.ReportConfig) (report.Selection, error) {
	if start == "" {
		start = rep.DefaultStart
	}
	if end == "" {
		end = rep.DefaultEnd
	}

	sel := report.Selection{Granularity: granularity}
	if start != "" {
		t, err := time.ParseInLocation(time.DateOnly, start, time.UTC)
		if err != nil {
			return report.Selection{}, eris.Wrapf(err, "report: parse --start %q", start)
		}
		sel.Start = &t
	}
	if end != "" {
		t, err := time.ParseInLocation(time.DateOnly, end, time.UTC)
		if err != nil {
			return report.Selection{}, eris.Wrapf(err, "report: parse --end %q", end)
		}
		sel.End = &t
	}

	return sel, nil
}
