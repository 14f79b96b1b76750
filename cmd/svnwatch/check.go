package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/svnwatch/pkg/cli"
	"mercator-hq/svnwatch/pkg/sink"
	"mercator-hq/svnwatch/pkg/svn"
	"mercator-hq/svnwatch/pkg/telemetry/tracing"
)

var checkFlags struct {
	since  int64
	limit  int
	format string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one poll cycle and print the changes",
	Long: `Run a single poll cycle against the configured repository and print the
changes it detects. Nothing is sent to the configured sink.

Without --since the cycle only establishes the baseline, exactly like the
first cycle of "svnwatch run", and no changes are printed.

Examples:
  # Show commits after r1200
  svnwatch check --since 1200

  # Same, as JSON, looking at no more than the last 20 log entries
  svnwatch check --since 1200 --limit 20 --format json`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Int64Var(&checkFlags.since, "since", -1, "report commits newer than this revision")
	checkCmd.Flags().IntVar(&checkFlags.limit, "limit", 0, "override source.history_limit")
	checkCmd.Flags().StringVarP(&checkFlags.format, "format", "f", "text", "output format: text, json")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(checkFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if checkFlags.limit > 0 {
		cfg.Source.HistoryLimit = checkFlags.limit
	}

	logger, err := newLogger(&cfg.Telemetry.Logging)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	collected := sink.NewMemorySink()
	poller, err := newPoller(&cfg.Source, collected, logger)
	if err != nil {
		return err
	}

	since := svn.Revision(checkFlags.since)
	if since.IsSet() {
		if err := poller.SeedWatermark(since); err != nil {
			return cli.NewCommandError("check", err)
		}
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return cli.NewCommandError("check", err)
	}
	defer tracer.Shutdown(context.Background())
	poller.SetTracer(tracer)

	report, err := tracedTrigger(poller, tracer, logger)(cmd.Context(), "check")
	flushTracer(tracer, logger)
	if err != nil {
		return cli.NewCommandError("check", err)
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		changes := report.Changes
		if changes == nil {
			changes = []*svn.Change{}
		}
		return cli.WriteJSON(out, changes)
	}

	if report.FirstPoll {
		fmt.Fprintf(out, "Baseline is r%d (prefix %q). Use --since to list earlier commits.\n", report.Watermark, report.Prefix)
		return nil
	}
	if report.Gap {
		fmt.Fprintf(out, "Warning: more than %d commits since r%d, older ones were not fetched.\n", cfg.Source.HistoryLimit, since)
	}
	return cli.WriteChanges(out, report.Changes)
}
