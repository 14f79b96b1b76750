package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/svnwatch/pkg/cli"
	"mercator-hq/svnwatch/pkg/sink"
	"mercator-hq/svnwatch/pkg/svn"
)

var changesFlags struct {
	repository string
	all        bool
	since      int64
	limit      int
	format     string
}

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "List changes recorded by the SQLite sink",
	Long: `List changes stored by the "sqlite" sink, newest revision first.

By default only changes of the configured repository are shown.

Examples:
  # Last 50 changes
  svnwatch changes

  # Everything after r1200 from every repository, as JSON
  svnwatch changes --all --since 1200 --format json`,
	RunE: listChanges,
}

func init() {
	rootCmd.AddCommand(changesCmd)

	changesCmd.Flags().StringVar(&changesFlags.repository, "repository", "", "repository URL (defaults to source.url)")
	changesCmd.Flags().BoolVar(&changesFlags.all, "all", false, "show changes of every repository")
	changesCmd.Flags().Int64Var(&changesFlags.since, "since", -1, "only show revisions newer than this one")
	changesCmd.Flags().IntVarP(&changesFlags.limit, "limit", "n", sink.DefaultQueryLimit, "maximum number of changes")
	changesCmd.Flags().StringVarP(&changesFlags.format, "format", "f", "text", "output format: text, json")
}

func listChanges(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(changesFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Sink.Type != sink.TypeSQLite {
		return cli.NewConfigError(cfgFile, fmt.Errorf("sink.type is %q, only the %q sink keeps history", cfg.Sink.Type, sink.TypeSQLite))
	}

	logger, err := newLogger(&cfg.Telemetry.Logging)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	opened, err := newSink(&cfg.Sink, logger)
	if err != nil {
		return cli.NewCommandError("changes", err)
	}
	defer opened.Close()

	store, ok := opened.(sink.Store)
	if !ok {
		return cli.NewCommandError("changes", errors.New("sink cannot be queried"))
	}

	query := sink.Query{
		Since: svn.Revision(changesFlags.since),
		Limit: changesFlags.limit,
	}
	if !changesFlags.all {
		query.Repository = changesFlags.repository
		if query.Repository == "" {
			query.Repository = cfg.Source.URL
		}
	}

	records, err := store.Recent(cmd.Context(), query)
	if err != nil {
		return cli.NewCommandError("changes", err)
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		if records == nil {
			records = []*sink.Record{}
		}
		return cli.WriteJSON(out, records)
	}

	changes := make([]*svn.Change, len(records))
	for i, r := range records {
		changes[i] = &r.Change
	}
	return cli.WriteChanges(out, changes)
}
