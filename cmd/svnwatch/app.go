package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"mercator-hq/svnwatch/pkg/cli"
	"mercator-hq/svnwatch/pkg/config"
	"mercator-hq/svnwatch/pkg/scheduler"
	"mercator-hq/svnwatch/pkg/sink"
	"mercator-hq/svnwatch/pkg/svn"
	"mercator-hq/svnwatch/pkg/telemetry/logging"
	"mercator-hq/svnwatch/pkg/telemetry/tracing"
)

// loadConfig loads cfgFile with environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger. --verbose forces debug level.
func newLogger(cfg *config.LoggingConfig) (*logging.Logger, error) {
	level := cfg.Level
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Config{
		Level:         level,
		Format:        cfg.Format,
		AddSource:     cfg.AddSource,
		RedactSecrets: cfg.RedactSecrets,
		Writer:        os.Stderr,
	})
}

// newSink builds the configured change sink.
func newSink(cfg *config.SinkConfig, logger *logging.Logger) (sink.Sink, error) {
	return sink.New(sinkConfig(cfg), logger.WithComponent("sink"))
}

func sinkConfig(cfg *config.SinkConfig) sink.Config {
	return sink.Config{
		Type: cfg.Type,
		Path: cfg.Path,
		SQLite: sink.SQLiteConfig{
			Driver:       cfg.SQLite.Driver,
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout.Std(),
		},
	}
}

// pollerConfig translates the source section into a poller configuration.
func pollerConfig(cfg *config.SourceConfig) (svn.Config, error) {
	split, err := svn.SplitterByName(cfg.Splitter, cfg.Project)
	if err != nil {
		return svn.Config{}, err
	}
	return svn.Config{
		RepositoryURL: cfg.URL,
		Split:         split,
		Credentials: svn.Credentials{
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Binary:       cfg.Binary,
		PollInterval: cfg.PollInterval.Std(),
		HistoryLimit: cfg.HistoryLimit,
	}, nil
}

// newPoller builds a poller that runs the real svn binary.
func newPoller(cfg *config.SourceConfig, out svn.Sink, logger *logging.Logger) (*svn.Poller, error) {
	pcfg, err := pollerConfig(cfg)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	p, err := svn.NewPoller(pcfg, svn.NewExecRunner(cfg.CommandTimeout.Std()), out)
	if err != nil {
		return nil, err
	}
	p.SetLogger(logger.WithComponent("poller"))
	return p, nil
}

// resumeFromSink seeds the poller watermark from the newest revision the
// sink already recorded. Sinks that cannot be queried are skipped.
func resumeFromSink(ctx context.Context, p *svn.Poller, out sink.Sink, logger *logging.Logger) error {
	store, ok := out.(sink.Store)
	if !ok {
		logger.Warn("resume_from_sink ignored, sink does not keep history")
		return nil
	}

	rev, err := store.LatestRevision(ctx, p.Config().RepositoryURL)
	if err != nil {
		return fmt.Errorf("failed to read latest recorded revision: %w", err)
	}
	if !rev.IsSet() {
		logger.Info("sink has no history for repository, first cycle establishes the baseline")
		return nil
	}

	if err := p.SeedWatermark(rev); err != nil {
		return err
	}
	logger.Info("resuming from recorded revision", "revision", rev)
	return nil
}

// tracedTrigger wraps Poll in a span describing why the cycle ran and logs
// the outcome with the cycle and trace IDs, so logs and traces can be joined.
func tracedTrigger(p *svn.Poller, tracer *tracing.Tracer, logger *logging.Logger) func(ctx context.Context, trigger string) (*svn.CycleReport, error) {
	repository := p.Config().RepositoryURL
	return func(ctx context.Context, trigger string) (*svn.CycleReport, error) {
		ctx, span := tracer.Start(ctx, "svnwatch.trigger", tracing.TriggerAttributes(repository, trigger))
		defer span.End()
		ctx = logging.WithRepository(ctx, repository)

		report, err := p.Poll(ctx)
		tracing.SetError(span, err)
		tracing.SetStatus(span, err)
		tracing.SetCycleAttributes(span, report)

		if report != nil {
			ctx = logging.WithCycleID(ctx, report.CycleID)
		}
		logger.WithContext(ctx).Debug("trigger finished", "trigger", trigger, "error", err)
		return report, err
	}
}

// flushTracer exports the spans of a finished one-shot command before its
// output is written.
func flushTracer(tracer *tracing.Tracer, logger *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tracer.ForceFlush(ctx); err != nil {
		logger.Warn("failed to flush spans", "error", err)
	}
}

// schedulerConfig derives the poll schedule from the source section.
func schedulerConfig(cfg *config.SourceConfig) scheduler.Config {
	return scheduler.Config{
		Interval:   cfg.PollInterval.Std(),
		Schedule:   cfg.Schedule,
		RunOnStart: true,
	}
}
