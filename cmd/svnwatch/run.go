package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/svnwatch/pkg/cli"
	"mercator-hq/svnwatch/pkg/config"
	"mercator-hq/svnwatch/pkg/scheduler"
	"mercator-hq/svnwatch/pkg/server"
	"mercator-hq/svnwatch/pkg/sink"
	"mercator-hq/svnwatch/pkg/svn"
	"mercator-hq/svnwatch/pkg/telemetry/health"
	"mercator-hq/svnwatch/pkg/telemetry/logging"
	"mercator-hq/svnwatch/pkg/telemetry/metrics"
	"mercator-hq/svnwatch/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	noWatch       bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the repository continuously",
	Long: `Poll the configured repository on its schedule until interrupted.

The first cycle runs immediately and establishes the baseline revision; later
cycles emit one change per new commit and branch. Unless disabled, an admin
server exposes health probes, Prometheus metrics and a manual trigger
(POST /poll). Edits to the configuration file are picked up for the log
level and the poll schedule; other settings need a restart.

Examples:
  # Start with default config
  svnwatch run

  # Start with custom config
  svnwatch run --config /etc/svnwatch/config.toml

  # Override admin listen address
  svnwatch run --listen 0.0.0.0:8089

  # Validate config and wiring without polling
  svnwatch run --dry-run`,
	RunE: runPoller,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override admin listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.noWatch, "no-watch", false, "do not reload the config file on change")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "build all components and exit without polling")
}

func runPoller(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	cfg := config.MustGetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := newLogger(&cfg.Telemetry.Logging)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	out, err := newSink(&cfg.Sink, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer out.Close()

	poller, err := newPoller(&cfg.Source, out, logger)
	if err != nil {
		return err
	}
	poller.SetTracer(tracer)

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	poller.SetObserver(collector.Observer(cfg.Source.URL))

	if cfg.Source.ResumeFromSink {
		if err := resumeFromSink(ctx, poller, out, logger); err != nil {
			return cli.NewCommandError("run", err)
		}
	}

	if runFlags.dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration valid\n✓ %s ready (sink: %s)\n", poller.Describe(), cfg.Sink.Type)
		return nil
	}

	trigger := tracedTrigger(poller, tracer, logger)

	sched := scheduler.NewScheduler(func(ctx context.Context) error {
		_, err := trigger(ctx, "schedule")
		return err
	}, schedulerConfig(&cfg.Source))
	sched.SetLogger(logger.Slog())

	var srv *server.Server
	if cfg.Server.Enabled {
		srv = newAdminServer(cfg, poller, sched, out, collector, trigger, logger)
	}

	if !runFlags.noWatch {
		watcher, err := config.NewWatcher(cfgFile, config.DefaultDebounce, func(newCfg *config.Config) {
			applyReload(cfg, newCfg, logger, sched)
		})
		if err != nil {
			logger.Warn("config watching disabled", "error", err)
		} else {
			watcher.SetLogger(logger.Slog())
			defer watcher.Close()
			go func() {
				if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("config watcher stopped", "error", err)
				}
			}()
		}
	}

	hup, stopHUP := cli.ReloadSignal()
	defer stopHUP()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				newCfg, err := config.ReloadConfig(cfgFile)
				if err != nil {
					logger.Error("config reload rejected, keeping previous configuration", "error", err)
					continue
				}
				logger.Info("config reloaded on SIGHUP", "path", cfgFile)
				applyReload(cfg, newCfg, logger, sched)
			}
		}
	}()

	logger.Info("starting svnwatch",
		"version", Version,
		"repository", cfg.Source.URL,
		"sink", cfg.Sink.Type,
		"schedule", schedulerConfig(&cfg.Source).Spec())

	if err := sched.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	defer sched.Stop()

	if srv == nil {
		<-ctx.Done()
	} else if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	logger.Info("shutting down", "cycles", poller.Stats().Cycles)
	return nil
}

// newAdminServer wires health checks, metrics and the manual trigger.
func newAdminServer(cfg *config.Config, poller *svn.Poller, sched *scheduler.Scheduler, out sink.Sink, collector *metrics.Collector, trigger server.TriggerFunc, logger *logging.Logger) *server.Server {
	checker := health.New(cfg.Telemetry.Health.CheckTimeout.Std())
	checker.RegisterCheck("poller", health.PollerCheck(poller, cfg.Telemetry.Health.MaxConsecutiveFailures))
	if pinger, ok := out.(health.Pinger); ok {
		checker.RegisterCheck("sink", health.PingCheck(pinger))
	}

	opts := server.Options{
		Health:       checker,
		HealthConfig: cfg.Telemetry.Health,
		Trigger:      trigger,
		Stats:        poller.Stats,
		Schedule:     sched,
		Version:      versionInfo(),
		Logger:       logger.Slog(),
	}
	if cfg.Telemetry.Metrics.Enabled {
		opts.Metrics = collector.Handler()
		opts.MetricsPath = cfg.Telemetry.Metrics.Path
	}

	return server.NewServer(&cfg.Server, opts)
}

// applyReload applies the settings that can change at runtime and warns
// about the ones that cannot.
func applyReload(current, next *config.Config, logger *logging.Logger, sched *scheduler.Scheduler) {
	if err := logger.SetLevel(next.Telemetry.Logging.Level); err != nil {
		logger.Warn("log level not changed", "error", err)
	}

	if err := sched.Reschedule(schedulerConfig(&next.Source)); err != nil {
		logger.Error("poll schedule not changed", "error", err)
	}

	if next.Source.URL != current.Source.URL || next.Sink != current.Sink || next.Server != current.Server {
		logger.Warn("source url, sink or server changed, restart to apply")
	}
}
