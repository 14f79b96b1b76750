package main

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"mercator-hq/svnwatch/pkg/cli"
	"mercator-hq/svnwatch/pkg/config"
	"mercator-hq/svnwatch/pkg/scheduler"
)

var validateFlags struct {
	checkBinary bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file, apply defaults and SVNWATCH_* environment
overrides, and report every problem found.

Examples:
  svnwatch validate --config svnwatch.yaml

  # Also make sure the svn client can be found
  svnwatch validate --check-binary`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.checkBinary, "check-binary", false, "verify that source.binary is on PATH")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(out, "✗ %s has %d problem(s):\n", cfgFile, len(verr.Errors))
			for _, fe := range verr.Errors {
				fmt.Fprintf(out, "  - %s\n", fe.Error())
			}
		}
		return err
	}

	if validateFlags.checkBinary {
		path, err := exec.LookPath(cfg.Source.Binary)
		if err != nil {
			return cli.NewConfigError(cfgFile, fmt.Errorf("source.binary: %w", err))
		}
		fmt.Fprintf(out, "✓ svn client: %s\n", path)
	}

	fmt.Fprintf(out, "✓ %s is valid\n", cfgFile)
	fmt.Fprintf(out, "  repository: %s\n", cfg.Source.URL)
	fmt.Fprintf(out, "  schedule:   %s\n", scheduler.Config{Interval: cfg.Source.PollInterval.Std(), Schedule: cfg.Source.Schedule}.Spec())
	fmt.Fprintf(out, "  splitter:   %s\n", cfg.Source.Splitter)
	fmt.Fprintf(out, "  sink:       %s\n", cfg.Sink.Type)
	if cfg.Server.Enabled {
		fmt.Fprintf(out, "  admin:      http://%s\n", cfg.Server.ListenAddress)
	}
	return nil
}
