package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/svnwatch/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "svnwatch",
	Short: "svnwatch - Subversion change poller",
	Long: `svnwatch polls a Subversion repository and emits one change per new commit
and touched branch.

It runs the svn command line client, so svn must be installed and able to
reach the repository. Credentials can come from the configuration file or
from SVNWATCH_SOURCE_USERNAME / SVNWATCH_SOURCE_PASSWORD.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "svnwatch.yaml", "config file path (.yaml or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
