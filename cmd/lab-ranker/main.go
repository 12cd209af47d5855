// Package main provides the lab-ranker command line tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/lab-ranker/internal/models"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Exit codes
const (
	exitFailure       = 1
	exitConfiguration = 2
)

var configFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lab-ranker",
		Short:         "Score and rank trading lab backtests",
		Long:          `Normalizes backtest results from trading labs, scores and ranks them, and proposes bot deployments within a capital policy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	root.AddCommand(
		newAnalyzeCmd(),
		newServeCmd(),
		newMarketCmd(),
		newRunsCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lab-ranker %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var cfgErr *models.ConfigurationError
		if errors.As(err, &cfgErr) {
			os.Exit(exitConfiguration)
		}
		os.Exit(exitFailure)
	}
}
