package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yourusername/lab-ranker/internal/ingest"
	"github.com/yourusername/lab-ranker/internal/models"
)

type analyzeOptions struct {
	inputs    []string
	labs      []string
	outputDir string
	formats   []string
	persist   bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze backtests from files or from the platform",
		Long: `Analyzes one batch of backtests. With --input the batch is read from JSON
files (arrays, JSON lines or platform envelopes); otherwise every lab in
--lab or platform.lab_ids is fetched from the platform API.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.inputs, "input", "i", nil, "Backtest JSON files to analyze")
	cmd.Flags().StringSliceVar(&opts.labs, "lab", nil, "Lab ids to fetch (overrides platform.lab_ids)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Report directory (overrides report.output_dir)")
	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", nil, "Report formats: console, json, csv")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "Store the run in the database")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if opts.outputDir != "" {
		cfg.Report.OutputDir = opts.outputDir
	}
	if len(opts.formats) > 0 {
		cfg.Report.Formats = opts.formats
	}

	a, err := newApp(ctx, cfg, opts.persist, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.close()
	if opts.persist && a.db == nil {
		return fmt.Errorf("--persist requires database.enabled")
	}

	svc := a.analysis
	var report *models.Report
	if len(opts.inputs) > 0 {
		raws, err := ingest.ReadFiles(opts.inputs...)
		if err != nil {
			return err
		}
		report, err = svc.Analyze(ctx, raws)
		if err != nil {
			return err
		}
	} else {
		labs := opts.labs
		if len(labs) == 0 {
			labs = cfg.Platform.LabIDs
		}
		if len(labs) == 0 {
			return fmt.Errorf("nothing to analyze: pass --input files or configure lab ids")
		}
		report, err = svc.AnalyzeLabs(ctx, labs)
		if err != nil {
			return err
		}
	}

	if !hasConsole(cfg.Report.Formats) {
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d backtests, %d eligible, %d recommended\n",
			report.RunID, report.Summary.Total, report.Summary.Eligible, report.Summary.Recommended)
	}
	return nil
}

func hasConsole(formats []string) bool {
	for _, f := range formats {
		if f == "console" {
			return true
		}
	}
	return false
}
