package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List stored runs, or the recommendations of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled {
				return fmt.Errorf("runs requires database.enabled")
			}
			a, err := newApp(ctx, cfg, true, nil)
			if err != nil {
				return err
			}
			defer a.close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			if len(args) == 1 {
				runID, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid run id: %w", err)
				}
				recs, err := a.repos.AnalysisRun.GetRecommendations(ctx, runID)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "RANK\tBACKTEST\tMARKET\tSCORE\tACCOUNT\tTRADE\tLEVERAGE")
				for _, rec := range recs {
					fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%g\n",
						rec.Rank, rec.Identity, rec.Market, rec.Score,
						rec.AccountSize.StringFixed(2), rec.TradeAmount.StringFixed(2), rec.Leverage)
				}
				return nil
			}

			runs, err := a.repos.AnalysisRun.GetLatestRuns(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "RUN\tGENERATED\tTOTAL\tELIGIBLE\tRECOMMENDED\tCAPITAL")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
					run.ID, run.GeneratedAt.Format(time.RFC3339), run.Summary.Total,
					run.Summary.Eligible, run.Summary.Recommended, run.Summary.CapitalCommitted.StringFixed(2))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to list")
	return cmd
}
