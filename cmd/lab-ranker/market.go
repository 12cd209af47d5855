package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/lab-ranker/internal/market"
)

func newMarketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Inspect market tags",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <tag>",
		Short: "Check that a tag is in canonical " + market.Format + " form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := market.Validate(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is canonical\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "normalize <tag>",
		Short: "Print the canonical form of a loosely formatted tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := market.Normalize(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tag.String())
			return nil
		},
	})

	return cmd
}
