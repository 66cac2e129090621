package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			st, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.List(context.Background(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range runs {
				fmt.Fprintf(out, "%s  %s  %-30s %3d page(s) %4d violation(s)  %s\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04"), r.ID[:8], r.Filename, r.Pages, r.Violations, r.Hash[:12])
			}
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Number of runs to list")
	cmd.Flags().String("db", "", "History database path (default: $XDG_DATA_HOME/docstyle/history.db)")
	return cmd
}
