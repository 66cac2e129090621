package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewTreeCmd creates the tree command.
func NewTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree FILE",
		Short: "Print the reconstructed document tree",
		Long: `Tree prints the document tree the checker sees: pages, paragraphs, lines and
spans with their bounding boxes in points. Nodes with violations show a count.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := setupLogger(getVerboseFlag(cmd))
			chk, err := loadChecker(cmd, log)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := chk.CheckReader(bytes.NewReader(data), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return res.Tree.Dump(cmd.OutOrStdout(), res.Tree.Root())
		},
	}
}
