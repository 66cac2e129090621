package main

import (
	"github.com/spf13/cobra"
)

// NewStandardCmd creates the standard command.
func NewStandardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "standard",
		Short: "Print the effective formatting standard as YAML",
		Long: `Standard prints the standard that check would use, after the lookup of
--standard, .docstyle.yaml and the XDG config directory. Save the output as
.docstyle.yaml to start a custom profile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			chk, err := loadChecker(cmd, setupLogger(getVerboseFlag(cmd)))
			if err != nil {
				return err
			}
			data, err := chk.Standard().YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
