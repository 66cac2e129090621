package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docstyle/internal/checker"
	"github.com/dgallion1/docstyle/internal/config"
)

// errViolations is returned by check --fail when any file has findings.
var errViolations = errors.New("formatting violations found")

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docstyle",
		Short: "Check documents against a formatting standard",
		Long: `docstyle reconstructs the layout of a document (PDF, hOCR, or an extraction
dump in JSON) and checks fonts, margins, page numbers, paragraph indents,
line spacing, justification, headings, and figure and table captions against
a formatting standard. The default standard is GOST 7.32.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("standard", "s", "",
		"Standard file (default: .docstyle.yaml, then $XDG_CONFIG_HOME/docstyle/standard.yaml)")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewTreeCmd())
	cmd.AddCommand(NewStandardCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. Findings under --fail exit with status 2.
func Execute() {
	err := NewRootCmd().Execute()
	switch {
	case err == nil:
	case errors.Is(err, errViolations):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadChecker resolves the standard named by --standard and builds a
// checker for it.
func loadChecker(cmd *cobra.Command, log *slog.Logger) (*checker.Checker, error) {
	explicit, err := cmd.Flags().GetString("standard")
	if err != nil {
		return nil, err
	}
	std, path, err := config.ResolveStandard(explicit)
	if err != nil {
		return nil, err
	}
	log.Debug("using standard", "name", std.Name, "path", path)
	return checker.New(std, log)
}
