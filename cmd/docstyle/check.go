package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docstyle/internal/checker"
	"github.com/dgallion1/docstyle/internal/config"
	"github.com/dgallion1/docstyle/internal/parser"
	"github.com/dgallion1/docstyle/internal/report"
	"github.com/dgallion1/docstyle/internal/store"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Check files against the formatting standard",
		Long: `Check reconstructs each file's layout and reports every formatting violation.
Files are checked one after another; a file that cannot be read is reported
and the remaining files are still checked.

Examples:
  # Check a thesis and print findings
  docstyle check thesis.pdf

  # Markdown report for a review, failing the build on findings
  docstyle check --format markdown --fail thesis.pdf > report.md

  # Record the run in the history database
  docstyle check --save thesis.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCheckCmd,
	}

	cmd.Flags().StringP("format", "f", "text",
		fmt.Sprintf("Report format (%s)", joinFormats()))
	cmd.Flags().Bool("fail", false, "Exit with status 2 when violations are found")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().Bool("save", false, "Record the run in the history database")
	cmd.Flags().String("db", "", "History database path (default: $XDG_DATA_HOME/docstyle/history.db)")

	return cmd
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if !report.IsFormat(format) {
		return fmt.Errorf("%w: %q (want one of %s)", report.ErrUnknownFormat, format, joinFormats())
	}
	fail, _ := cmd.Flags().GetBool("fail")
	output, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")

	log := setupLogger(getVerboseFlag(cmd))
	chk, err := loadChecker(cmd, log)
	if err != nil {
		return err
	}

	var history *store.Store
	if save {
		history, err = openHistory(cmd)
		if err != nil {
			return err
		}
		defer history.Close()
	}

	out := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	var (
		errs  []error
		found bool
	)
	for _, path := range args {
		rep, err := checkFile(chk, path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if history != nil {
			if err := history.Save(context.Background(), rep); err != nil {
				errs = append(errs, fmt.Errorf("save %s: %w", path, err))
			}
		}
		if err := writeReport(out, format, rep); err != nil {
			return err
		}
		found = found || !rep.Clean()
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if fail && found {
		return errViolations
	}
	return nil
}

// checkFile reads path and checks it.
func checkFile(chk *checker.Checker, path string) (*report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := parser.CheckMagic(path, data); err != nil {
		return nil, err
	}
	res, err := chk.CheckReader(bytes.NewReader(data), path)
	if err != nil {
		return nil, err
	}
	rep := report.New(filepath.Base(path), data, res.Pages, res.Violations)
	rep.Standard = chk.Standard().Name
	return rep, nil
}

func writeReport(w io.Writer, format string, rep *report.Report) error {
	wr, err := report.NewWriter(format, w)
	if err != nil {
		return err
	}
	if _, err := wr.Write(rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func openHistory(cmd *cobra.Command) (*store.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		var err error
		path, err = config.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve history database: %w", err)
		}
	}
	return store.Open(path)
}

func joinFormats() string {
	return strings.Join(report.Formats, ", ")
}
