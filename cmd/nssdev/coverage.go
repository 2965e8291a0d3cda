// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"nssdev/internal/coverage"
	"nssdev/pkg/types"
)

// newCoverageCommand creates the `nssdev coverage` command.
func newCoverageCommand(app *App) *cobra.Command {
	var outDir string

	coverageCmd := &cobra.Command{
		Use:   "coverage <module>",
		Short: "Build instrumented and collect symbol coverage",
		Long: `Run the coverage pipeline for one module: build the tree with
sanitizer coverage instrumentation, run the module's test suite with
coverage collection enabled, symbolize the resulting trace, and copy the
instrumented test binary next to the artifacts.

Build or test failures abort the pipeline with the child's exit code. A
symbolizer failure still leaves the raw trace and binary in the output
directory; its exit code becomes the command's exit code.

Valid modules:
  ` + strings.Join(coverage.Names(), ", ") + `

Examples:
  nssdev coverage ssl_gtests
  nssdev coverage ssl_gtests --outdir /tmp/cov`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: coverage.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := coverage.ParseModule(args[0])
			if err != nil {
				return fmt.Errorf("%w (valid modules: %s)", err, strings.Join(coverage.Names(), ", "))
			}

			cmd.SilenceUsage = true
			result, err := app.Coverage.Run(cmd.Context(), module, outDir)
			if result != nil {
				printCoverageResult(cmd, result)
			}
			if err != nil {
				code := types.ExitCode(1)
				if result != nil && !result.Code.IsSuccess() {
					code = result.Code
				}
				cmd.SilenceErrors = true
				return &ExitError{Code: code, Err: err}
			}
			return nil
		},
	}

	coverageCmd.Flags().StringVar(&outDir, "outdir", defaultCoverageOutDir(), "directory receiving coverage artifacts")

	return coverageCmd
}

// defaultCoverageOutDir is the artifact directory used when --outdir is not
// given.
func defaultCoverageOutDir() string {
	return filepath.Join(os.TempDir(), "nssdev-coverage")
}

// printCoverageResult summarizes produced artifacts and stage outcomes.
func printCoverageResult(cmd *cobra.Command, result *coverage.Result) {
	stdout := cmd.OutOrStdout()

	for _, stage := range result.Stages {
		switch stage.Status {
		case coverage.StatusOK:
			fmt.Fprintf(stdout, "%s %s\n", SuccessStyle.Render("✓"), stage.Stage)
		case coverage.StatusFailed:
			fmt.Fprintf(stdout, "%s %s (exit code %d)\n", ErrorStyle.Render("✗"), stage.Stage, stage.Code)
		case coverage.StatusSkipped:
			fmt.Fprintf(stdout, "%s %s (skipped)\n", SubtitleStyle.Render("-"), stage.Stage)
		}
	}

	if result.TracePath != "" {
		fmt.Fprintf(stdout, "trace:      %s\n", CmdStyle.Render(result.TracePath))
	}
	if result.SymbolizedPath != "" {
		fmt.Fprintf(stdout, "symbolized: %s\n", CmdStyle.Render(result.SymbolizedPath))
	}
	if result.BinaryPath != "" {
		fmt.Fprintf(stdout, "binary:     %s\n", CmdStyle.Render(result.BinaryPath))
	}
}
