// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newFormatCommand creates the `nssdev clang-format` command.
func newFormatCommand(app *App) *cobra.Command {
	var noRoot bool

	formatCmd := &cobra.Command{
		Use:   "clang-format [paths...]",
		Short: "Format sources with a pinned clang-format",
		Long: `Format source files with the clang-format pinned by the formatter
container image, so results match what CI checks.

Without arguments the files to format are detected from version control
status (modified and added sources and headers). Explicit paths are
formatted as given, without any suffix filtering.

When no container runtime is usable the host clang-format runs instead;
a warning flags that its output may differ from CI.

Examples:
  nssdev clang-format                     Format changed files
  nssdev clang-format lib/ssl/ssl3con.c   Format one file
  nssdev clang-format --noroot            Never invoke the runtime via sudo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			outcome, err := app.Format.Dispatch(cmd.Context(), FormatRequest{
				Paths:  args,
				NoRoot: noRoot,
			})
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}

			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "%s formatting completed (%s)\n",
					SuccessStyle.Render("✓"), outcome)
			}
			return nil
		},
	}

	formatCmd.Flags().BoolVar(&noRoot, "noroot", false, "do not elevate container runtime invocations with sudo")

	return formatCmd
}
