// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

// newBuildCommand creates the `nssdev build` command. Every argument goes to
// the build script untouched, so flag parsing is disabled; the script owns
// its own option vocabulary.
func newBuildCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "build [build.sh args...]",
		Short: "Build the tree via build.sh",
		Long: `Build the tree by invoking build.sh at the repository root.

All arguments are passed to build.sh verbatim and its exit code is
propagated unchanged.

Examples:
  nssdev build                 Incremental build
  nssdev build -c -v           Clean verbose build
  nssdev build --asan          Sanitizer build`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flag parsing is off, so help has to be handled by hand.
			for _, arg := range args {
				if arg == "--help" || arg == "-h" {
					return cmd.Help()
				}
			}

			cmd.SilenceUsage = true
			code, err := app.Build.Run(cmd.Context(), args)
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}
			if !code.IsSuccess() {
				cmd.SilenceErrors = true
				return &ExitError{Code: code}
			}
			return nil
		},
	}
}
