// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nssdev/internal/suite"
)

// newTestsCommand creates the `nssdev tests` command.
func newTestsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tests <suite>",
		Short: "Run a harness test suite",
		Long: `Run one test suite through the harness (tests/all.sh).

The suite name selects NSS_TESTS for the harness run; cycles are pinned
to "standard". DOMSUF and HOST default to localdomain/localhost when the
environment does not define them.

Valid suites:
  ` + strings.Join(suite.Names(), ", ") + `

Examples:
  nssdev tests ssl          Run the SSL suite
  nssdev tests ssl_gtests   Run the SSL gtests`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: suite.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := suite.Parse(args[0])
			if err != nil {
				return fmt.Errorf("%w (valid suites: %s)", err, strings.Join(suite.Names(), ", "))
			}

			cmd.SilenceUsage = true
			code, err := app.Suites.Run(cmd.Context(), s)
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
