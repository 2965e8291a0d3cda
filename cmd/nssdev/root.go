// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for nssdev.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"nssdev/internal/config"
	"nssdev/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the source control revision (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
)

// newRootCommand assembles the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nssdev",
		Short: "Developer workflows for an NSS checkout",
		Long: TitleStyle.Render("nssdev") + SubtitleStyle.Render(" - Developer workflows for an NSS checkout") + `

nssdev wraps the day-to-day workflows of hacking on NSS: building the
tree, formatting changed sources with a pinned clang-format, running
harness test suites, and producing symbol coverage reports.

` + SubtitleStyle.Render("Examples:") + `
  nssdev build -- -c -v          Clean verbose build
  nssdev clang-format            Format files changed in version control
  nssdev tests ssl_gtests        Run the ssl_gtests suite
  nssdev coverage ssl_gtests     Build instrumented and collect coverage
  nssdev list-commands           Show every available command`,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/nssdev/config.cue)")

	rootCmd.AddCommand(newBuildCommand(app))
	rootCmd.AddCommand(newFormatCommand(app))
	rootCmd.AddCommand(newTestsCommand(app))
	rootCmd.AddCommand(newCoverageCommand(app))
	rootCmd.AddCommand(newListCommandsCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the App and command tree and runs the CLI. This is called
// by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := newRootCommand(app)

	cobra.OnInitialize(initRootConfig)

	// fang overrides rootCmd.Version, so the version goes through its option.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig reads the config file early so UI settings apply before any
// command runs. Load failures warn and fall back to defaults; the command's
// own config load will surface the error properly if it matters.
func initRootConfig() {
	cfg, err := config.Load(config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		return
	}

	if !verbose {
		verbose = cfg.UI.Verbose
	}
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render with their suggestions; verbose mode shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
