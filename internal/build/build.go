// SPDX-License-Identifier: MPL-2.0

// Package build is the pass-through to the repository's build script.
// It carries no decision logic of its own: arguments go to build.sh as-is
// and the script's exit code comes back unchanged.
package build

import (
	"context"
	"io"
	"path/filepath"

	"nssdev/internal/script"
	"nssdev/pkg/types"
)

// buildScript is the build entry point at the repository root.
const buildScript = "build.sh"

// Runner invokes the build script for one checkout.
type Runner struct {
	// RepoRoot is the absolute repository root.
	RepoRoot string
	// Stdout and Stderr receive build output.
	Stdout io.Writer
	Stderr io.Writer

	scriptOpts []script.Option
}

// NewRunner creates a build Runner rooted at repoRoot.
func NewRunner(repoRoot string, stdout, stderr io.Writer, scriptOpts ...script.Option) *Runner {
	return &Runner{
		RepoRoot:   repoRoot,
		Stdout:     stdout,
		Stderr:     stderr,
		scriptOpts: scriptOpts,
	}
}

// Run executes build.sh with args and returns its exit code.
func (r *Runner) Run(ctx context.Context, args []string) (types.ExitCode, error) {
	runner := script.NewRunner(r.RepoRoot, nil, r.Stdout, r.Stderr, r.scriptOpts...)
	return runner.Run(ctx, filepath.Join(r.RepoRoot, buildScript), args...)
}
