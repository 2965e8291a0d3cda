// SPDX-License-Identifier: MPL-2.0

package suite

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"nssdev/internal/script"
	"nssdev/pkg/types"
)

// harnessScript is the harness entry point inside the tests directory.
const harnessScript = "all.sh"

// Default values the harness expects when the host does not define them.
const (
	defaultDomainSuffix = "localdomain"
	defaultHost         = "localhost"
)

// RunSpec names a suite and any environment overrides for the run.
// Overrides win over both harness defaults and the suite selection, which
// is how the coverage pipeline routes sanitizer output and pins cycles.
type RunSpec struct {
	Suite Suite
	Env   map[string]string
}

// Runner executes harness suites for one checkout.
type Runner struct {
	// TestsDir is the absolute path of the harness directory.
	TestsDir string
	// Stdout and Stderr receive harness output.
	Stdout io.Writer
	Stderr io.Writer

	scriptOpts []script.Option
}

// NewRunner creates a harness Runner. scriptOpts are passed to the
// underlying script runner; tests use them to inject a mock exec seam.
func NewRunner(testsDir string, stdout, stderr io.Writer, scriptOpts ...script.Option) *Runner {
	return &Runner{
		TestsDir:   testsDir,
		Stdout:     stdout,
		Stderr:     stderr,
		scriptOpts: scriptOpts,
	}
}

// Run invokes the harness for the given spec and returns its exit code.
func (r *Runner) Run(ctx context.Context, spec RunSpec) (types.ExitCode, error) {
	env := r.buildEnv(spec)
	runner := script.NewRunner(r.TestsDir, env, r.Stdout, r.Stderr, r.scriptOpts...)
	return runner.Run(ctx, filepath.Join(r.TestsDir, harnessScript))
}

// buildEnv layers spec overrides over harness defaults. DOMSUF and HOST are
// only defaulted when absent from the process environment, matching what the
// harness itself would do.
func (r *Runner) buildEnv(spec RunSpec) map[string]string {
	env := map[string]string{
		"NSS_TESTS":  string(spec.Suite),
		"NSS_CYCLES": "standard",
	}
	if os.Getenv("DOMSUF") == "" {
		env["DOMSUF"] = defaultDomainSuffix
	}
	if os.Getenv("HOST") == "" {
		env["HOST"] = defaultHost
	}
	for k, v := range spec.Env {
		env[k] = v
	}
	return env
}
