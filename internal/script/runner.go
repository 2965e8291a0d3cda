// SPDX-License-Identifier: MPL-2.0

// Package script executes the repository's shell scripts (build.sh,
// tests/all.sh). Scripts run under the host bash when one exists; otherwise
// they are interpreted in-process with mvdan/sh so the workflows still work
// on hosts without a POSIX shell.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"nssdev/pkg/types"
)

// ExecCommandFunc is the function signature for creating exec.Cmd.
// It allows injection of mock implementations for testing.
type ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

// Runner executes one script invocation. The zero value is not usable;
// construct with NewRunner.
type Runner struct {
	// Dir is the working directory for the script.
	Dir string
	// Env holds environment overrides layered over the process environment.
	Env map[string]string
	// Stdout and Stderr receive the script's output.
	Stdout io.Writer
	Stderr io.Writer

	execCommand ExecCommandFunc
	lookPath    func(file string) (string, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(r *Runner) {
		r.execCommand = fn
	}
}

// WithLookPath sets a custom binary lookup function for testing.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(r *Runner) {
		r.lookPath = fn
	}
}

// NewRunner creates a Runner executing scripts in dir with env overrides.
func NewRunner(dir string, env map[string]string, stdout, stderr io.Writer, opts ...Option) *Runner {
	r := &Runner{
		Dir:         dir,
		Env:         env,
		Stdout:      stdout,
		Stderr:      stderr,
		execCommand: exec.CommandContext,
		lookPath:    exec.LookPath,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes scriptPath with the given arguments and returns its exit
// code. The returned error is non-nil only for infrastructure failures
// (script unreadable, interpreter setup); a script that runs and exits
// non-zero yields (code, nil).
func (r *Runner) Run(ctx context.Context, scriptPath string, args ...string) (types.ExitCode, error) {
	if bash, err := r.lookPath("bash"); err == nil {
		return r.runNative(ctx, bash, scriptPath, args)
	}
	return r.runVirtual(ctx, scriptPath, args)
}

// runNative executes the script under the host bash.
func (r *Runner) runNative(ctx context.Context, shell, scriptPath string, args []string) (types.ExitCode, error) {
	cmdArgs := append([]string{scriptPath}, args...)
	cmd := r.execCommand(ctx, shell, cmdArgs...)
	cmd.Dir = r.Dir
	cmd.Env = r.environ()
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return types.ExitCode(exitErr.ExitCode()), nil
		}
		return 1, fmt.Errorf("failed to run %s: %w", scriptPath, err)
	}
	return 0, nil
}

// runVirtual interprets the script with the embedded shell.
func (r *Runner) runVirtual(ctx context.Context, scriptPath string, args []string) (types.ExitCode, error) {
	f, err := os.Open(scriptPath)
	if err != nil {
		return 1, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	prog, err := syntax.NewParser().Parse(f, scriptPath)
	if err != nil {
		return 1, fmt.Errorf("failed to parse %s: %w", scriptPath, err)
	}

	opts := []interp.RunnerOption{
		interp.Dir(r.Dir),
		interp.Env(expand.ListEnviron(r.environ()...)),
		interp.StdIO(nil, r.Stdout, r.Stderr),
	}
	// "--" keeps script arguments that look like shell options (-v, --clean)
	// from being eaten by the interpreter itself.
	if len(args) > 0 {
		opts = append(opts, interp.Params(append([]string{"--"}, args...)...))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return 1, fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		if status, ok := interp.IsExitStatus(err); ok {
			return types.ExitCode(status), nil
		}
		return 1, fmt.Errorf("script %s failed: %w", scriptPath, err)
	}
	return 0, nil
}

// environ merges the override map over the process environment. Overrides
// are appended in sorted key order so repeated runs produce identical child
// environments.
func (r *Runner) environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(r.Env))
	for k := range r.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+r.Env[k])
	}
	return env
}
