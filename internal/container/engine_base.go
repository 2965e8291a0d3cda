// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"nssdev/pkg/types"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides the common implementation for CLI-based
	// container engines. Docker and Podman engines embed this struct; only
	// binary discovery differs between them.
	BaseCLIEngine struct {
		name        string
		binaryPath  string
		elevatePath string // sudo binary path; empty means no elevation
		execCommand ExecCommandFunc
	}
)

// WithName sets the engine name used in error messages.
func WithName(name string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.name = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// WithElevation prefixes every invocation with the given elevation binary
// (typically sudo). The container daemons on build machines are commonly
// root-only.
func WithElevation(path string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.elevatePath = path
	}
}

// NewBaseCLIEngine creates a new base engine with the given binary path.
func NewBaseCLIEngine(binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine name used in error messages.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// Elevated reports whether invocations are prefixed with an elevation command.
func (e *BaseCLIEngine) Elevated() bool {
	return e.elevatePath != ""
}

// Available checks that the engine binary was found on the search path.
// Whether the daemon behind it actually works is the probe's business.
func (e *BaseCLIEngine) Available() bool {
	return e.binaryPath != ""
}

// BuildArgs constructs arguments for a container build command.
//
// Generated command: <binary> build -t <tag> <context>
func (e *BaseCLIEngine) BuildArgs(opts BuildOptions) []string {
	args := []string{"build"}
	if opts.Tag != "" {
		args = append(args, "-t", opts.Tag)
	}
	args = append(args, opts.ContextDir)
	return args
}

// RunArgs constructs arguments for a container run command.
//
// Generated command: <binary> run [options] <image> [command...]
func (e *BaseCLIEngine) RunArgs(opts RunOptions) []string {
	args := []string{"run"}

	if opts.Remove {
		args = append(args, "--rm")
	}

	for k, v := range opts.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}

	for _, v := range opts.Volumes {
		args = append(args, "-v", v)
	}

	args = append(args, opts.Image)
	args = append(args, opts.Command...)

	return args
}

// CreateCommand creates an exec.Cmd for the given arguments, applying the
// elevation prefix when configured. The caller customizes stdio as needed.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	if e.elevatePath != "" {
		full := append([]string{e.binaryPath}, args...)
		return e.execCommand(ctx, e.elevatePath, full...)
	}
	return e.execCommand(ctx, e.binaryPath, args...)
}

// RunCommandStatus executes a command and returns only the error status.
func (e *BaseCLIEngine) RunCommandStatus(ctx context.Context, args ...string) error {
	cmd := e.CreateCommand(ctx, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}
	return nil
}

// Build builds an image from a Dockerfile.
func (e *BaseCLIEngine) Build(ctx context.Context, opts BuildOptions) error {
	args := e.BuildArgs(opts)

	cmd := e.CreateCommand(ctx, args...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s build of %q failed: %w", e.name, opts.Tag, err)
	}

	return nil
}

// Run runs a command in a container and returns the result.
// A non-zero exit code is captured in RunResult.ExitCode (not returned as
// error); only infrastructure failures set RunResult.Error.
func (e *BaseCLIEngine) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	args := e.RunArgs(opts)

	cmd := e.CreateCommand(ctx, args...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	err := cmd.Run()

	result := &RunResult{}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = types.ExitCode(exitErr.ExitCode())
		} else {
			result.ExitCode = 1
			result.Error = err
		}
	}

	return result, nil
}

// ImageExists checks if an image exists locally.
func (e *BaseCLIEngine) ImageExists(ctx context.Context, image string) (bool, error) {
	err := e.RunCommandStatus(ctx, "image", "inspect", image)
	return err == nil, nil
}

// ListImages lists local images, discarding the output. Any failure means
// the runtime is not usable with the current invocation.
func (e *BaseCLIEngine) ListImages(ctx context.Context) error {
	return e.RunCommandStatus(ctx, "images")
}
