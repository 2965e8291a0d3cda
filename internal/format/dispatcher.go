// SPDX-License-Identifier: MPL-2.0

// Package format dispatches clang-format runs, preferring a container so
// every checkout formats with the same clang-format build, and falling back
// to whatever the host has when no runtime is usable.
package format

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"

	"nssdev/internal/container"
	"nssdev/internal/imagecache"
	"nssdev/internal/issue"
	"nssdev/internal/vcs"
)

// formatterBinary is the host fallback formatter.
const formatterBinary = "clang-format"

// Outcome is the terminal state of a dispatch. Both outcomes are successful
// completions; the formatter's own "changes were needed" exit code is a
// designed non-error and never surfaces as a failure.
type Outcome int

const (
	// OutcomeDirectFallback means the formatter ran directly on the host.
	OutcomeDirectFallback Outcome = iota
	// OutcomeContainerRun means the formatter ran inside the container.
	OutcomeContainerRun
)

// String returns a short name for the outcome.
func (o Outcome) String() string {
	if o == OutcomeContainerRun {
		return "container"
	}
	return "direct-fallback"
}

// Dispatcher runs the formatter over a change set.
type Dispatcher struct {
	// RepoRoot is the absolute repository root, mounted read-write into the
	// formatter container.
	RepoRoot string
	// Runtime is the resolved container runtime; nil selects the fallback.
	Runtime *container.Runtime
	// Guard decides whether the formatter image must be rebuilt.
	Guard *imagecache.Guard
	// Image is the formatter image tag.
	Image string
	// ContextDir is the image build context, relative to RepoRoot.
	ContextDir string
	// MountPath is where RepoRoot appears inside the container.
	MountPath string
	// Stdout and Stderr receive formatter and build output.
	Stdout io.Writer
	Stderr io.Writer
	// Logger receives fallback warnings and progress.
	Logger *log.Logger

	execCommand container.ExecCommandFunc
	lookPath    func(file string) (string, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithExecCommand sets a custom exec command function for testing.
// It covers the direct fallback and restore-tool invocations; the container
// engine carries its own seam.
func WithExecCommand(fn container.ExecCommandFunc) Option {
	return func(d *Dispatcher) {
		d.execCommand = fn
	}
}

// WithLookPath sets a custom binary lookup function for testing.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(d *Dispatcher) {
		d.lookPath = fn
	}
}

// NewDispatcher creates a Dispatcher. All fields of d are taken as-is; the
// exec seams default to the real ones.
func NewDispatcher(d Dispatcher, opts ...Option) *Dispatcher {
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.execCommand == nil {
		d.execCommand = exec.CommandContext
	}
	if d.lookPath == nil {
		d.lookPath = exec.LookPath
	}
	out := d
	for _, opt := range opts {
		opt(&out)
	}
	return &out
}

// Dispatch formats files, preferring the container path.
//
// With no usable runtime the formatter runs directly on the host over the
// given paths and the dispatch terminates there (DirectFallback). Otherwise
// the paths are translated to their in-container locations, the image is
// rebuilt when its build directory changed or the image went missing, the
// container runs with the repository mounted read-write, and the security
// context of the tree is restored afterwards when a restore tool is present.
func (d *Dispatcher) Dispatch(ctx context.Context, files vcs.ChangeSet) (Outcome, error) {
	if len(files) == 0 {
		d.Logger.Info("no files to format")
	}

	if d.Runtime == nil {
		d.Logger.Warn("no usable container runtime, running formatter directly; results are not guaranteed to match CI",
			"issue", issue.ContainerRuntimeNotFoundId)
		if err := d.runDirect(ctx, files); err != nil {
			return OutcomeDirectFallback, err
		}
		return OutcomeDirectFallback, nil
	}

	if err := d.runContainer(ctx, files); err != nil {
		return OutcomeContainerRun, err
	}
	return OutcomeContainerRun, nil
}

// runDirect invokes the host clang-format in place over files.
func (d *Dispatcher) runDirect(ctx context.Context, files vcs.ChangeSet) error {
	bin, err := d.lookPath(formatterBinary)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("run formatter").
			WithResource(formatterBinary).
			WithSuggestion("Install clang-format or a container runtime").
			Wrap(err).
			BuildError()
	}

	args := append([]string{"-i"}, files...)
	cmd := d.execCommand(ctx, bin, args...)
	cmd.Dir = d.RepoRoot
	cmd.Stdout = d.Stdout
	cmd.Stderr = d.Stderr

	if err := cmd.Run(); err != nil {
		// A non-zero exit here means clang-format wanted changes, which is
		// the whole point of running it. Only infrastructure failures count.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return issue.WrapWithOperation(err, "run formatter")
	}
	return nil
}

// runContainer builds the image when needed and formats inside it.
func (d *Dispatcher) runContainer(ctx context.Context, files vcs.ChangeSet) error {
	engine := d.Runtime.Engine

	translated := make([]string, len(files))
	for i, f := range files {
		translated[i] = path.Join(d.MountPath, filepath.ToSlash(f))
	}

	contextDir := filepath.Join(d.RepoRoot, d.ContextDir)
	stale, err := d.Guard.IsStale(contextDir)
	if err != nil {
		return issue.WrapWithOperation(err, "check formatter image cache")
	}
	if stale {
		if err := d.buildImage(ctx, contextDir); err != nil {
			return err
		}
	}

	// The cache can report fresh even though the image was removed behind
	// our back (pruned, daemon reset). Probe before trusting it.
	exists, err := engine.ImageExists(ctx, d.Image)
	if err != nil {
		return issue.WrapWithOperation(err, "probe formatter image")
	}
	if !exists {
		if err := d.buildImage(ctx, contextDir); err != nil {
			return err
		}
	}

	result, err := engine.Run(ctx, container.RunOptions{
		Image:   d.Image,
		Command: translated,
		Volumes: []string{d.RepoRoot + ":" + d.MountPath},
		Remove:  true,
		Stdout:  d.Stdout,
		Stderr:  d.Stderr,
	})
	if err != nil {
		return issue.WrapWithOperation(err, "run formatter container")
	}
	if result.Error != nil {
		return issue.WrapWithOperation(result.Error, "run formatter container")
	}
	// result.ExitCode is deliberately ignored: "changes needed" is not a
	// failure of the dispatch.

	d.restoreSecurityContext(ctx)
	return nil
}

// buildImage rebuilds the formatter image from contextDir.
func (d *Dispatcher) buildImage(ctx context.Context, contextDir string) error {
	d.Logger.Info("rebuilding formatter image", "image", d.Image, "context", contextDir)
	err := d.Runtime.Engine.Build(ctx, container.BuildOptions{
		ContextDir: contextDir,
		Tag:        d.Image,
		Stdout:     d.Stdout,
		Stderr:     d.Stderr,
	})
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("build formatter image").
			WithResource(contextDir).
			WithSuggestion("Check the Dockerfile under the formatter build directory").
			Wrap(err).
			BuildError()
	}
	return nil
}

// restoreSecurityContext fixes file security labels the read-write mount may
// have altered. Label damage is cosmetic on most setups, so failures only
// warn.
func (d *Dispatcher) restoreSecurityContext(ctx context.Context) {
	if d.Runtime.RestoreTool == "" {
		return
	}
	cmd := d.execCommand(ctx, d.Runtime.RestoreTool, "-R", d.RepoRoot)
	cmd.Stdout = d.Stdout
	cmd.Stderr = d.Stderr
	if err := cmd.Run(); err != nil {
		d.Logger.Warn("failed to restore security context", "tool", d.Runtime.RestoreTool, "err", err)
	}
}
