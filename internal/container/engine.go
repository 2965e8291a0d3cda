// SPDX-License-Identifier: MPL-2.0

// Package container provides an abstraction layer for the container
// runtimes (Docker/Podman) used to sandbox the formatter.
package container

import (
	"context"
	"io"

	"nssdev/pkg/types"
)

// Engine defines the interface for container operations.
type Engine interface {
	// Name returns the engine name (docker or podman).
	Name() string
	// Available checks if the engine binary is present on the system.
	Available() bool
	// Build builds an image from a Dockerfile.
	Build(ctx context.Context, opts BuildOptions) error
	// Run runs a command in a container.
	Run(ctx context.Context, opts RunOptions) (*RunResult, error)
	// ImageExists checks if an image exists locally.
	ImageExists(ctx context.Context, image string) (bool, error)
	// ListImages lists local images. It doubles as the liveness probe: a
	// failure means the runtime daemon is not usable, whatever the cause.
	ListImages(ctx context.Context) error
}

// BuildOptions contains options for building an image.
type BuildOptions struct {
	// ContextDir is the build context directory.
	ContextDir string
	// Tag is the image tag.
	Tag string
	// Stdout is where to write build output.
	Stdout io.Writer
	// Stderr is where to write build errors.
	Stderr io.Writer
}

// RunOptions contains options for running a container.
type RunOptions struct {
	// Image is the image to run.
	Image string
	// Command is the command (or entrypoint arguments) to run.
	Command []string
	// Env contains environment variables.
	Env map[string]string
	// Volumes are volume mounts in "host:container[:opts]" format.
	Volumes []string
	// Remove automatically removes the container after exit.
	Remove bool
	// Stdout is where to write standard output.
	Stdout io.Writer
	// Stderr is where to write standard error.
	Stderr io.Writer
}

// RunResult contains the result of running a container.
// A non-zero exit code from the containerized command lands in ExitCode;
// Error is reserved for infrastructure failures.
type RunResult struct {
	ExitCode types.ExitCode
	Error    error
}

// EngineType identifies the container engine type.
type EngineType string

const (
	EngineTypeDocker EngineType = "docker"
	EngineTypePodman EngineType = "podman"
)
