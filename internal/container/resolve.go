// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/log"
)

// Runtime is a resolved, probed container runtime invocation. An absent
// runtime is represented by a nil *Runtime; that is a valid, non-error state
// that callers handle with a fallback path.
type Runtime struct {
	// Engine is the usable container engine, elevation already applied.
	Engine Engine
	// RestoreTool is the path to the SELinux security-context restore tool
	// (restorecon), or empty when none was found. Populated on Linux only.
	RestoreTool string
}

// ResolveOptions controls runtime resolution.
type ResolveOptions struct {
	// AllowElevation prefixes runtime invocations with sudo when true.
	AllowElevation bool
	// Logger receives debug output about the resolution steps.
	Logger *log.Logger
	// EngineOptions are passed through to the engine constructors.
	// Tests use this to inject a mock exec seam.
	EngineOptions []BaseCLIEngineOption
	// LookPath is the binary lookup seam; defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

// ResolveRuntime locates a usable container runtime: docker first, then
// podman. Each candidate found on the search path is probed by listing its
// images; a probe failure of any kind (missing daemon, permissions, broken
// install) demotes the candidate, converting every runtime malfunction into
// the caller's fallback path. Returns nil when nothing usable exists.
func ResolveRuntime(ctx context.Context, opts ResolveOptions) *Runtime {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	engineOpts := opts.EngineOptions
	if opts.AllowElevation {
		if sudo, err := lookPath("sudo"); err == nil {
			engineOpts = append([]BaseCLIEngineOption{WithElevation(sudo)}, engineOpts...)
		}
	}

	var candidates []Engine
	for _, typ := range []EngineType{EngineTypeDocker, EngineTypePodman} {
		path, err := lookPath(string(typ))
		if err != nil || path == "" {
			continue
		}
		switch typ {
		case EngineTypeDocker:
			candidates = append(candidates, NewDockerEngine(path, engineOpts...))
		case EngineTypePodman:
			candidates = append(candidates, NewPodmanEngine(path, engineOpts...))
		}
	}

	for _, engine := range candidates {
		if err := engine.ListImages(ctx); err != nil {
			logger.Debug("container runtime failed liveness probe",
				"engine", engine.Name(), "err", err)
			continue
		}

		rt := &Runtime{Engine: engine}
		if runtime.GOOS == "linux" {
			if path, err := lookPath("restorecon"); err == nil {
				rt.RestoreTool = path
			}
		}
		logger.Debug("resolved container runtime", "engine", engine.Name())
		return rt
	}

	return nil
}
