// SPDX-License-Identifier: MPL-2.0

package container

// PodmanEngine implements the Engine interface using the Podman CLI.
// It embeds BaseCLIEngine for common CLI operations.
type PodmanEngine struct {
	*BaseCLIEngine
}

// NewPodmanEngine creates a Podman engine around the given binary path.
func NewPodmanEngine(binaryPath string, opts ...BaseCLIEngineOption) *PodmanEngine {
	allOpts := append([]BaseCLIEngineOption{WithName(string(EngineTypePodman))}, opts...)
	return &PodmanEngine{
		BaseCLIEngine: NewBaseCLIEngine(binaryPath, allOpts...),
	}
}
