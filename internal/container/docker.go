// SPDX-License-Identifier: MPL-2.0

package container

// DockerEngine implements the Engine interface using the Docker CLI.
// It embeds BaseCLIEngine for common CLI operations.
type DockerEngine struct {
	*BaseCLIEngine
}

// NewDockerEngine creates a Docker engine around the given binary path.
func NewDockerEngine(binaryPath string, opts ...BaseCLIEngineOption) *DockerEngine {
	allOpts := append([]BaseCLIEngineOption{WithName(string(EngineTypeDocker))}, opts...)
	return &DockerEngine{
		BaseCLIEngine: NewBaseCLIEngine(binaryPath, allOpts...),
	}
}
