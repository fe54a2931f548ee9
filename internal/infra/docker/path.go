package docker

import (
	"os"
	"path/filepath"
	"strings"
)

// HostProjectPathEnv names the host directory mounted at /workspace when the bootstrap itself
// runs in a container.
const HostProjectPathEnv = "HOST_PROJECT_PATH"

const containerWorkspace = "/workspace"

// HostPath converts path to the path the Docker daemon sees, so that it can be bind mounted
// into a sibling container.
//
// Without HOST_PROJECT_PATH the absolute path is returned. With it, paths below /workspace
// are rebased onto HOST_PROJECT_PATH and other paths pass through unchanged.
func HostPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	hostProjectPath := os.Getenv(HostProjectPathEnv)
	if hostProjectPath == "" {
		return absPath, nil
	}

	if after, ok := strings.CutPrefix(absPath, containerWorkspace+"/"); ok {
		return filepath.Join(hostProjectPath, after), nil
	}
	if absPath == containerWorkspace {
		return hostProjectPath, nil
	}

	return absPath, nil
}
