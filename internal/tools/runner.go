// Package tools drives the external rollup deployment tools.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/compose-network/validator-bootstrap/internal/infra/docker"
	"github.com/compose-network/validator-bootstrap/internal/logger"
)

const hostNetwork = "host"

type (
	// Runner runs a command to completion and returns its combined output, also on failure.
	Runner interface {
		Run(ctx context.Context, argv []string) (string, error)
	}

	// ExecRunner runs commands as local subprocesses.
	ExecRunner struct {
		dir    string
		logger *slog.Logger
	}

	dockerClient interface {
		EnsureImage(ctx context.Context, imageName, dockerfilePath, contextPath string) error
		Run(ctx context.Context, opts docker.RunOptions) (string, error)
	}

	// DockerImage describes the image the tools run in.
	DockerImage struct {
		Name         string
		Dockerfile   string
		BuildContext string
		Workdir      string
	}

	// DockerRunner runs commands in a container with dir mounted at the image workdir. The
	// container shares the host network so that a node on localhost stays reachable.
	DockerRunner struct {
		client dockerClient
		image  DockerImage
		dir    string
		logger *slog.Logger

		// ensured is set once the image is available; failed attempts are retried.
		mu      sync.Mutex
		ensured bool
	}
)

func NewExecRunner(dir string) *ExecRunner {
	return &ExecRunner{dir: dir, logger: logger.Named("exec_runner")}
}

func (r *ExecRunner) Run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", errors.New("empty command")
	}

	r.logger.
		With("dir", r.dir).
		With("command", strings.Join(argv, " ")).
		Info("running command")

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("command '%s' failed: %w", argv[0], err)
	}

	r.logger.With("output", string(output)).Debug("command finished")

	return string(output), nil
}

func NewDockerRunner(client dockerClient, image DockerImage, dir string) (*DockerRunner, error) {
	abs, err := docker.HostPath(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tools dir %s: %w", dir, err)
	}

	return &DockerRunner{
		client: client,
		image:  image,
		dir:    abs,
		logger: logger.Named("docker_runner"),
	}, nil
}

func (r *DockerRunner) Run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", errors.New("empty command")
	}

	if err := r.ensureImage(ctx); err != nil {
		return "", fmt.Errorf("tool image %s is not available: %w", r.image.Name, err)
	}

	r.logger.
		With("image", r.image.Name).
		With("command", strings.Join(argv, " ")).
		Info("running command in container")

	output, err := r.client.Run(ctx, docker.RunOptions{
		Image:       r.image.Name,
		Cmd:         argv,
		Volumes:     map[string]string{r.dir: r.image.Workdir},
		WorkDir:     r.image.Workdir,
		NetworkMode: hostNetwork,
	})
	if err != nil {
		return output, fmt.Errorf("command '%s' failed: %w", argv[0], err)
	}

	return output, nil
}

func (r *DockerRunner) ensureImage(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ensured {
		return nil
	}
	if err := r.client.EnsureImage(ctx, r.image.Name, r.image.Dockerfile, r.image.BuildContext); err != nil {
		return err
	}
	r.ensured = true
	return nil
}
