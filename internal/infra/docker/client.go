package docker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/compose-network/validator-bootstrap/internal/logger"
	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/moby/go-archive"
)

type Client struct {
	cli    *client.Client
	logger *slog.Logger
}

// New creates a new Docker client.
func New() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return &Client{cli: cli, logger: logger.Named("docker_client")}, nil
}

// Close closes the Docker client connection.
func (c *Client) Close() error {
	return c.cli.Close()
}

// ImageExists checks if a Docker image exists locally.
func (c *Client) ImageExists(ctx context.Context, imageName string) (bool, error) {
	_, err := c.cli.ImageInspect(ctx, imageName)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// PullImage pulls a Docker image from a registry.
func (c *Client) PullImage(ctx context.Context, imageName string) error {
	c.logger.With("image", imageName).Info("pulling docker image")

	resp, err := c.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer resp.Close()

	if err := c.drainProgress(resp, "pull"); err != nil {
		return err
	}

	c.logger.With("image", imageName).Info("docker image pulled successfully")
	return nil
}

// BuildImage builds a Docker image from a Dockerfile relative to contextPath.
func (c *Client) BuildImage(ctx context.Context, dockerfilePath, contextPath, tag string) error {
	c.logger.With("tag", tag).With("dockerfile", dockerfilePath).Info("building docker image")

	buildContext, err := archive.TarWithOptions(contextPath, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("failed to create build context: %w", err)
	}
	defer buildContext.Close()

	resp, err := c.cli.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags:       []string{tag},
		Dockerfile: dockerfilePath,
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to build image: %w", err)
	}
	defer resp.Body.Close()

	if err := c.drainProgress(resp.Body, "build"); err != nil {
		return err
	}

	c.logger.With("tag", tag).Info("docker image built successfully")
	return nil
}

// EnsureImage makes imageName available locally. It is built from dockerfilePath when one is
// given and pulled otherwise.
func (c *Client) EnsureImage(ctx context.Context, imageName, dockerfilePath, contextPath string) error {
	exists, err := c.ImageExists(ctx, imageName)
	if err != nil {
		return fmt.Errorf("failed to inspect image %s: %w", imageName, err)
	}
	if exists {
		return nil
	}

	if dockerfilePath != "" {
		return c.BuildImage(ctx, dockerfilePath, contextPath, imageName)
	}
	return c.PullImage(ctx, imageName)
}

// drainProgress consumes a JSON message stream of the daemon and returns the last error
// message it carried.
func (c *Client) drainProgress(stream io.Reader, operation string) error {
	scanner := bufio.NewScanner(stream)
	var streamErr error
	for scanner.Scan() {
		line := scanner.Text()
		c.logger.Debug(line)

		if msg := progressError(line); msg != "" {
			streamErr = fmt.Errorf("%s failed: %s", operation, msg)
			c.logger.Error("docker "+operation+" error", "error", msg)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading %s output: %w", operation, err)
	}

	return streamErr
}

func progressError(line string) string {
	var msg struct {
		Error       string `json:"error"`
		ErrorDetail struct {
			Message string `json:"message"`
		} `json:"errorDetail"`
	}
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return ""
	}
	if msg.Error != "" {
		return msg.Error
	}
	return msg.ErrorDetail.Message
}
