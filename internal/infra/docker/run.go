package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
)

type (
	RunOptions struct {
		Image       string
		Cmd         []string
		Env         []string
		Volumes     map[string]string // host:container
		WorkDir     string
		User        string
		NetworkMode string
		AutoRemove  bool
		// Stream, when set, receives the container output as it is produced.
		Stream io.Writer
	}

	// ExitError is returned by Run when the container exits with a non-zero code.
	ExitError struct {
		Code int64
	}
)

func (e *ExitError) Error() string {
	return fmt.Sprintf("container exited with code %d", e.Code)
}

// Run runs a Docker container, waits for it to complete and returns its combined output.
// The output is returned on failure too.
func (c *Client) Run(ctx context.Context, opts RunOptions) (output string, err error) {
	config := &container.Config{
		Image:      opts.Image,
		Cmd:        opts.Cmd,
		Env:        opts.Env,
		WorkingDir: opts.WorkDir,
		User:       opts.User,
	}

	hostConfig := &container.HostConfig{
		AutoRemove:  opts.AutoRemove,
		Binds:       binds(opts.Volumes),
		NetworkMode: container.NetworkMode(opts.NetworkMode),
	}

	resp, err := c.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}

	containerID := resp.ID
	c.logger.With("container_id", containerID).With("image", opts.Image).Debug("container created")

	defer func() {
		if err != nil && !opts.AutoRemove {
			_ = c.cli.ContainerRemove(context.WithoutCancel(ctx), containerID, container.RemoveOptions{Force: true})
		}
	}()

	// Attach before starting so that output of short lived containers is not lost.
	attachResp, err := c.cli.ContainerAttach(ctx, containerID, container.AttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to attach to container: %w", err)
	}
	defer attachResp.Close()

	var combined bytes.Buffer
	var sink io.Writer = &combined
	if opts.Stream != nil {
		sink = io.MultiWriter(&combined, opts.Stream)
	}
	copied := make(chan struct{})
	go func() {
		defer close(copied)
		_, _ = stdcopy.StdCopy(sink, sink, attachResp.Reader)
	}()

	if err = c.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start container: %w", err)
	}

	statusCh, errCh := c.cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case waitErr := <-errCh:
		if waitErr != nil {
			err = fmt.Errorf("error waiting for container: %w", waitErr)
			return "", err
		}
	case status := <-statusCh:
		<-copied
		if status.StatusCode != 0 {
			err = &ExitError{Code: status.StatusCode}
			return combined.String(), err
		}
	}

	if !opts.AutoRemove {
		if rmErr := c.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{}); rmErr != nil {
			c.logger.With("container_id", containerID).With("err", rmErr).Warn("failed to remove container")
		}
	}

	return combined.String(), nil
}

func binds(volumes map[string]string) []string {
	if len(volumes) == 0 {
		return nil
	}

	out := make([]string, 0, len(volumes))
	for host, containerPath := range volumes {
		out = append(out, fmt.Sprintf("%s:%s", host, containerPath))
	}
	sort.Strings(out)

	return out
}
