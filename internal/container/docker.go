// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/duckietown/dt-build-utils/pkg/types"
)

// DockerEngine implements the Engine interface using Docker CLI.
// It embeds BaseCLIEngine for common CLI operations.
type DockerEngine struct {
	*BaseCLIEngine
}

// NewDockerEngine creates a new Docker engine.
func NewDockerEngine(opts ...BaseCLIEngineOption) *DockerEngine {
	path, _ := exec.LookPath("docker")
	return &DockerEngine{
		BaseCLIEngine: NewBaseCLIEngine(path, opts...),
	}
}

// Name returns the engine name.
func (e *DockerEngine) Name() string {
	return string(EngineTypeDocker)
}

// Available checks if Docker is available.
func (e *DockerEngine) Available() bool {
	if e.BinaryPath() == "" {
		return false
	}
	cmd := e.CreateCommand(context.Background(), "version", "--format", "{{.Server.Version}}")
	return cmd.Run() == nil
}

// Version returns the Docker server version.
func (e *DockerEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "version", "--format", "{{.Server.Version}}")
	if err != nil {
		return "", fmt.Errorf("failed to get docker version: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Login logs into a registry. The secret is passed on stdin so it never shows
// up in the process list.
func (e *DockerEngine) Login(ctx context.Context, opts LoginOptions) error {
	if e.BinaryPath() == "" {
		return &EngineNotAvailableError{Engine: e.Name(), Reason: "docker binary not found in PATH"}
	}
	cmd := e.CreateCommand(ctx, e.LoginArgs(opts)...)
	cmd.Stdin = strings.NewReader(opts.Secret)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to log into %s as %s: %s: %w", opts.Registry, opts.Username, strings.TrimSpace(string(out)), err)
	}
	return nil
}

// Pull pulls an image, streaming progress to stdout and stderr.
func (e *DockerEngine) Pull(ctx context.Context, image string, stdout, stderr io.Writer) error {
	if e.BinaryPath() == "" {
		return &EngineNotAvailableError{Engine: e.Name(), Reason: "docker binary not found in PATH"}
	}
	cmd := e.CreateCommand(ctx, e.PullArgs(image)...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to pull %s: %w", image, err)
	}
	return nil
}

// Run runs a container. A detached run returns the container ID printed by
// docker; an attached run returns the container exit code.
func (e *DockerEngine) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if e.BinaryPath() == "" {
		return nil, &EngineNotAvailableError{Engine: e.Name(), Reason: "docker binary not found in PATH"}
	}

	args := e.RunArgs(opts)

	if opts.Detach {
		out, err := e.RunCommand(ctx, args...)
		if err != nil {
			return nil, err
		}
		id := ContainerID(strings.TrimSpace(string(out)))
		if id == "" {
			return nil, fmt.Errorf("docker run -d did not print a container ID")
		}
		return &RunResult{ContainerID: id}, nil
	}

	cmd := e.CreateCommand(ctx, args...)
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	return exitResult(cmd.Run())
}

// Logs copies the container output (stdout and stderr) to w.
func (e *DockerEngine) Logs(ctx context.Context, id ContainerID, follow bool, w io.Writer) error {
	cmd := e.CreateCommand(ctx, e.LogsArgs(id, follow)...)
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("failed to read logs of %s: %w", id.Short(), err)
	}
	return nil
}

// Wait blocks until the container exits and returns its exit code.
func (e *DockerEngine) Wait(ctx context.Context, id ContainerID) (types.ExitCode, error) {
	out, err := e.RunCommandWithOutput(ctx, e.WaitArgs(id)...)
	if err != nil {
		return -1, fmt.Errorf("failed to wait for container: %w", err)
	}

	// docker wait prints one line per container.
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	code, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return -1, fmt.Errorf("failed to parse exit code %q: %w", line, err)
	}
	return types.ExitCode(code), nil
}

// Remove removes a container.
func (e *DockerEngine) Remove(ctx context.Context, id ContainerID, force bool) error {
	_, err := e.RunCommandCombined(ctx, e.RemoveArgs(id, force)...)
	return err
}

// exitResult turns the error of an attached run into a RunResult.
// A non-zero exit is reported through ExitCode, not as an error.
func exitResult(err error) (*RunResult, error) {
	if err == nil {
		return &RunResult{}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &RunResult{ExitCode: types.ExitCode(exitErr.ExitCode())}, nil
	}
	return nil, err
}

var _ Engine = (*DockerEngine)(nil)
