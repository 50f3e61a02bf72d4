// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

// ErrDockerUnavailable is the sentinel error wrapped by DockerUnavailableError.
var ErrDockerUnavailable = errors.New("docker daemon not reachable")

type (
	// DaemonAPI is the subset of the Docker SDK client used by Environment.
	DaemonAPI interface {
		Ping(ctx context.Context) (dockertypes.Ping, error)
		ServerVersion(ctx context.Context) (dockertypes.Version, error)
		DaemonHost() string
		Close() error
	}

	// Environment checks the Docker daemon through the Docker SDK.
	Environment struct {
		api DaemonAPI
	}

	// DockerUnavailableError is returned when the daemon does not answer a ping.
	DockerUnavailableError struct {
		Host string
		Err  error
	}
)

// Error implements the error interface.
func (e *DockerUnavailableError) Error() string {
	return fmt.Sprintf("cannot reach the docker daemon at %s: %v", e.Host, e.Err)
}

// Unwrap returns ErrDockerUnavailable and the underlying error.
func (e *DockerUnavailableError) Unwrap() []error { return []error{ErrDockerUnavailable, e.Err} }

// NewEnvironment creates an Environment from the standard DOCKER_* variables.
// A non-empty host overrides DOCKER_HOST.
func NewEnvironment(host string) (*Environment, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}
	return &Environment{api: cli}, nil
}

// NewEnvironmentWithAPI creates an Environment over an existing client.
func NewEnvironmentWithAPI(api DaemonAPI) *Environment {
	return &Environment{api: api}
}

// Host returns the daemon address the client talks to.
func (e *Environment) Host() string {
	return e.api.DaemonHost()
}

// Check pings the daemon.
func (e *Environment) Check(ctx context.Context) error {
	if _, err := e.api.Ping(ctx); err != nil {
		return &DockerUnavailableError{Host: e.api.DaemonHost(), Err: err}
	}
	return nil
}

// ServerVersion returns the engine version reported by the daemon
// (e.g., "28.5.1").
func (e *Environment) ServerVersion(ctx context.Context) (string, error) {
	v, err := e.api.ServerVersion(ctx)
	if err != nil {
		return "", &DockerUnavailableError{Host: e.api.DaemonHost(), Err: err}
	}
	version := strings.TrimSpace(v.Version)
	if version == "" {
		return "", fmt.Errorf("docker daemon at %s did not report a version", e.api.DaemonHost())
	}
	return version, nil
}

// Close releases the client connection.
func (e *Environment) Close() error {
	return e.api.Close()
}
