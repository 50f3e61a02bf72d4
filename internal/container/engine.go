// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/duckietown/dt-build-utils/pkg/types"
)

const (
	// EngineTypeDocker is the only engine the launcher drives.
	EngineTypeDocker EngineType = "docker"
)

var (
	// ErrEngineNotAvailable is the sentinel error wrapped by EngineNotAvailableError.
	ErrEngineNotAvailable = errors.New("container engine not available")
	// ErrInvalidVolumeMount is the sentinel error wrapped by InvalidVolumeMountError.
	ErrInvalidVolumeMount = errors.New("invalid volume mount")
	// ErrInvalidRunOptions is the sentinel error wrapped by InvalidRunOptionsError.
	ErrInvalidRunOptions = errors.New("invalid run options")
	// ErrInteractiveUnsupported is returned by RunInteractive on platforms
	// without pseudo-terminals.
	ErrInteractiveUnsupported = errors.New("interactive runs are not supported on this platform")
)

type (
	// Engine defines the container operations used by the launcher.
	Engine interface {
		// Name returns the engine name.
		Name() string
		// Available checks if the engine binary can reach a daemon.
		Available() bool
		// Version returns the engine server version.
		Version(ctx context.Context) (string, error)

		// Login authenticates against a registry, passing the secret on stdin.
		Login(ctx context.Context, opts LoginOptions) error
		// Pull pulls an image.
		Pull(ctx context.Context, image string, stdout, stderr io.Writer) error
		// Run runs a container. Detached runs return as soon as the container
		// started and report its ID; attached runs report the exit code.
		Run(ctx context.Context, opts RunOptions) (*RunResult, error)
		// Logs copies the container output to w, following it until the
		// container exits when follow is set.
		Logs(ctx context.Context, id ContainerID, follow bool, w io.Writer) error
		// Wait blocks until the container exits and returns its exit code.
		Wait(ctx context.Context, id ContainerID) (types.ExitCode, error)
		// Remove removes a container.
		Remove(ctx context.Context, id ContainerID, force bool) error
	}

	// EngineType identifies the container engine type.
	EngineType string

	// ContainerID is the identifier printed by `docker run -d`.
	ContainerID string

	// LoginOptions contains the credentials for a registry login.
	LoginOptions struct {
		// Registry is the registry domain (e.g., "docker.io").
		Registry string
		// Username is the account name.
		Username string
		// Secret is the password or token. It is written to stdin, never to argv.
		Secret string
	}

	// VolumeMount is a bind mount from the host into the container.
	VolumeMount struct {
		HostPath      string
		ContainerPath string
		ReadOnly      bool
	}

	// InvalidVolumeMountError is returned when a VolumeMount has an empty host
	// path or a relative container path.
	InvalidVolumeMountError struct {
		Value  VolumeMount
		Reason string
	}

	// RunOptions contains options for running a container.
	RunOptions struct {
		// Image is the image to run.
		Image string
		// Command is the command passed after the image.
		Command []string
		// Entrypoint overrides the image entrypoint when set.
		Entrypoint string
		// Name is the container name.
		Name types.ContainerName
		// User is passed to --user (e.g., "1000:1000"); empty runs as the image user.
		User string
		// WorkDir is the working directory inside the container.
		WorkDir string
		// Env contains environment variables.
		Env map[string]string
		// Volumes are bind mounts.
		Volumes []VolumeMount
		// ReadOnly mounts the container root filesystem read-only.
		ReadOnly bool
		// Detach starts the container in the background (-d).
		Detach bool
		// Remove automatically removes the container after exit (--rm).
		Remove bool
		// Interactive keeps stdin open (-i).
		Interactive bool
		// TTY allocates a pseudo-TTY (-t).
		TTY bool
		// Stdin is the standard input of attached runs.
		Stdin io.Reader
		// Stdout is where attached runs write standard output.
		Stdout io.Writer
		// Stderr is where attached runs write standard error.
		Stderr io.Writer
	}

	// InvalidRunOptionsError is returned when RunOptions cannot produce a valid
	// docker run invocation.
	InvalidRunOptionsError struct {
		FieldErrors []error
	}

	// RunResult contains the result of running a container.
	RunResult struct {
		// ContainerID is set for detached runs.
		ContainerID ContainerID
		// ExitCode is set for attached runs.
		ExitCode types.ExitCode
	}

	// EngineNotAvailableError is returned when the docker binary is missing.
	EngineNotAvailableError struct {
		Engine string
		Reason string
	}
)

// String returns the string representation of the ContainerID.
func (id ContainerID) String() string { return string(id) }

// Short returns the 12-character prefix docker shows in `docker ps`.
func (id ContainerID) Short() string {
	if len(id) > 12 {
		return string(id[:12])
	}
	return string(id)
}

// String returns the mount in "host:container[:ro]" format.
func (v VolumeMount) String() string {
	s := v.HostPath + ":" + v.ContainerPath
	if v.ReadOnly {
		s += ":ro"
	}
	return s
}

// Validate returns an error if the host path is empty or the container path
// is not absolute.
func (v VolumeMount) Validate() error {
	if strings.TrimSpace(v.HostPath) == "" {
		return &InvalidVolumeMountError{Value: v, Reason: "host path must be non-empty"}
	}
	if !path.IsAbs(v.ContainerPath) {
		return &InvalidVolumeMountError{Value: v, Reason: "container path must be absolute"}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidVolumeMountError) Error() string {
	return fmt.Sprintf("invalid volume mount %q: %s", e.Value.String(), e.Reason)
}

// Unwrap returns ErrInvalidVolumeMount for errors.Is() compatibility.
func (e *InvalidVolumeMountError) Unwrap() error { return ErrInvalidVolumeMount }

// Validate checks the image, the container name and every volume.
func (o RunOptions) Validate() error {
	var errs []error
	if strings.TrimSpace(o.Image) == "" {
		errs = append(errs, errors.New("image must be non-empty"))
	}
	if o.Name != "" {
		if err := o.Name.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, v := range o.Volumes {
		if err := v.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if o.Detach && o.Remove {
		errs = append(errs, errors.New("detached containers are removed explicitly, not with --rm"))
	}
	if len(errs) > 0 {
		return &InvalidRunOptionsError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidRunOptionsError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return "invalid run options: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidRunOptions and the field errors.
func (e *InvalidRunOptionsError) Unwrap() []error {
	return append([]error{ErrInvalidRunOptions}, e.FieldErrors...)
}

// Error implements the error interface.
func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrEngineNotAvailable for errors.Is() compatibility.
func (e *EngineNotAvailableError) Unwrap() error { return ErrEngineNotAvailable }
