// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"errors"
	"fmt"

	"github.com/duckietown/dt-build-utils/pkg/types"
)

var (
	// ErrVersionMismatch is the sentinel error wrapped by VersionMismatchError.
	ErrVersionMismatch = errors.New("required tool version not met")
	// ErrContainerFailed is the sentinel error wrapped by ContainerFailureError.
	ErrContainerFailed = errors.New("container execution failed")
	// ErrUnsetVariable is the sentinel error wrapped by UnsetVariableError.
	ErrUnsetVariable = errors.New("image reference uses an unset variable")
	// ErrInvalidImage is returned when the expanded image reference cannot be parsed.
	ErrInvalidImage = errors.New("invalid image reference")
	// ErrPullFailed is returned when docker pull fails.
	ErrPullFailed = errors.New("image pull failed")
	// ErrLogFileUnavailable is returned when the run log cannot be created.
	ErrLogFileUnavailable = errors.New("log file unavailable")
)

type (
	// VersionMismatchError is returned when a required tool is older than
	// the minimum supported version.
	VersionMismatchError struct {
		Tool    string
		Found   string
		Minimum string
	}

	// ContainerFailureError is returned when the container exits with a
	// non-zero return code.
	ContainerFailureError struct {
		RetCode types.ExitCode
		LogPath string
	}

	// UnsetVariableError is returned when an image reference refers to an
	// environment variable with no value.
	UnsetVariableError struct {
		Image     string
		Variables []string
	}
)

// Error implements the error interface.
func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("%s version %s is not supported, version %s or newer is required", e.Tool, e.Found, e.Minimum)
}

// Unwrap returns ErrVersionMismatch for errors.Is() compatibility.
func (e *VersionMismatchError) Unwrap() error { return ErrVersionMismatch }

// Error implements the error interface.
func (e *ContainerFailureError) Error() string {
	return fmt.Sprintf("Execution of docker image failed. Return code: %d.\n\nThe log is available at %s", int(e.RetCode), e.LogPath)
}

// Unwrap returns ErrContainerFailed for errors.Is() compatibility.
func (e *ContainerFailureError) Unwrap() error { return ErrContainerFailed }

// Error implements the error interface.
func (e *UnsetVariableError) Error() string {
	return fmt.Sprintf("image %q references unset variable(s) %v", e.Image, e.Variables)
}

// Unwrap returns ErrUnsetVariable for errors.Is() compatibility.
func (e *UnsetVariableError) Unwrap() error { return ErrUnsetVariable }
