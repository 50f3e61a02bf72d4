// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidContainerName is the sentinel error wrapped by InvalidContainerNameError.
var ErrInvalidContainerName = errors.New("invalid container name")

// containerNamePattern is the name grammar accepted by the Docker daemon.
var containerNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]+$`)

type (
	// ContainerName is the name given to a container with `docker run --name`.
	// The zero value is invalid.
	ContainerName string

	// InvalidContainerNameError is returned when a ContainerName does not match
	// the Docker name grammar.
	InvalidContainerNameError struct {
		Value ContainerName
	}
)

// String returns the string representation of the ContainerName.
func (n ContainerName) String() string { return string(n) }

// Validate returns an error if the name would be rejected by the Docker daemon.
func (n ContainerName) Validate() error {
	if !containerNamePattern.MatchString(string(n)) {
		return &InvalidContainerNameError{Value: n}
	}
	return nil
}

// Error implements the error interface for InvalidContainerNameError.
func (e *InvalidContainerNameError) Error() string {
	return fmt.Sprintf("invalid container name %q: must match %s", e.Value, containerNamePattern)
}

// Unwrap returns ErrInvalidContainerName for errors.Is() compatibility.
func (e *InvalidContainerNameError) Unwrap() error { return ErrInvalidContainerName }
