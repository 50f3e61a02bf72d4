// SPDX-License-Identifier: MPL-2.0

// Package types defines small value types shared by the launcher, the
// container engine and the CLI. It imports only the standard library.
package types

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// maxExitCode is the largest status a POSIX process can report.
	maxExitCode ExitCode = 255
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode represents a process or container exit status code.
	// Exit codes are in the range 0-255 on POSIX systems.
	// The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range (0-255).
func (c ExitCode) Validate() error {
	if c < 0 || c > maxExitCode {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// ProcessCode maps c onto a status this process can exit with.
// Zero stays zero; any failure, including values docker reports outside
// 0-255 (e.g. -1 for a killed daemon connection), becomes a non-zero code
// in 1-255.
func (c ExitCode) ProcessCode() int {
	switch {
	case c == 0:
		return 0
	case c > 0 && c <= maxExitCode:
		return int(c)
	case c > maxExitCode && c%256 != 0:
		return int(c % 256)
	default:
		return 1
	}
}

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
