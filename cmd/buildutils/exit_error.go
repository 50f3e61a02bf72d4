// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/duckietown/dt-build-utils/pkg/types"
)

// ExitError carries the container return code out of a RunE handler so
// Execute can use it as the process exit status.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the message of the wrapped error, or the exit status.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeFor maps the error returned by the root command to the process
// exit status: 0 for nil, the container return code for an *ExitError and 1
// for everything else.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code.ProcessCode()
	}
	return 1
}
