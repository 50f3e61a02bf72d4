// SPDX-License-Identifier: MPL-2.0

//go:build windows

package container

import (
	"context"
	"io"
	"os"
)

// RunInteractive is not available on Windows.
func (e *DockerEngine) RunInteractive(context.Context, RunOptions, *os.File, io.Writer) (*RunResult, error) {
	return nil, ErrInteractiveUnsupported
}
