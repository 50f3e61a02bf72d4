// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/duckietown/dt-build-utils/pkg/miscutils"
)

type (
	// SudoOpenFunc opens path for writing with elevated privileges.
	SudoOpenFunc func(path, mode string) (io.WriteCloser, error)

	// logFile counts the bytes written to the run log.
	logFile struct {
		w    io.WriteCloser
		path string
		n    int64
	}
)

func sudoOpen(path, mode string) (io.WriteCloser, error) {
	f, err := miscutils.SudoOpen(path, mode)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// openLogFile creates the run log and its parent directories. When the
// current user may not write there, the file is opened through sudo.
func openLogFile(path string, elevated SudoOpenFunc) (*logFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, fs.ErrPermission) {
		return nil, fmt.Errorf("%w: %w", ErrLogFileUnavailable, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err == nil {
		return &logFile{w: f, path: path}, nil
	}
	if !errors.Is(err, fs.ErrPermission) {
		return nil, fmt.Errorf("%w: %w", ErrLogFileUnavailable, err)
	}

	w, sudoErr := elevated(path, "w")
	if sudoErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogFileUnavailable, errors.Join(err, sudoErr))
	}
	return &logFile{w: w, path: path}, nil
}

func (f *logFile) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	f.n += int64(n)
	return n, err
}

func (f *logFile) Close() error { return f.w.Close() }

// Size returns the number of bytes written so far.
func (f *logFile) Size() int64 { return f.n }
