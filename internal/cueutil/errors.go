// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// ErrFileTooLarge is the sentinel error wrapped by FileTooLargeError.
var ErrFileTooLarge = errors.New("file too large")

// FileTooLargeError is returned when a document exceeds the size limit.
type FileTooLargeError struct {
	Filename string
	Size     int64
	Max      int64
}

// Error implements the error interface.
func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%s: file size %d bytes exceeds maximum %d bytes", e.Filename, e.Size, e.Max)
}

// Unwrap returns ErrFileTooLarge for errors.Is() compatibility.
func (e *FileTooLargeError) Unwrap() error { return ErrFileTooLarge }

// CheckFileSize returns a *FileTooLargeError when data is longer than maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return &FileTooLargeError{Filename: filename, Size: int64(len(data)), Max: maxSize}
	}
	return nil
}

// FormatError turns a CUE error into "<file>: <path>: <message>" lines,
// one per underlying error. Non-CUE errors are wrapped with the file name.
func FormatError(err error, filename string) error {
	if err == nil {
		return nil
	}

	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", filename, err)
	}

	lines := make([]string, 0, len(list))
	for _, e := range list {
		path := formatPath(cueerrors.Path(e))
		msg := e.Error()
		// CUE repeats the path at the start of some messages.
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		if path != "" {
			msg = path + ": " + msg
		}
		lines = append(lines, msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filename, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filename, strings.Join(lines, "\n  "))
}

// formatPath renders ["docker_credentials", "0", "username"] as
// docker_credentials[0].username.
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
