// SPDX-License-Identifier: MPL-2.0

package miscutils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

const (
	// sudoBinary is the privilege escalation command.
	sudoBinary = "sudo"
	// readTool copies the file to the child's stdout.
	readTool = "cat"
	// writeTool copies the child's stdin to the file.
	writeTool = "tee"
)

var (
	// ErrInvalidMode is the sentinel error wrapped by InvalidModeError.
	ErrInvalidMode = errors.New("invalid open mode")
	// ErrMissingTool is the sentinel error wrapped by MissingToolError.
	ErrMissingTool = errors.New("required tool not found")
	// ErrWrongDirection is returned by Read on a write handle and by Write on a read handle.
	ErrWrongDirection = errors.New("operation not supported by open mode")

	// DefaultOpener resolves tools on PATH and spawns real processes.
	DefaultOpener = &SudoOpener{}
)

type (
	// InvalidModeError is returned when SudoOpen is called with a mode other
	// than r, w, rb or wb.
	InvalidModeError struct {
		Mode string
	}

	// MissingToolError is returned when cat or tee cannot be found on PATH.
	MissingToolError struct {
		Tool string
	}

	// LookPathFunc resolves a binary name to a path.
	LookPathFunc func(file string) (string, error)

	// CommandFunc creates the child process command.
	CommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// SudoOpener spawns sudo-wrapped cat/tee processes. The zero value uses
	// exec.LookPath and exec.CommandContext.
	SudoOpener struct {
		LookPath LookPathFunc
		Command  CommandFunc
	}

	// PrivilegedFile is a file opened through sudo. It owns the child process:
	// Close releases the pipe and waits for the child to exit.
	PrivilegedFile struct {
		path   string
		write  bool
		cmd    *exec.Cmd
		stdout io.ReadCloser
		stdin  io.WriteCloser
		stderr *bytes.Buffer

		eof       bool
		closeOnce sync.Once
		closeErr  error
	}
)

// Error implements the error interface.
func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("mode '%s' not supported (valid: r, w, rb, wb)", e.Mode)
}

// Unwrap returns ErrInvalidMode for errors.Is() compatibility.
func (e *InvalidModeError) Unwrap() error { return ErrInvalidMode }

// Error implements the error interface.
func (e *MissingToolError) Error() string {
	return fmt.Sprintf("the command `%s` could not be found, please install it first", e.Tool)
}

// Unwrap returns ErrMissingTool for errors.Is() compatibility.
func (e *MissingToolError) Unwrap() error { return ErrMissingTool }

// SudoOpen opens path with elevated privileges using DefaultOpener.
//
// Mode must be "r" or "rb" (read through `sudo cat <path>`) or "w" or "wb"
// (write through `sudo tee <path>`). The caller must Close the returned file.
func SudoOpen(path, mode string) (*PrivilegedFile, error) {
	return DefaultOpener.Open(context.Background(), path, mode)
}

// Open spawns `sudo cat <path>` or `sudo tee <path>` depending on mode.
// Canceling ctx kills the child process.
func (o *SudoOpener) Open(ctx context.Context, path, mode string) (*PrivilegedFile, error) {
	var write bool
	switch mode {
	case "r", "rb":
	case "w", "wb":
		write = true
	default:
		return nil, &InvalidModeError{Mode: mode}
	}

	tool := readTool
	if write {
		tool = writeTool
	}

	lookPath := o.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath(tool); err != nil {
		return nil, &MissingToolError{Tool: tool}
	}

	command := o.Command
	if command == nil {
		command = exec.CommandContext
	}

	f := &PrivilegedFile{
		path:   path,
		write:  write,
		cmd:    command(ctx, sudoBinary, tool, path),
		stderr: &bytes.Buffer{},
	}
	f.cmd.Stderr = f.stderr

	var err error
	if write {
		// tee echoes its input; nobody reads it.
		f.cmd.Stdout = io.Discard
		f.stdin, err = f.cmd.StdinPipe()
	} else {
		f.stdout, err = f.cmd.StdoutPipe()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe for %s %s: %w", sudoBinary, tool, err)
	}

	if err := f.cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s %s %s: %w", sudoBinary, tool, path, err)
	}

	return f, nil
}

// Path returns the path of the opened file.
func (f *PrivilegedFile) Path() string { return f.path }

// Read reads from the child's standard output. It fails on write handles.
func (f *PrivilegedFile) Read(p []byte) (int, error) {
	if f.write {
		return 0, ErrWrongDirection
	}
	n, err := f.stdout.Read(p)
	if errors.Is(err, io.EOF) {
		f.eof = true
	}
	return n, err
}

// Write writes to the child's standard input. It fails on read handles.
func (f *PrivilegedFile) Write(p []byte) (int, error) {
	if !f.write {
		return 0, ErrWrongDirection
	}
	return f.stdin.Write(p)
}

// Close closes the pipe and waits for the child process to exit.
// A read handle closed before EOF stops the child without reporting its
// broken-pipe exit. Close is safe to call more than once.
func (f *PrivilegedFile) Close() error {
	f.closeOnce.Do(func() {
		var pipeErr error
		if f.write {
			pipeErr = f.stdin.Close()
		} else {
			pipeErr = f.stdout.Close()
		}

		waitErr := f.cmd.Wait()
		if waitErr != nil && !f.write && !f.eof {
			waitErr = nil
		}
		if waitErr != nil {
			f.closeErr = fmt.Errorf("%s: %s: %w", strings.Join(f.cmd.Args, " "), f.stderrText(), waitErr)
			return
		}
		if pipeErr != nil && !errors.Is(pipeErr, os.ErrClosed) {
			f.closeErr = pipeErr
		}
	})
	return f.closeErr
}

func (f *PrivilegedFile) stderrText() string {
	msg := strings.TrimSpace(f.stderr.String())
	if msg == "" {
		return "failed"
	}
	return msg
}
