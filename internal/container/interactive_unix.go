// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package container

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// RunInteractive runs the container attached to a pseudo-terminal. When stdin
// is a terminal it is switched to raw mode for the duration of the run and
// window size changes are forwarded. Everything the container prints is
// copied to out.
//
// Input is forwarded by a goroutine reading stdin. If stdin supports read
// deadlines (pipes, sockets) that goroutine has exited when RunInteractive
// returns. A terminal usually does not: there the goroutine stays blocked
// until the next read from stdin returns, and that input is lost. Callers
// that outlive the run should not pass a terminal they keep reading from.
func (e *DockerEngine) RunInteractive(ctx context.Context, opts RunOptions, stdin *os.File, out io.Writer) (*RunResult, error) {
	opts.Detach = false
	opts.Interactive = true
	opts.TTY = true
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if e.BinaryPath() == "" {
		return nil, &EngineNotAvailableError{Engine: e.Name(), Reason: "docker binary not found in PATH"}
	}

	cmd := e.CreateCommand(ctx, e.RunArgs(opts)...)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ptmx.Close() }()

	if fd, ok := terminalFd(stdin); ok {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return nil, err
		}
		defer func() { _ = term.Restore(fd, oldState) }()

		resize := make(chan os.Signal, 1)
		signal.Notify(resize, syscall.SIGWINCH)
		defer func() { signal.Stop(resize); close(resize) }()
		go func() {
			for range resize {
				_ = pty.InheritSize(stdin, ptmx)
			}
		}()
		resize <- syscall.SIGWINCH
	}

	copied := make(chan struct{})
	go func() {
		defer close(copied)
		_, _ = io.Copy(ptmx, stdin)
	}()

	// Reading the master fails with EIO once the container side is closed.
	_, copyErr := io.Copy(out, ptmx)
	waitErr := cmd.Wait()
	_ = ptmx.Close()
	stopStdinCopy(stdin, copied)

	if copyErr != nil && !errors.Is(copyErr, syscall.EIO) {
		return nil, copyErr
	}
	return exitResult(waitErr)
}

// terminalFd returns the descriptor of f when it is a terminal. It avoids
// f.Fd(), which would switch f to blocking mode and disable read deadlines.
func terminalFd(f *os.File) (int, bool) {
	rc, err := f.SyscallConn()
	if err != nil {
		return 0, false
	}
	fd := -1
	if err := rc.Control(func(u uintptr) { fd = int(u) }); err != nil {
		return 0, false
	}
	return fd, term.IsTerminal(fd)
}

// stopStdinCopy interrupts the pending read of the stdin copier and waits for
// it to finish. It returns at once when stdin has no deadline support.
func stopStdinCopy(stdin *os.File, done <-chan struct{}) {
	if err := stdin.SetReadDeadline(time.Now()); err != nil {
		return
	}
	<-done
	_ = stdin.SetReadDeadline(time.Time{})
}
