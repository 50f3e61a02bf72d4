// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package container

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func requirePTY(t *testing.T) {
	t.Helper()
	f, err := os.OpenFile("/dev/ptmx", os.O_RDWR, 0)
	if err != nil {
		t.Skipf("pseudo-terminals not available: %v", err)
	}
	_ = f.Close()
}

func TestRunInteractive_ReleasesStdin(t *testing.T) {
	t.Parallel()
	requirePTY(t)

	recorder := NewMockCommandRecorder()
	recorder.Stdout = "hello duckie"
	engine := newMockEngine(t, recorder)

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})

	var out bytes.Buffer
	res, err := engine.RunInteractive(context.Background(), RunOptions{Image: "duckietown/dt-build-utils:daffy"}, r, &out)
	if err != nil {
		t.Fatalf("RunInteractive() error: %v", err)
	}
	if !res.ExitCode.IsSuccess() {
		t.Errorf("exit code = %d", res.ExitCode)
	}
	if !strings.Contains(out.String(), "hello duckie") {
		t.Errorf("output = %q", out.String())
	}
	recorder.AssertArgsContainAll(t, []string{"run", "-i", "-t"})

	// Input written after the run must not be swallowed by a leftover copier.
	if _, err := w.Write([]byte("after")); err != nil {
		t.Fatal(err)
	}
	if err := r.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("read deadline no longer supported on stdin: %v", err)
	}
	buf := make([]byte, 16)
	n, err := r.Read(buf)
	if err != nil || string(buf[:n]) != "after" {
		t.Errorf("read after run = %q, %v; want %q", buf[:n], err, "after")
	}
}

func TestRunInteractive_ExitCode(t *testing.T) {
	t.Parallel()
	requirePTY(t)

	recorder := NewMockCommandRecorder()
	recorder.ExitCode = 3
	engine := newMockEngine(t, recorder)

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})

	res, err := engine.RunInteractive(context.Background(), RunOptions{Image: "duckietown/dt-build-utils:daffy"}, r, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("RunInteractive() error: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
}
