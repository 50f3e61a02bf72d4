// SPDX-License-Identifier: MPL-2.0

package miscutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// helperOpener returns a SudoOpener whose child process is this test binary
// running TestSudoHelperProcess, which emulates `sudo cat` and `sudo tee`.
func helperOpener(t *testing.T, extraEnv ...string) *SudoOpener {
	t.Helper()
	return &SudoOpener{
		LookPath: func(file string) (string, error) { return "/usr/bin/" + file, nil },
		Command: func(ctx context.Context, name string, arg ...string) *exec.Cmd {
			cs := append([]string{"-test.run=TestSudoHelperProcess", "--", name}, arg...)
			//nolint:gosec // TestHelperProcess is a test-only pattern
			cmd := exec.CommandContext(ctx, os.Args[0], cs...)
			cmd.Env = append([]string{"GO_WANT_HELPER_PROCESS=1"}, extraEnv...)
			return cmd
		},
	}
}

// TestSudoHelperProcess is invoked by helperOpener; it is not a real test.
func TestSudoHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	// -- sudo <tool> <path>
	if len(args) != 4 || args[1] != "sudo" {
		fmt.Fprintf(os.Stderr, "unexpected args: %v", args)
		os.Exit(2)
	}
	if msg := os.Getenv("GO_HELPER_FAIL"); msg != "" {
		fmt.Fprint(os.Stderr, msg)
		os.Exit(1)
	}

	tool, path := args[2], args[3]
	switch tool {
	case "cat":
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cat: %v", err)
			os.Exit(1)
		}
		_, _ = io.Copy(os.Stdout, f)
	case "tee":
		f, err := os.Create(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tee: %v", err)
			os.Exit(1)
		}
		_, _ = io.Copy(io.MultiWriter(f, os.Stdout), os.Stdin)
		_ = f.Close()
	default:
		os.Exit(2)
	}
	os.Exit(0)
}

func TestSudoOpen_InvalidMode(t *testing.T) {
	t.Parallel()

	for _, mode := range []string{"x", "", "a", "r+", "rw", "R", "ab", "wt"} {
		t.Run(mode, func(t *testing.T) {
			t.Parallel()
			f, err := SudoOpen("/etc/hostname", mode)
			if f != nil {
				t.Error("expected nil file")
			}
			if !errors.Is(err, ErrInvalidMode) {
				t.Fatalf("expected ErrInvalidMode, got %v", err)
			}
			var modeErr *InvalidModeError
			if !errors.As(err, &modeErr) || modeErr.Mode != mode {
				t.Errorf("expected *InvalidModeError for %q, got %v", mode, err)
			}
		})
	}
}

func TestSudoOpener_MissingTool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode string
		tool string
	}{
		{"r", "cat"},
		{"rb", "cat"},
		{"w", "tee"},
		{"wb", "tee"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			t.Parallel()
			var looked string
			opener := &SudoOpener{
				LookPath: func(file string) (string, error) {
					looked = file
					return "", exec.ErrNotFound
				},
				Command: func(context.Context, string, ...string) *exec.Cmd {
					t.Fatal("no process must be spawned when the tool is missing")
					return nil
				},
			}

			_, err := opener.Open(context.Background(), "/root/secret", tt.mode)
			var toolErr *MissingToolError
			if !errors.As(err, &toolErr) {
				t.Fatalf("expected *MissingToolError, got %v", err)
			}
			if toolErr.Tool != tt.tool || looked != tt.tool {
				t.Errorf("tool = %q, looked up %q, want %q", toolErr.Tool, looked, tt.tool)
			}
			if !errors.Is(err, ErrMissingTool) {
				t.Error("expected ErrMissingTool in chain")
			}
		})
	}
}

func TestSudoOpener_Read(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "protected.txt")
	if err := os.WriteFile(path, []byte("hello duckie\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	f, err := helperOpener(t).Open(context.Background(), path, "r")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if string(data) != "hello duckie\n" {
		t.Errorf("read %q", data)
	}

	if _, err := f.Write([]byte("x")); !errors.Is(err, ErrWrongDirection) {
		t.Errorf("Write on read handle: got %v", err)
	}

	if err := f.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	if f.Path() != path {
		t.Errorf("Path() = %q", f.Path())
	}
}

func TestSudoOpener_Write(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "written.txt")

	f, err := helperOpener(t).Open(context.Background(), path, "wb")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	if _, err := io.WriteString(f, "line one\nline two\n"); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	buf := make([]byte, 4)
	if _, err := f.Read(buf); !errors.Is(err, ErrWrongDirection) {
		t.Errorf("Read on write handle: got %v", err)
	}

	// The content is only guaranteed to be on disk once Close has reaped tee.
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "line one\nline two\n" {
		t.Errorf("file content = %q", data)
	}
}

func TestSudoOpener_ChildFailureReportedOnClose(t *testing.T) {
	t.Parallel()

	f, err := helperOpener(t, "GO_HELPER_FAIL=sudo: a password is required").Open(context.Background(), "/root/x", "r")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	data, _ := io.ReadAll(f)
	if len(data) != 0 {
		t.Errorf("unexpected data %q", data)
	}

	err = f.Close()
	if err == nil {
		t.Fatal("expected Close() to report the child failure")
	}
	if !strings.Contains(err.Error(), "a password is required") {
		t.Errorf("error should include stderr, got %v", err)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Errorf("expected *exec.ExitError in chain, got %T", err)
	}
}

func TestSudoOpener_EarlyCloseReapsChild(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "big.bin")
	if err := os.WriteFile(path, make([]byte, 4<<20), 0o600); err != nil {
		t.Fatal(err)
	}

	f, err := helperOpener(t).Open(context.Background(), path, "rb")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	buf := make([]byte, 16)
	if _, err := io.ReadFull(f, buf); err != nil {
		t.Fatalf("ReadFull() error: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Errorf("Close() before EOF should not fail, got %v", err)
	}
	if f.cmd.ProcessState == nil {
		t.Error("child process was not reaped")
	}
}
