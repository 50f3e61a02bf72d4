// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "pull image"},
			expected: "failed to pull image",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "open log file",
				Resource:  "/tmp/duckie/build_utils.txt",
			},
			expected: "failed to open log file: /tmp/duckie/build_utils.txt",
		},
		{
			name: "operation with cause",
			err: &ActionableError{
				Operation: "load config",
				Cause:     errors.New("syntax error at line 5"),
			},
			expected: "failed to load config: syntax error at line 5",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "pull image",
				Resource:  "docker.io/duckietown/cli:daffy",
				Cause:     errors.New("manifest unknown"),
			},
			expected: "failed to pull image: docker.io/duckietown/cli:daffy: manifest unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying error")
	err := &ActionableError{Operation: "test", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	errNoCause := &ActionableError{Operation: "test"}
	if errNoCause.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "simple error non-verbose",
			err:      &ActionableError{Operation: "load config"},
			contains: []string{"failed to load config"},
		},
		{
			name: "error with suggestions",
			err: &ActionableError{
				Operation:   "check docker",
				Suggestions: []string{"Start the Docker daemon", "Set docker_host in your config"},
			},
			contains: []string{
				"failed to check docker",
				"• Start the Docker daemon",
				"• Set docker_host in your config",
			},
		},
		{
			name: "error chain in verbose mode",
			err: &ActionableError{
				Operation: "load config",
				Cause:     errors.New("syntax error"),
			},
			verbose:  true,
			contains: []string{"failed to load config", "Error chain:", "1. syntax error"},
		},
		{
			name: "no error chain in non-verbose",
			err: &ActionableError{
				Operation: "load config",
				Cause:     errors.New("syntax error"),
			},
			contains: []string{"failed to load config: syntax error"},
			excludes: []string{"Error chain:"},
		},
		{
			name: "nested error chain verbose",
			err: &ActionableError{
				Operation: "run container",
				Cause: &ActionableError{
					Operation: "pull image",
					Cause:     errors.New("denied"),
				},
			},
			verbose: true,
			contains: []string{
				"Error chain:",
				"1. failed to pull image: denied",
				"2. denied",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.err.Format(tt.verbose)

			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q\ngot:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() should not contain %q\ngot:\n%s", s, got)
				}
			}
		})
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if err := NewErrorContext().WithResource("some/path").Build(); err != nil {
		t.Errorf("Build() without operation = %v, want nil", err)
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil", err)
	}

	cause := errors.New("parse error")
	err := NewErrorContext().
		WithOperation("load config").
		WithResource("/home/duckie/.config/dt-build-utils/config.cue").
		WithSuggestion("Check syntax").
		WithSuggestions("Verify permissions", "Run 'dt-build-utils config init'").
		Wrap(cause).
		Build()

	if err == nil {
		t.Fatal("Build() returned nil")
	}
	if err.Operation != "load config" || err.Resource == "" {
		t.Errorf("unexpected context: %+v", err)
	}
	if len(err.Suggestions) != 3 || !err.HasSuggestions() {
		t.Errorf("Suggestions = %v, want 3", err.Suggestions)
	}
	if !errors.Is(err, cause) {
		t.Error("built error should wrap the cause")
	}

	var ae *ActionableError
	if !errors.As(NewErrorContext().WithOperation("x").BuildError(), &ae) {
		t.Error("BuildError() should return *ActionableError")
	}
}

func TestWrapWithContext(t *testing.T) {
	t.Parallel()

	cause := errors.New("original error")
	err := WrapWithContext(cause, "open log file", "/tmp/x.txt")
	if err == nil {
		t.Fatal("WrapWithContext returned nil")
	}
	if err.Operation != "open log file" || err.Resource != "/tmp/x.txt" {
		t.Errorf("unexpected context: %+v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("Cause should be the original error")
	}

	if WrapWithContext(nil, "test", "resource") != nil {
		t.Error("WrapWithContext(nil) should return nil")
	}
}

func TestErrorContext_Reuse(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().
		WithOperation("pull image").
		WithResource("docker.io/library/alpine")

	err1 := ctx.Wrap(errors.New("error 1")).Build()
	err2 := ctx.Wrap(errors.New("error 2")).Build()

	if err1.Cause.Error() == err2.Cause.Error() {
		t.Error("Reused context should allow different causes")
	}
	if err1.Operation != err2.Operation {
		t.Error("Reused context should preserve operation")
	}
}
