// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"bytes"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/duckietown/dt-build-utils/internal/testutil"
	"github.com/duckietown/dt-build-utils/pkg/types"
)

var containerNamePattern = regexp.MustCompile(`^build_utils_\d{4}(_\d{2}){5}_\d{6}_[0-9a-f]{32}$`)

func TestNewContainerName(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 5, 7, 8, 9, 123456789, time.UTC)

	name, err := NewContainerName(now, bytes.NewReader(bytes.Repeat([]byte{0xab}, 16)))
	if err != nil {
		t.Fatalf("NewContainerName() error: %v", err)
	}

	want := types.ContainerName("build_utils_2024_03_05_07_08_09_123456_abababababab4bababababababababab")
	if name != want {
		t.Errorf("NewContainerName() = %q, want %q", name, want)
	}
}

func TestNewContainerName_ZeroMicroseconds(t *testing.T) {
	t.Parallel()
	now := time.Date(2021, 12, 31, 23, 59, 59, 999, time.UTC)

	name, err := NewContainerName(now, nil)
	if err != nil {
		t.Fatalf("NewContainerName() error: %v", err)
	}
	if !containerNamePattern.MatchString(name.String()) {
		t.Fatalf("name %q does not match %s", name, containerNamePattern)
	}
	if got := name.String()[:38]; got != "build_utils_2021_12_31_23_59_59_000000" {
		t.Errorf("timestamp part = %q", got)
	}
}

func TestNewContainerName_Unique(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seen := make(map[types.ContainerName]bool)
	for range 100 {
		name, err := NewContainerName(now, nil)
		if err != nil {
			t.Fatalf("NewContainerName() error: %v", err)
		}
		if seen[name] {
			t.Fatalf("duplicate name %q for identical timestamps", name)
		}
		seen[name] = true
	}
}

func TestNewContainerName_EntropyFailure(t *testing.T) {
	t.Parallel()

	_, err := NewContainerName(time.Now(), bytes.NewReader([]byte{1, 2, 3}))
	if err == nil {
		t.Fatal("expected error when entropy is exhausted")
	}
}

func TestCurrentUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"logname first", map[string]string{"LOGNAME": "a", "USER": "b", "USERNAME": "d"}, "a"},
		{"user", map[string]string{"USER": "b", "LNAME": "c"}, "b"},
		{"lname", map[string]string{"LNAME": "c", "USERNAME": "d"}, "c"},
		{"username", map[string]string{"USERNAME": "d"}, "d"},
		{"empty values skipped", map[string]string{"LOGNAME": "", "USER": "b"}, "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := CurrentUser(testutil.EnvLookup(tt.env))
			if err != nil {
				t.Fatalf("CurrentUser() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CurrentUser() = %q, want %q", got, tt.want)
			}
		})
	}
}

//nolint:paralleltest // replaces currentOSUser
func TestCurrentUser_OSFallback(t *testing.T) {
	orig := currentOSUser
	t.Cleanup(func() { currentOSUser = orig })

	currentOSUser = func() (string, error) { return "duckie", nil }
	got, err := CurrentUser(testutil.EnvLookup(nil))
	if err != nil || got != "duckie" {
		t.Errorf("CurrentUser() = %q, %v", got, err)
	}

	lookupErr := errors.New("no passwd entry")
	currentOSUser = func() (string, error) { return "", lookupErr }
	if _, err := CurrentUser(testutil.EnvLookup(nil)); !errors.Is(err, lookupErr) {
		t.Errorf("expected wrapped lookup error, got %v", err)
	}

	currentOSUser = func() (string, error) { return "", nil }
	if _, err := CurrentUser(testutil.EnvLookup(nil)); err == nil {
		t.Error("expected error for empty user name")
	}
}

func TestLogPath(t *testing.T) {
	t.Parallel()

	got := LogPath("/tmp", "duckie", "build_utils_x")
	want := "/tmp/duckie/duckietown/dt-shell-commands/build_utils/build_utils_x.txt"
	if got != want {
		t.Errorf("LogPath() = %q, want %q", got, want)
	}
}
