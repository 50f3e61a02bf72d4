// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"testing"

	dockertypes "github.com/docker/docker/api/types"
)

type fakeDaemon struct {
	pingErr    error
	version    string
	versionErr error
	closed     bool
}

func (f *fakeDaemon) Ping(context.Context) (dockertypes.Ping, error) {
	return dockertypes.Ping{APIVersion: "1.51"}, f.pingErr
}

func (f *fakeDaemon) ServerVersion(context.Context) (dockertypes.Version, error) {
	return dockertypes.Version{Version: f.version}, f.versionErr
}

func (f *fakeDaemon) DaemonHost() string { return "unix:///var/run/docker.sock" }

func (f *fakeDaemon) Close() error {
	f.closed = true
	return nil
}

func TestEnvironment_Check(t *testing.T) {
	t.Parallel()

	env := NewEnvironmentWithAPI(&fakeDaemon{})
	if err := env.Check(context.Background()); err != nil {
		t.Errorf("Check() = %v", err)
	}

	cause := errors.New("connection refused")
	env = NewEnvironmentWithAPI(&fakeDaemon{pingErr: cause})
	err := env.Check(context.Background())
	if !errors.Is(err, ErrDockerUnavailable) || !errors.Is(err, cause) {
		t.Fatalf("Check() = %v, want ErrDockerUnavailable wrapping the cause", err)
	}

	var unavailable *DockerUnavailableError
	if !errors.As(err, &unavailable) || unavailable.Host != "unix:///var/run/docker.sock" {
		t.Errorf("expected host in error, got %v", err)
	}
}

func TestEnvironment_ServerVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		daemon  *fakeDaemon
		want    string
		wantErr bool
	}{
		{"reported", &fakeDaemon{version: " 28.5.1 "}, "28.5.1", false},
		{"empty", &fakeDaemon{}, "", true},
		{"unreachable", &fakeDaemon{versionErr: errors.New("EOF")}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewEnvironmentWithAPI(tt.daemon).ServerVersion(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("ServerVersion() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ServerVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnvironment_Close(t *testing.T) {
	t.Parallel()
	daemon := &fakeDaemon{}
	env := NewEnvironmentWithAPI(daemon)
	if err := env.Close(); err != nil {
		t.Fatal(err)
	}
	if !daemon.closed {
		t.Error("Close() did not close the client")
	}
}

func TestNewEnvironment_HostOverride(t *testing.T) {
	t.Setenv("DOCKER_HOST", "unix:///from/env.sock")

	env, err := NewEnvironment("tcp://robot.local:2375")
	if err != nil {
		t.Fatalf("NewEnvironment() error: %v", err)
	}
	defer env.Close()

	if env.Host() != "tcp://robot.local:2375" {
		t.Errorf("Host() = %q", env.Host())
	}

	env2, err := NewEnvironment("")
	if err != nil {
		t.Fatalf("NewEnvironment() error: %v", err)
	}
	defer env2.Close()
	if env2.Host() != "unix:///from/env.sock" {
		t.Errorf("Host() = %q, want DOCKER_HOST", env2.Host())
	}
}
