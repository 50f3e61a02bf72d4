// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"path/filepath"
	"testing"
)

func TestProvider_Load(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	dir := t.TempDir()
	writeConfigFile(t, dir, `image: "example/image:latest"`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Image != "example/image:latest" {
		t.Errorf("image = %q", cfg.Image)
	}
}

func TestProvider_LoadWithPath(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `log_dir: "/var/tmp"`)

	resolver, ok := NewProvider().(PathResolver)
	if !ok {
		t.Fatal("file provider should implement PathResolver")
	}

	cfg, resolved, err := resolver.LoadWithPath(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("LoadWithPath() error: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.LogDir != "/var/tmp" {
		t.Errorf("log_dir = %q", cfg.LogDir)
	}
}

func TestFilePath(t *testing.T) {
	t.Parallel()
	got, err := FilePath("/etc/dt-build-utils")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/etc/dt-build-utils", "config.cue"); got != want {
		t.Errorf("FilePath() = %q, want %q", got, want)
	}
}
