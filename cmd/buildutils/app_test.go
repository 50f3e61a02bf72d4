// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/duckietown/dt-build-utils/internal/config"
	"github.com/duckietown/dt-build-utils/internal/launcher"
)

type (
	fakeConfigProvider struct {
		cfg   *config.Config
		path  string
		err   error
		calls []config.LoadOptions
	}

	fakeLaunchService struct {
		res  *launcher.RunResult
		err  error
		reqs []LaunchRequest
	}

	appFixture struct {
		cfg    *fakeConfigProvider
		launch *fakeLaunchService
		stdout *bytes.Buffer
		stderr *bytes.Buffer
		app    *App
	}
)

func (p *fakeConfigProvider) Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error) {
	cfg, _, err := p.LoadWithPath(ctx, opts)
	return cfg, err
}

func (p *fakeConfigProvider) LoadWithPath(_ context.Context, opts config.LoadOptions) (*config.Config, string, error) {
	p.calls = append(p.calls, opts)
	if p.err != nil {
		return nil, "", p.err
	}
	return p.cfg, p.path, nil
}

func (s *fakeLaunchService) Launch(_ context.Context, req LaunchRequest) (*launcher.RunResult, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	if s.res == nil {
		return &launcher.RunResult{}, nil
	}
	return s.res, nil
}

func newAppFixture() *appFixture {
	cfg := config.DefaultConfig()
	cfg.DT1Token = "dt1-secret"
	cfg.UI.ColorScheme = config.ColorSchemeDark

	f := &appFixture{
		cfg:    &fakeConfigProvider{cfg: cfg},
		launch: &fakeLaunchService{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	f.app = NewApp(Dependencies{
		Config:   f.cfg,
		Launcher: f.launch,
		Stdout:   f.stdout,
		Stderr:   f.stderr,
		Getwd:    func() (string, error) { return "/home/duckie/project", nil },
	})
	return f
}

// execute runs the root command with args and returns its error.
func (f *appFixture) execute(args ...string) error {
	root := NewRootCommand(f.app)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func TestNewApp_Defaults(t *testing.T) {
	t.Parallel()

	app := NewApp(Dependencies{})
	if app.Config == nil || app.Launcher == nil {
		t.Fatal("services not defaulted")
	}
	if app.stdin == nil || app.stdout == nil || app.stderr == nil || app.getwd == nil {
		t.Fatal("streams not defaulted")
	}
	if _, ok := app.Launcher.(dockerLaunchService); !ok {
		t.Errorf("default launcher = %T", app.Launcher)
	}
}

func TestApp_NewLogger(t *testing.T) {
	t.Parallel()
	f := newAppFixture()

	f.app.newLogger(false).Debug("hidden")
	f.app.newLogger(false).Info("shown")
	f.app.newLogger(true).Debug("debug shown")

	out := f.stderr.String()
	if bytes.Contains([]byte(out), []byte("hidden")) {
		t.Errorf("debug message printed without verbose: %q", out)
	}
	for _, want := range []string{"build_utils", "shown", "debug shown"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("log output missing %q: %q", want, out)
		}
	}
}
