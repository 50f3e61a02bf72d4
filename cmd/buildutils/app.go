// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/duckietown/dt-build-utils/internal/config"
	"github.com/duckietown/dt-build-utils/internal/container"
	"github.com/duckietown/dt-build-utils/internal/issue"
	"github.com/duckietown/dt-build-utils/internal/launcher"
)

const logPrefix = "build_utils"

type (
	// LaunchService starts the build utilities container for one invocation.
	LaunchService interface {
		Launch(ctx context.Context, req LaunchRequest) (*launcher.RunResult, error)
	}

	// LaunchRequest is everything the run command hands to the LaunchService.
	LaunchRequest struct {
		Config     *config.Config
		Invocation launcher.Invocation
		Logger     *log.Logger
		Stdin      *os.File
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// App wires the CLI to its services. Cobra handlers receive an App and
	// delegate configuration loading and container launches to it.
	App struct {
		Config   config.Provider
		Launcher LaunchService
		stdin    *os.File
		stdout   io.Writer
		stderr   io.Writer
		getwd    func() (string, error)

		// set by the persistent root flags
		verbose    bool
		configPath string
	}

	// Dependencies are the injection points of NewApp. Nil fields get the
	// production defaults.
	Dependencies struct {
		Config   config.Provider
		Launcher LaunchService
		Stdin    *os.File
		Stdout   io.Writer
		Stderr   io.Writer
		Getwd    func() (string, error)
	}

	// dockerLaunchService launches containers on the local Docker daemon.
	dockerLaunchService struct{}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:   deps.Config,
		Launcher: deps.Launcher,
		stdin:    deps.Stdin,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
		getwd:    deps.Getwd,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Launcher == nil {
		app.Launcher = dockerLaunchService{}
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.getwd == nil {
		app.getwd = os.Getwd
	}
	return app
}

// loadConfig loads the configuration from --config or the default location.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
}

// newLogger returns the stderr logger used for a command run.
func (a *App) newLogger(verbose bool) *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: logPrefix,
		Level:  log.InfoLevel,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// renderIssue prints the catalog entry for id to stderr. Rendering failures
// are ignored; the error itself is still reported by the caller.
func (a *App) renderIssue(id issue.Id, scheme config.ColorScheme) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render(string(scheme))
	if err != nil {
		return
	}
	fmt.Fprint(a.stderr, rendered)
}

// Launch connects to the daemon selected by the configuration and runs the
// launch sequence.
func (dockerLaunchService) Launch(ctx context.Context, req LaunchRequest) (*launcher.RunResult, error) {
	cfg := req.Config
	host := cfg.DockerHostURL()

	env, err := container.NewEnvironment(host)
	if err != nil {
		return nil, err
	}
	defer func() { _ = env.Close() }()

	engine := container.NewDockerEngine(container.WithHost(host))
	runner := launcher.NewDockerRunner(engine,
		launcher.WithRegistry(cfg.Registry),
		launcher.WithStreams(req.Stdin, req.Stdout, req.Stderr),
		launcher.WithRunnerLogger(req.Logger),
	)

	l := launcher.New(launcher.Dependencies{
		Versions:          launcher.NewDockerVersionChecker(env),
		Tokens:            cfg,
		Docker:            env,
		Runner:            runner,
		Logger:            req.Logger,
		LogDir:            cfg.LogDir,
		DockerCredentials: cfg.DockerCredentials,
	})
	return l.Launch(ctx, req.Invocation)
}
