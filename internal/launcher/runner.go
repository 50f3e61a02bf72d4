// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"

	"github.com/duckietown/dt-build-utils/internal/config"
	"github.com/duckietown/dt-build-utils/internal/container"
	"github.com/duckietown/dt-build-utils/pkg/miscutils"
	"github.com/duckietown/dt-build-utils/pkg/types"
)

const (
	// ContainerWorkDir is where the host working directory is mounted.
	ContainerWorkDir = "/workdir"
	// ContainerSourceDir is where the development source tree is mounted.
	ContainerSourceDir = "/src"

	shellEntrypoint = "/bin/bash"
	redactedValue   = "***"
)

type (
	// DockerEngine is the subset of *container.DockerEngine used by DockerRunner.
	DockerEngine interface {
		container.Engine
		RunArgs(opts container.RunOptions) []string
		RunInteractive(ctx context.Context, opts container.RunOptions, stdin *os.File, out io.Writer) (*container.RunResult, error)
	}

	// RunnerOption configures a DockerRunner.
	RunnerOption func(*DockerRunner)

	// DockerRunner is the ContainerRunner backed by the docker CLI.
	DockerRunner struct {
		engine    DockerEngine
		registry  string
		lookupEnv LookupEnvFunc
		stdin     *os.File
		stdout    io.Writer
		stderr    io.Writer
		logger    *log.Logger
		clock     Clock
		sudoOpen  SudoOpenFunc
		uid       func() int
		gid       func() int
	}
)

// WithRegistry sets the value used for an unset ${AIDO_REGISTRY}.
func WithRegistry(registry string) RunnerOption {
	return func(r *DockerRunner) { r.registry = registry }
}

// WithStreams sets the terminal streams of the run.
func WithStreams(stdin *os.File, stdout, stderr io.Writer) RunnerOption {
	return func(r *DockerRunner) {
		r.stdin = stdin
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *log.Logger) RunnerOption {
	return func(r *DockerRunner) { r.logger = logger }
}

// WithRunnerClock sets the clock used to measure the run.
func WithRunnerClock(clock Clock) RunnerOption {
	return func(r *DockerRunner) { r.clock = clock }
}

// WithRunnerLookupEnv sets the environment lookup used for image expansion.
func WithRunnerLookupEnv(fn LookupEnvFunc) RunnerOption {
	return func(r *DockerRunner) { r.lookupEnv = fn }
}

// WithSudoOpen sets the privileged opener used when the log file is not writable.
func WithSudoOpen(fn SudoOpenFunc) RunnerOption {
	return func(r *DockerRunner) { r.sudoOpen = fn }
}

// NewDockerRunner creates a DockerRunner for engine.
func NewDockerRunner(engine DockerEngine, opts ...RunnerOption) *DockerRunner {
	r := &DockerRunner{
		engine:    engine,
		registry:  config.DefaultRegistry,
		lookupEnv: os.LookupEnv,
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		logger:    log.New(io.Discard),
		clock:     realClock{},
		sudoOpen:  sudoOpen,
		uid:       os.Getuid,
		gid:       os.Getgid,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run resolves the image, logs into its registry when credentials are
// configured, pulls it and runs the container. Output is copied to the
// terminal and to req.LogPath. A non-zero exit code is reported through
// RunResult, not as an error.
func (r *DockerRunner) Run(ctx context.Context, req RunRequest) (_ *RunResult, err error) {
	start := r.clock.Now()

	image, err := ExpandImage(req.Image, r.registry, r.lookupEnv)
	if err != nil {
		return nil, err
	}
	domain, err := RegistryDomain(image)
	if err != nil {
		return nil, err
	}

	logFile, err := openLogFile(req.LogPath, r.sudoOpen)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := logFile.Close(); closeErr != nil {
			r.logger.Warn("failed to close log file", "path", req.LogPath, "err", closeErr)
		}
	}()

	if err := r.login(ctx, req, domain); err != nil {
		return nil, err
	}

	if req.Pull {
		r.logger.Info("pulling image", "image", image)
		progress := io.MultiWriter(r.stderr, logFile)
		if err := r.engine.Pull(ctx, image, progress, progress); err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrPullFailed, image, err)
		}
	}

	opts := r.runOptions(req, image)
	r.logger.Debug("docker command", "cmd", r.commandLine(opts))

	var (
		code types.ExitCode
		id   container.ContainerID
	)
	switch {
	case req.Shell:
		res, runErr := r.engine.RunInteractive(ctx, opts, r.stdin, io.MultiWriter(r.stdout, logFile))
		if runErr != nil {
			return nil, runErr
		}
		code = res.ExitCode
	case req.Detach:
		code, id, err = r.runDetached(ctx, opts, logFile)
		if err != nil {
			return nil, err
		}
	default:
		opts.Stdout = io.MultiWriter(r.stdout, logFile)
		opts.Stderr = io.MultiWriter(r.stderr, logFile)
		res, runErr := r.engine.Run(ctx, opts)
		if runErr != nil {
			return nil, runErr
		}
		code = res.ExitCode
	}

	elapsed := r.clock.Since(start)
	r.logger.Info("container finished",
		"name", req.ContainerName,
		"ret_code", int(code),
		"elapsed", miscutils.HumanTime(elapsed.Seconds(), true),
		"log_size", miscutils.HumanSize(float64(logFile.Size()), "B", 1),
	)

	return &RunResult{RetCode: code, ContainerID: id.String(), Elapsed: elapsed}, nil
}

// login runs docker login for the image registry. Explicit request
// credentials win over the configured ones; without either nothing happens.
func (r *DockerRunner) login(ctx context.Context, req RunRequest, domain string) error {
	opts := container.LoginOptions{Registry: domain, Username: req.DockerUsername, Secret: req.DockerSecret}
	if opts.Username == "" {
		cfg := config.Config{DockerCredentials: req.DockerCredentials}
		cred, ok := cfg.CredentialFor(domain)
		if !ok {
			return nil
		}
		opts.Username = cred.Username
		opts.Secret = cred.Secret
	}

	r.logger.Debug("logging into registry", "registry", domain, "username", opts.Username)
	if err := r.engine.Login(ctx, opts); err != nil {
		return fmt.Errorf("failed to log into %s as %s: %w", domain, opts.Username, err)
	}
	return nil
}

func (r *DockerRunner) runOptions(req RunRequest, image string) container.RunOptions {
	opts := container.RunOptions{
		Image:      image,
		Command:    req.Command,
		Entrypoint: req.Entrypoint,
		Name:       req.ContainerName,
		Env:        map[string]string{config.TokenEnvVar: req.DT1Token},
		ReadOnly:   req.ReadOnly,
		Detach:     req.Detach,
	}

	if req.Shell {
		if len(req.Command) > 0 {
			r.logger.Debug("ignoring command in shell mode", "cmd", req.Command)
		}
		opts.Entrypoint = shellEntrypoint
		opts.Command = nil
		opts.Detach = false
		opts.Interactive = true
		opts.TTY = true
	}

	if !req.AsRoot {
		if uid := r.uid(); uid >= 0 {
			opts.User = fmt.Sprintf("%d:%d", uid, r.gid())
		}
	}

	if req.WorkDir != "" {
		opts.Volumes = append(opts.Volumes, container.VolumeMount{HostPath: req.WorkDir, ContainerPath: ContainerWorkDir})
		opts.WorkDir = ContainerWorkDir
	}

	if req.Development {
		opts.Env[DevelopmentEnvVar] = "1"
		if filepath.IsAbs(req.DevelopmentSource) {
			opts.Volumes = append(opts.Volumes, container.VolumeMount{HostPath: req.DevelopmentSource, ContainerPath: ContainerSourceDir})
		}
	}

	return opts
}

// runDetached starts the container in the background, follows its logs
// until it exits and force-removes it afterwards, also when ctx is canceled.
func (r *DockerRunner) runDetached(ctx context.Context, opts container.RunOptions, logFile io.Writer) (types.ExitCode, container.ContainerID, error) {
	res, err := r.engine.Run(ctx, opts)
	if err != nil {
		return 0, "", err
	}
	id := res.ContainerID
	r.logger.Debug("container started", "id", id.Short())

	defer func() {
		if err := r.engine.Remove(context.WithoutCancel(ctx), id, true); err != nil {
			r.logger.Warn("failed to remove container", "id", id.Short(), "err", err)
		}
	}()

	if err := r.engine.Logs(ctx, id, true, io.MultiWriter(r.stdout, logFile)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, id, ctxErr
		}
		r.logger.Warn("stopped following container logs", "id", id.Short(), "err", err)
	}

	code, err := r.engine.Wait(ctx, id)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, id, errors.Join(ctxErr, err)
		}
		return 0, id, err
	}
	return code, id, nil
}

// commandLine renders the docker invocation for the debug log with the
// token redacted.
func (r *DockerRunner) commandLine(opts container.RunOptions) string {
	args := append([]string{"docker"}, r.engine.RunArgs(opts)...)
	quoted := make([]string, 0, len(args))
	for _, arg := range args {
		if strings.HasPrefix(arg, config.TokenEnvVar+"=") {
			arg = config.TokenEnvVar + "=" + redactedValue
		}
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			q = arg
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " ")
}
