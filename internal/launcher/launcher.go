// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/duckietown/dt-build-utils/internal/config"
	"github.com/duckietown/dt-build-utils/pkg/types"
)

const (
	// Entrypoint is the executable started inside the build utilities image.
	Entrypoint = "dt-build_utils-cli"
	// DevelopmentEnvVar enables development mode when present in the environment.
	DevelopmentEnvVar = "DT_MOUNT"
)

type (
	// VersionChecker fails when a required tool is too old.
	VersionChecker interface {
		CheckVersion(ctx context.Context) error
	}

	// TokenProvider supplies the dt1 authentication token.
	TokenProvider interface {
		Token() (string, error)
	}

	// DockerEnvironment verifies that a Docker daemon is reachable.
	DockerEnvironment interface {
		Check(ctx context.Context) error
	}

	// ContainerRunner runs the prepared container request and reports its
	// return code.
	ContainerRunner interface {
		Run(ctx context.Context, req RunRequest) (*RunResult, error)
	}

	// Clock provides the current time.
	Clock interface {
		Now() time.Time
		Since(t time.Time) time.Duration
	}

	// Invocation holds the parsed command line of the run command.
	Invocation struct {
		// Image is the image reference, possibly containing ${AIDO_REGISTRY}.
		Image string
		// Shell opens an interactive shell instead of the entrypoint.
		Shell bool
		// Root runs the container as root instead of the calling user.
		Root bool
		// NoPull skips pulling the image.
		NoPull bool
		// Command is passed verbatim to the entrypoint.
		Command []string
		// WorkDir is the host directory mounted into the container.
		WorkDir string
	}

	// RunRequest is everything a ContainerRunner needs for one run.
	RunRequest struct {
		Entrypoint string
		AsRoot     bool
		Image      string
		Command    []string
		Shell      bool
		WorkDir    string

		// DockerUsername and DockerSecret are always empty for build utilities;
		// registry logins come from DockerCredentials.
		DockerUsername string
		DockerSecret   string

		DT1Token string

		Development bool
		// DevelopmentSource is the value of DT_MOUNT.
		DevelopmentSource string

		ContainerName types.ContainerName
		Pull          bool
		ReadOnly      bool
		Detach        bool
		LogPath       string

		DockerCredentials []config.DockerCredential
	}

	// RunResult is the outcome of a container run.
	RunResult struct {
		RetCode     types.ExitCode
		ContainerID string
		Elapsed     time.Duration
	}

	// Dependencies are the collaborators of a Launcher. Clock, LookupEnv,
	// Entropy and Logger default to the real clock, os.LookupEnv, crypto/rand
	// and a discarding logger.
	Dependencies struct {
		Versions          VersionChecker
		Tokens            TokenProvider
		Docker            DockerEnvironment
		Runner            ContainerRunner
		Clock             Clock
		LookupEnv         LookupEnvFunc
		Entropy           io.Reader
		Logger            *log.Logger
		LogDir            string
		DockerCredentials []config.DockerCredential
	}

	// Launcher prepares and starts build utilities containers.
	Launcher struct {
		versions    VersionChecker
		tokens      TokenProvider
		docker      DockerEnvironment
		runner      ContainerRunner
		clock       Clock
		lookupEnv   LookupEnvFunc
		entropy     io.Reader
		logger      *log.Logger
		logDir      string
		credentials []config.DockerCredential
	}

	realClock struct{}
)

func (realClock) Now() time.Time                  { return time.Now() }
func (realClock) Since(t time.Time) time.Duration { return time.Since(t) }

// New creates a Launcher. Versions, Tokens, Docker and Runner are required.
func New(deps Dependencies) *Launcher {
	l := &Launcher{
		versions:    deps.Versions,
		tokens:      deps.Tokens,
		docker:      deps.Docker,
		runner:      deps.Runner,
		clock:       deps.Clock,
		lookupEnv:   deps.LookupEnv,
		entropy:     deps.Entropy,
		logger:      deps.Logger,
		logDir:      deps.LogDir,
		credentials: slices.Clone(deps.DockerCredentials),
	}
	if l.clock == nil {
		l.clock = realClock{}
	}
	if l.lookupEnv == nil {
		l.lookupEnv = os.LookupEnv
	}
	if l.entropy == nil {
		l.entropy = rand.Reader
	}
	if l.logger == nil {
		l.logger = log.New(io.Discard)
	}
	if l.logDir == "" {
		l.logDir = config.DefaultLogDir
	}
	return l
}

// Launch runs the build utilities image for inv. It returns a
// *ContainerFailureError when the container exits with a non-zero code;
// errors of the collaborators are returned wrapped, never retried.
func (l *Launcher) Launch(ctx context.Context, inv Invocation) (*RunResult, error) {
	if err := l.versions.CheckVersion(ctx); err != nil {
		return nil, err
	}

	devSource, development := l.lookupEnv(DevelopmentEnvVar)
	if development {
		l.logger.Debug("development mode enabled", "source", devSource)
	}

	token, err := l.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get dt1 token: %w", err)
	}
	if err := l.docker.Check(ctx); err != nil {
		return nil, err
	}

	name, err := NewContainerName(l.clock.Now(), l.entropy)
	if err != nil {
		return nil, err
	}

	userName, err := CurrentUser(l.lookupEnv)
	if err != nil {
		return nil, err
	}
	logPath := LogPath(l.logDir, userName, name)

	req := RunRequest{
		Entrypoint:        Entrypoint,
		AsRoot:            inv.Root,
		Image:             inv.Image,
		Command:           slices.Clone(inv.Command),
		Shell:             inv.Shell,
		WorkDir:           inv.WorkDir,
		DT1Token:          token,
		Development:       development,
		DevelopmentSource: devSource,
		ContainerName:     name,
		Pull:              !inv.NoPull,
		ReadOnly:          false,
		Detach:            true,
		LogPath:           logPath,
		DockerCredentials: slices.Clone(l.credentials),
	}

	l.logger.Info("launching container", "name", name, "image", inv.Image, "log", logPath)

	res, err := l.runner.Run(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to run container %s: %w", name, err)
	}
	if !res.RetCode.IsSuccess() {
		return res, &ContainerFailureError{RetCode: res.RetCode, LogPath: logPath}
	}
	return res, nil
}
