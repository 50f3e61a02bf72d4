// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides argument construction and command execution for
	// the docker CLI. DockerEngine embeds it.
	BaseCLIEngine struct {
		name            string // Engine name for error messages
		binaryPath      string
		execCommand     ExecCommandFunc
		cmdEnvOverrides map[string]string // Applied to every command (e.g., DOCKER_HOST)
	}
)

// --- Option Functions ---

// WithName sets the engine name used in error messages.
func WithName(name string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.name = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// WithCmdEnvOverride adds an environment variable override applied to every
// exec.Cmd created by this engine.
func WithCmdEnvOverride(key, value string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		if e.cmdEnvOverrides == nil {
			e.cmdEnvOverrides = make(map[string]string)
		}
		e.cmdEnvOverrides[key] = value
	}
}

// WithHost points every docker command at the daemon at host by setting
// DOCKER_HOST. An empty host leaves the environment untouched.
func WithHost(host string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		if host != "" {
			WithCmdEnvOverride("DOCKER_HOST", host)(e)
		}
	}
}

// --- Constructor ---

// NewBaseCLIEngine creates a new base engine with the given binary path.
func NewBaseCLIEngine(binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		name:        string(EngineTypeDocker),
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// --- Accessor Methods ---

// Name returns the engine name used in error messages.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// --- Argument Builders ---

// LoginArgs constructs arguments for a registry login that reads the secret
// from stdin.
//
// Generated command: <binary> login <registry> -u <username> --password-stdin
func (e *BaseCLIEngine) LoginArgs(opts LoginOptions) []string {
	return []string{"login", opts.Registry, "-u", opts.Username, "--password-stdin"}
}

// PullArgs constructs arguments for an image pull.
func (e *BaseCLIEngine) PullArgs(image string) []string {
	return []string{"pull", image}
}

// RunArgs constructs arguments for a container run command.
// Environment variables are emitted in key order so the command line is
// reproducible.
//
// Generated command: <binary> run [options] <image> [command...]
func (e *BaseCLIEngine) RunArgs(opts RunOptions) []string {
	args := []string{"run"}

	if opts.Remove {
		args = append(args, "--rm")
	}

	if opts.Name != "" {
		args = append(args, "--name", string(opts.Name))
	}

	if opts.Detach {
		args = append(args, "-d")
	}

	if opts.Interactive {
		args = append(args, "-i")
	}

	if opts.TTY {
		args = append(args, "-t")
	}

	if opts.Entrypoint != "" {
		args = append(args, "--entrypoint", opts.Entrypoint)
	}

	if opts.User != "" {
		args = append(args, "--user", opts.User)
	}

	if opts.WorkDir != "" {
		args = append(args, "-w", opts.WorkDir)
	}

	if opts.ReadOnly {
		args = append(args, "--read-only")
	}

	for _, k := range slices.Sorted(maps.Keys(opts.Env)) {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, opts.Env[k]))
	}

	for _, v := range opts.Volumes {
		args = append(args, "-v", v.String())
	}

	args = append(args, opts.Image)
	args = append(args, opts.Command...)

	return args
}

// LogsArgs constructs arguments for reading container logs.
func (e *BaseCLIEngine) LogsArgs(id ContainerID, follow bool) []string {
	args := []string{"logs"}
	if follow {
		args = append(args, "-f")
	}
	return append(args, string(id))
}

// WaitArgs constructs arguments for waiting on a container.
func (e *BaseCLIEngine) WaitArgs(id ContainerID) []string {
	return []string{"wait", string(id)}
}

// RemoveArgs constructs arguments for a container remove command.
func (e *BaseCLIEngine) RemoveArgs(id ContainerID, force bool) []string {
	args := []string{"rm"}
	if force {
		args = append(args, "-f")
	}
	return append(args, string(id))
}

// --- Command Execution ---

// RunCommand executes a command and returns its output.
func (e *BaseCLIEngine) RunCommand(ctx context.Context, args ...string) ([]byte, error) {
	cmd := e.CreateCommand(ctx, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, e.commandError(args, stderr.String(), err)
	}
	return out, nil
}

// RunCommandCombined executes a command and returns combined stdout/stderr.
func (e *BaseCLIEngine) RunCommandCombined(ctx context.Context, args ...string) ([]byte, error) {
	cmd := e.CreateCommand(ctx, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, e.commandError(args, string(out), err)
	}
	return out, nil
}

// RunCommandStatus executes a command and returns only the error status.
func (e *BaseCLIEngine) RunCommandStatus(ctx context.Context, args ...string) error {
	cmd := e.CreateCommand(ctx, args...)
	if err := cmd.Run(); err != nil {
		return e.commandError(args, "", err)
	}
	return nil
}

// RunCommandWithOutput executes a command with stdout captured to a buffer.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	out, err := e.RunCommand(ctx, args...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// CreateCommand creates an exec.Cmd for the given arguments.
// This is useful when the caller needs to customize stdin/stdout/stderr.
// Engine-level environment overrides are applied automatically.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	cmd := e.execCommand(ctx, e.binaryPath, args...)
	e.CustomizeCmd(cmd)
	return cmd
}

// CustomizeCmd applies engine-level overrides (env vars) to a command created
// outside of CreateCommand, such as the PTY command of an interactive run.
func (e *BaseCLIEngine) CustomizeCmd(cmd *exec.Cmd) {
	if len(e.cmdEnvOverrides) == 0 {
		return
	}
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}
	for _, k := range slices.Sorted(maps.Keys(e.cmdEnvOverrides)) {
		cmd.Env = append(cmd.Env, k+"="+e.cmdEnvOverrides[k])
	}
}

func (e *BaseCLIEngine) commandError(args []string, stderr string, err error) error {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		return fmt.Errorf("command %s %s failed: %w", e.name, strings.Join(args, " "), err)
	}
	return fmt.Errorf("command %s %s failed: %s: %w", e.name, strings.Join(args, " "), msg, err)
}
