// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/duckietown/dt-build-utils/internal/config"
	"github.com/duckietown/dt-build-utils/internal/container"
	"github.com/duckietown/dt-build-utils/internal/issue"
	"github.com/duckietown/dt-build-utils/internal/launcher"
)

const endOfFlags = "--"

type (
	// runArgs is the parsed command line of the run command.
	runArgs struct {
		Image   string
		Shell   bool
		Root    bool
		NoPull  bool
		Help    bool
		Verbose bool
		Config  string
		Command []string
	}

	// knownFlag describes a flag recognized by parseRunArgs.
	knownFlag struct {
		takesValue bool
		// leading flags are only recognized before the first passthrough argument.
		leading bool
	}
)

// runFlags maps every recognized spelling to its flag. Abbreviations are
// resolved by expandFlag.
var runFlags = map[string]knownFlag{
	"--image":   {takesValue: true},
	"--shell":   {},
	"--root":    {},
	"--no-pull": {},
	"--help":    {},
	"-h":        {},
	"--verbose": {leading: true},
	"-v":        {leading: true},
	"--config":  {takesValue: true, leading: true},
}

// expandFlag returns the long run flag that name uniquely abbreviates, or
// name unchanged. Global flags are never abbreviated.
func expandFlag(name string) string {
	if _, ok := runFlags[name]; ok || !strings.HasPrefix(name, "--") || len(name) < 3 {
		return name
	}
	match := ""
	for full, flag := range runFlags {
		if flag.leading || !strings.HasPrefix(full, name) {
			continue
		}
		if match != "" {
			return name
		}
		match = full
	}
	if match == "" {
		return name
	}
	return match
}

func newRunCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run [--image <ref>] [--shell] [--root] [--no-pull] [command...]",
		Short: "Run the build utilities container",
		Long: `Run the build utilities container.

The flags below are recognized anywhere on the command line, also as unique
prefixes (--sh for --shell); every other argument is passed unchanged, in
order, to the container entrypoint. Everything from "--" on, the "--"
included, is passed through without being recognized.

Flags:
      --image <ref>   image to run (default from config: ` + config.DefaultImage + `)
      --shell         open an interactive shell instead of the entrypoint
      --root          run as root instead of the calling user
      --no-pull       do not pull the image before running it
  -h, --help          help for run

The current directory is mounted at ` + launcher.ContainerWorkDir + `. Setting ` + launcher.DevelopmentEnvVar + `
enables development mode.`,
		Example: `  dt-build-utils run build --push
  dt-build-utils run --image duckietown/dt-build-utils:ente --no-pull -- --help
  dt-build-utils run --shell --root`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContainer(cmd, app, args)
		},
	}
}

// parseRunArgs splits args into the recognized flags and the passthrough
// command. Recognized flags may appear anywhere before "--" and may be
// abbreviated to any unique prefix; global flags are only recognized before
// the first passthrough argument. The "--" itself is passed through.
func parseRunArgs(args []string) (runArgs, error) {
	var (
		known   []string
		command []string
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == endOfFlags {
			command = append(command, args[i:]...)
			break
		}

		name, value, hasValue := strings.Cut(arg, "=")
		name = expandFlag(name)
		flag, ok := runFlags[name]
		if !ok || (flag.leading && len(command) > 0) {
			command = append(command, arg)
			continue
		}

		if hasValue {
			known = append(known, name+"="+value)
		} else {
			known = append(known, name)
		}
		if flag.takesValue && !hasValue {
			if i+1 >= len(args) {
				return runArgs{}, fmt.Errorf("flag needs an argument: %s", name)
			}
			i++
			known = append(known, args[i])
		}
	}

	var ra runArgs
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.StringVar(&ra.Image, "image", "", "image to run")
	fs.BoolVar(&ra.Shell, "shell", false, "open an interactive shell")
	fs.BoolVar(&ra.Root, "root", false, "run as root")
	fs.BoolVar(&ra.NoPull, "no-pull", false, "do not pull the image")
	fs.BoolVarP(&ra.Help, "help", "h", false, "help for run")
	fs.BoolVarP(&ra.Verbose, "verbose", "v", false, "enable verbose output")
	fs.StringVar(&ra.Config, "config", "", "config file")
	fs.Usage = func() {}
	if err := fs.Parse(known); err != nil {
		return runArgs{}, err
	}
	if ra.Image == "" && fs.Changed("image") {
		return runArgs{}, errors.New("--image must not be empty")
	}

	ra.Command = command
	return ra, nil
}

func runContainer(cmd *cobra.Command, app *App, args []string) error {
	ra, err := parseRunArgs(args)
	if err != nil {
		return err
	}
	if ra.Help {
		return cmd.Help()
	}
	if ra.Verbose {
		app.verbose = true
	}
	if ra.Config != "" {
		app.configPath = ra.Config
	}

	ctx := cmd.Context()
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		app.renderIssue(issue.ConfigLoadFailedId, config.ColorSchemeAuto)
		return err
	}

	logger := app.newLogger(app.verbose || cfg.UI.Verbose)

	workDir, err := app.getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	image := ra.Image
	if image == "" {
		image = cfg.Image
	}

	_, err = app.Launcher.Launch(ctx, LaunchRequest{
		Config: cfg,
		Invocation: launcher.Invocation{
			Image:   image,
			Shell:   ra.Shell,
			Root:    ra.Root,
			NoPull:  ra.NoPull,
			Command: ra.Command,
			WorkDir: workDir,
		},
		Logger: logger,
		Stdin:  app.stdin,
		Stdout: app.stdout,
		Stderr: app.stderr,
	})
	if err == nil {
		return nil
	}

	if id, ok := issueFor(err); ok {
		app.renderIssue(id, cfg.UI.ColorScheme)
	}
	logger.Debug("launch failed", "err", err)

	var failure *launcher.ContainerFailureError
	if errors.As(err, &failure) {
		return &ExitError{Code: failure.RetCode, Err: err}
	}
	return err
}

// issueFor returns the catalog entry that explains err, if any.
func issueFor(err error) (issue.Id, bool) {
	switch {
	case errors.Is(err, launcher.ErrContainerFailed):
		return issue.ContainerFailedId, true
	case errors.Is(err, launcher.ErrVersionMismatch):
		return issue.DockerTooOldId, true
	case errors.Is(err, container.ErrDockerUnavailable), errors.Is(err, container.ErrEngineNotAvailable):
		return issue.DockerNotAvailableId, true
	case errors.Is(err, config.ErrMissingToken):
		return issue.MissingTokenId, true
	case errors.Is(err, launcher.ErrLogFileUnavailable):
		return issue.LogFileNotWritableId, true
	case errors.Is(err, launcher.ErrInvalidImage), errors.Is(err, launcher.ErrUnsetVariable):
		return issue.InvalidImageId, true
	case errors.Is(err, launcher.ErrPullFailed):
		return issue.ImagePullFailedId, true
	default:
		return 0, false
	}
}
