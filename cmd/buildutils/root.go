// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/duckietown/dt-build-utils/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the dt-build-utils command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dt-build-utils",
		Short: "Duckietown build utilities launcher",
		Long: TitleStyle.Render("dt-build-utils") + SubtitleStyle.Render(" - Duckietown build utilities launcher") + `

dt-build-utils runs the Duckietown build utilities image in Docker. The
current directory is mounted into the container and the dt1 token from the
configuration is handed to it.

` + SubtitleStyle.Render("Examples:") + `
  dt-build-utils run build            Run "build" inside the container
  dt-build-utils run --shell          Open a shell in the container
  dt-build-utils config init          Create a default configuration file`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $HOME/.config/dt-build-utils/config.cue)")

	rootCmd.AddCommand(newRunCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// errorHandler prints actionable errors with their suggestions, plus the
// error chain in verbose mode. Everything else goes to fang's default handler.
func errorHandler(app *App) fang.ErrorHandler {
	return func(w io.Writer, styles fang.Styles, err error) {
		var ae *issue.ActionableError
		if !errors.As(err, &ae) {
			fang.DefaultErrorHandler(w, styles, err)
			return
		}
		_, _ = fmt.Fprintln(w, styles.ErrorHeader.String())
		_, _ = fmt.Fprintln(w, ae.Format(app.verbose))
		_, _ = fmt.Fprintln(w)
	}
}

// execute runs the command tree of app with args through fang.
func execute(ctx context.Context, app *App, args []string, opts ...fang.Option) error {
	root := NewRootCommand(app)
	root.SetArgs(args)
	opts = append([]fang.Option{
		fang.WithVersion(getVersionString()),
		fang.WithErrorHandler(errorHandler(app)),
	}, opts...)
	return fang.Execute(ctx, root, opts...)
}

// Execute runs the CLI and exits with the container return code when the
// container failed, 1 for any other error.
func Execute() {
	app := NewApp(Dependencies{})
	err := execute(context.Background(), app, os.Args[1:], fang.WithNotifySignal(os.Interrupt))
	if code := exitCodeFor(err); code != 0 {
		os.Exit(code)
	}
}
