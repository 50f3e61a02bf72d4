// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/duckietown/dt-build-utils/internal/config"
	"github.com/duckietown/dt-build-utils/internal/issue"
)

// newConfigCommand creates the `dt-build-utils config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dt-build-utils configuration",
		Long: `Manage dt-build-utils configuration.

Configuration is stored in:
  - Linux: ~/.config/dt-build-utils/config.cue
  - macOS: ~/Library/Application Support/dt-build-utils/config.cue
  - Windows: %APPDATA%\dt-build-utils\config.cue

The DT1_TOKEN environment variable overrides dt1_token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Long: `Output the effective configuration as CUE.

The output includes the dt1 token and registry secrets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig("")
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			fmt.Fprintf(app.stdout, "%s Configuration file at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	opts := config.LoadOptions{ConfigFilePath: app.configPath}

	var (
		cfg      *config.Config
		resolved string
		err      error
	)
	if pr, ok := app.Config.(config.PathResolver); ok {
		cfg, resolved, err = pr.LoadWithPath(ctx, opts)
	} else {
		cfg, err = app.Config.Load(ctx, opts)
	}
	if err != nil {
		app.renderIssue(issue.ConfigLoadFailedId, config.ColorSchemeAuto)
		return err
	}

	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if resolved != "" {
		printValue(w, "Config file", resolved)
	} else {
		printPlaceholder(w, "Config file", "(using defaults)")
	}
	fmt.Fprintln(w)

	printValue(w, "registry", cfg.Registry)
	printValue(w, "image", cfg.Image)
	if _, err := cfg.Token(); err == nil {
		printValue(w, "dt1_token", "(set)")
	} else {
		printPlaceholder(w, "dt1_token", "(not set)")
	}
	if cfg.DockerHost != "" {
		printValue(w, "docker_host", fmt.Sprintf("%s (%s)", cfg.DockerHost, cfg.DockerHostURL()))
	} else {
		printPlaceholder(w, "docker_host", "(environment default)")
	}
	printValue(w, "log_dir", cfg.LogDir)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", KeyStyle.Render("docker_credentials"))
	if len(cfg.DockerCredentials) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none configured)"))
	}
	for _, cred := range cfg.DockerCredentials {
		fmt.Fprintf(w, "  - %s\n", SuccessStyle.Render(cred.String()))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", KeyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", SuccessStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(w, "  verbose: %s\n", SuccessStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}

func showConfigPath(app *App) error {
	if app.configPath != "" {
		fmt.Fprintf(app.stdout, "Config file: %s\n", app.configPath)
		return nil
	}

	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	cfgPath, err := config.FilePath(cfgDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(app.stdout, "Config file: %s\n", cfgPath)
	return nil
}

func printValue(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render(key), SuccessStyle.Render(value))
}

func printPlaceholder(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render(key), SubtitleStyle.Render(value))
}
