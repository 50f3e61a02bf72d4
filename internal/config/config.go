// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/duckietown/dt-build-utils/internal/cueutil"
	"github.com/duckietown/dt-build-utils/internal/issue"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "dt-build-utils"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// TokenEnvVar overrides dt1_token from the config file.
	TokenEnvVar = "DT1_TOKEN"

	// maxConfigFileSize bounds the config file read into memory.
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// FilePath returns the config file path inside dir, or inside ConfigDir when dir is empty.
func FilePath(dir string) (string, error) {
	cfgDir, err := configDirWithOverride(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading.
// It returns the config and the path of the file it was read from ("" for defaults).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("registry", defaults.Registry)
	v.SetDefault("image", defaults.Image)
	v.SetDefault("dt1_token", defaults.DT1Token)
	v.SetDefault("docker_credentials", defaults.DockerCredentials)
	v.SetDefault("docker_host", defaults.DockerHost)
	v.SetDefault("log_dir", defaults.LogDir)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	if err := v.BindEnv("dt1_token", TokenEnvVar); err != nil {
		return nil, "", fmt.Errorf("failed to bind %s: %w", TokenEnvVar, err)
	}

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestions(
					"Verify the file path is correct",
					"Check that the file exists and is readable",
					"Run 'dt-build-utils config init' to create a default configuration",
				).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", cueLoadError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cuePath, err := FilePath(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", cueLoadError(cuePath, err)
			}
			resolvedPath = cuePath
		}
		// No config file means defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		var invalid *InvalidConfigError
		ctxBuilder := issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath)
		if errors.As(err, &invalid) {
			for _, fieldErr := range invalid.FieldErrors {
				ctxBuilder.WithSuggestion(fieldErr.Error())
			}
		}
		return nil, "", ctxBuilder.Wrap(err).BuildError()
	}

	return &cfg, resolvedPath, nil
}

// cueLoadError wraps a CUE parse or validation failure with remediation hints.
func cueLoadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestions(
			"Check that the file contains valid CUE syntax",
			"Verify the configuration values match the expected schema",
			"Run 'dt-build-utils config dump' to see a valid configuration",
		).
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.Decode[map[string]any]([]byte(configSchema), data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
		cueutil.WithMaxFileSize(maxConfigFileSize),
	)
	if err != nil {
		return err
	}

	// Merge into Viper (preserves defaults and env bindings).
	if err := v.MergeConfigMap(*configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreateDefaultConfig writes the default config file into dir (ConfigDir when empty)
// unless one already exists. It returns the config file path.
func CreateDefaultConfig(dir string) (string, error) {
	cfgPath, err := FilePath(dir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", issue.WrapWithContext(err, "create config directory", filepath.Dir(cfgPath))
	}

	if fileExists(cfgPath) {
		return cfgPath, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o600); err != nil {
		return "", issue.WrapWithContext(err, "write config file", cfgPath)
	}

	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration.
// Credential secrets are written as given, so the output must be treated like the file itself.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// dt-build-utils configuration file\n\n")

	fmt.Fprintf(&sb, "registry: %q\n", cfg.Registry)
	fmt.Fprintf(&sb, "image: %q\n", cfg.Image)
	if cfg.DT1Token != "" {
		fmt.Fprintf(&sb, "dt1_token: %q\n", cfg.DT1Token)
	}
	if cfg.DockerHost != "" {
		fmt.Fprintf(&sb, "docker_host: %q\n", cfg.DockerHost)
	}
	fmt.Fprintf(&sb, "log_dir: %q\n", cfg.LogDir)

	if len(cfg.DockerCredentials) > 0 {
		sb.WriteString("\ndocker_credentials: [\n")
		for _, cred := range cfg.DockerCredentials {
			fmt.Fprintf(&sb, "\t{registry: %q, username: %q, secret: %q},\n", cred.Registry, cred.Username, cred.Secret)
		}
		sb.WriteString("]\n")
	}

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
