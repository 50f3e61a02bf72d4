// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"github.com/duckietown/dt-build-utils/pkg/miscutils"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultRegistry is used for ${AIDO_REGISTRY} when neither the environment
	// nor the config file provides one.
	DefaultRegistry = "docker.io"
	// DefaultImage is the image reference used when --image is not given.
	DefaultImage = "${AIDO_REGISTRY}/duckietown/duckietown-challenges-cli:daffy-amd64"
	// DefaultLogDir is the base directory for run logs.
	DefaultLogDir = "/tmp"

	// defaultDockerPort is the unencrypted Docker API port used for bare hostnames.
	defaultDockerPort = "2375"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidDockerCredential is the sentinel error wrapped by InvalidDockerCredentialError.
	ErrInvalidDockerCredential = errors.New("invalid docker credential")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrMissingToken is returned when no dt1 token is configured.
	ErrMissingToken = errors.New("dt1 token not set")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// DockerCredential holds the login for one registry.
	DockerCredential struct {
		// Registry is the registry domain (e.g., "docker.io", "registry.example.com:5000").
		Registry string `json:"registry" mapstructure:"registry"`
		// Username is the registry account name.
		Username string `json:"username" mapstructure:"username"`
		// Secret is the password or access token. It is never printed.
		Secret string `json:"secret" mapstructure:"secret"`
	}

	// InvalidDockerCredentialError is returned when a DockerCredential misses
	// its registry or username.
	InvalidDockerCredentialError struct {
		Registry string
		Reason   string
	}

	// UIConfig contains user interface settings.
	UIConfig struct {
		// ColorScheme sets the color scheme used to render issues.
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging by default.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// Config is the application configuration.
	Config struct {
		// Registry is substituted for ${AIDO_REGISTRY} when the variable is unset.
		Registry string `json:"registry" mapstructure:"registry"`
		// Image is the default image reference for the run command.
		Image string `json:"image" mapstructure:"image"`
		// DT1Token is the Duckietown token handed to the container.
		DT1Token string `json:"dt1_token" mapstructure:"dt1_token"`
		// DockerCredentials are used to log into registries before pulling.
		DockerCredentials []DockerCredential `json:"docker_credentials" mapstructure:"docker_credentials"`
		// DockerHost selects the Docker daemon. Empty means the environment default.
		DockerHost string `json:"docker_host" mapstructure:"docker_host"`
		// LogDir is the base directory for per-run log files.
		LogDir string `json:"log_dir" mapstructure:"log_dir"`
		// UI contains user interface settings.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// InvalidConfigError is returned when a Config has one or more invalid fields.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Validate returns an error if the ColorScheme is not one of the defined schemes.
// The zero value is treated as auto.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight, "":
		return nil
	default:
		return &InvalidColorSchemeError{Value: c}
	}
}

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// Error implements the error interface.
func (e *InvalidDockerCredentialError) Error() string {
	return fmt.Sprintf("invalid docker credential for registry %q: %s", e.Registry, e.Reason)
}

// Unwrap returns ErrInvalidDockerCredential for errors.Is() compatibility.
func (e *InvalidDockerCredentialError) Unwrap() error { return ErrInvalidDockerCredential }

// Validate returns an error if the registry or the username is empty.
func (d DockerCredential) Validate() error {
	if strings.TrimSpace(d.Registry) == "" {
		return &InvalidDockerCredentialError{Registry: d.Registry, Reason: "registry must be non-empty"}
	}
	if strings.TrimSpace(d.Username) == "" {
		return &InvalidDockerCredentialError{Registry: d.Registry, Reason: "username must be non-empty"}
	}
	return nil
}

// String returns "username@registry" and never includes the secret.
func (d DockerCredential) String() string {
	return d.Username + "@" + d.Registry
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate checks the fields CUE cannot express: duplicate registries and
// the color scheme of configs built in code.
func (c *Config) Validate() error {
	var errs []error
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.LogDir != "" && !filepath.IsAbs(c.LogDir) {
		errs = append(errs, fmt.Errorf("log_dir %q must be an absolute path", c.LogDir))
	}
	seen := make(map[string]bool)
	for _, cred := range c.DockerCredentials {
		if err := cred.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		key := strings.ToLower(cred.Registry)
		if seen[key] {
			errs = append(errs, &InvalidDockerCredentialError{Registry: cred.Registry, Reason: "duplicate registry"})
		}
		seen[key] = true
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Token returns the configured dt1 token.
func (c *Config) Token() (string, error) {
	token := strings.TrimSpace(c.DT1Token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// CredentialFor returns the credential configured for the registry domain.
// Registry names are compared case-insensitively.
func (c *Config) CredentialFor(registry string) (DockerCredential, bool) {
	for _, cred := range c.DockerCredentials {
		if strings.EqualFold(cred.Registry, registry) {
			return cred, true
		}
	}
	return DockerCredential{}, false
}

// DockerHostURL returns the daemon address for DockerHost.
// URLs are returned unchanged; a bare hostname or IP address is turned into
// tcp://<host>:2375, with ".local" appended to hostnames.
func (c *Config) DockerHostURL() string {
	host := strings.TrimSpace(c.DockerHost)
	if host == "" || strings.Contains(host, "://") {
		return host
	}
	if h, port, err := net.SplitHostPort(host); err == nil {
		return "tcp://" + net.JoinHostPort(miscutils.SanitizeHostname(h), port)
	}
	return "tcp://" + net.JoinHostPort(miscutils.SanitizeHostname(host), defaultDockerPort)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Registry:          DefaultRegistry,
		Image:             DefaultImage,
		DockerCredentials: []DockerCredential{},
		LogDir:            DefaultLogDir,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
