// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

const (
	// MinimumDockerVersion is the oldest Docker server the launcher supports.
	MinimumDockerVersion = "20.10.0"

	dockerToolName = "docker"
)

// ErrInvalidVersion is returned when a version string cannot be normalized
// to a semantic version.
var ErrInvalidVersion = errors.New("invalid version")

type (
	// VersionSource reports the version of an installed tool.
	VersionSource interface {
		ServerVersion(ctx context.Context) (string, error)
	}

	// MinimumVersionChecker fails when the version reported by Source is
	// older than Minimum.
	MinimumVersionChecker struct {
		Source  VersionSource
		Tool    string
		Minimum string
	}
)

// NewDockerVersionChecker requires a Docker server of at least MinimumDockerVersion.
func NewDockerVersionChecker(source VersionSource) *MinimumVersionChecker {
	return &MinimumVersionChecker{Source: source, Tool: dockerToolName, Minimum: MinimumDockerVersion}
}

// CheckVersion returns a *VersionMismatchError when the installed version is
// older than the minimum. Pre-release and build suffixes are ignored, so a
// distribution build such as "20.10.24+dfsg1" counts as 20.10.24.
func (c *MinimumVersionChecker) CheckVersion(ctx context.Context) error {
	found, err := c.Source.ServerVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read %s version: %w", c.Tool, err)
	}

	have, err := normalizeVersion(found)
	if err != nil {
		return err
	}
	want, err := normalizeVersion(c.Minimum)
	if err != nil {
		return err
	}

	if semver.Compare(have, want) < 0 {
		return &VersionMismatchError{Tool: c.Tool, Found: found, Minimum: c.Minimum}
	}
	return nil
}

// normalizeVersion reduces v to a "vMAJOR.MINOR.PATCH" string accepted by
// the semver package. Leading zeros are dropped from each component since
// older Docker releases were numbered like "17.05.0-ce".
func normalizeVersion(v string) (string, error) {
	core := strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}

	parts := strings.Split(core, ".")
	for i, p := range parts {
		trimmed := strings.TrimLeft(p, "0")
		if trimmed == "" && p != "" {
			trimmed = "0"
		}
		parts[i] = trimmed
	}

	norm := "v" + strings.Join(parts, ".")
	if !semver.IsValid(norm) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return norm, nil
}
