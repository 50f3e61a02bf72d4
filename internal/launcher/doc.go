// SPDX-License-Identifier: MPL-2.0

// Package launcher starts the build utilities container.
//
// Launcher implements the launch sequence: Docker version check, development
// mode detection, token lookup, container naming, log path construction and
// the final run. Every external concern sits behind a narrow interface
// (VersionChecker, TokenProvider, DockerEnvironment, ContainerRunner, Clock) so
// the sequence is testable without a daemon. DockerRunner is the production
// ContainerRunner, built on the Docker CLI engine of internal/container.
package launcher
