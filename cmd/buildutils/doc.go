// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the dt-build-utils CLI commands.
//
// The root command carries the global --verbose and --config flags. The run
// command starts the build utilities container; its flags are parsed by hand
// so every argument it does not recognize reaches the container unchanged.
// The config command tree inspects and initializes the configuration file.
package cmd
