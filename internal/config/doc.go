// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/dt-build-utils/config.cue (or the XDG equivalent on
// Linux, ~/Library/Application Support/dt-build-utils/config.cue on macOS,
// %APPDATA%\dt-build-utils\config.cue on Windows). It plays the role of the shell
// configuration of the host framework: registry and image defaults, the dt1 token, Docker
// registry credentials, the Docker host and the base directory for run logs.
//
// Configuration files are validated against an embedded CUE schema (config_schema.cue)
// before being merged into Viper, so unknown keys and wrongly typed values are reported
// with file positions.
package config
