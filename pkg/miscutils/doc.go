// SPDX-License-Identifier: MPL-2.0

// Package miscutils contains small formatting and host helpers: human-readable
// durations and sizes, mDNS hostname sanitization, and SudoOpen, which reads or
// writes a file through a sudo-wrapped cat/tee child process.
package miscutils
