// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. The issue catalog holds longer Markdown guidance for the
// failures users hit most often (Docker missing or too old, no dt1 token, a
// failing container) and renders it with glamour.
package issue
