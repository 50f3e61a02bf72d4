// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type (
	// ActionableError is a user-facing error: what failed, on which resource,
	// why, and what the user can do about it.
	//
	//	return issue.NewErrorContext().
	//		WithOperation("load configuration").
	//		WithResource(path).
	//		WithSuggestion("Run 'dt-build-utils config init'").
	//		Wrap(err).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "load configuration".
		Operation string
		// Resource is the file, image or host involved, if any.
		Resource string
		// Suggestions are printed below the message by Format.
		Suggestions []string
		// Cause is the underlying error, if any.
		Cause error
	}

	// ErrorContext collects the parts of an ActionableError. A context can be
	// prepared once and built several times with different causes.
	ErrorContext struct {
		parts ActionableError
	}
)

// NewErrorContext returns an empty ErrorContext.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// WrapWithContext wraps err with an operation and a resource. It returns nil for a nil err.
func WrapWithContext(err error, operation, resource string) *ActionableError {
	if err == nil {
		return nil
	}
	return &ActionableError{Operation: operation, Resource: resource, Cause: err}
}

// Error returns "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the cause.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the message followed by one bullet per suggestion. With
// verbose set, the numbered chain of wrapped errors is appended.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if e.HasSuggestions() {
		b.WriteString("\n")
		for _, s := range e.Suggestions {
			b.WriteString("\n  • " + s)
		}
	}

	if verbose && e.Cause != nil {
		b.WriteString("\n\nError chain:")
		for depth, err := 1, e.Cause; err != nil; depth, err = depth+1, errors.Unwrap(err) {
			fmt.Fprintf(&b, "\n  %d. %s", depth, err)
		}
	}

	return b.String()
}

// HasSuggestions reports whether Format prints any suggestion.
func (e *ActionableError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// WithOperation sets the operation, e.g. "pull image".
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.parts.Operation = op
	return c
}

// WithResource sets the resource.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.parts.Resource = res
	return c
}

// WithSuggestion appends one suggestion.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	return c.WithSuggestions(sug)
}

// WithSuggestions appends suggestions in order.
func (c *ErrorContext) WithSuggestions(sugs ...string) *ErrorContext {
	c.parts.Suggestions = append(c.parts.Suggestions, sugs...)
	return c
}

// Wrap sets the cause, replacing any previous one.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.parts.Cause = err
	return c
}

// Build returns the ActionableError, or nil when no operation was set.
// Later changes to the context do not affect errors already built.
func (c *ErrorContext) Build() *ActionableError {
	if c.parts.Operation == "" {
		return nil
	}
	ae := c.parts
	ae.Suggestions = slices.Clone(c.parts.Suggestions)
	return &ae
}

// BuildError is Build returning an error interface; it is a nil interface
// when no operation was set.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
