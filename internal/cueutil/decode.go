// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DefaultMaxFileSize bounds the documents Decode accepts (1MiB).
const DefaultMaxFileSize int64 = 1 << 20

type (
	decodeOptions struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures Decode.
	Option func(*decodeOptions)
)

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(size int64) Option {
	return func(o *decodeOptions) { o.maxFileSize = size }
}

// WithConcrete controls whether every value must be concrete after
// unification. Defaults to true; optional-only configs pass false.
func WithConcrete(concrete bool) Option {
	return func(o *decodeOptions) { o.concrete = concrete }
}

// WithFilename sets the name used in positions and error messages.
func WithFilename(name string) Option {
	return func(o *decodeOptions) { o.filename = name }
}

// Decode compiles schema, unifies the definition at schemaPath with data,
// validates the result and decodes it into a T.
// Errors about the user document carry the file name and a JSON-style path.
func Decode[T any](schema, data []byte, schemaPath string, opts ...Option) (*T, error) {
	o := decodeOptions{maxFileSize: DefaultMaxFileSize, concrete: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.filename == "" {
		o.filename = "<input>"
	}

	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}
	def := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if def.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, def.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(o.filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), o.filename)
	}

	unified := def.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return nil, FormatError(err, o.filename)
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, o.filename)
	}
	return &out, nil
}
