// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates user CUE documents against an embedded schema
// definition and decodes them into Go values.
//
//	//go:embed config_schema.cue
//	var schema []byte
//
//	doc, err := cueutil.Decode[map[string]any](schema, data, "#Config",
//	    cueutil.WithFilename(path),
//	    cueutil.WithConcrete(false),
//	)
package cueutil
