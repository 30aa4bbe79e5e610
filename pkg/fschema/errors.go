// SPDX-License-Identifier: BSD-3-Clause

package fschema

import "errors"

var (
	// ErrParse indicates a schema document that does not decode.
	ErrParse = errors.New("failed to parse file schema")

	// ErrCreate indicates a node could not be materialized.
	ErrCreate = errors.New("failed to create schema node")

	// ErrCommand indicates a pre/post-build or pipe command failed.
	ErrCommand = errors.New("schema command failed")
)
