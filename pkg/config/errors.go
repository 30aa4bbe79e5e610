// SPDX-License-Identifier: BSD-3-Clause

package config

import "errors"

var (
	// ErrRead indicates a configuration file could not be read.
	ErrRead = errors.New("failed to read configuration")

	// ErrParse indicates a configuration file does not decode.
	ErrParse = errors.New("failed to parse configuration")

	// ErrWriteDefault indicates a default configuration could not be
	// materialized on first run.
	ErrWriteDefault = errors.New("failed to write default configuration")

	// ErrMissingVariant indicates frontend.json lacks a variant a
	// component requires.
	ErrMissingVariant = errors.New("frontend configuration variant missing")
)
