// SPDX-License-Identifier: BSD-3-Clause

// Package fschema materializes a declarative file tree: a JSON document
// of nested directories, files (inline text, copies, command output,
// symlinks), and permissions, applied under a chosen root. The gadget
// service installer uses it to write configfs trees and service units
// without hand-rolling the filesystem calls for every layout.
package fschema
