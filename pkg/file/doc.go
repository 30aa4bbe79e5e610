// SPDX-License-Identifier: BSD-3-Clause

// Package file provides atomic file operations: write to a temporary
// file in the target directory, then rename over the destination, so a
// reader never observes a partially written file and a crash never
// leaves a truncated one.
//
// Three operations cover the repo's needs:
//
//   - AtomicCreateFile creates a new file and fails if it already
//     exists (RENAME_NOREPLACE), used when materializing default
//     configuration on first run.
//   - AtomicReplaceFile replaces a file's contents, creating it if
//     absent; the layout persistence path uses this so a crashed save
//     never corrupts layout.json.
//   - AtomicUpdateFile copies the original content into the temporary
//     file before appending the new data, for append-style updates.
//
// All three chmod the temporary file before the rename so the final
// file never transitions through a default-permission window.
package file
