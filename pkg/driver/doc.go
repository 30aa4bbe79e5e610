// SPDX-License-Identifier: BSD-3-Clause

// Package driver provides the uniform polling/output contract over
// heterogeneous input sources and the registry the layout
// engine polls once per tick. A Driver owns a private u16 state vector;
// the registry only knows it by name.
package driver
