// SPDX-License-Identifier: BSD-3-Clause

// Package layout owns the coordinate plane bindings live on: the set of
// addresses mapping driver state slots onto (x, y) cells, the ordered
// layer stack of built functions, and the per-tick poll that routes
// each observed state to the first non-empty binding looking down from
// the current layer.
//
// An Engine is also the tick-loop service: its Run alternates driver
// refresh and address poll on a fixed period, applying any layer-stack
// commands bindings returned after each full pass so a mid-tick switch
// never reroutes the remaining addresses of the same tick.
package layout
