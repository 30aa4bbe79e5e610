// SPDX-License-Identifier: BSD-3-Clause

// Package modulehost loads external function and driver plugins and
// runs each one on its own worker goroutine. A module directory
// carries a meta.json declaring its name, interface kind (function or
// driver), and implementation type: a native shared object with the
// stable plugin ABI, or a Python file bridged over a line-oriented
// subprocess protocol.
//
// All calls into a module are request records sent over the worker's
// channel and paired with a reply channel, so the module's state is
// only ever touched by its own worker. A call that fails inside the
// module is surfaced as a module error carrying the module's message;
// a call that cannot be dispatched at all (unknown module, dead
// worker) is a dispatch error.
package modulehost
