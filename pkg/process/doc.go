// SPDX-License-Identifier: BSD-3-Clause

// Package process adapts a service.Service onto the supervision tree's
// child-process contract. New wraps the service's Run with the shared
// IPC connection provider and panic recovery, so one crashing worker
// is restarted by the tree instead of taking the key server down:
//
//	tree.Add(
//		process.New(hidWorker, conn),
//		oversight.Transient(),
//		oversight.Timeout(10*time.Second),
//		hidWorker.Name(),
//	)
//
// NewStub provides a named no-op child for slots that must exist in
// the tree but have nothing to run (the external-IPC case).
package process
