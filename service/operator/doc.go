// SPDX-License-Identifier: BSD-3-Clause

// Package operator provides the service orchestrator for the key
// server. It acts as the central coordinator for the core workers,
// handling service lifecycle management, inter-process communication
// setup, and providing a supervision tree for automatic service
// recovery.
//
// The operator is the main entry point of the key server process and
// is responsible for starting, monitoring, and coordinating the HID
// output worker, the subprocess pool's reaper, the layout tick loop,
// and the configuration RPC.
//
// # Core Features
//
//   - Service lifecycle management and orchestration
//   - Fault-tolerant supervision with automatic restart policies
//   - Inter-process communication coordination via the embedded bus
//   - Configurable service selection
//   - Pseudo-filesystem mount verification at startup
//   - OpenTelemetry integration for observability
//   - Graceful shutdown handling
//
// # Architecture
//
// The operator follows a supervision tree pattern: services are
// organized under a root supervisor with restart policies, so a
// crashed worker is restarted without taking the process down.
//
// # Usage
//
//	op := operator.New(
//		operator.WithName("keyserver"),
//		operator.WithHidio(hidWorker),
//		operator.WithCmdpool(pool),
//		operator.WithEngine(engine),
//		operator.WithRpcsrv(
//			rpcsrv.WithLayout(l),
//			rpcsrv.WithVariables(vars),
//		),
//	)
//	if err := op.Run(ctx, nil); err != nil {
//		// the tree went down
//	}
package operator
