// SPDX-License-Identifier: BSD-3-Clause

// Package ipc runs the key server's embedded message bus: a NATS
// server living inside the process that the config RPC, the event
// publisher, and the telemetry collector all connect to over
// in-process connections, with no network socket unless the CLI needs
// one.
//
// The operator starts it first; every other service receives its
// connection provider:
//
//	ipcService := ipc.New(
//		ipc.WithJetStream(false),
//		ipc.WithListen("127.0.0.1", 4222), // expose the RPC to the CLI
//	)
//	go ipcService.Run(ctx, nil)
//
//	conn, err := ipcService.GetConnProvider().InProcessConn()
//
// GetConnProvider blocks briefly until the server has been created, and
// InProcessConn then waits for it to accept connections, so services
// racing the bus at startup still come up in order. Without WithListen
// the server sets DontListen and is reachable only in-process.
// Persistence (JetStream) is on by default in New; nothing in the key
// server uses a durable stream, and the example above turns it off.
package ipc
