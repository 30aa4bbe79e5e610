// SPDX-License-Identifier: BSD-3-Clause

// Package telemetry provides the OpenTelemetry setup shared by every
// key server service: a provider for traces, metrics, and logs with a
// no-op default, optional OTLP export over HTTP or gRPC, and the
// global registration the logging fanout depends on.
//
// The operator calls DefaultSetup once at startup, before the global
// logger is first read, so the otelslog bridge has a provider to hand
// its records to. Services that need their own exporter (the metrics
// collector with an OTLP endpoint configured) call Setup with options:
//
//	shutdown, err := telemetry.Setup(ctx,
//		telemetry.WithServiceName("telemetry"),
//		telemetry.WithOTLPHTTP("http://localhost:4318"),
//	)
//	if err != nil {
//		return err
//	}
//	defer shutdown(ctx)
//
// With no exporter configured every signal goes to a no-op provider,
// which keeps the instrumented hot paths (tick loop, HID worker, RPC)
// at negligible overhead on small boards.
package telemetry
