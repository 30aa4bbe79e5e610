// SPDX-License-Identifier: BSD-3-Clause

// Package telemetry provides the key server's metrics collector: a
// service that observes what the running system actually produces and
// exports it through OpenTelemetry.
//
// Two signal sources are wired:
//
//   - Bus events. Every binding publication on the layout event
//     subject (topic byte plus payload) is counted per topic and its
//     payload size recorded, so a board's event traffic is visible
//     without instrumenting individual bindings.
//   - Layer state. The collector polls the configuration RPC on a
//     fixed interval and exports the current layer index and stack
//     depth as gauges, which makes stuck momentary overlays (a shift
//     that never unshifted) show up on a dashboard.
//
// Exporting defaults to the no-op provider; configure an OTLP endpoint
// to ship the data to a collector. The endpoint takes effect only when no
// telemetry setup is active in the process yet: the operator's default
// setup is one, and after it the collector records into that existing
// provider instead.
//
//	svc := telemetry.New(
//		telemetry.WithOTLPHTTP("http://localhost:4318"),
//		telemetry.WithCollectionInterval(10 * time.Second),
//	)
package telemetry
