// SPDX-License-Identifier: BSD-3-Clause

// Package log provides the key server's logging stack: log/slog as
// the API, zerolog for human-readable console output, and a fanout to
// the OpenTelemetry log bridge so every record also reaches whatever
// exporter the telemetry setup configured (a no-op by default).
//
// Services derive their logger from the global one:
//
//	logger := log.GetGlobalLogger().With("service", "hidio")
//	logger.InfoContext(ctx, "backend registered", "backend", name)
//
// Recoverable failures inside the tick loop are logged and swallowed
// so one bad driver read or device write never stalls polling:
//
//	if err := d.Tick(ctx); err != nil {
//		logger.ErrorContext(ctx, "driver tick failed", "driver", name, "error", err)
//	}
//
// The package also carries the adapters other parts of the stack
// require: NewOversightLogger bridges slog into the supervision
// tree's logger interface, and NewNATSLogger into the embedded bus
// server's.
package log
