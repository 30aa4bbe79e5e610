// SPDX-License-Identifier: BSD-3-Clause

package log

import (
	"log/slog"

	"github.com/rs/zerolog"
	slogmulti "github.com/samber/slog-multi"
	slogzerolog "github.com/samber/slog-zerolog/v2"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
)

// newFanoutLogger builds the shared handler stack: zerolog console
// output for humans, fanned out to the global OpenTelemetry logger
// provider for everything else. The provider is read at call time so
// loggers created after the telemetry setup pick up the real bridge.
func newFanoutLogger() *slog.Logger {
	zeroLogger := zerolog.
		New(zerolog.NewConsoleWriter()).
		With().
		Timestamp().
		Logger()

	otelHandler := otelslog.NewHandler("keyserver",
		otelslog.WithLoggerProvider(global.GetLoggerProvider()))

	return slog.New(slogmulti.Fanout(
		slogzerolog.Option{Level: slog.LevelDebug, Logger: &zeroLogger}.NewZerologHandler(),
		otelHandler,
	))
}

// NewDefaultLogger creates a structured logger that writes to the
// console and to OpenTelemetry. Use it for components constructed
// before the operator has run the telemetry setup.
func NewDefaultLogger() *slog.Logger {
	return newFanoutLogger()
}

// GetGlobalLogger returns the logger every service derives its own
// from, typically narrowed with With("service", name).
func GetGlobalLogger() *slog.Logger {
	return newFanoutLogger()
}
