// SPDX-License-Identifier: BSD-3-Clause

package telemetry

import (
	"time"

	"github.com/ellabellla/lmklib-sub000/pkg/telemetry"
)

// config holds the configuration for the metrics collector.
type config struct {
	serviceName        string
	collectionInterval time.Duration
	exporterOpts       []telemetry.Option
}

// Option represents a configuration option for the collector.
type Option interface {
	apply(*config)
}

type serviceNameOption struct {
	name string
}

func (o *serviceNameOption) apply(c *config) {
	c.serviceName = o.name
}

// WithServiceName sets the service name.
func WithServiceName(name string) Option {
	return &serviceNameOption{name: name}
}

type collectionIntervalOption struct {
	interval time.Duration
}

func (o *collectionIntervalOption) apply(c *config) {
	c.collectionInterval = o.interval
}

// WithCollectionInterval sets how often the layer-state gauges poll
// the configuration RPC.
func WithCollectionInterval(interval time.Duration) Option {
	return &collectionIntervalOption{interval: interval}
}

type otlpHTTPOption struct {
	endpoint string
}

func (o *otlpHTTPOption) apply(c *config) {
	c.exporterOpts = append(c.exporterOpts, telemetry.WithOTLPHTTP(o.endpoint))
}

// WithOTLPHTTP ships collected metrics via OTLP over HTTP instead of
// the default no-op provider.
func WithOTLPHTTP(endpoint string) Option {
	return &otlpHTTPOption{endpoint: endpoint}
}

type otlpGRPCOption struct {
	endpoint string
}

func (o *otlpGRPCOption) apply(c *config) {
	c.exporterOpts = append(c.exporterOpts, telemetry.WithOTLPgRPC(o.endpoint))
}

// WithOTLPgRPC ships collected metrics via OTLP over gRPC instead of
// the default no-op provider.
func WithOTLPgRPC(endpoint string) Option {
	return &otlpGRPCOption{endpoint: endpoint}
}
