// SPDX-License-Identifier: BSD-3-Clause

package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	ipcPkg "github.com/ellabellla/lmklib-sub000/pkg/ipc"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
	"github.com/ellabellla/lmklib-sub000/pkg/telemetry"
	"github.com/ellabellla/lmklib-sub000/service"
)

const defaultCollectionInterval = 30 * time.Second

// Telemetry is the key server's metrics collector service.
type Telemetry struct {
	config

	mu          sync.Mutex
	started     bool
	topicCounts map[byte]uint64
	eventBytes  uint64

	logger *slog.Logger
}

var _ service.Service = (*Telemetry)(nil)

// New creates the collector.
func New(opts ...Option) *Telemetry {
	cfg := config{
		serviceName:        "telemetry",
		collectionInterval: defaultCollectionInterval,
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return &Telemetry{
		config:      cfg,
		topicCounts: make(map[byte]uint64),
	}
}

// Name implements service.Service.
func (s *Telemetry) Name() string { return s.serviceName }

// Run implements service.Service: subscribes to the bus event subject
// and polls the layer state until the context is canceled.
func (s *Telemetry) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrServiceAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	s.logger = log.GetGlobalLogger().With("service", s.serviceName)

	// An explicit exporter gets its own provider setup; otherwise the
	// process-wide (no-op by default) provider from the operator's
	// startup is reused. A setup that was already done by the operator
	// is not fatal, the collector just records into that provider.
	if len(s.exporterOpts) > 0 {
		opts := append([]telemetry.Option{telemetry.WithServiceName(s.serviceName)}, s.exporterOpts...)
		shutdown, err := telemetry.Setup(ctx, opts...)
		if err != nil {
			s.logger.Warn("exporter setup unavailable, using the process provider", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					s.logger.Error("telemetry shutdown failed", "error", err)
				}
			}()
		}
	}

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}
	defer nc.Drain() //nolint:errcheck

	meter := otel.Meter(s.serviceName)
	eventsTotal, err := meter.Int64Counter("keyserver_bus_events_total",
		metric.WithDescription("Binding publications observed on the layout event subject"),
		metric.WithUnit("1"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMeterSetup, err)
	}
	eventSize, err := meter.Int64Histogram("keyserver_bus_event_bytes",
		metric.WithDescription("Payload size of binding publications"),
		metric.WithUnit("By"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMeterSetup, err)
	}
	layerIdx, err := meter.Int64Gauge("keyserver_layer_index",
		metric.WithDescription("Current layer index of the live layout"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMeterSetup, err)
	}
	numLayers, err := meter.Int64Gauge("keyserver_layer_count",
		metric.WithDescription("Depth of the live layer stack"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMeterSetup, err)
	}

	sub, err := nc.Subscribe(ipcPkg.SubjectLayoutEvent, func(msg *nats.Msg) {
		topic, size := s.recordEvent(msg.Data)
		eventsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.Int("topic", int(topic)),
		))
		eventSize.Record(ctx, int64(size))
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}
	defer sub.Unsubscribe() //nolint:errcheck

	s.logger.InfoContext(ctx, "telemetry collector started",
		"subject", ipcPkg.SubjectLayoutEvent,
		"interval", s.collectionInterval)

	ticker := time.NewTicker(s.collectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "telemetry collector stopping")
			return ctx.Err()
		case <-ticker.C:
			s.pollLayerState(ctx, nc, layerIdx, numLayers)
		}
	}
}

// recordEvent accounts one bus publication: the first byte is the
// topic, the remainder the body.
func (s *Telemetry) recordEvent(payload []byte) (topic byte, size int) {
	if len(payload) > 0 {
		topic = payload[0]
	}
	s.mu.Lock()
	s.topicCounts[topic]++
	s.eventBytes += uint64(len(payload))
	s.mu.Unlock()
	return topic, len(payload)
}

// snapshot returns the per-topic counts and total bytes seen so far.
func (s *Telemetry) snapshot() (map[byte]uint64, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[byte]uint64, len(s.topicCounts))
	for topic, n := range s.topicCounts {
		counts[topic] = n
	}
	return counts, s.eventBytes
}

// pollLayerState asks the configuration RPC for the live layer state
// and records the gauges. A key server without the RPC running is
// logged and skipped, not an error: the collector outlives restarts of
// its peers.
func (s *Telemetry) pollLayerState(ctx context.Context, nc *nats.Conn, layerIdx, numLayers metric.Int64Gauge) {
	idx, err := s.queryCounter(nc, `"LayerIdx"`)
	if err != nil {
		s.logger.DebugContext(ctx, "layer index poll failed", "error", err)
		return
	}
	depth, err := s.queryCounter(nc, `"NumLayers"`)
	if err != nil {
		s.logger.DebugContext(ctx, "layer count poll failed", "error", err)
		return
	}
	layerIdx.Record(ctx, idx)
	numLayers.Record(ctx, depth)
}

// queryCounter sends one JSON-encoded command to the configuration RPC
// and parses the decimal reply.
func (s *Telemetry) queryCounter(nc *nats.Conn, command string) (int64, error) {
	reply, err := nc.Request(ipcPkg.SubjectConfigRPC, []byte(command), 2*time.Second)
	if err != nil {
		return 0, err
	}
	return parseCounterReply(reply.Data)
}

func parseCounterReply(data []byte) (int64, error) {
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadReply, data)
	}
	return n, nil
}
