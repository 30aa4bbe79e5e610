// SPDX-License-Identifier: BSD-3-Clause

package layout

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ellabellla/lmklib-sub000/service"
)

const defaultTickPeriod = 10 * time.Millisecond

// Engine is the tick-loop service: it alternates driver refresh and
// address poll on a fixed period until its context is canceled.
type Engine struct {
	name   string
	period time.Duration
	layout *Layout
}

var _ service.Service = (*Engine)(nil)

// NewEngine wraps a layout in its tick-loop service.
func NewEngine(l *Layout) *Engine {
	return &Engine{name: "layout-engine", period: defaultTickPeriod, layout: l}
}

// WithTickPeriod overrides the tick period, returning the engine.
func (e *Engine) WithTickPeriod(period time.Duration) *Engine {
	e.period = period
	return e
}

// Layout returns the engine's layout for RPC access.
func (e *Engine) Layout() *Layout { return e.layout }

// Name implements service.Service.
func (e *Engine) Name() string { return e.name }

// Run implements service.Service.
func (e *Engine) Run(ctx context.Context, _ nats.InProcessConnProvider) error {
	ticker := time.NewTicker(e.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.layout.Tick(ctx)
			e.layout.Poll(ctx)
		}
	}
}
