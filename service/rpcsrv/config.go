// SPDX-License-Identifier: BSD-3-Clause

package rpcsrv

import (
	"github.com/ellabellla/lmklib-sub000/pkg/layout"
	"github.com/ellabellla/lmklib-sub000/pkg/variables"
)

// config holds the configuration for the RPC service.
type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string
	layout             *layout.Layout
	variables          *variables.Table
	layoutPath         string
}

// Option represents a configuration option for the RPC service.
type Option interface {
	apply(*config)
}

type nameOption struct{ name string }

func (o *nameOption) apply(c *config) { c.serviceName = o.name }

// WithName sets the service name.
func WithName(name string) Option {
	return &nameOption{name: name}
}

type layoutOption struct{ layout *layout.Layout }

func (o *layoutOption) apply(c *config) { c.layout = o.layout }

// WithLayout sets the live layout the RPC inspects and mutates.
func WithLayout(l *layout.Layout) Option {
	return &layoutOption{layout: l}
}

type variablesOption struct{ table *variables.Table }

func (o *variablesOption) apply(c *config) { c.variables = o.table }

// WithVariables sets the live variables table.
func WithVariables(t *variables.Table) Option {
	return &variablesOption{table: t}
}

type layoutPathOption struct{ path string }

func (o *layoutPathOption) apply(c *config) { c.layoutPath = o.path }

// WithLayoutPath sets the file SaveLayout persists to.
func WithLayoutPath(path string) Option {
	return &layoutPathOption{path: path}
}
