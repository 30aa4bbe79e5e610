// SPDX-License-Identifier: BSD-3-Clause

package operator

import (
	"log/slog"
	"time"

	"github.com/ellabellla/lmklib-sub000/service"
	"github.com/ellabellla/lmklib-sub000/service/ipc"
	"github.com/ellabellla/lmklib-sub000/service/rpcsrv"
)

type config struct {
	name        string
	id          string
	disableLogo bool
	customLogo  string
	otelSetup   func()
	logger      *slog.Logger
	timeout     time.Duration
	mountCheck  bool
	// IPC service needs special handling
	ipc *ipc.IPC
	// Everything of type service.Service needs to be exported
	Hidio   service.Service
	Cmdpool service.Service
	Engine  service.Service
	Rpcsrv  service.Service

	extraServices []service.Service
}

// Option represents a configuration option for the operator.
type Option interface {
	apply(*config)
}

type nameOption struct {
	name string
}

func (o *nameOption) apply(c *config) {
	c.name = o.name
}

// WithName sets the name for the operator configuration.
func WithName(name string) Option {
	return &nameOption{name: name}
}

type idOption struct {
	id string
}

func (o *idOption) apply(c *config) {
	c.id = o.id
}

// WithID sets the unique identifier for the operator configuration.
func WithID(id string) Option {
	return &idOption{id: id}
}

type disableLogoOption struct {
	disableLogo bool
}

func (o *disableLogoOption) apply(c *config) {
	c.disableLogo = o.disableLogo
}

// WithDisableLogo controls whether the logo display is disabled.
func WithDisableLogo(disableLogo bool) Option {
	return &disableLogoOption{disableLogo: disableLogo}
}

type customLogoOption struct {
	customLogo string
}

func (o *customLogoOption) apply(c *config) {
	c.customLogo = o.customLogo
}

// WithCustomLogo sets a custom logo to be displayed instead of the default.
func WithCustomLogo(customLogo string) Option {
	return &customLogoOption{customLogo: customLogo}
}

type otelSetupOption struct {
	otelSetup func()
}

func (o *otelSetupOption) apply(c *config) {
	c.otelSetup = o.otelSetup
}

// WithOtelSetup sets up OpenTelemetry configuration by providing a setup function.
func WithOtelSetup(otelSetup func()) Option {
	return &otelSetupOption{otelSetup: otelSetup}
}

type loggerOption struct {
	logger *slog.Logger
}

func (o *loggerOption) apply(c *config) {
	c.logger = o.logger
}

// WithLogger sets a custom structured logger for the operator.
func WithLogger(logger *slog.Logger) Option {
	return &loggerOption{logger: logger}
}

type timeoutOption struct {
	timeout time.Duration
}

func (o *timeoutOption) apply(c *config) {
	c.timeout = o.timeout
}

// WithTimeout sets the supervision timeout for child services.
func WithTimeout(timeout time.Duration) Option {
	return &timeoutOption{timeout: timeout}
}

type mountCheckOption struct {
	check bool
}

func (o *mountCheckOption) apply(c *config) {
	c.mountCheck = o.check
}

// WithMountCheck controls whether the operator verifies and repairs the
// pseudo-filesystem mounts at startup.
func WithMountCheck(check bool) Option {
	return &mountCheckOption{check: check}
}

type ipcOption struct {
	opts []ipc.Option
}

func (o *ipcOption) apply(c *config) {
	c.ipc = ipc.New(o.opts...)
}

// WithIPC configures the embedded IPC bus service.
func WithIPC(opts ...ipc.Option) Option {
	return &ipcOption{opts: opts}
}

type withoutIPCOption struct{}

func (o *withoutIPCOption) apply(c *config) {
	c.ipc = nil
}

// WithoutIPC disables the embedded IPC bus; the caller must then hand
// Run an external connection provider.
func WithoutIPC() Option {
	return &withoutIPCOption{}
}

type hidioOption struct {
	svc service.Service
}

func (o *hidioOption) apply(c *config) {
	c.Hidio = o.svc
}

// WithHidio installs the HID output worker service.
func WithHidio(svc service.Service) Option {
	return &hidioOption{svc: svc}
}

type cmdpoolOption struct {
	svc service.Service
}

func (o *cmdpoolOption) apply(c *config) {
	c.Cmdpool = o.svc
}

// WithCmdpool installs the subprocess pool's reaper service.
func WithCmdpool(svc service.Service) Option {
	return &cmdpoolOption{svc: svc}
}

type engineOption struct {
	svc service.Service
}

func (o *engineOption) apply(c *config) {
	c.Engine = o.svc
}

// WithEngine installs the layout tick-loop service.
func WithEngine(svc service.Service) Option {
	return &engineOption{svc: svc}
}

type rpcsrvOption struct {
	svc service.Service
}

func (o *rpcsrvOption) apply(c *config) {
	c.Rpcsrv = o.svc
}

// WithRpcsrv installs the configuration RPC service.
func WithRpcsrv(opts ...rpcsrv.Option) Option {
	return &rpcsrvOption{svc: rpcsrv.New(opts...)}
}

type extraServicesOption struct {
	services []service.Service
}

func (o *extraServicesOption) apply(c *config) {
	c.extraServices = append(c.extraServices, o.services...)
}

// WithExtraServices adds additional services to the supervision tree.
func WithExtraServices(services ...service.Service) Option {
	return &extraServicesOption{services: services}
}

type ipcInstanceOption struct {
	svc *ipc.IPC
}

func (o *ipcInstanceOption) apply(c *config) {
	c.ipc = o.svc
}

// WithIPCInstance installs an already-constructed IPC service, so the
// caller can share its connection provider with components outside the
// supervision tree.
func WithIPCInstance(svc *ipc.IPC) Option {
	return &ipcInstanceOption{svc: svc}
}
