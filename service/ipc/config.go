// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// Defaults for the embedded bus.
const (
	DefaultServiceName        = "ipc"
	DefaultServiceDescription = "Embedded message bus for the key server"
	DefaultServiceVersion     = "1.0.0"
	DefaultServerName         = "lmk-ipc"
	DefaultStoreDir           = "/var/lib/lmk/ipc"
	DefaultMaxMemory          = 64 * 1024 * 1024
	DefaultMaxStorage         = 256 * 1024 * 1024
	DefaultStartupTimeout     = 10 * time.Second
	DefaultShutdownTimeout    = 10 * time.Second
)

type config struct {
	serviceName                 string
	serviceDescription          string
	serviceVersion              string
	serverName                  string
	storeDir                    string
	enableJetStream             bool
	dontListen                  bool
	host                        string
	port                        int
	maxMemory                   int64
	maxStorage                  int64
	startupTimeout              time.Duration
	shutdownTimeout             time.Duration
	maxConnections              int
	maxControlLine              int32
	maxPayload                  int32
	writeDeadline               time.Duration
	pingInterval                time.Duration
	maxPingsOut                 int
	enableSlowConsumerDetection bool
	slowConsumerThreshold       time.Duration
	serverOpts                  *server.Options
}

// Validate checks the configuration for inconsistencies.
func (c *config) Validate() error {
	if c.serviceName == "" || c.serverName == "" {
		return ErrInvalidConfiguration
	}
	if c.enableJetStream && c.storeDir == "" {
		return ErrInvalidConfiguration
	}
	if c.startupTimeout <= 0 || c.shutdownTimeout <= 0 {
		return ErrInvalidConfiguration
	}
	return nil
}

// ToServerOptions renders the embedded server's options. With
// dontListen set the server accepts only in-process connections.
func (c *config) ToServerOptions() *server.Options {
	if c.serverOpts != nil {
		return c.serverOpts
	}
	return &server.Options{
		ServerName:         c.serverName,
		DontListen:         c.dontListen,
		Host:               c.host,
		Port:               c.port,
		JetStream:          c.enableJetStream,
		JetStreamMaxMemory: c.maxMemory,
		JetStreamMaxStore:  c.maxStorage,
		StoreDir:           c.storeDir,
		MaxConn:            c.maxConnections,
		MaxControlLine:     c.maxControlLine,
		MaxPayload:         c.maxPayload,
		WriteDeadline:      c.writeDeadline,
		PingInterval:       c.pingInterval,
		MaxPingsOut:        c.maxPingsOut,
	}
}

// Option represents a configuration option for the IPC service.
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

// WithName sets the service name.
func WithName(name string) Option {
	return &serviceNameOption{name: name}
}

type serverNameOption struct {
	name string
}

func (o *serverNameOption) apply(c *config) {
	c.serverName = o.name
}

// WithServerName sets the embedded server's name.
func WithServerName(name string) Option {
	return &serverNameOption{name: name}
}

type jetStreamOption struct {
	enable bool
}

func (o *jetStreamOption) apply(c *config) {
	c.enableJetStream = o.enable
}

// WithJetStream toggles the embedded server's persistence layer.
func WithJetStream(enable bool) Option {
	return &jetStreamOption{enable: enable}
}

type storeDirOption struct {
	dir string
}

func (o *storeDirOption) apply(c *config) {
	c.storeDir = o.dir
}

// WithStoreDir sets the persistence directory.
func WithStoreDir(dir string) Option {
	return &storeDirOption{dir: dir}
}

type maxMemoryOption struct {
	limit int64
}

func (o *maxMemoryOption) apply(c *config) {
	c.maxMemory = o.limit
}

// WithMaxMemory bounds the in-memory storage of the persistence layer.
func WithMaxMemory(limit int64) Option {
	return &maxMemoryOption{limit: limit}
}

type maxStorageOption struct {
	limit int64
}

func (o *maxStorageOption) apply(c *config) {
	c.maxStorage = o.limit
}

// WithMaxStorage bounds the on-disk storage of the persistence layer.
func WithMaxStorage(limit int64) Option {
	return &maxStorageOption{limit: limit}
}

type startupTimeoutOption struct {
	timeout time.Duration
}

func (o *startupTimeoutOption) apply(c *config) {
	c.startupTimeout = o.timeout
}

// WithStartupTimeout bounds how long the server may take to accept
// connections.
func WithStartupTimeout(timeout time.Duration) Option {
	return &startupTimeoutOption{timeout: timeout}
}

type shutdownTimeoutOption struct {
	timeout time.Duration
}

func (o *shutdownTimeoutOption) apply(c *config) {
	c.shutdownTimeout = o.timeout
}

// WithShutdownTimeout bounds the graceful shutdown drain.
func WithShutdownTimeout(timeout time.Duration) Option {
	return &shutdownTimeoutOption{timeout: timeout}
}

type listenOption struct {
	host string
	port int
}

func (o *listenOption) apply(c *config) {
	c.dontListen = false
	c.host = o.host
	c.port = o.port
}

// WithListen additionally exposes the bus on a TCP socket so external
// clients (the CLI) can reach the configuration RPC.
func WithListen(host string, port int) Option {
	return &listenOption{host: host, port: port}
}

type serverOption struct {
	opts *server.Options
}

func (o *serverOption) apply(c *config) {
	c.serverOpts = o.opts
}

// WithServerOpts overrides the embedded server's options entirely.
func WithServerOpts(opts *server.Options) Option {
	return &serverOption{
		opts: opts,
	}
}
