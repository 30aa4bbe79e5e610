// SPDX-License-Identifier: BSD-3-Clause

package operator

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"cirello.io/oversight/v2"
	"github.com/arunsworld/nursery"
	"github.com/nats-io/nats.go"

	"github.com/ellabellla/lmklib-sub000/pkg/id"
	ipcPkg "github.com/ellabellla/lmklib-sub000/pkg/ipc"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
	"github.com/ellabellla/lmklib-sub000/pkg/mount"
	"github.com/ellabellla/lmklib-sub000/pkg/process"
	"github.com/ellabellla/lmklib-sub000/pkg/telemetry"
	"github.com/ellabellla/lmklib-sub000/service"
	"github.com/ellabellla/lmklib-sub000/service/ipc"
)

const defaultLogo = `
  _            _     _ _ _
 | |          | |   | (_) |
 | | _ __ ___ | | __| |_| |__
 | || '_ \/ _ \| |/ /| | | '_ \
 | || | | | | ||   < | | | |_) |
 |_||_| |_| |_||_|\_\|_|_|_.__/
          key server
`

// Compile-time assertion that Operator implements service.Service.
var _ service.Service = (*Operator)(nil)

// Operator manages the lifecycle of the key server's services in a
// supervised environment.
type Operator struct {
	config
}

// New creates a new Operator instance with the provided configuration
// options. Services are installed through options; anything left nil is
// simply not supervised.
//
// Example usage:
//
//	op := operator.New(
//		operator.WithName("keyserver"),
//		operator.WithHidio(hidWorker),
//		operator.WithEngine(engine),
//	)
func New(opts ...Option) *Operator {
	cfg := &config{
		name:       "operator",
		id:         "",
		otelSetup:  telemetry.DefaultSetup,
		logger:     log.NewDefaultLogger(),
		timeout:    10 * time.Second,
		mountCheck: true,
		ipc:        ipc.New(),
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return &Operator{
		config: *cfg,
	}
}

// Name returns the configured name of the operator service.
func (s *Operator) Name() string {
	return s.name
}

// Run starts the operator and all configured services under
// supervision. It sets up the supervision tree, brings up the embedded
// IPC bus, and manages the lifecycle of every installed service until
// the provided context is canceled or a fatal error occurs.
//
// The ipcConn parameter can be nil if an IPC service is configured via
// options. If both ipcConn and an IPC service are provided, the
// external ipcConn takes precedence.
func (s *Operator) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) (err error) {
	if s.name == "" {
		return ErrNameEmpty
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s %w: %v", s.Name(), ErrPanicked, r)
		}
	}()

	// Several services rely on the telemetry setup to be done because of
	// our custom logger. We do the setup here while any non-noop
	// telemetry configuration handling is left to the caller.
	s.otelSetup()

	// This needs to be called after s.otelSetup to make sure any OTEL
	// Log implementation is registered first.
	l := log.GetGlobalLogger()

	if s.id == "" {
		idStr, err := id.GetOrCreatePersistentID(s.Name(), "/var/lmk/id")
		if err != nil {
			l.ErrorContext(ctx, "Failed to get/create persistent ID, using ephemeral ID", "error", err)
			s.id = id.NewID()
		} else {
			s.id = idStr
		}
	}

	if !s.disableLogo {
		if s.customLogo != "" {
			l.Info(s.customLogo)
		} else {
			l.Info(defaultLogo)
		}
	}

	// Init should have set up the pseudo-filesystems already, but the
	// gadget path depends on configfs so verify rather than rely on it.
	if s.mountCheck {
		l.InfoContext(ctx, "Checking filesystem mounts", "service", s.name)
		if err := mount.SetupMounts(); err != nil {
			l.WarnContext(ctx, "Failed to setup mounts correctly, continuing anyways", "service", s.name, "error", err)
		}
	}

	supervisionTree := oversight.New(
		oversight.NeverHalt(),
		oversight.DefaultRestartStrategy(),
		oversight.WithLogger(log.NewOversightLogger(l)),
	)

	// A user needs to either provide a valid ipcConn when starting the
	// operator or let us create an IPC service ourselves from the
	// configuration. If both are provided we will NOT start another IPC
	// service but re-use the provided ipcConn!
	if s.ipc == nil && ipcConn == nil {
		return ErrIPCNil
	}

	if s.ipc != nil && ipcConn == nil {
		if err := supervisionTree.Add(
			process.New(s.ipc, nil),
			oversight.Transient(),
			oversight.Timeout(s.timeout),
			s.ipc.Name(),
		); err != nil {
			return fmt.Errorf("%w %s to tree: %w", ErrAddProcess, s.ipc.Name(), err)
		}
	} else {
		if err := supervisionTree.Add(
			process.New(ipcPkg.NewStub(), nil),
			oversight.Transient(),
			oversight.Timeout(s.timeout),
			"ipc-stub",
		); err != nil {
			return fmt.Errorf("%w %s to tree: %w", ErrAddProcess, "ipc-stub", err)
		}
	}

	supervise := func(ctx context.Context, c chan error) {
		c <- supervisionTree.Start(ctx)
	}

	spawnProcs := func(ctx context.Context, c chan error) {
		var conn nats.InProcessConnProvider
		if ipcConn != nil {
			conn = ipcConn
		} else {
			conn = s.ipc.GetConnProvider()
		}

		// Dynamically add all service.Service fields to the tree.
		configValue := reflect.ValueOf(s.config)
		for i := range configValue.NumField() {
			field := configValue.Field(i)

			if field.IsValid() && field.CanInterface() {
				v := field.Interface()
				if v == nil {
					continue
				}
				if svc, ok := v.(service.Service); ok {
					if err := supervisionTree.Add(
						process.New(svc, conn),
						oversight.Transient(),
						oversight.Timeout(s.timeout),
						svc.Name(),
					); err != nil {
						c <- fmt.Errorf("%w %s to tree: %w", ErrAddProcess, svc.Name(), err)
						return
					}
				}
			}
		}

		for _, svc := range s.extraServices {
			if err := supervisionTree.Add(
				process.New(svc, conn),
				oversight.Transient(),
				oversight.Timeout(s.timeout),
				svc.Name(),
			); err != nil {
				c <- fmt.Errorf("%w %s to tree: %w", ErrAddExtraService, svc.Name(), err)
				return
			}
		}
	}

	l.InfoContext(ctx, "Starting child routines", "service", s.name)
	return nursery.RunConcurrentlyWithContext(ctx, supervise, spawnProcs)
}
