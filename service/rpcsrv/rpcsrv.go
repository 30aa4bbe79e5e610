// SPDX-License-Identifier: BSD-3-Clause

package rpcsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/ellabellla/lmklib-sub000/pkg/file"
	"github.com/ellabellla/lmklib-sub000/pkg/function"
	ipcPkg "github.com/ellabellla/lmklib-sub000/pkg/ipc"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
	"github.com/ellabellla/lmklib-sub000/service"
)

// RPC is the configuration RPC service.
type RPC struct {
	config

	mu      sync.Mutex
	started bool
	logger  *slog.Logger
	nc      *nats.Conn
	micro   micro.Service
}

var _ service.Service = (*RPC)(nil)

// New creates the RPC service.
func New(opts ...Option) *RPC {
	cfg := config{
		serviceName:        "rpcsrv",
		serviceDescription: "Configuration RPC for the live layout and variables",
		serviceVersion:     "1.0.0",
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return &RPC{config: cfg}
}

// Name implements service.Service.
func (s *RPC) Name() string { return s.serviceName }

// Run implements service.Service: registers the request/reply endpoint
// and serves until the context is canceled.
func (s *RPC) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrServiceAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	s.logger = log.GetGlobalLogger().With("service", s.serviceName)
	if s.layout == nil {
		return ErrNoLayout
	}

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}
	s.nc = nc
	defer nc.Drain() //nolint:errcheck

	s.micro, err = micro.AddService(nc, micro.Config{
		Name:        s.serviceName,
		Description: s.serviceDescription,
		Version:     s.serviceVersion,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}

	err = s.micro.AddEndpoint("rpc",
		micro.HandlerFunc(func(req micro.Request) {
			reply := s.dispatch(ctx, req.Data())
			if err := req.Respond([]byte(reply)); err != nil {
				s.logger.ErrorContext(ctx, "rpc reply failed", "error", err)
			}
		}),
		micro.WithEndpointSubject(ipcPkg.SubjectConfigRPC),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}

	s.logger.InfoContext(ctx, "config RPC started", "subject", ipcPkg.SubjectConfigRPC)
	<-ctx.Done()

	if err := s.micro.Stop(); err != nil {
		s.logger.Error("rpc micro service stop failed", "error", err)
	}
	return ctx.Err()
}

// dispatch decodes one request and renders its reply. User-visible
// failures render as "false" or an error envelope; the connection
// stays up.
func (s *RPC) dispatch(ctx context.Context, raw []byte) string {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		s.logger.DebugContext(ctx, "rpc request rejected", "error", err)
		return "false"
	}
	return s.handle(ctx, cmd)
}

func (s *RPC) handle(ctx context.Context, cmd Command) string {
	switch cmd.Kind {
	case CmdLayer:
		grid, err := s.layout.LayerDescriptors()
		if err != nil {
			return "false"
		}
		raw, err := json.Marshal(grid)
		if err != nil {
			return "false"
		}
		return string(raw)

	case CmdLayerIdx:
		return strconv.Itoa(s.layout.CurrentLayer())

	case CmdNumLayers:
		return strconv.Itoa(s.layout.NumLayers())

	case CmdAddLayer:
		var grid [][]function.Descriptor
		if err := json.Unmarshal([]byte(cmd.Layer), &grid); err != nil {
			return "false"
		}
		if _, err := s.layout.AddLayer(ctx, grid, s.layout.NumLayers()); err != nil {
			s.logger.DebugContext(ctx, "add layer rejected", "error", err)
			return "false"
		}
		return "true"

	case CmdRemoveLayer:
		return boolReply(s.layout.RemoveLayer(cmd.Index))

	case CmdSwitchLayer:
		return boolReply(s.layout.SwitchLayer(cmd.Index))

	case CmdUpLayer:
		return boolReply(s.layout.UpLayer())

	case CmdDownLayer:
		return boolReply(s.layout.DownLayer())

	case CmdSaveLayout:
		if s.layoutPath == "" {
			return "false"
		}
		raw, err := json.MarshalIndent(s.layout.Document(), "", "  ")
		if err != nil {
			return "false"
		}
		if err := file.AtomicReplaceFile(s.layoutPath, raw, 0o644); err != nil {
			s.logger.ErrorContext(ctx, "layout save failed", "path", s.layoutPath, "error", err)
			return "false"
		}
		return "true"

	case CmdVariables:
		names := s.variables.List()
		raw, err := json.Marshal(names)
		if err != nil {
			return "false"
		}
		return string(raw)

	case CmdSetVariable:
		s.variables.Update(cmd.Name, cmd.Value)
		return "true"

	case CmdGetVariable:
		value, err := s.variables.Get(cmd.Name)
		envelope := FallibleRet{}
		if err == nil {
			envelope.Ret = &value
		}
		raw, err := json.Marshal(envelope)
		if err != nil {
			return "false"
		}
		return string(raw)

	default:
		return "false"
	}
}

func boolReply(err error) string {
	if err != nil {
		return "false"
	}
	return "true"
}
