// SPDX-License-Identifier: BSD-3-Clause

// The keyserver command runs the programmable HID: it loads the
// configuration directory, builds the drivers, layout, and function
// collaborators, and supervises the core workers until interrupted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"net"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/ellabellla/lmklib-sub000/pkg/cmdpool"
	"github.com/ellabellla/lmklib-sub000/pkg/config"
	"github.com/ellabellla/lmklib-sub000/pkg/driver"
	"github.com/ellabellla/lmklib-sub000/pkg/function"
	"github.com/ellabellla/lmklib-sub000/pkg/gpioline"
	"github.com/ellabellla/lmklib-sub000/pkg/hidio"
	"github.com/ellabellla/lmklib-sub000/pkg/i2cexpander"
	"github.com/ellabellla/lmklib-sub000/pkg/layout"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
	"github.com/ellabellla/lmklib-sub000/pkg/midi"
	"github.com/ellabellla/lmklib-sub000/pkg/modulehost"
	"github.com/ellabellla/lmklib-sub000/pkg/msgbus"
	"github.com/ellabellla/lmklib-sub000/pkg/variables"
	"github.com/ellabellla/lmklib-sub000/service/ipc"
	"github.com/ellabellla/lmklib-sub000/service/operator"
	"github.com/ellabellla/lmklib-sub000/service/rpcsrv"
	"github.com/ellabellla/lmklib-sub000/service/telemetry"
)

// lazyProvider defers the connection-provider lookup until the embedded
// bus has actually started.
type lazyProvider struct {
	svc *ipc.IPC
}

func (l lazyProvider) InProcessConn() (net.Conn, error) {
	return l.svc.GetConnProvider().InProcessConn()
}

func main() {
	// The target boards are small single-board computers.
	debug.SetMemoryLimit(256 * 1024 * 1024)

	configDir := flag.String("config", "/etc/lmk", "configuration directory")
	midiDevice := flag.String("midi", "", "raw MIDI device for note bindings")
	ipcHost := flag.String("ipc-host", "127.0.0.1", "bus listen host for the CLI")
	ipcPort := flag.Int("ipc-port", 4222, "bus listen port for the CLI; 0 disables")
	enableTelemetry := flag.Bool("telemetry", false, "run the telemetry collector service")
	flag.Parse()

	logger := log.GetGlobalLogger()

	cfg, err := config.Load(*configDir)
	if err != nil {
		logger.Error("configuration load failed", "dir", *configDir, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host, err := modulehost.Load(cfg.ModulesRoot())
	if err != nil {
		logger.Error("module host load failed", "error", err)
		os.Exit(1)
	}
	defer host.Close()

	registry := driver.NewRegistry()
	for _, df := range cfg.Drivers {
		d, err := buildDriver(ctx, df, host)
		if err != nil {
			logger.Error("driver build failed", "driver", df.Name, "error", err)
			os.Exit(1)
		}
		if err := registry.Add(d); err != nil {
			logger.Error("driver registration failed", "driver", df.Name, "error", err)
			os.Exit(1)
		}
	}

	hidWorker, err := buildHID(cfg)
	if err != nil {
		logger.Error("HID device open failed", "error", err)
		os.Exit(1)
	}

	controller := buildMIDI(cfg, *midiDevice)
	pool := cmdpool.New()
	vars := variables.NewTable()

	ipcOpts := []ipc.Option{ipc.WithJetStream(false)}
	if *ipcPort != 0 {
		ipcOpts = append(ipcOpts, ipc.WithListen(*ipcHost, *ipcPort))
	}
	ipcSvc := ipc.New(ipcOpts...)
	subject := ""
	if cfg.Frontend.NanoMsg != nil {
		subject = cfg.Frontend.NanoMsg.PubAddr
	}
	bus := msgbus.New(subject, lazyProvider{svc: ipcSvc})
	defer bus.Close()

	builder := function.NewBuilder(hidWorker.Queue(), controller, pool, registry, bus, host, vars)
	l, err := layout.Build(ctx, cfg.Layout, registry, builder)
	if err != nil {
		logger.Error("layout build failed", "error", err)
		os.Exit(1)
	}

	opOpts := []operator.Option{
		operator.WithName("keyserver"),
		operator.WithIPCInstance(ipcSvc),
		operator.WithHidio(hidWorker),
		operator.WithCmdpool(pool),
		operator.WithEngine(layout.NewEngine(l)),
		operator.WithRpcsrv(
			rpcsrv.WithLayout(l),
			rpcsrv.WithVariables(vars),
			rpcsrv.WithLayoutPath(cfg.LayoutPath()),
		),
	}
	if *enableTelemetry {
		opOpts = append(opOpts, operator.WithExtraServices(telemetry.New()))
	}
	op := operator.New(opOpts...)

	if err := op.Run(ctx, nil); err != nil && ctx.Err() == nil {
		logger.Error("operator exited", "error", err)
		os.Exit(1)
	}
}

// buildDriver decodes one drivers/ file by shape: an "address" field is
// an I²C expander, a "chip" field a discrete GPIO driver, and a
// "module" field a plugin-provided driver.
func buildDriver(ctx context.Context, df config.DriverFile, host *modulehost.Host) (driver.Driver, error) {
	var probe struct {
		Address *uint16         `json:"address"`
		Chip    string          `json:"chip"`
		Module  string          `json:"module"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(df.Raw, &probe); err != nil {
		return nil, err
	}

	switch {
	case probe.Module != "":
		return modulehost.NewExternalDriver(ctx, host, probe.Module, probe.Data)
	case probe.Chip != "":
		var cfg gpioline.Config
		if err := json.Unmarshal(df.Raw, &cfg); err != nil {
			return nil, err
		}
		if cfg.Name == "" {
			cfg.Name = df.Name
		}
		return gpioline.New(cfg)
	default:
		cfg, err := i2cexpander.ParseConfig(df.Raw)
		if err != nil {
			return nil, err
		}
		if cfg.Name == "" {
			cfg.Name = df.Name
		}
		bus, err := i2cexpander.NewI2CBus(cfg.Bus, cfg.Address)
		if err != nil {
			return nil, err
		}
		return i2cexpander.New(cfg, bus)
	}
}

// buildHID opens the configured gadget character devices as the "usb"
// backend. Additional backends (a synthetic uinput device set, plugin
// sinks) register under their own names through the same option.
func buildHID(cfg *config.Dir) (*hidio.Worker, error) {
	opts := []hidio.Option{hidio.WithActiveBackend("usb")}
	hc := cfg.Frontend.HID
	if hc == nil {
		defaults := config.DefaultFrontend()
		hc = defaults.HID
	}
	usb, err := hidio.NewDeviceBackend("usb", hc.Mouse, hc.Keyboard, hc.LED)
	if err != nil {
		return nil, err
	}
	opts = append(opts, hidio.WithBackend("usb", usb))
	return hidio.New(opts...), nil
}

// buildMIDI opens the raw MIDI device when one is configured; bindings
// fall back to a discarding controller otherwise so a layout referencing
// notes still loads.
func buildMIDI(cfg *config.Dir, override string) *midi.Controller {
	logger := log.GetGlobalLogger()
	if !cfg.Frontend.MidiController && override == "" {
		return midi.New(io.Discard)
	}
	path := override
	if path == "" {
		path = "/dev/snd/midiC0D0"
	}
	controller, _, err := midi.Open(path)
	if err != nil {
		logger.Warn("MIDI device unavailable, notes are discarded", "path", path, "error", err)
		return midi.New(io.Discard)
	}
	return controller
}

var _ nats.InProcessConnProvider = lazyProvider{}
