// SPDX-License-Identifier: BSD-3-Clause

// The gadgetsvc command installs and manages the USB gadget the key
// server writes through: it materializes the configfs tree and HID
// report descriptors, writes a service unit that reconfigures the
// gadget at boot, and binds or unbinds the gadget from the UDC.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ellabellla/lmklib-sub000/pkg/fschema"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
	"github.com/ellabellla/lmklib-sub000/pkg/usb"
)

const (
	gadgetName = "lmk"
	serviceLoc = "/etc/systemd/system/lmk-gadget.service"
	dataLoc    = "/usr/share/lmk-gadget"
)

// serviceUnit reconfigures the gadget at boot by re-running this
// binary.
const serviceUnit = `[Unit]
Description=lmk USB gadget configuration
After=sys-kernel-config.mount

[Service]
Type=oneshot
ExecStart=/usr/local/bin/gadgetsvc configure
RemainAfterExit=true

[Install]
WantedBy=multi-user.target
`

func usage() {
	fmt.Fprintln(os.Stderr, "usage: gadgetsvc <install|uninstall|enable|disable|configure|clean>")
	os.Exit(2)
}

func main() {
	if len(os.Args) != 2 {
		usage()
	}
	if os.Geteuid() != 0 {
		fmt.Fprintln(os.Stderr, "gadgetsvc requires root")
		os.Exit(1)
	}

	logger := log.GetGlobalLogger()
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "install":
		err = install(ctx)
	case "uninstall":
		err = uninstall(ctx)
	case "enable":
		err = systemctl("enable", "lmk-gadget.service")
	case "disable":
		err = systemctl("disable", "lmk-gadget.service")
	case "configure":
		err = configure(ctx)
	case "clean":
		err = clean(ctx)
	default:
		usage()
	}
	if err != nil {
		logger.Error("gadget operation failed", "operation", os.Args[1], "error", err)
		os.Exit(1)
	}
}

// install writes the service unit and data files, then enables the
// unit.
func install(ctx context.Context) error {
	schema, err := fschema.Parse([]byte(installSchema()))
	if err != nil {
		return err
	}
	if err := schema.Create("/"); err != nil {
		return err
	}
	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	return systemctl("enable", "lmk-gadget.service")
}

// installSchema declares the files install materializes: the service
// unit plus the data directory the descriptors live in.
func installSchema() string {
	return fmt.Sprintf(`{
		"root": {
			"etc": {"systemd": {"system": {"lmk-gadget.service": %q}}},
			"usr": {"share": {"lmk-gadget": {}}}
		}
	}`, serviceUnit)
}

func uninstall(ctx context.Context) error {
	if err := systemctl("stop", "lmk-gadget.service"); err != nil {
		return err
	}
	if err := systemctl("disable", "lmk-gadget.service"); err != nil {
		return err
	}
	if err := os.Remove(serviceLoc); err != nil && !os.IsNotExist(err) {
		return err
	}
	return systemctl("daemon-reload")
}

// configure materializes the gadget's configfs tree and binds it to the
// first available UDC.
func configure(ctx context.Context) error {
	cfg := usb.DefaultGadgetConfig()
	cfg.Name = gadgetName
	if err := usb.CreateGadget(ctx, cfg); err != nil {
		return err
	}
	return usb.BindGadget(ctx, gadgetName)
}

// clean unbinds and destroys the gadget, then removes installed data.
func clean(ctx context.Context) error {
	if err := usb.UnbindGadget(ctx, gadgetName); err != nil && !usb.IsNotBoundError(err) {
		return err
	}
	if err := usb.DestroyGadget(ctx, gadgetName); err != nil {
		return err
	}
	if err := os.RemoveAll(dataLoc); err != nil {
		return err
	}
	if err := os.Remove(serviceLoc); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl %s: %w", filepath.Join(args...), err)
	}
	return nil
}
