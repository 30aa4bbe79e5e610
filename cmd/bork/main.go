// SPDX-License-Identifier: BSD-3-Clause

// The bork command runs a script against the HID device set: it opens
// the gadget character devices, starts the HID worker, and interprets
// the script until it exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ellabellla/lmklib-sub000/pkg/bork"
	"github.com/ellabellla/lmklib-sub000/pkg/cmdpool"
	"github.com/ellabellla/lmklib-sub000/pkg/hidio"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
)

func main() {
	mouse := flag.String("mouse", "/dev/hidg1", "mouse HID device")
	keyboard := flag.String("keyboard", "/dev/hidg0", "keyboard HID device")
	led := flag.String("led", "/dev/hidg0", "LED state HID device")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: bork [flags] <script>")
		os.Exit(2)
	}

	logger := log.GetGlobalLogger()

	source, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		logger.Error("script read failed", "path", flag.Arg(0), "error", err)
		os.Exit(1)
	}

	backend, err := hidio.NewDeviceBackend("usb", *mouse, *keyboard, *led)
	if err != nil {
		logger.Error("HID device open failed", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	worker := hidio.New(
		hidio.WithBackend("usb", backend),
		hidio.WithActiveBackend("usb"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx, nil)
		close(done)
	}()

	pool := cmdpool.New()
	interp := bork.New(string(source), bork.NewHIDOutput(ctx, worker), pool)
	if err := interp.Run(ctx); err != nil {
		logger.Error("script failed", "error", err)
		cancel()
		<-done
		os.Exit(1)
	}
	cancel()
	<-done
}
