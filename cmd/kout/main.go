// SPDX-License-Identifier: BSD-3-Clause

// The kout command types its input through the HID device: lines read
// from stdin, or from the listed files, become keystrokes.
package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"os"

	"github.com/ellabellla/lmklib-sub000/pkg/hidio"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
)

func main() {
	mouse := flag.String("mouse", "/dev/hidg1", "mouse HID device")
	keyboard := flag.String("keyboard", "/dev/hidg0", "keyboard HID device")
	led := flag.String("led", "/dev/hidg0", "LED state HID device")
	layoutName := flag.String("layout", "", "keyboard layout for non-ASCII input")
	flag.Parse()

	logger := log.GetGlobalLogger()

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
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx, nil)
		close(done)
	}()

	queue := worker.Queue()
	typeReader := func(r io.Reader) error {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if err := queue.Type(ctx, scanner.Text()+"\n", *layoutName); err != nil {
				return err
			}
			if err := queue.FlushKeyboardReport(ctx); err != nil {
				return err
			}
		}
		return scanner.Err()
	}

	exit := 0
	if flag.NArg() == 0 {
		if err := typeReader(os.Stdin); err != nil {
			logger.Error("typing stdin failed", "error", err)
			exit = 1
		}
	} else {
		for _, path := range flag.Args() {
			f, err := os.Open(path)
			if err != nil {
				logger.Error("input open failed", "path", path, "error", err)
				exit = 1
				continue
			}
			if err := typeReader(f); err != nil {
				logger.Error("typing file failed", "path", path, "error", err)
				exit = 1
			}
			_ = f.Close()
		}
	}

	cancel()
	<-done
	os.Exit(exit)
}
