// SPDX-License-Identifier: BSD-3-Clause

// The keyserverctl command drives a running key server's configuration
// RPC: inspecting the live layout, adding and switching layers, and
// reading or setting variables.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	ipcPkg "github.com/ellabellla/lmklib-sub000/pkg/ipc"
	"github.com/ellabellla/lmklib-sub000/service/rpcsrv"
)

const usage = `usage: keyserverctl [--ipc url] <command> [args]

commands:
  layer                  print the current layer as JSON
  layer-idx              print the current layer index
  num-layers             print the number of layers
  add-layer <json>       append a layer from a JSON grid
  remove-layer <idx>     remove the layer at idx
  switch-layer <idx>     make idx the current layer
  up-layer               advance the current layer
  down-layer             retreat the current layer
  save-layout            persist the live layout to disk
  variables              list variable names
  get-variable <name>    print one variable
  set-variable <name> <value>
`

func main() {
	ipcURL := flag.String("ipc", nats.DefaultURL, "key server bus address")
	timeout := flag.Duration("timeout", 2*time.Second, "request timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cmd, err := parseCommand(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	nc, err := nats.Connect(*ipcURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", *ipcURL, err)
		os.Exit(1)
	}
	defer nc.Close()

	payload, err := cmd.MarshalJSON()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	reply, err := nc.Request(ipcPkg.SubjectConfigRPC, payload, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(reply.Data))
	if string(reply.Data) == "false" {
		os.Exit(1)
	}
}

func parseCommand(args []string) (rpcsrv.Command, error) {
	wantArgs := func(n int) error {
		if len(args)-1 != n {
			return fmt.Errorf("%s expects %d argument(s)", args[0], n)
		}
		return nil
	}
	index := func() (int, error) {
		if err := wantArgs(1); err != nil {
			return 0, err
		}
		return strconv.Atoi(args[1])
	}

	switch args[0] {
	case "layer":
		return rpcsrv.Command{Kind: rpcsrv.CmdLayer}, wantArgs(0)
	case "layer-idx":
		return rpcsrv.Command{Kind: rpcsrv.CmdLayerIdx}, wantArgs(0)
	case "num-layers":
		return rpcsrv.Command{Kind: rpcsrv.CmdNumLayers}, wantArgs(0)
	case "add-layer":
		if err := wantArgs(1); err != nil {
			return rpcsrv.Command{}, err
		}
		return rpcsrv.Command{Kind: rpcsrv.CmdAddLayer, Layer: args[1]}, nil
	case "remove-layer":
		idx, err := index()
		return rpcsrv.Command{Kind: rpcsrv.CmdRemoveLayer, Index: idx}, err
	case "switch-layer":
		idx, err := index()
		return rpcsrv.Command{Kind: rpcsrv.CmdSwitchLayer, Index: idx}, err
	case "up-layer":
		return rpcsrv.Command{Kind: rpcsrv.CmdUpLayer}, wantArgs(0)
	case "down-layer":
		return rpcsrv.Command{Kind: rpcsrv.CmdDownLayer}, wantArgs(0)
	case "save-layout":
		return rpcsrv.Command{Kind: rpcsrv.CmdSaveLayout}, wantArgs(0)
	case "variables":
		return rpcsrv.Command{Kind: rpcsrv.CmdVariables}, wantArgs(0)
	case "get-variable":
		if err := wantArgs(1); err != nil {
			return rpcsrv.Command{}, err
		}
		return rpcsrv.Command{Kind: rpcsrv.CmdGetVariable, Name: args[1]}, nil
	case "set-variable":
		if err := wantArgs(2); err != nil {
			return rpcsrv.Command{}, err
		}
		return rpcsrv.Command{Kind: rpcsrv.CmdSetVariable, Name: args[1], Value: args[2]}, nil
	default:
		return rpcsrv.Command{}, fmt.Errorf("unknown command %q", args[0])
	}
}
