// SPDX-License-Identifier: BSD-3-Clause

package function

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ellabellla/lmklib-sub000/pkg/hidio"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
)

// SwitchHid selects a named HID backend on the rising edge.
type SwitchHid struct {
	name      *value
	prevState State
	hid       *hidio.Queue
}

// NewSwitchHid builds a SwitchHid.
func NewSwitchHid(name *value, hid *hidio.Queue) *SwitchHid {
	return &SwitchHid{name: name, hid: hid}
}

// Event implements Function.
func (s *SwitchHid) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, s.prevState) {
		_ = s.hid.SwitchActiveBackend(ctx, s.name.str())
	}
	s.prevState = state
	return None()
}

// Descriptor implements Function.
func (s *SwitchHid) Descriptor() Descriptor {
	return describe("SwitchHid", struct {
		Name Param `json:"name"`
	}{describedParam(s.name)})
}

// ToggleHid cycles through a configured backend list, advancing one
// entry per rising edge.
type ToggleHid struct {
	modes     *value
	current   int
	prevState State
	hid       *hidio.Queue
}

// NewToggleHid builds a ToggleHid.
func NewToggleHid(modes *value, hid *hidio.Queue) *ToggleHid {
	return &ToggleHid{modes: modes, hid: hid}
}

// Event implements Function.
func (t *ToggleHid) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, t.prevState) {
		modes := t.modes.strs()
		if len(modes) > 0 {
			t.current = (t.current + 1) % len(modes)
			_ = t.hid.SwitchActiveBackend(ctx, modes[t.current])
		}
	}
	t.prevState = state
	return None()
}

// Descriptor implements Function.
func (t *ToggleHid) Descriptor() Descriptor {
	return describe("ToggleHid", struct {
		Modes Param `json:"modes"`
	}{describedParam(t.modes)})
}

// SendHidCommand forwards an opaque command string to a named plugin
// backend on the rising edge.
type SendHidCommand struct {
	name      *value
	command   *value
	prevState State
	hid       *hidio.Queue
}

// NewSendHidCommand builds a SendHidCommand.
func NewSendHidCommand(name, command *value, hid *hidio.Queue) *SendHidCommand {
	return &SendHidCommand{name: name, command: command, hid: hid}
}

// Event implements Function.
func (s *SendHidCommand) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, s.prevState) {
		_ = s.hid.SendToBackend(ctx, s.name.str(), []byte(s.command.str()))
	}
	s.prevState = state
	return None()
}

// Descriptor implements Function.
func (s *SendHidCommand) Descriptor() Descriptor {
	return describe("SendHidCommand", struct {
		Name    Param `json:"name"`
		Command Param `json:"command"`
	}{describedParam(s.name), describedParam(s.command)})
}

// External dispatches events to a module-hosted function. The module
// returns the ReturnCommand to apply, encoded as its JSON form.
type External struct {
	module    string
	data      json.RawMessage
	id        string
	host      Host
	prevState State
	logger    *slog.Logger
}

// Host is the module-host contract the builder hands to External
// functions; the module host package implements it.
type Host interface {
	// LoadFunction loads data into the named module, returning an
	// opaque instance id.
	LoadFunction(ctx context.Context, module string, data json.RawMessage) (string, error)
	// FunctionEvent delivers a state to a loaded function instance.
	FunctionEvent(ctx context.Context, module, id string, state uint16) (ReturnCommand, error)
}

// NewExternal builds an External bound to an already-loaded module
// function instance.
func NewExternal(module string, data json.RawMessage, id string, host Host) *External {
	return &External{module: module, data: data, id: id, host: host, logger: log.GetGlobalLogger()}
}

// Event implements Function.
func (e *External) Event(ctx context.Context, state State) ReturnCommand {
	defer func() { e.prevState = state }()
	cmd, err := e.host.FunctionEvent(ctx, e.module, e.id, state)
	if err != nil {
		e.logger.ErrorContext(ctx, "external binding event failed", "module", e.module, "error", err)
		return None()
	}
	return cmd
}

// Descriptor implements Function.
func (e *External) Descriptor() Descriptor {
	return describe("External", struct {
		Module string          `json:"module"`
		Func   json.RawMessage `json:"func"`
	}{e.module, e.data})
}
