// SPDX-License-Identifier: BSD-3-Clause

package state

import "time"

// Module lifecycle states shared by the module host's per-module
// workers.
const (
	StateLoading = "loading"
	StateReady   = "ready"
	StateFailed  = "failed"
	StateStopped = "stopped"
)

// Module lifecycle triggers.
const (
	TriggerLoadComplete = "load_complete"
	TriggerLoadFailed   = "load_failed"
	TriggerCallFailed   = "call_failed"
	TriggerRecovered    = "recovered"
	TriggerStop         = "stop"
)

// NewStateMachine creates a basic state machine with the provided
// configuration.
func NewStateMachine(opts ...Option) (*FSM, error) {
	config := NewConfig(opts...)
	return New(config)
}

// NewModuleLifecycleMachine creates the state machine a module worker
// drives through load, ready, failure, and shutdown. A worker in
// "failed" may recover on a later successful call; "stopped" is
// terminal.
func NewModuleLifecycleMachine(name string, opts ...Option) (*FSM, error) {
	baseOpts := []Option{
		WithName(name),
		WithDescription("External module worker lifecycle"),
		WithInitialState(StateLoading),
		WithStates(StateLoading, StateReady, StateFailed, StateStopped),
		WithTransition(StateLoading, StateReady, TriggerLoadComplete),
		WithTransition(StateLoading, StateFailed, TriggerLoadFailed),
		WithTransition(StateReady, StateFailed, TriggerCallFailed),
		WithTransition(StateFailed, StateReady, TriggerRecovered),
		WithTransition(StateLoading, StateStopped, TriggerStop),
		WithTransition(StateReady, StateStopped, TriggerStop),
		WithTransition(StateFailed, StateStopped, TriggerStop),
		WithStateTimeout(30 * time.Second),
	}

	allOpts := append(baseOpts, opts...)
	return NewStateMachine(allOpts...)
}

// NewWorkerStateMachine creates a generic long-running worker machine:
// starting, running, failed, stopped.
func NewWorkerStateMachine(name string, opts ...Option) (*FSM, error) {
	baseOpts := []Option{
		WithName(name),
		WithDescription("Worker lifecycle state machine"),
		WithInitialState("starting"),
		WithStates("starting", "running", "failed", "stopped"),
		WithTransition("starting", "running", "started"),
		WithTransition("starting", "failed", "start_failed"),
		WithTransition("running", "failed", "fault"),
		WithTransition("failed", "running", "recovered"),
		WithTransition("running", "stopped", "stop"),
		WithTransition("failed", "stopped", "stop"),
		WithStateTimeout(30 * time.Second),
	}

	allOpts := append(baseOpts, opts...)
	return NewStateMachine(allOpts...)
}
