// SPDX-License-Identifier: BSD-3-Clause

// Package state provides a thread-safe finite state machine built on a
// declarative configuration: states, transitions, guards, entry/exit
// actions, and optional persistence and broadcast callbacks.
//
// The module host drives one machine per loaded plugin through the
// loading/ready/failed/stopped lifecycle; NewModuleLifecycleMachine
// builds that machine. NewWorkerStateMachine is the generic variant for
// long-running workers.
//
// # Basic Usage
//
//	sm, err := state.NewModuleLifecycleMachine("module-oled")
//	if err != nil {
//		return err
//	}
//	if err := sm.Start(ctx); err != nil {
//		return err
//	}
//	_ = sm.Fire(ctx, state.TriggerLoadComplete, nil)
//
// # Custom Machines
//
//	sm, err := state.NewStateMachine(
//		state.WithName("scanner"),
//		state.WithInitialState("idle"),
//		state.WithStates("idle", "scanning", "failed"),
//		state.WithTransition("idle", "scanning", "start"),
//		state.WithTransition("scanning", "idle", "done"),
//		state.WithTransition("scanning", "failed", "fault"),
//	)
//
// Guards veto transitions, actions run on the transition itself, and
// entry/exit callbacks run when a state is entered or left. The
// persistence callback receives every state change for durable
// recording; the broadcast callback fans changes out to observers.
//
// # Multi-Machine Management
//
// A Manager owns a set of named machines when a component needs to
// coordinate several lifecycles:
//
//	manager := state.NewManager()
//	manager.AddStateMachine(sm)
package state
