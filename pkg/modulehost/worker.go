// SPDX-License-Identifier: BSD-3-Clause

package modulehost

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ellabellla/lmklib-sub000/pkg/id"
	"github.com/ellabellla/lmklib-sub000/pkg/state"
)

// opKind tags a worker request.
type opKind int

const (
	opLoadData opKind = iota
	opEvent
	opDriverName
	opPoll
	opSet
)

type request struct {
	op    opKind
	data  json.RawMessage
	id    string
	idx   int
	state uint16
	reply chan response
}

type response struct {
	str    string
	states []uint16
	err    error
}

// worker owns one module's runtime. Requests arrive over a channel
// buffered to 16 entries and are answered on per-request reply
// channels; the queue is not unbounded, so a caller blocks while it is
// full until its context ends or the worker stops. The runtime is never
// touched from any other goroutine.
type worker struct {
	meta      Meta
	rt        runtime
	lifecycle *state.FSM
	requests  chan request
	quit      chan struct{}
	done      chan struct{}

	// ids maps host-issued instance ids onto the ids the module itself
	// returned from load-data.
	ids map[string]string
}

// startWorker opens the module's runtime and spins up its goroutine.
func startWorker(meta Meta, path string) (*worker, error) {
	lifecycle, err := state.NewModuleLifecycleMachine("module-" + meta.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadLibrary, meta.Name, err)
	}
	ctx := context.Background()
	if err := lifecycle.Start(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadLibrary, meta.Name, err)
	}

	var rt runtime
	switch meta.ModuleType {
	case ImplPython:
		rt, err = openPython(path)
	default:
		rt, err = openNative(path, meta.Interface)
	}
	if err != nil {
		_ = lifecycle.Fire(ctx, state.TriggerLoadFailed, nil)
		return nil, err
	}
	_ = lifecycle.Fire(ctx, state.TriggerLoadComplete, nil)

	w := &worker{
		meta:      meta,
		rt:        rt,
		lifecycle: lifecycle,
		requests:  make(chan request, 16),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		ids:       make(map[string]string),
	}
	go w.run()
	return w, nil
}

// run drains requests until stop is called.
func (w *worker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.quit:
			w.rt.close()
			_ = w.lifecycle.Fire(context.Background(), state.TriggerStop, nil)
			return
		case req := <-w.requests:
			req.reply <- w.handle(req)
		}
	}
}

func (w *worker) handle(req request) response {
	switch req.op {
	case opLoadData:
		moduleID, err := w.rt.loadData(req.data)
		if err != nil {
			w.fault(err)
			return response{err: err}
		}
		w.recover()
		hostID := id.NewID()
		w.ids[hostID] = moduleID
		return response{str: hostID}

	case opEvent:
		out, err := w.rt.event(w.moduleID(req.id), req.state)
		return w.done1(response{str: out, err: err})

	case opDriverName:
		out, err := w.rt.driverName(w.moduleID(req.id))
		return w.done1(response{str: out, err: err})

	case opPoll:
		states, err := w.rt.poll(w.moduleID(req.id))
		return w.done1(response{states: states, err: err})

	case opSet:
		err := w.rt.set(w.moduleID(req.id), req.idx, req.state)
		return w.done1(response{err: err})
	}
	return response{err: fmt.Errorf("%w: unknown op", ErrDispatch)}
}

func (w *worker) moduleID(hostID string) string {
	if moduleID, ok := w.ids[hostID]; ok {
		return moduleID
	}
	return hostID
}

// done1 tracks the lifecycle machine alongside a reply.
func (w *worker) done1(resp response) response {
	if resp.err != nil {
		w.fault(resp.err)
	} else {
		w.recover()
	}
	return resp
}

func (w *worker) fault(error) {
	if w.lifecycle.IsInState(state.StateReady) {
		_ = w.lifecycle.Fire(context.Background(), state.TriggerCallFailed, nil)
	}
}

func (w *worker) recover() {
	if w.lifecycle.IsInState(state.StateFailed) {
		_ = w.lifecycle.Fire(context.Background(), state.TriggerRecovered, nil)
	}
}

// call dispatches one request, honoring context cancellation. A worker
// that has been stopped yields a dispatch error.
func (w *worker) call(ctx context.Context, req request) (response, error) {
	req.reply = make(chan response, 1)
	select {
	case <-w.quit:
		return response{}, fmt.Errorf("%w: %s: worker stopped", ErrDispatch, w.meta.Name)
	case <-ctx.Done():
		return response{}, fmt.Errorf("%w: %s: %w", ErrDispatch, w.meta.Name, ctx.Err())
	case w.requests <- req:
	}
	select {
	case <-w.quit:
		return response{}, fmt.Errorf("%w: %s: worker stopped", ErrDispatch, w.meta.Name)
	case <-ctx.Done():
		return response{}, fmt.Errorf("%w: %s: %w", ErrDispatch, w.meta.Name, ctx.Err())
	case resp := <-req.reply:
		if resp.err != nil {
			return response{}, fmt.Errorf("%w: %s: %w", ErrModule, w.meta.Name, resp.err)
		}
		return resp, nil
	}
}

func (w *worker) loadData(ctx context.Context, data json.RawMessage) (string, error) {
	resp, err := w.call(ctx, request{op: opLoadData, data: data})
	return resp.str, err
}

func (w *worker) event(ctx context.Context, instanceID string, st uint16) (string, error) {
	resp, err := w.call(ctx, request{op: opEvent, id: instanceID, state: st})
	return resp.str, err
}

func (w *worker) driverName(ctx context.Context, instanceID string) (string, error) {
	resp, err := w.call(ctx, request{op: opDriverName, id: instanceID})
	return resp.str, err
}

func (w *worker) poll(ctx context.Context, instanceID string) ([]uint16, error) {
	resp, err := w.call(ctx, request{op: opPoll, id: instanceID})
	return resp.states, err
}

func (w *worker) set(ctx context.Context, instanceID string, idx int, st uint16) error {
	_, err := w.call(ctx, request{op: opSet, id: instanceID, idx: idx, state: st})
	return err
}

func (w *worker) stop() {
	select {
	case <-w.quit:
	default:
		close(w.quit)
	}
	<-w.done
}
