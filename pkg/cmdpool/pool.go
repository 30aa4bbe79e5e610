// SPDX-License-Identifier: BSD-3-Clause

package cmdpool

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/nats-io/nats.go"

	"github.com/ellabellla/lmklib-sub000/pkg/log"
	"github.com/ellabellla/lmklib-sub000/service"
)

const defaultReapInterval = 100 * time.Millisecond

type child struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (c *child) finished() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Pool owns spawned subprocess handles and reaps them on a background
// loop. It implements service.Service so the reaper runs under the
// supervision tree alongside the other workers.
type Pool struct {
	config
	logger *slog.Logger

	mu       sync.RWMutex
	closed   bool
	children []*child
}

var _ service.Service = (*Pool)(nil)

// New creates a command pool.
func New(opts ...Option) *Pool {
	cfg := config{
		name:         "cmdpool",
		shell:        "/bin/sh",
		reapInterval: defaultReapInterval,
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return &Pool{config: cfg}
}

// Name implements service.Service.
func (p *Pool) Name() string { return p.name }

// Run implements service.Service: the reaper loop. Finished children
// are dropped from the pool every reap interval; the write lock is held
// only for the reap pass itself.
func (p *Pool) Run(ctx context.Context, _ nats.InProcessConnProvider) error {
	p.logger = log.GetGlobalLogger().With("service", p.name)
	ticker := time.NewTicker(p.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.shutdown()
			return nil
		case <-ticker.C:
			p.reap()
		}
	}
}

func (p *Pool) reap() {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.children[:0]
	for _, c := range p.children {
		if !c.finished() {
			kept = append(kept, c)
		}
	}
	p.children = kept
}

func (p *Pool) shutdown() {
	p.mu.Lock()
	p.closed = true
	children := append([]*child(nil), p.children...)
	p.children = nil
	p.mu.Unlock()

	for _, c := range children {
		if !c.finished() && c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
	}
}

// track registers cmd with the pool and starts the waiter that marks it
// finished. The waiter, not the reaper, performs the actual Wait so the
// reap pass never blocks on a live child.
func (p *Pool) track(cmd *exec.Cmd) (*child, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	c := &child{cmd: cmd, done: make(chan struct{})}
	p.children = append(p.children, c)
	go func() {
		if err := cmd.Wait(); err != nil && p.logger != nil {
			p.logger.Debug("subprocess exited with error", "command", cmd.String(), "error", err)
		}
		close(c.done)
	}()
	return c, nil
}

// Spawn starts command via the shell and returns without waiting. The
// child is owned by the pool and reaped once it exits.
func (p *Pool) Spawn(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, p.shell, "-c", command)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSpawn, command, err)
	}
	if _, err := p.track(cmd); err != nil {
		_ = cmd.Process.Kill()
		return err
	}
	return nil
}

// RunCaptured spawns command via the shell, waits for it to finish, and
// returns its stdout. Non-UTF-8 output is a recoverable error.
func (p *Pool) RunCaptured(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, p.shell, "-c", command)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrSpawn, command, err)
	}
	c, err := p.track(cmd)
	if err != nil {
		_ = cmd.Process.Kill()
		return "", err
	}
	select {
	case <-c.done:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if !utf8.Valid(out.Bytes()) {
		return "", fmt.Errorf("%w: %s", ErrNonUTF8Output, command)
	}
	return out.String(), nil
}

// RunPiped spawns command via the shell and streams its stdout
// line-by-line into sink from a background goroutine. Each delivered
// line includes its trailing newline except possibly the last. Sink
// errors and non-UTF-8 output are logged, not returned: by the time
// they occur the spawning binding has long finished its tick.
func (p *Pool) RunPiped(ctx context.Context, command string, sink func(line string) error) error {
	cmd := exec.CommandContext(ctx, p.shell, "-c", command)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSpawn, command, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSpawn, command, err)
	}
	if _, err := p.track(cmd); err != nil {
		_ = cmd.Process.Kill()
		return err
	}

	go func() {
		reader := bufio.NewReader(stdout)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				if !utf8.ValidString(line) {
					if p.logger != nil {
						p.logger.Error("piped subprocess output is not valid UTF-8", "command", command)
					}
					return
				}
				if sinkErr := sink(line); sinkErr != nil {
					if p.logger != nil {
						p.logger.Error("piped output sink failed", "command", command, "error", sinkErr)
					}
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return nil
}

// Len reports the number of children currently owned by the pool,
// finished or not.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.children)
}
