// SPDX-License-Identifier: BSD-3-Clause

package function

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ellabellla/lmklib-sub000/pkg/cmdpool"
	"github.com/ellabellla/lmklib-sub000/pkg/hidio"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
)

// Bash spawns a shell command on the rising edge without waiting for
// it. The pool owns and reaps the child.
type Bash struct {
	command   *value
	prevState State
	pool      *cmdpool.Pool
	logger    *slog.Logger
}

// NewBash builds a Bash.
func NewBash(command *value, pool *cmdpool.Pool) *Bash {
	return &Bash{command: command, pool: pool, logger: log.GetGlobalLogger()}
}

// Event implements Function.
func (b *Bash) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, b.prevState) {
		if err := b.pool.Spawn(ctx, b.command.str()); err != nil {
			b.logger.ErrorContext(ctx, "bash binding spawn failed", "command", b.command.str(), "error", err)
		}
	}
	b.prevState = state
	return None()
}

// Descriptor implements Function.
func (b *Bash) Descriptor() Descriptor {
	raw, _ := json.Marshal(describedParam(b.command))
	return Descriptor{Tag: "Bash", Params: raw}
}

// Pipe spawns a shell command on the rising edge and types its stdout
// as keystrokes while it streams.
type Pipe struct {
	command   *value
	prevState State
	pool      *cmdpool.Pool
	hid       *hidio.Queue
	logger    *slog.Logger
}

// NewPipe builds a Pipe.
func NewPipe(command *value, pool *cmdpool.Pool, hid *hidio.Queue) *Pipe {
	return &Pipe{command: command, pool: pool, hid: hid, logger: log.GetGlobalLogger()}
}

// Event implements Function.
func (p *Pipe) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, p.prevState) {
		command := p.command.str()
		err := p.pool.RunPiped(ctx, command, func(line string) error {
			if err := p.hid.Type(ctx, line, ""); err != nil {
				return err
			}
			return p.hid.FlushKeyboardReport(ctx)
		})
		if err != nil {
			p.logger.ErrorContext(ctx, "pipe binding spawn failed", "command", command, "error", err)
		}
	}
	p.prevState = state
	return None()
}

// Descriptor implements Function.
func (p *Pipe) Descriptor() Descriptor {
	raw, _ := json.Marshal(describedParam(p.command))
	return Descriptor{Tag: "Pipe", Params: raw}
}

// Log emits a log record at a configured level on the rising edge.
type Log struct {
	level     *value
	message   *value
	prevState State
	logger    *slog.Logger
}

// NewLog builds a Log.
func NewLog(level, message *value) *Log {
	return &Log{level: level, message: message, logger: log.GetGlobalLogger()}
}

// Event implements Function.
func (l *Log) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, l.prevState) {
		msg := l.message.str()
		switch l.level.str() {
		case "Debug":
			l.logger.DebugContext(ctx, msg)
		case "Warn":
			l.logger.WarnContext(ctx, msg)
		case "Error":
			l.logger.ErrorContext(ctx, msg)
		default:
			l.logger.InfoContext(ctx, msg)
		}
	}
	l.prevState = state
	return None()
}

// Descriptor implements Function.
func (l *Log) Descriptor() Descriptor {
	return describe("Log", []Param{describedParam(l.level), describedParam(l.message)})
}
