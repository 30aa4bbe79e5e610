// SPDX-License-Identifier: BSD-3-Clause

package bork

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ellabellla/lmklib-sub000/pkg/cmdpool"
	"github.com/ellabellla/lmklib-sub000/pkg/hidio"
)

// data is a runtime variable: an integer or a key sequence.
type data struct {
	isInt bool
	i     int64
	keys  []Key
}

// scope is one variable environment. Function calls clone the caller's
// scope, bind parameters, and discard the clone afterwards.
type scope map[string]data

func (s scope) clone() scope {
	out := make(scope, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Interp runs one script against an Output.
type Interp struct {
	parser *Parser
	out    Output
	pool   *cmdpool.Pool

	// sleep is swappable so tests do not stall.
	sleep func(time.Duration)
}

// New creates an interpreter over source.
func New(source string, out Output, pool *cmdpool.Pool) *Interp {
	return &Interp{
		parser: NewParser(source),
		out:    out,
		pool:   pool,
		sleep:  time.Sleep,
	}
}

// Run interprets the script until it exits, flushing the keyboard and
// mouse after every command. All errors propagate to this boundary.
func (in *Interp) Run(ctx context.Context) error {
	vars := make(scope)
	var ifStack []int
	var whileStack []int

	pos := 0
	for {
		cont, next, err := in.step(ctx, vars, &ifStack, &whileStack, pos)
		if err != nil {
			return err
		}
		if err := in.out.FlushKeyboard(); err != nil {
			return errAt(KindIO, pos, err.Error())
		}
		if err := in.out.FlushMouse(); err != nil {
			return errAt(KindIO, pos, err.Error())
		}
		if !cont {
			return nil
		}
		pos = next
	}
}

// step interprets one command at pos.
func (in *Interp) step(ctx context.Context, vars scope, ifStack *[]int, whileStack *[]int, pos int) (bool, int, error) {
	top, _ := in.parser.top()
	insideWhile := len(in.parser.nest) > 0 && top == nestWhile
	depthBefore := in.parser.Depth()

	cmd, next, err := in.parser.ParseCommand(pos)
	if err != nil {
		return false, pos, err
	}

	switch cmd.Kind {
	case CmdLiteral, CmdKey:
		for _, k := range cmd.Keys {
			if err := in.pressKey(ctx, vars, k); err != nil {
				return false, pos, err
			}
		}

	case CmdHold:
		for _, k := range cmd.Keys {
			if err := in.holdKey(ctx, vars, k); err != nil {
				return false, pos, err
			}
		}

	case CmdRelease:
		for _, k := range cmd.Keys {
			if err := in.releaseKey(ctx, vars, k); err != nil {
				return false, pos, err
			}
		}

	case CmdIf:
		cond, err := in.resolveExpression(ctx, vars, cmd.Expr)
		if err != nil {
			return false, pos, err
		}
		if toBool(cond) == 0 {
			next, err = in.parser.jmpNext(next)
			if err != nil {
				return false, pos, err
			}
		} else {
			*ifStack = append(*ifStack, in.parser.Depth())
		}

	case CmdElseIf:
		if in.branchTaken(ifStack) {
			next, err = in.parser.jmpEnd(next)
			if err != nil {
				return false, pos, err
			}
			break
		}
		cond, err := in.resolveExpression(ctx, vars, cmd.Expr)
		if err != nil {
			return false, pos, err
		}
		if toBool(cond) == 0 {
			next, err = in.parser.jmpNext(next)
			if err != nil {
				return false, pos, err
			}
		} else {
			*ifStack = append(*ifStack, in.parser.Depth())
		}

	case CmdElse:
		if in.branchTaken(ifStack) {
			next, err = in.parser.jmpEnd(next)
			if err != nil {
				return false, pos, err
			}
		}

	case CmdWhile:
		cond, err := in.resolveExpression(ctx, vars, cmd.Expr)
		if err != nil {
			return false, pos, err
		}
		if toBool(cond) == 0 {
			next, err = in.parser.jmpEnd(next)
			if err != nil {
				return false, pos, err
			}
		} else {
			*whileStack = append(*whileStack, pos)
		}

	case CmdEnd:
		if insideWhile && cmd.popped == nestWhile {
			if len(*whileStack) == 0 {
				return false, pos, errAt(KindMismatchedWhile, pos, "")
			}
			next = (*whileStack)[len(*whileStack)-1]
			*whileStack = (*whileStack)[:len(*whileStack)-1]
		} else if n := len(*ifStack); n > 0 && (*ifStack)[n-1] == depthBefore {
			*ifStack = (*ifStack)[:n-1]
		}

	case CmdSet:
		if cmd.Set.Expr != nil {
			value, err := in.resolveExpression(ctx, vars, cmd.Set.Expr)
			if err != nil {
				return false, pos, err
			}
			var v int64
			if value != nil {
				v = *value
			}
			vars[cmd.Name] = data{isInt: true, i: v}
		} else {
			vars[cmd.Name] = data{keys: cmd.Set.Keys}
		}

	case CmdExpression:
		value, err := in.resolveExpression(ctx, vars, cmd.Expr)
		if err != nil {
			return false, pos, err
		}
		if value != nil {
			if err := in.out.PressString(strconv.FormatInt(*value, 10)); err != nil {
				return false, pos, errAt(KindIO, pos, err.Error())
			}
		}

	case CmdMove:
		x, err := in.resolveExpression(ctx, vars, cmd.X)
		if err != nil {
			return false, pos, err
		}
		y, err := in.resolveExpression(ctx, vars, cmd.Y)
		if err != nil {
			return false, pos, err
		}
		if err := in.out.MoveMouse(clampI8(x), clampI8(y)); err != nil {
			return false, pos, errAt(KindIO, pos, err.Error())
		}

	case CmdPipe:
		output, err := in.runPipe(ctx, cmd.Pipe)
		if err != nil {
			return false, pos, errAt(KindPipe, pos, err.Error())
		}
		if err := in.out.PressString(output); err != nil {
			return false, pos, errAt(KindIO, pos, err.Error())
		}

	case CmdCall:
		value, err := in.resolveCall(ctx, vars, TypeAny, cmd.Name, cmd.Args)
		if err != nil {
			return false, pos, err
		}
		if value != nil {
			if err := in.out.PressString(strconv.FormatInt(*value, 10)); err != nil {
				return false, pos, errAt(KindIO, pos, err.Error())
			}
		}

	case CmdLED:
		on, err := in.out.LED(cmd.LED)
		if err != nil {
			return false, pos, errAt(KindIO, pos, err.Error())
		}
		if err := in.out.PressString(strconv.FormatBool(on)); err != nil {
			return false, pos, errAt(KindIO, pos, err.Error())
		}

	case CmdSleep:
		millis, err := in.resolveExpression(ctx, vars, cmd.Expr)
		if err != nil {
			return false, pos, err
		}
		if millis != nil && *millis > 0 {
			in.sleep(time.Duration(*millis) * time.Millisecond)
		}

	case CmdNone:

	case CmdExit:
		return false, next, nil
	}
	return true, next, nil
}

// branchTaken reports whether the innermost taken-if matches the
// current nest level, popping that entry when it does.
func (in *Interp) branchTaken(ifStack *[]int) bool {
	n := len(*ifStack)
	if n > 0 && (*ifStack)[n-1] == in.parser.Depth() {
		*ifStack = (*ifStack)[:n-1]
		return true
	}
	return false
}

// runPipe executes a pipe body via the shell and returns its stdout
// with a single trailing newline stripped.
func (in *Interp) runPipe(ctx context.Context, command string) (string, error) {
	output, err := in.pool.RunCaptured(ctx, command)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(output, "\n"), nil
}

func clampI8(v *int64) int8 {
	if v == nil {
		return 0
	}
	if *v > math.MaxInt8 {
		return math.MaxInt8
	}
	if *v < math.MinInt8 {
		return math.MinInt8
	}
	return int8(*v)
}

func toBool(v *int64) int64 {
	if v != nil && *v > 0 {
		return 1
	}
	return 0
}

// pressKey performs a full down/up of one resolved key.
func (in *Interp) pressKey(ctx context.Context, vars scope, k Key) error {
	switch k.Kind {
	case KeyLiteral:
		return in.out.PressChar(k.Char)
	case KeySpecial, KeyKeycode:
		return in.out.PressKeycode(k.Code)
	case KeyModifier:
		return in.out.PressModifier(k.Modifier)
	case KeyASCII:
		c, err := in.resolveASCII(ctx, vars, k.Expr)
		if err != nil {
			return err
		}
		if c != 0 {
			return in.out.PressChar(c)
		}
		return nil
	case KeyVariable:
		d, err := in.resolveVariable(vars, k.Name)
		if err != nil {
			return err
		}
		if d.isInt {
			return in.out.PressString(strconv.FormatInt(d.i, 10))
		}
		for _, inner := range d.keys {
			if err := in.pressKey(ctx, vars, inner); err != nil {
				return err
			}
		}
		return nil
	case KeyMouseLeft:
		return in.out.PressButton(hidio.MouseLeft)
	case KeyMouseRight:
		return in.out.PressButton(hidio.MouseRight)
	case KeyMouseMiddle:
		return in.out.PressButton(hidio.MouseMiddle)
	}
	return nil
}

func (in *Interp) holdKey(ctx context.Context, vars scope, k Key) error {
	switch k.Kind {
	case KeyLiteral:
		return in.out.HoldChar(k.Char)
	case KeySpecial, KeyKeycode:
		return in.out.HoldKeycode(k.Code)
	case KeyModifier:
		return in.out.HoldModifier(k.Modifier)
	case KeyASCII:
		c, err := in.resolveASCII(ctx, vars, k.Expr)
		if err != nil {
			return err
		}
		if c != 0 {
			return in.out.HoldChar(c)
		}
		return nil
	case KeyVariable:
		d, err := in.resolveVariable(vars, k.Name)
		if err != nil {
			return err
		}
		if d.isInt {
			return in.out.PressString(strconv.FormatInt(d.i, 10))
		}
		for _, inner := range d.keys {
			if err := in.holdKey(ctx, vars, inner); err != nil {
				return err
			}
		}
		return nil
	case KeyMouseLeft:
		return in.out.HoldButton(hidio.MouseLeft)
	case KeyMouseRight:
		return in.out.HoldButton(hidio.MouseRight)
	case KeyMouseMiddle:
		return in.out.HoldButton(hidio.MouseMiddle)
	}
	return nil
}

func (in *Interp) releaseKey(ctx context.Context, vars scope, k Key) error {
	switch k.Kind {
	case KeyLiteral:
		return in.out.ReleaseChar(k.Char)
	case KeySpecial, KeyKeycode:
		return in.out.ReleaseKeycode(k.Code)
	case KeyModifier:
		return in.out.ReleaseModifier(k.Modifier)
	case KeyASCII:
		c, err := in.resolveASCII(ctx, vars, k.Expr)
		if err != nil {
			return err
		}
		if c != 0 {
			return in.out.ReleaseChar(c)
		}
		return nil
	case KeyVariable:
		d, err := in.resolveVariable(vars, k.Name)
		if err != nil {
			return err
		}
		if d.isInt {
			return nil
		}
		for _, inner := range d.keys {
			if err := in.releaseKey(ctx, vars, inner); err != nil {
				return err
			}
		}
		return nil
	case KeyMouseLeft:
		return in.out.ReleaseButton(hidio.MouseLeft)
	case KeyMouseRight:
		return in.out.ReleaseButton(hidio.MouseRight)
	case KeyMouseMiddle:
		return in.out.ReleaseButton(hidio.MouseMiddle)
	}
	return nil
}

func (in *Interp) resolveASCII(ctx context.Context, vars scope, expr *Expression) (rune, error) {
	value, err := in.resolveExpression(ctx, vars, expr)
	if err != nil {
		return 0, err
	}
	if value == nil || *value < 0 || *value > 0x7F {
		return 0, nil
	}
	return rune(*value), nil
}

func (in *Interp) resolveVariable(vars scope, name string) (data, error) {
	d, ok := vars[name]
	if !ok {
		return data{}, errAt(KindUndefinedVariable, 0, name)
	}
	return d, nil
}

func (in *Interp) resolveVariableInt(vars scope, name string) (int64, error) {
	d, err := in.resolveVariable(vars, name)
	if err != nil {
		return 0, err
	}
	if !d.isInt {
		return 0, errAt(KindExpectedInteger, 0, name)
	}
	return d.i, nil
}

// resolveExpression evaluates left to right; a nil result is "no
// value" (a set operator consumed it).
func (in *Interp) resolveExpression(ctx context.Context, vars scope, expr *Expression) (*int64, error) {
	value, err := in.resolveValue(ctx, vars, &expr.Value)
	if err != nil {
		return nil, err
	}
	for i := range expr.Ops {
		value, err = in.resolveOperator(ctx, vars, value, &expr.Ops[i])
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}

func intPtr(v int64) *int64 { return &v }

func (in *Interp) resolveValue(ctx context.Context, vars scope, val *Value) (*int64, error) {
	switch val.Kind {
	case ValueInt:
		return intPtr(val.Int), nil
	case ValueVariable:
		v, err := in.resolveVariableInt(vars, val.Name)
		if err != nil {
			return nil, err
		}
		return intPtr(v), nil
	case ValueCall:
		v, err := in.resolveCall(ctx, vars, TypeInteger, val.Name, val.Args)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, errAt(KindInvalidValue, 0, "call yielded no value")
		}
		return v, nil
	case ValueBracket:
		return in.resolveExpression(ctx, vars, val.Expr)
	case ValueLED:
		on, err := in.out.LED(val.LED)
		if err != nil {
			return nil, errAt(KindIO, 0, err.Error())
		}
		if on {
			return intPtr(1), nil
		}
		return intPtr(0), nil
	case ValueBitNot:
		v, err := in.resolveExpression(ctx, vars, val.Expr)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}
		return intPtr(^*v), nil
	case ValueNot:
		v, err := in.resolveExpression(ctx, vars, val.Expr)
		if err != nil {
			return nil, err
		}
		if toBool(v) == 1 {
			return intPtr(0), nil
		}
		return intPtr(1), nil
	}
	return nil, errAt(KindInvalidValue, 0, "unknown value")
}

// saturatingPow computes base^exp saturating at the i64 bounds. A
// negative exponent is 0 for |base| > 1 and invalid for 0 and ±1.
func saturatingPow(base, exp int64) (int64, error) {
	if exp < 0 {
		if base == 0 || base == 1 || base == -1 {
			return 0, errAt(KindInvalidValue, 0, "negative exponent of unit base")
		}
		return 0, nil
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		next := result * base
		if base != 0 && next/base != result {
			if (result > 0) == (base > 0) {
				return math.MaxInt64, nil
			}
			return math.MinInt64, nil
		}
		result = next
	}
	return result, nil
}

func (in *Interp) resolveOperator(ctx context.Context, vars scope, value *int64, op *Operator) (*int64, error) {
	if value == nil {
		return nil, nil
	}

	switch op.Kind {
	case OpSet:
		vars[op.Name] = data{isInt: true, i: *value}
		return nil, nil

	case OpFold:
		running := value
		for {
			cond, err := in.resolveExpression(ctx, vars, op.Cond)
			if err != nil {
				return nil, err
			}
			if toBool(cond) == 0 {
				return running, nil
			}
			running, err = in.resolveOperator(ctx, vars, running, op.Body)
			if err != nil {
				return nil, err
			}
		}

	case OpTernary:
		if toBool(value) == 1 {
			return in.resolveExpression(ctx, vars, op.Then)
		}
		return in.resolveExpression(ctx, vars, op.Else)
	}

	operand, err := in.resolveValue(ctx, vars, &op.Val)
	if err != nil {
		return nil, err
	}
	if operand == nil {
		return nil, nil
	}
	a, b := *value, *operand

	switch op.Kind {
	case OpAdd:
		return intPtr(a + b), nil
	case OpSub:
		return intPtr(a - b), nil
	case OpMult:
		return intPtr(a * b), nil
	case OpDiv:
		if b == 0 {
			return nil, errAt(KindInvalidValue, 0, "division by zero")
		}
		return intPtr(a / b), nil
	case OpMod:
		if b == 0 {
			return nil, errAt(KindInvalidValue, 0, "modulo by zero")
		}
		return intPtr(a % b), nil
	case OpExp:
		v, err := saturatingPow(a, b)
		if err != nil {
			return nil, err
		}
		return intPtr(v), nil
	case OpEqu:
		return intPtr(boolInt(a == b)), nil
	case OpNEq:
		return intPtr(boolInt(a != b)), nil
	case OpGre:
		return intPtr(boolInt(a > b)), nil
	case OpLes:
		return intPtr(boolInt(a < b)), nil
	case OpEqL:
		return intPtr(boolInt(a <= b)), nil
	case OpEqG:
		return intPtr(boolInt(a >= b)), nil
	case OpAnd:
		return intPtr(boolInt(a > 0 && b > 0)), nil
	case OpOr:
		return intPtr(boolInt(a > 0 || b > 0)), nil
	case OpBAnd:
		return intPtr(a & b), nil
	case OpBOr:
		return intPtr(a | b), nil
	case OpLeft:
		if b < 0 || b > 63 {
			return nil, errAt(KindInvalidValue, 0, "shift out of range")
		}
		return intPtr(a << uint(b)), nil
	case OpRight:
		if b < 0 || b > 63 {
			return nil, errAt(KindInvalidValue, 0, "shift out of range")
		}
		return intPtr(a >> uint(b)), nil
	}
	return nil, errAt(KindInvalidValue, 0, "unknown operator")
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// resolveCall executes a function: a fresh clone of the caller's scope,
// parameters bound, body run, clone discarded. Integer functions return
// their expression's value; literal functions return nothing.
func (in *Interp) resolveCall(ctx context.Context, vars scope, expected DataType, name string, args []Parameter) (*int64, error) {
	def, ok := in.parser.funcs[name]
	if !ok {
		return nil, errAt(KindUndefinedFunction, 0, name)
	}
	if expected != TypeAny && def.typ != expected {
		return nil, nil
	}

	callVars := vars.clone()
	for i, param := range def.params {
		if i >= len(args) {
			break
		}
		if param.typ == TypeInteger {
			v, err := in.resolveExpression(ctx, callVars, args[i].Expr)
			if err != nil {
				return nil, err
			}
			var bound int64
			if v != nil {
				bound = *v
			}
			callVars[param.name] = data{isInt: true, i: bound}
		} else {
			callVars[param.name] = data{keys: args[i].Keys}
		}
	}

	if def.body.expr != nil {
		v, err := in.resolveExpression(ctx, callVars, def.body.expr)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return intPtr(0), nil
		}
		return v, nil
	}

	// Literal body: interpret the recorded source span with the
	// parameters declared for the duration.
	saved := in.parser.beginFunction(name)
	defer in.parser.endFunction(name, saved)

	var ifStack, whileStack []int
	pos := def.body.start
	for pos < def.body.end {
		cont, next, err := in.step(ctx, callVars, &ifStack, &whileStack, pos)
		if err != nil {
			return nil, err
		}
		if !cont {
			break
		}
		pos = next
	}
	return nil, nil
}
