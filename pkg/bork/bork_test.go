// SPDX-License-Identifier: BSD-3-Clause

package bork

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ellabellla/lmklib-sub000/pkg/cmdpool"
	"github.com/ellabellla/lmklib-sub000/pkg/hidio"
	"github.com/ellabellla/lmklib-sub000/pkg/keycode"
)

// fakeOutput records everything a script types. When ledReadsLeft is
// positive it counts down and the LED byte clears once it hits zero.
type fakeOutput struct {
	typed        strings.Builder
	events       []string
	led          byte
	ledReadsLeft int
	moves        [][2]int8
	slept        []time.Duration
}

func (f *fakeOutput) PressChar(c rune) error {
	f.typed.WriteRune(c)
	return nil
}
func (f *fakeOutput) HoldChar(c rune) error {
	f.events = append(f.events, "hold:"+string(c))
	return nil
}
func (f *fakeOutput) ReleaseChar(c rune) error {
	f.events = append(f.events, "release:"+string(c))
	return nil
}
func (f *fakeOutput) PressKeycode(code byte) error {
	if code == 0x28 {
		f.typed.WriteByte('\n')
	}
	f.events = append(f.events, "presscode")
	return nil
}
func (f *fakeOutput) HoldKeycode(byte) error    { return nil }
func (f *fakeOutput) ReleaseKeycode(byte) error { return nil }
func (f *fakeOutput) PressModifier(keycode.Modifier) error {
	f.events = append(f.events, "pressmod")
	return nil
}
func (f *fakeOutput) HoldModifier(keycode.Modifier) error    { return nil }
func (f *fakeOutput) ReleaseModifier(keycode.Modifier) error { return nil }
func (f *fakeOutput) PressString(s string) error {
	f.typed.WriteString(s)
	return nil
}
func (f *fakeOutput) PressButton(hidio.MouseButton) error   { return nil }
func (f *fakeOutput) HoldButton(hidio.MouseButton) error    { return nil }
func (f *fakeOutput) ReleaseButton(hidio.MouseButton) error { return nil }
func (f *fakeOutput) MoveMouse(x, y int8) error {
	f.moves = append(f.moves, [2]int8{x, y})
	return nil
}
func (f *fakeOutput) LED(n int) (bool, error) {
	if f.ledReadsLeft > 0 {
		f.ledReadsLeft--
		if f.ledReadsLeft == 0 {
			defer func() { f.led = 0 }()
		}
	}
	return f.led&(1<<(n-1)) != 0, nil
}
func (f *fakeOutput) FlushKeyboard() error { return nil }
func (f *fakeOutput) FlushMouse() error    { return nil }

func run(t *testing.T, source string) *fakeOutput {
	t.Helper()
	out := &fakeOutput{}
	in := New(source, out, cmdpool.New())
	in.sleep = func(d time.Duration) {
		out.slept = append(out.slept, d)
	}
	if err := in.Run(context.Background()); err != nil {
		t.Fatalf("Run(%q): %v", source, err)
	}
	return out
}

func runErr(t *testing.T, source string) error {
	t.Helper()
	in := New(source, &fakeOutput{}, cmdpool.New())
	in.sleep = func(time.Duration) {}
	return in.Run(context.Background())
}

func TestLiteralRunTypesVerbatim(t *testing.T) {
	out := run(t, "hello world")
	if got := out.typed.String(); got != "hello world" {
		t.Fatalf("typed %q", got)
	}
}

func TestIfElseBranches(t *testing.T) {
	out := run(t, `'10$x'<?x>0; "pos" ;?x<0; "neg" ; "zero" >`)
	if got := out.typed.String(); got != "pos" {
		t.Fatalf("typed %q, want %q", got, "pos")
	}

	out = run(t, `'0-10$x'<?x>0; "pos" ;?x<0; "neg" ; "zero" >`)
	if got := out.typed.String(); got != "neg" {
		t.Fatalf("typed %q, want %q", got, "neg")
	}

	out = run(t, `'0$x'<?x>0; "pos" ;?x<0; "neg" ; "zero" >`)
	if got := out.typed.String(); got != "zero" {
		t.Fatalf("typed %q, want %q", got, "zero")
	}
}

func TestRecursiveFibonacci(t *testing.T) {
	out := run(t, `<+#fib;#x;'x<=1?(x<1?0:1):<!fib;x-1>+<!fib;x-2>'> <!fib;10>`)
	if got := out.typed.String(); got != "55" {
		t.Fatalf("typed %q, want %q", got, "55")
	}
}

func TestPipeTypesCommandOutput(t *testing.T) {
	out := run(t, `<|echo hi>`)
	if got := out.typed.String(); got != "hi" {
		t.Fatalf("typed %q, want %q", got, "hi")
	}
}

func TestWhileLoop(t *testing.T) {
	out := run(t, `'0$i'<*i<3; "a" '(i+1)$i' >`)
	if got := out.typed.String(); got != "aaa" {
		t.Fatalf("typed %q, want %q", got, "aaa")
	}
}

func TestFoldNeverRunsOnFalseCondition(t *testing.T) {
	out := run(t, `'7?*F:2*'`)
	if got := out.typed.String(); got != "7" {
		t.Fatalf("typed %q, want %q", got, "7")
	}
}

func TestFoldAppliesWhileConditionHolds(t *testing.T) {
	// The NumLock LED stays on for three reads, so the doubling body
	// runs three times: 1*2*2*2.
	out := &fakeOutput{led: 0b1, ledReadsLeft: 3}
	in := New(`'1?*\&1:2*'`, out, cmdpool.New())
	in.sleep = func(time.Duration) {}
	if err := in.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := out.typed.String(); got != "8" {
		t.Fatalf("typed %q, want %q", got, "8")
	}
}

func TestExpressionTyping(t *testing.T) {
	out := run(t, `'2+3*4'`)
	// No precedence: (2+3)*4.
	if got := out.typed.String(); got != "20" {
		t.Fatalf("typed %q, want %q", got, "20")
	}
}

func TestSetConsumesValue(t *testing.T) {
	out := run(t, `'42$x'`)
	if got := out.typed.String(); got != "" {
		t.Fatalf("set should type nothing, typed %q", got)
	}
	out = run(t, `'42$x''x'`)
	if got := out.typed.String(); got != "42" {
		t.Fatalf("typed %q, want %q", got, "42")
	}
}

func TestExponentSaturates(t *testing.T) {
	out := run(t, `'2^70'`)
	if got := out.typed.String(); got != "9223372036854775807" {
		t.Fatalf("typed %q, want saturated max", got)
	}
}

func TestDivisionByZeroIsInvalidValue(t *testing.T) {
	err := runErr(t, `'1/0'`)
	var berr *Error
	if !errors.As(err, &berr) || berr.Kind != KindInvalidValue {
		t.Fatalf("error = %v, want invalid value", err)
	}
}

func TestNegativeExponentOfUnitBaseIsInvalid(t *testing.T) {
	err := runErr(t, `'1^(0-1)'`)
	var berr *Error
	if !errors.As(err, &berr) || berr.Kind != KindInvalidValue {
		t.Fatalf("error = %v, want invalid value", err)
	}
	out := run(t, `'2^(0-1)'`)
	if got := out.typed.String(); got != "0" {
		t.Fatalf("typed %q, want 0", got)
	}
}

func TestUndefinedVariableIsParseTimeError(t *testing.T) {
	err := runErr(t, `'nope'`)
	var berr *Error
	if !errors.As(err, &berr) || berr.Kind != KindUndefinedVariable {
		t.Fatalf("error = %v, want undefined variable", err)
	}
}

func TestTypeMismatchOnSet(t *testing.T) {
	err := runErr(t, `<=x;'1'><=x;"abc">`)
	var berr *Error
	if !errors.As(err, &berr) || berr.Kind != KindExpectedInteger {
		t.Fatalf("error = %v, want expected integer", err)
	}
}

func TestLiteralVariableInterpolation(t *testing.T) {
	out := run(t, `<=greeting;"hey">\$greeting\`)
	if got := out.typed.String(); got != "hey" {
		t.Fatalf("typed %q, want %q", got, "hey")
	}
}

func TestComputedASCIIEscape(t *testing.T) {
	out := run(t, `\@64+1\`)
	if got := out.typed.String(); got != "A" {
		t.Fatalf("typed %q, want %q", got, "A")
	}
}

func TestLEDRead(t *testing.T) {
	out := &fakeOutput{led: 0b00010}
	in := New(`\&2`, out, cmdpool.New())
	in.sleep = func(time.Duration) {}
	if err := in.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := out.typed.String(); got != "true" {
		t.Fatalf("typed %q, want %q", got, "true")
	}
}

func TestMouseMoveClamps(t *testing.T) {
	out := run(t, `<%300;0-300>`)
	if len(out.moves) != 1 || out.moves[0] != [2]int8{127, -128} {
		t.Fatalf("moves = %v", out.moves)
	}
}

func TestSleepCommand(t *testing.T) {
	out := run(t, `<*'250'>`)
	if len(out.slept) != 1 || out.slept[0] != 250*time.Millisecond {
		t.Fatalf("slept = %v", out.slept)
	}
}

func TestLiteralFunctionCall(t *testing.T) {
	out := run(t, `<+"greet;"name;"hi ">`+`<!greet;"bob">`)
	if got := out.typed.String(); got != "hi " {
		t.Fatalf("typed %q, want %q", got, "hi ")
	}
}

func TestLiteralFunctionUsesParameter(t *testing.T) {
	out := run(t, `<+"greet;"name;"hi "\$name\>`+`<!greet;"bob">`)
	if got := out.typed.String(); got != "hi bob" {
		t.Fatalf("typed %q, want %q", got, "hi bob")
	}
}

func TestTernary(t *testing.T) {
	out := run(t, `'5>3?1:2'`)
	if got := out.typed.String(); got != "1" {
		t.Fatalf("typed %q, want %q", got, "1")
	}
}

func TestChordPressesLiteralAndModifier(t *testing.T) {
	out := run(t, `<"a";SHIFT>`)
	if got := out.typed.String(); got != "a" {
		t.Fatalf("typed %q, want %q", got, "a")
	}
	found := false
	for _, e := range out.events {
		if e == "pressmod" {
			found = true
		}
	}
	if !found {
		t.Fatal("modifier was not pressed")
	}
}

func TestHoldAndRelease(t *testing.T) {
	out := run(t, `<_"a"><-"a">`)
	want := []string{"hold:a", "release:a"}
	if len(out.events) != 2 || out.events[0] != want[0] || out.events[1] != want[1] {
		t.Fatalf("events = %v, want %v", out.events, want)
	}
}
