// SPDX-License-Identifier: BSD-3-Clause

package function

import (
	"context"
	"math"
	"time"

	"github.com/ellabellla/lmklib-sub000/pkg/hidio"
)

// Axis selects the mouse axis an analog function drives.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// curve maps a normalized state in [-1,1] to a signed report byte
// through the sigmoid f(s) = (slopeX*s / sqrt(1+(slopeX*s)^2)) * slopeY,
// clamped to [-1,1] and scaled to the i8 range. A state that would
// produce +128 clamps to +127.
func curve(state float64, invert bool, slopeY, slopeX float64) int8 {
	state = slopeX * state
	val := state / math.Sqrt(1+state*state) * slopeY
	if invert {
		val = -val
	}
	if val > 1 {
		val = 1
	} else if val < -1 {
		val = -1
	}
	if val < 0 {
		return int8(-val * math.MinInt8)
	}
	return int8(val * math.MaxInt8)
}

// normalize maps a raw state against its maximum onto [-1,1] centered
// at maximum/2.
func normalize(state State, maximum float64) float64 {
	half := maximum / 2
	if half == 0 {
		return 0
	}
	return (float64(state) - half) / half
}

// pastThreshold reports whether a normalized state is far enough from
// center to emit motion. A zero threshold always emits.
func pastThreshold(state, threshold float64) bool {
	if threshold == 0 {
		return true
	}
	return math.Abs(state) > math.Abs(threshold)
}

// MouseMove drives one mouse axis from an analog state through the
// sigmoid curve on every tick.
type MouseMove struct {
	axis      Axis
	invert    *value
	slopeX    *value
	slopeY    *value
	maximum   *value
	threshold *value
	hid       *hidio.Queue
}

// NewMouseMove builds an analog MouseMove.
func NewMouseMove(axis Axis, invert, slopeX, slopeY, maximum, threshold *value, hid *hidio.Queue) *MouseMove {
	return &MouseMove{axis: axis, invert: invert, slopeX: slopeX, slopeY: slopeY, maximum: maximum, threshold: threshold, hid: hid}
}

// Event implements Function.
func (m *MouseMove) Event(ctx context.Context, state State) ReturnCommand {
	normalized := normalize(state, m.maximum.f64())
	if pastThreshold(normalized, m.threshold.f64()) {
		val := curve(normalized, m.invert.boolean(), m.slopeY.f64(), m.slopeX.f64())
		if m.axis == AxisY {
			_ = m.hid.Move(ctx, 0, val)
		} else {
			_ = m.hid.Move(ctx, val, 0)
		}
		_ = m.hid.FlushMouseReport(ctx)
	}
	return None()
}

// Descriptor implements Function.
func (m *MouseMove) Descriptor() Descriptor {
	return describe("Move", struct {
		Dir       Axis  `json:"dir"`
		Invert    Param `json:"invert"`
		SlopeX    Param `json:"slope_x"`
		SlopeY    Param `json:"slope_y"`
		Maximum   Param `json:"maximum"`
		Threshold Param `json:"threshold"`
	}{m.axis, describedParam(m.invert), describedParam(m.slopeX), describedParam(m.slopeY), describedParam(m.maximum), describedParam(m.threshold)})
}

// MouseScroll drives the scroll wheel from an analog state through the
// sigmoid curve, rate-limited to one report per period.
type MouseScroll struct {
	period    *value
	invert    *value
	slopeX    *value
	slopeY    *value
	maximum   *value
	threshold *value
	prevTime  time.Time
	hid       *hidio.Queue
}

// NewMouseScroll builds an analog MouseScroll.
func NewMouseScroll(period, invert, slopeX, slopeY, maximum, threshold *value, hid *hidio.Queue) *MouseScroll {
	return &MouseScroll{period: period, invert: invert, slopeX: slopeX, slopeY: slopeY, maximum: maximum, threshold: threshold, prevTime: time.Now(), hid: hid}
}

// Event implements Function.
func (s *MouseScroll) Event(ctx context.Context, state State) ReturnCommand {
	normalized := normalize(state, s.maximum.f64())
	now := time.Now()
	period := time.Duration(s.period.i64()) * time.Millisecond
	if pastThreshold(normalized, s.threshold.f64()) && now.Sub(s.prevTime) > period {
		s.prevTime = now
		val := curve(normalized, s.invert.boolean(), s.slopeY.f64(), s.slopeX.f64())
		_ = s.hid.ScrollBy(ctx, val)
		_ = s.hid.FlushMouseReport(ctx)
	}
	return None()
}

// Descriptor implements Function.
func (s *MouseScroll) Descriptor() Descriptor {
	return describe("Scroll", struct {
		Period    Param `json:"period"`
		Invert    Param `json:"invert"`
		SlopeX    Param `json:"slope_x"`
		SlopeY    Param `json:"slope_y"`
		Maximum   Param `json:"maximum"`
		Threshold Param `json:"threshold"`
	}{describedParam(s.period), describedParam(s.invert), describedParam(s.slopeX), describedParam(s.slopeY), describedParam(s.maximum), describedParam(s.threshold)})
}

// ImmediateMove moves the mouse a set amount once, on the rising edge.
type ImmediateMove struct {
	x, y      *value
	prevState State
	hid       *hidio.Queue
}

// NewImmediateMove builds an ImmediateMove.
func NewImmediateMove(x, y *value, hid *hidio.Queue) *ImmediateMove {
	return &ImmediateMove{x: x, y: y, hid: hid}
}

// Event implements Function.
func (m *ImmediateMove) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, m.prevState) {
		_ = m.hid.Move(ctx, m.x.i8(), m.y.i8())
		_ = m.hid.FlushMouseReport(ctx)
	}
	m.prevState = state
	return None()
}

// Descriptor implements Function.
func (m *ImmediateMove) Descriptor() Descriptor {
	return describe("ImmediateMove", struct {
		X Param `json:"x"`
		Y Param `json:"y"`
	}{describedParam(m.x), describedParam(m.y)})
}

// ImmediateScroll scrolls a set amount once, on the rising edge.
type ImmediateScroll struct {
	amount    *value
	prevState State
	hid       *hidio.Queue
}

// NewImmediateScroll builds an ImmediateScroll.
func NewImmediateScroll(amount *value, hid *hidio.Queue) *ImmediateScroll {
	return &ImmediateScroll{amount: amount, hid: hid}
}

// Event implements Function.
func (s *ImmediateScroll) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, s.prevState) {
		_ = s.hid.ScrollBy(ctx, s.amount.i8())
		_ = s.hid.FlushMouseReport(ctx)
	}
	s.prevState = state
	return None()
}

// Descriptor implements Function.
func (s *ImmediateScroll) Descriptor() Descriptor {
	raw, _ := describedParam(s.amount).MarshalJSON()
	return Descriptor{Tag: "ImmediateScroll", Params: raw}
}

// ConstMove moves the mouse a set amount on every tick while high.
type ConstMove struct {
	x, y *value
	hid  *hidio.Queue
}

// NewConstMove builds a ConstMove.
func NewConstMove(x, y *value, hid *hidio.Queue) *ConstMove {
	return &ConstMove{x: x, y: y, hid: hid}
}

// Event implements Function.
func (m *ConstMove) Event(ctx context.Context, state State) ReturnCommand {
	if High(state) {
		_ = m.hid.Move(ctx, m.x.i8(), m.y.i8())
		_ = m.hid.FlushMouseReport(ctx)
	}
	return None()
}

// Descriptor implements Function.
func (m *ConstMove) Descriptor() Descriptor {
	return describe("ConstMove", struct {
		X Param `json:"x"`
		Y Param `json:"y"`
	}{describedParam(m.x), describedParam(m.y)})
}

// ConstScroll scrolls a set amount while high, rate-limited to one
// report per period.
type ConstScroll struct {
	amount   *value
	period   *value
	prevTime time.Time
	hid      *hidio.Queue
}

// NewConstScroll builds a ConstScroll.
func NewConstScroll(amount, period *value, hid *hidio.Queue) *ConstScroll {
	return &ConstScroll{amount: amount, period: period, prevTime: time.Now(), hid: hid}
}

// Event implements Function.
func (s *ConstScroll) Event(ctx context.Context, state State) ReturnCommand {
	if High(state) {
		now := time.Now()
		period := time.Duration(s.period.i64()) * time.Millisecond
		if now.Sub(s.prevTime) > period {
			s.prevTime = now
			_ = s.hid.ScrollBy(ctx, s.amount.i8())
			_ = s.hid.FlushMouseReport(ctx)
		}
	}
	return None()
}

// Descriptor implements Function.
func (s *ConstScroll) Descriptor() Descriptor {
	return describe("ConstScroll", struct {
		Amount Param `json:"amount"`
		Period Param `json:"period"`
	}{describedParam(s.amount), describedParam(s.period)})
}

// Click holds a mouse button while high.
type Click struct {
	button    hidio.MouseButton
	prevState State
	hid       *hidio.Queue
}

// NewClick builds a Click for button.
func NewClick(button hidio.MouseButton, hid *hidio.Queue) *Click {
	return &Click{button: button, hid: hid}
}

// Event implements Function.
func (c *Click) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, c.prevState) {
		_ = c.hid.HoldButton(ctx, c.button)
		_ = c.hid.FlushMouseReport(ctx)
	} else if Falling(state, c.prevState) {
		_ = c.hid.ReleaseButton(ctx, c.button)
		_ = c.hid.FlushMouseReport(ctx)
	}
	c.prevState = state
	return None()
}

// Descriptor implements Function.
func (c *Click) Descriptor() Descriptor {
	if c.button == hidio.MouseRight {
		return Descriptor{Tag: "RightClick"}
	}
	return Descriptor{Tag: "LeftClick"}
}
