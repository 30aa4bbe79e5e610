// SPDX-License-Identifier: BSD-3-Clause

package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ellabellla/lmklib-sub000/pkg/driver"
	"github.com/ellabellla/lmklib-sub000/pkg/function"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
)

// shiftEntry records one shift operation: the layer it started from and
// the layer it moved to.
type shiftEntry struct {
	from, to int
}

// Layout is the width×height binding plane, its bound addresses, and
// the ordered layer stack of built functions.
type Layout struct {
	mu sync.RWMutex

	width, height int
	addresses     []Address
	cells         []int // cell index → addresses index, -1 when unbound

	layers [][]function.Function
	cur    int
	shifts []shiftEntry

	drivers *driver.Registry
	builder *function.Builder
	logger  *slog.Logger
}

// New creates an empty layout plane of width×height.
func New(width, height int, drivers *driver.Registry, builder *function.Builder) *Layout {
	cells := make([]int, width*height)
	for i := range cells {
		cells[i] = -1
	}
	return &Layout{
		width:   width,
		height:  height,
		cells:   cells,
		drivers: drivers,
		builder: builder,
		logger:  log.GetGlobalLogger().With("component", "layout"),
	}
}

// Width returns the plane width.
func (l *Layout) Width() int { return l.width }

// Height returns the plane height.
func (l *Layout) Height() int { return l.height }

// Bind adds an address, validating that its rectangle lies wholly
// within the plane and overlaps no existing binding.
func (l *Layout) Bind(a Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if a.Kind == AddressNone {
		return nil
	}
	if a.Kind == AddressMatrix {
		if a.Width <= 0 || a.Input.Len()%a.Width != 0 {
			return fmt.Errorf("%w: matrix of %d slots with width %d", ErrInvalidSize, a.Input.Len(), a.Width)
		}
	}
	x, y := a.Root[0], a.Root[1]
	w, h := a.CellWidth(), a.Height()
	if x < 0 || y < 0 || x+w > l.width || y+h > l.height {
		return fmt.Errorf("%w: %dx%d at (%d, %d)", ErrOutsideBounds, w, h, x, y)
	}
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			if l.cells[(y+dy)*l.width+(x+dx)] != -1 {
				return fmt.Errorf("%w: cell (%d, %d)", ErrInUse, x+dx, y+dy)
			}
		}
	}

	id := len(l.addresses)
	l.addresses = append(l.addresses, a)
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			l.cells[(y+dy)*l.width+(x+dx)] = id
		}
	}
	return nil
}

// Addresses returns the bound addresses in binding order.
func (l *Layout) Addresses() []Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Address(nil), l.addresses...)
}

// buildLayer materializes a descriptor grid into a flat function layer.
func (l *Layout) buildLayer(ctx context.Context, grid [][]function.Descriptor) ([]function.Function, error) {
	if len(grid) != l.height {
		return nil, fmt.Errorf("%w: layer of %d rows on a %d-row layout", ErrInvalidSize, len(grid), l.height)
	}
	layer := make([]function.Function, 0, l.width*l.height)
	for y, row := range grid {
		if len(row) != l.width {
			return nil, fmt.Errorf("%w: layer row %d of %d cells on a %d-column layout", ErrInvalidSize, y, len(row), l.width)
		}
		for _, d := range row {
			fn, err := l.builder.Build(ctx, d)
			if err != nil {
				return nil, err
			}
			layer = append(layer, fn)
		}
	}
	return layer, nil
}

// AddLayer builds a descriptor grid and inserts it at index; an index
// beyond the stack appends. It returns the layer's resulting index.
func (l *Layout) AddLayer(ctx context.Context, grid [][]function.Descriptor, index int) (int, error) {
	layer, err := l.buildLayer(ctx, grid)
	if err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.layers) {
		l.layers = append(l.layers, layer)
		return len(l.layers) - 1, nil
	}
	l.layers = append(l.layers[:index], append([][]function.Function{layer}, l.layers[index:]...)...)
	return index, nil
}

// RemoveLayer drops the layer at index.
func (l *Layout) RemoveLayer(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.layers) {
		return fmt.Errorf("%w: %d", ErrNoSuchLayer, index)
	}
	l.layers = append(l.layers[:index], l.layers[index+1:]...)
	if l.cur >= len(l.layers) && l.cur > 0 {
		l.cur = len(l.layers) - 1
	}
	return nil
}

// NumLayers reports the stack depth.
func (l *Layout) NumLayers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.layers)
}

// CurrentLayer reports the current layer index.
func (l *Layout) CurrentLayer() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cur
}

// SwitchLayer makes index current.
func (l *Layout) SwitchLayer(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.switchLocked(index)
}

func (l *Layout) switchLocked(index int) error {
	if index < 0 || index >= len(l.layers) {
		return fmt.Errorf("%w: %d", ErrNoSuchLayer, index)
	}
	l.cur = index
	return nil
}

// UpLayer advances the current layer, bounded by the stack top.
func (l *Layout) UpLayer() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur+1 >= len(l.layers) {
		return fmt.Errorf("%w: above %d", ErrNoSuchLayer, l.cur)
	}
	l.cur++
	return nil
}

// DownLayer retreats the current layer, bounded by layer zero.
func (l *Layout) DownLayer() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur == 0 {
		return fmt.Errorf("%w: below 0", ErrNoSuchLayer)
	}
	l.cur--
	return nil
}

// Shift pushes (current → index) onto the shift trace and makes index
// current; the matching Unshift restores the recorded start.
func (l *Layout) Shift(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.layers) || index == l.cur {
		return fmt.Errorf("%w: shift to %d", ErrNoSuchLayer, index)
	}
	l.shifts = append(l.shifts, shiftEntry{from: l.cur, to: index})
	l.cur = index
	return nil
}

// Unshift pops the most recent trace entry targeting index. Unshifting
// the topmost entry restores its start layer; an interior entry is
// removed without changing the current layer.
func (l *Layout) Unshift(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.shifts) == 0 {
		return fmt.Errorf("%w: unshift with empty trace", ErrNoSuchLayer)
	}
	top := l.shifts[len(l.shifts)-1]
	if top.to == index {
		l.shifts = l.shifts[:len(l.shifts)-1]
		return l.switchLocked(top.from)
	}
	for i := len(l.shifts) - 2; i >= 0; i-- {
		if l.shifts[i].to == index {
			l.shifts = append(l.shifts[:i], l.shifts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: no shift targeting %d", ErrNoSuchLayer, index)
}

// apply routes a function's ReturnCommand to the layer stack.
func (l *Layout) apply(cmd function.ReturnCommand) {
	var err error
	switch cmd.Kind {
	case function.ReturnSwitch:
		err = l.SwitchLayer(cmd.Index)
	case function.ReturnShift:
		err = l.Shift(cmd.Index)
	case function.ReturnUnshift:
		err = l.Unshift(cmd.Index)
	case function.ReturnUp:
		err = l.UpLayer()
	case function.ReturnDown:
		err = l.DownLayer()
	default:
		return
	}
	if err != nil {
		l.logger.Debug("layer command rejected", "error", err)
	}
}

// dispatch delivers state to the first non-empty binding at (x, y),
// walking from the current layer down to layer zero. Layers whose cell
// is empty are transparent. The write lock covers exactly one cell's
// dispatch.
func (l *Layout) dispatch(ctx context.Context, x, y int, state uint16, commands *[]function.ReturnCommand) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.layers) == 0 {
		return
	}
	cell := y*l.width + x
	for layer := l.cur; layer >= 0; layer-- {
		fn := l.layers[layer][cell]
		if fn == nil {
			continue
		}
		cmd := fn.Event(ctx, state)
		if cmd.Kind != function.ReturnNone {
			*commands = append(*commands, cmd)
		}
		return
	}
}

// Tick refreshes every registered driver.
func (l *Layout) Tick(ctx context.Context) {
	l.drivers.Tick(ctx)
}

// Poll reads every bound address once, dispatches each observed state,
// and applies the accumulated layer commands after the full pass. An
// empty layer stack is a no-op.
func (l *Layout) Poll(ctx context.Context) {
	l.mu.RLock()
	if len(l.layers) == 0 {
		l.mu.RUnlock()
		return
	}
	addresses := append([]Address(nil), l.addresses...)
	l.mu.RUnlock()

	var commands []function.ReturnCommand
	for _, a := range addresses {
		switch a.Kind {
		case AddressMatrix:
			d, err := l.drivers.Get(a.Name)
			if err != nil {
				continue
			}
			states, err := d.PollRange(a.Input)
			if err != nil {
				l.logger.DebugContext(ctx, "address poll failed", "driver", a.Name, "error", err)
				continue
			}
			x, y := a.Root[0], a.Root[1]
			for i, state := range states {
				dx := i % a.Width
				dy := i / a.Width
				l.dispatch(ctx, x+dx, y+dy, state, &commands)
			}
		case AddressSingle:
			d, err := l.drivers.Get(a.Name)
			if err != nil {
				continue
			}
			state, err := d.Poll(a.Index)
			if err != nil {
				l.logger.DebugContext(ctx, "address poll failed", "driver", a.Name, "error", err)
				continue
			}
			l.dispatch(ctx, a.Root[0], a.Root[1], state, &commands)
		}
	}

	for _, cmd := range commands {
		l.apply(cmd)
	}
}

// Document is the serialized layout: plane dimensions, bound addresses,
// and the function descriptors of every layer as width×height grids.
type Document struct {
	Width  int                         `json:"width"`
	Height int                         `json:"height"`
	Bound  []Address                   `json:"bound"`
	Layers [][][]function.Descriptor   `json:"layers"`
}

// Build materializes a Document into a Layout, validating address
// non-overlap and layer rectangularity.
func Build(ctx context.Context, doc Document, drivers *driver.Registry, builder *function.Builder) (*Layout, error) {
	l := New(doc.Width, doc.Height, drivers, builder)
	for _, a := range doc.Bound {
		if err := l.Bind(a); err != nil {
			return nil, err
		}
	}
	for _, grid := range doc.Layers {
		if _, err := l.AddLayer(ctx, grid, len(doc.Layers)); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Document serializes the layout back to its document form.
func (l *Layout) Document() Document {
	l.mu.RLock()
	defer l.mu.RUnlock()

	layers := make([][][]function.Descriptor, len(l.layers))
	for i, layer := range l.layers {
		layers[i] = l.gridLocked(layer)
	}
	return Document{
		Width:  l.width,
		Height: l.height,
		Bound:  append([]Address(nil), l.addresses...),
		Layers: layers,
	}
}

// LayerDescriptors returns the current layer's descriptors as a grid.
func (l *Layout) LayerDescriptors() ([][]function.Descriptor, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.layers) == 0 {
		return nil, ErrNoSuchLayer
	}
	return l.gridLocked(l.layers[l.cur]), nil
}

func (l *Layout) gridLocked(layer []function.Function) [][]function.Descriptor {
	grid := make([][]function.Descriptor, l.height)
	for y := 0; y < l.height; y++ {
		row := make([]function.Descriptor, l.width)
		for x := 0; x < l.width; x++ {
			fn := layer[y*l.width+x]
			if fn == nil {
				row[x] = function.NoneDescriptor()
			} else {
				row[x] = fn.Descriptor()
			}
		}
		grid[y] = row
	}
	return grid
}

// MarshalJSON implements json.Marshaler over the document form.
func (l *Layout) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Document())
}
