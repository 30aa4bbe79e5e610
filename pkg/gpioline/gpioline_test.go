// SPDX-License-Identifier: BSD-3-Clause

package gpioline

import (
	"context"
	"errors"
	"testing"
)

type fakeLine struct {
	value   int
	written []int
	failing bool
}

func (f *fakeLine) Value() (int, error) {
	if f.failing {
		return 0, errors.New("bus fault")
	}
	return f.value, nil
}

func (f *fakeLine) SetValue(v int) error {
	f.written = append(f.written, v)
	f.value = v
	return nil
}

func (f *fakeLine) Close() error { return nil }

func withFakeLines(t *testing.T, fakes map[int]*fakeLine) {
	t.Helper()
	orig := requestLine
	requestLine = func(_ string, l Line) (lineIO, error) {
		if f, ok := fakes[l.Offset]; ok {
			return f, nil
		}
		return &fakeLine{}, nil
	}
	t.Cleanup(func() { requestLine = orig })
}

func TestTickNormalizesPolarity(t *testing.T) {
	fakes := map[int]*fakeLine{
		4: {value: 1},
		5: {value: 1},
	}
	withFakeLines(t, fakes)

	d, err := New(Config{
		Name: "panel",
		Chip: "gpiochip0",
		Lines: []Line{
			{Offset: 4, OnState: true},
			{Offset: 5, OnState: false},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if err := d.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if v, _ := d.Poll(0); v != 0xFFFF {
		t.Errorf("active-high line = %d, want high", v)
	}
	if v, _ := d.Poll(1); v != 0 {
		t.Errorf("active-low line = %d, want low", v)
	}
}

func TestFailedReadKeepsLastGoodState(t *testing.T) {
	f := &fakeLine{value: 1}
	withFakeLines(t, map[int]*fakeLine{2: f})

	d, err := New(Config{Name: "p", Chip: "c", Lines: []Line{{Offset: 2, OnState: true}}})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if err := d.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.failing = true
	_ = d.Tick(context.Background())
	if v, _ := d.Poll(0); v != 0xFFFF {
		t.Fatalf("state after failed read = %d, want retained high", v)
	}
}

func TestSetRoutesToOutputOnly(t *testing.T) {
	out := &fakeLine{}
	withFakeLines(t, map[int]*fakeLine{7: out, 8: {}})

	d, err := New(Config{
		Name: "p",
		Chip: "c",
		Lines: []Line{
			{Offset: 7, Output: true},
			{Offset: 8, OnState: true},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if err := d.Set(0, 0xFFFF); err != nil {
		t.Fatal(err)
	}
	if len(out.written) != 1 || out.written[0] != 1 {
		t.Fatalf("writes = %v", out.written)
	}
	if v, _ := d.Poll(0); v != 0xFFFF {
		t.Fatalf("mirrored state = %d", v)
	}
	if err := d.Set(1, 1); !errors.Is(err, ErrNotOutput) {
		t.Fatalf("set on input = %v, want ErrNotOutput", err)
	}
}

func TestConfigValidation(t *testing.T) {
	if err := (Config{Name: "x", Lines: []Line{{Offset: 1}, {Offset: 1}}}).Validate(); !errors.Is(err, ErrConfig) {
		t.Fatalf("duplicate offsets = %v", err)
	}
	if err := (Config{Lines: nil}).Validate(); !errors.Is(err, ErrConfig) {
		t.Fatalf("missing name = %v", err)
	}
}
