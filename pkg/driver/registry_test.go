// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakeDriver struct {
	name    string
	ticks   int
	tickErr error
	state   []uint16
}

func (f *fakeDriver) Name() string { return f.name }
func (f *fakeDriver) Tick(ctx context.Context) error {
	f.ticks++
	return f.tickErr
}
func (f *fakeDriver) Poll(i int) (uint16, error) {
	if i < 0 || i >= len(f.state) {
		return 0, ErrIndexOutOfRange
	}
	return f.state[i], nil
}
func (f *fakeDriver) PollRange(r Range) ([]uint16, error) {
	if r.Start < 0 || r.End > len(f.state) {
		return nil, ErrIndexOutOfRange
	}
	return f.state[r.Start:r.End], nil
}
func (f *fakeDriver) Set(i int, v uint16) error { return ErrNotWritable }
func (f *fakeDriver) MarshalState() (json.RawMessage, error) {
	return json.Marshal(map[string]string{"name": f.name})
}

func TestRegistryAddDuplicateRejected(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(&fakeDriver{name: "kb"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(&fakeDriver{name: "kb"}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("want ErrDuplicateName, got %v", err)
	}
}

func TestRegistryTickContinuesAfterFailure(t *testing.T) {
	r := NewRegistry()
	bad := &fakeDriver{name: "bad", tickErr: errors.New("i2c bus timeout")}
	good := &fakeDriver{name: "good"}
	if err := r.Add(bad); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(good); err != nil {
		t.Fatal(err)
	}

	r.Tick(context.Background())

	if bad.ticks != 1 || good.ticks != 1 {
		t.Fatalf("want both drivers ticked once, got bad=%d good=%d", bad.ticks, good.ticks)
	}
}

func TestRegistryGetNotFound(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestValidateUnique(t *testing.T) {
	if err := ValidateUnique([]string{"a", "b", "c"}); err != nil {
		t.Fatal(err)
	}
	if err := ValidateUnique([]string{"a", "b", "a"}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("want ErrDuplicateName, got %v", err)
	}
}
