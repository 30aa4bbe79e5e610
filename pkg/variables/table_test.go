// SPDX-License-Identifier: BSD-3-Clause

package variables

import "testing"

func TestCreateManyDoesNotOverwrite(t *testing.T) {
	tbl := NewTable()
	tbl.Create("mode", "layer0")
	tbl.CreateMany(map[string]string{"mode": "layer9", "brightness": "5"})

	v, err := tbl.Get("mode")
	if err != nil {
		t.Fatal(err)
	}
	if v != "layer0" {
		t.Fatalf("CreateMany overwrote existing value: got %q", v)
	}
	v, err = tbl.Get("brightness")
	if err != nil {
		t.Fatal(err)
	}
	if v != "5" {
		t.Fatalf("want 5, got %q", v)
	}
}

func TestSubscribeSeedsCurrentValue(t *testing.T) {
	tbl := NewTable()
	tbl.Create("mode", "layer0")

	va := tbl.Subscribe("mode")
	if got := va.Value(); got != "layer0" {
		t.Fatalf("want seeded value layer0, got %q", got)
	}
}

func TestUpdatePublishesToAllSubscribers(t *testing.T) {
	tbl := NewTable()
	tbl.Create("mode", "layer0")

	a := tbl.Subscribe("mode")
	b := tbl.Subscribe("mode")

	tbl.Update("mode", "layer1")

	if got := a.Value(); got != "layer1" {
		t.Fatalf("subscriber a: want layer1, got %q", got)
	}
	if got := b.Value(); got != "layer1" {
		t.Fatalf("subscriber b: want layer1, got %q", got)
	}
}

func TestLateSubscriberSeesOnlyLatest(t *testing.T) {
	tbl := NewTable()
	tbl.Create("mode", "layer0")
	tbl.Update("mode", "layer1")
	tbl.Update("mode", "layer2")

	late := tbl.Subscribe("mode")
	if got := late.Value(); got != "layer2" {
		t.Fatalf("want latest value layer2, got %q", got)
	}
}

func TestConstantNeverChanges(t *testing.T) {
	c := NewConstant("42")
	if got := c.Value(); got != "42" {
		t.Fatalf("want 42, got %q", got)
	}
	if c.Name() != "" {
		t.Fatalf("constant should have empty name")
	}
}

func TestGetUndefinedVariable(t *testing.T) {
	tbl := NewTable()
	if _, err := tbl.Get("nope"); err == nil {
		t.Fatal("want error for undefined variable")
	}
}
