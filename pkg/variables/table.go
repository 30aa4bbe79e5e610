// SPDX-License-Identifier: BSD-3-Clause

package variables

import (
	"fmt"
	"sync"
)

type subscriber struct {
	ch chan string
}

type slot struct {
	value string
	subs  []*subscriber
}

// Table is the shared observable key→string store.
type Table struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// NewTable creates an empty variables table.
func NewTable() *Table {
	return &Table{slots: make(map[string]*slot)}
}

// Create installs a default value for name if it does not already exist.
func (t *Table) Create(name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.createLocked(name, value)
}

func (t *Table) createLocked(name, value string) {
	if _, ok := t.slots[name]; ok {
		return
	}
	t.slots[name] = &slot{value: value}
}

// CreateMany installs defaults for every name in defaults, never
// overwriting an already-existing name.
func (t *Table) CreateMany(defaults map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, value := range defaults {
		t.createLocked(name, value)
	}
}

// Update publishes newValue to every subscriber of name. It
// creates the slot if absent, storing newValue as its current value.
func (t *Table) Update(name, newValue string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[name]
	if !ok {
		s = &slot{}
		t.slots[name] = s
	}
	s.value = newValue
	for _, sub := range s.subs {
		publishNonBlocking(sub.ch, newValue)
	}
}

// publishNonBlocking drains any stale buffered value before sending so a
// late-reading subscriber always sees only the most recent update.
func publishNonBlocking(ch chan string, value string) {
	select {
	case <-ch:
	default:
	}
	ch <- value
}

// Get returns the current value of name without subscribing.
func (t *Table) Get(name string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUndefinedVariable, name)
	}
	return s.value, nil
}

// List returns every variable name currently installed.
func (t *Table) List() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.slots))
	for name := range t.slots {
		names = append(names, name)
	}
	return names
}

// Subscribe appends a new subscriber for name, seeding it with the
// slot's current value so late subscribers see a consistent view
//, and returns a Variable bound to that subscription.
func (t *Table) Subscribe(name string) *Variable {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots[name]
	if !ok {
		s = &slot{}
		t.slots[name] = s
	}

	ch := make(chan string, 1)
	ch <- s.value
	s.subs = append(s.subs, &subscriber{ch: ch})

	return &Variable{name: name, ch: ch, cache: s.value}
}
