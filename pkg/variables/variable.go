// SPDX-License-Identifier: BSD-3-Clause

package variables

import "strconv"

// Variable is either a constant baked into a function, or a named
// observable slot backed by a Table subscription.
// Reading the value moves any pending update from the receiver into the
// cached string; Int and Bool parse that string on every call. Constants
// never touch a channel.
type Variable struct {
	name     string
	constant bool
	ch       chan string
	cache    string
}

// NewConstant returns a Variable whose value never changes and whose
// reads never touch a channel.
func NewConstant(value string) *Variable {
	return &Variable{constant: true, cache: value}
}

// Name returns the bound variable name, or "" for a constant.
func (v *Variable) Name() string { return v.name }

// Value returns the current string value, draining any pending update
// from the subscription channel first.
func (v *Variable) Value() string {
	if v.constant {
		return v.cache
	}
	select {
	case s := <-v.ch:
		v.cache = s
	default:
	}
	return v.cache
}

// Int parses the current value as a base-10 int64.
func (v *Variable) Int() (int64, error) {
	return strconv.ParseInt(v.Value(), 10, 64)
}

// Bool parses the current value as a bool ("true"/"false").
func (v *Variable) Bool() (bool, error) {
	return strconv.ParseBool(v.Value())
}
