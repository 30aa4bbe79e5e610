// SPDX-License-Identifier: BSD-3-Clause

package function

import (
	"encoding/json"

	"github.com/ellabellla/lmklib-sub000/pkg/variables"
)

// value is a resolved descriptor parameter. Constants hold their JSON
// encoding directly; variable-backed values read the latest published
// string from their table subscription and fall back to the default
// when it does not parse.
type value struct {
	name     string
	fallback string
	variable *variables.Variable
}

func newConstValue(raw json.RawMessage) *value {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	return &value{fallback: string(raw)}
}

func newVarValue(name string, def json.RawMessage, table *variables.Table) *value {
	if len(def) == 0 {
		def = json.RawMessage("null")
	}
	table.Create(name, string(def))
	return &value{name: name, fallback: string(def), variable: table.Subscribe(name)}
}

func (v *value) raw() string {
	if v.variable == nil {
		return v.fallback
	}
	if current := v.variable.Value(); current != "" {
		return current
	}
	return v.fallback
}

func decodeOr[T any](raw, fallback string) T {
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out
	}
	var def T
	_ = json.Unmarshal([]byte(fallback), &def)
	return def
}

func (v *value) str() string {
	raw := v.raw()
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return s
	}
	// A bare, unquoted string set through the RPC is used as-is.
	if raw != v.fallback {
		return raw
	}
	return ""
}

func (v *value) i64() int64     { return decodeOr[int64](v.raw(), v.fallback) }
func (v *value) u16() uint16    { return decodeOr[uint16](v.raw(), v.fallback) }
func (v *value) u8() uint8      { return decodeOr[uint8](v.raw(), v.fallback) }
func (v *value) i8() int8       { return decodeOr[int8](v.raw(), v.fallback) }
func (v *value) f64() float64   { return decodeOr[float64](v.raw(), v.fallback) }
func (v *value) boolean() bool  { return decodeOr[bool](v.raw(), v.fallback) }
func (v *value) strs() []string { return decodeOr[[]string](v.raw(), v.fallback) }
