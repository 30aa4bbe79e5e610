// SPDX-License-Identifier: BSD-3-Clause

package function

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Descriptor is the serialized form of a Function: a tag naming the
// variant plus the variant's parameters. Unit variants serialize as a
// bare JSON string ("Up"), parameterized ones as a single-key object
// ({"Key":"a"}), matching the layout document format.
type Descriptor struct {
	Tag    string
	Params json.RawMessage
}

// NoneDescriptor is the descriptor of an empty (transparent) cell.
func NoneDescriptor() Descriptor { return Descriptor{Tag: "None"} }

// IsNone reports whether d describes an empty cell.
func (d Descriptor) IsNone() bool { return d.Tag == "None" || d.Tag == "" }

// MarshalJSON implements json.Marshaler.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	if len(d.Params) == 0 {
		return json.Marshal(d.Tag)
	}
	return json.Marshal(map[string]json.RawMessage{d.Tag: d.Params})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = NoneDescriptor()
		return nil
	}
	if data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
		}
		*d = Descriptor{Tag: tag}
		return nil
	}
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("%w: expected a single variant tag, got %d", ErrInvalidDescriptor, len(tagged))
	}
	for tag, params := range tagged {
		*d = Descriptor{Tag: tag, Params: params}
	}
	return nil
}

// describe builds a Descriptor from a tag and a params struct.
func describe(tag string, params any) Descriptor {
	raw, err := json.Marshal(params)
	if err != nil {
		return Descriptor{Tag: tag}
	}
	return Descriptor{Tag: tag, Params: raw}
}

// Param is a descriptor parameter: either a constant value, a reference
// to a named variable, or a variable definition carrying a default. The
// stored value is always the parameter's JSON encoding.
type Param struct {
	Const   json.RawMessage
	Var     string
	DefName string
	Default json.RawMessage
}

// ConstParam wraps v as a constant parameter.
func ConstParam(v any) Param {
	raw, _ := json.Marshal(v)
	return Param{Const: raw}
}

// VarParam references the named variable.
func VarParam(name string) Param { return Param{Var: name} }

// VarDefParam defines the named variable with a default value.
func VarDefParam(name string, def any) Param {
	raw, _ := json.Marshal(def)
	return Param{DefName: name, Default: raw}
}

type varDefJSON struct {
	Name    string          `json:"name"`
	Default json.RawMessage `json:"default"`
}

// MarshalJSON implements json.Marshaler with the same external tagging
// as Descriptor: {"Const":v}, {"Var":"name"}, or {"VarDef":{...}}.
func (p Param) MarshalJSON() ([]byte, error) {
	switch {
	case p.Var != "":
		return json.Marshal(map[string]string{"Var": p.Var})
	case p.DefName != "":
		raw, err := json.Marshal(varDefJSON{Name: p.DefName, Default: p.Default})
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]json.RawMessage{"VarDef": raw})
	default:
		return json.Marshal(map[string]json.RawMessage{"Const": p.Const})
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Param) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("%w: parameter: %w", ErrInvalidDescriptor, err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("%w: parameter must carry a single tag", ErrInvalidDescriptor)
	}
	for tag, raw := range tagged {
		switch tag {
		case "Const":
			*p = Param{Const: raw}
		case "Var":
			var name string
			if err := json.Unmarshal(raw, &name); err != nil {
				return fmt.Errorf("%w: Var parameter: %w", ErrInvalidDescriptor, err)
			}
			*p = Param{Var: name}
		case "VarDef":
			var def varDefJSON
			if err := json.Unmarshal(raw, &def); err != nil {
				return fmt.Errorf("%w: VarDef parameter: %w", ErrInvalidDescriptor, err)
			}
			*p = Param{DefName: def.Name, Default: def.Default}
		default:
			return fmt.Errorf("%w: parameter tag %q", ErrInvalidDescriptor, tag)
		}
	}
	return nil
}

// describedParam rebuilds a Param from a resolved value, for
// round-tripping a built function back to its descriptor. A constant
// comes back as Const; a variable-backed value, whether it came from a
// Var reference or a VarDef, comes back as a VarDef carrying its
// default.
func describedParam(v *value) Param {
	if v.variable == nil {
		return Param{Const: json.RawMessage(v.fallback)}
	}
	return Param{DefName: v.name, Default: json.RawMessage(v.fallback)}
}
