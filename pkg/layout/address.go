// SPDX-License-Identifier: BSD-3-Clause

package layout

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ellabellla/lmklib-sub000/pkg/driver"
)

// AddressKind tags an Address variant.
type AddressKind int

const (
	// AddressNone is an unbound placeholder.
	AddressNone AddressKind = iota
	// AddressSingle binds one driver slot to one cell.
	AddressSingle
	// AddressMatrix binds a contiguous slot range to a rectangle of
	// cells, filled in row-major order.
	AddressMatrix
)

// Address maps driver state slots onto cells of the layout plane.
type Address struct {
	Kind  AddressKind
	Name  string
	Index int          // single-slot index for AddressSingle
	Input driver.Range // slot range for AddressMatrix
	Width int          // matrix row width for AddressMatrix
	Root  [2]int       // top-left cell (x, y)
}

// Height returns the number of cell rows an address covers.
func (a Address) Height() int {
	switch a.Kind {
	case AddressMatrix:
		return a.Input.Len() / a.Width
	case AddressSingle:
		return 1
	default:
		return 0
	}
}

// CellWidth returns the number of cell columns an address covers.
func (a Address) CellWidth() int {
	switch a.Kind {
	case AddressMatrix:
		return a.Width
	case AddressSingle:
		return 1
	default:
		return 0
	}
}

type rangeJSON struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type matrixJSON struct {
	Name  string    `json:"name"`
	Input rangeJSON `json:"input"`
	Width int       `json:"width"`
	Root  [2]int    `json:"root"`
}

type singleJSON struct {
	Name  string `json:"name"`
	Input int    `json:"input"`
	Root  [2]int `json:"root"`
}

// MarshalJSON implements json.Marshaler with the document's external
// tagging: {"DriverMatrix":{...}}, {"DriverAddr":{...}}, or "None".
func (a Address) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AddressMatrix:
		return json.Marshal(map[string]matrixJSON{"DriverMatrix": {
			Name:  a.Name,
			Input: rangeJSON{a.Input.Start, a.Input.End},
			Width: a.Width,
			Root:  a.Root,
		}})
	case AddressSingle:
		return json.Marshal(map[string]singleJSON{"DriverAddr": {
			Name:  a.Name,
			Input: a.Index,
			Root:  a.Root,
		}})
	default:
		return json.Marshal("None")
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Address) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil || tag != "None" {
			return fmt.Errorf("%w: address %s", ErrDecode, data)
		}
		*a = Address{Kind: AddressNone}
		return nil
	}
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("%w: address: %w", ErrDecode, err)
	}
	if raw, ok := tagged["DriverMatrix"]; ok {
		var m matrixJSON
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("%w: matrix address: %w", ErrDecode, err)
		}
		*a = Address{
			Kind:  AddressMatrix,
			Name:  m.Name,
			Input: driver.Range{Start: m.Input.Start, End: m.Input.End},
			Width: m.Width,
			Root:  m.Root,
		}
		return nil
	}
	if raw, ok := tagged["DriverAddr"]; ok {
		var s singleJSON
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("%w: single address: %w", ErrDecode, err)
		}
		*a = Address{Kind: AddressSingle, Name: s.Name, Index: s.Input, Root: s.Root}
		return nil
	}
	return fmt.Errorf("%w: unknown address variant", ErrDecode)
}
