// SPDX-License-Identifier: BSD-3-Clause

package function

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ellabellla/lmklib-sub000/pkg/driver"
	"github.com/ellabellla/lmklib-sub000/pkg/log"
	"github.com/ellabellla/lmklib-sub000/pkg/msgbus"
)

// DriverData names the driver state slots one "#" placeholder of a
// NanoMsg format string consumes.
type DriverData struct {
	Name string `json:"name"`
	Idx  []int  `json:"idx"`
}

// NanoMsg publishes a formatted payload to the message bus on the
// rising edge. Each "#" in the format consumes one collected driver
// state vector, rendered as "[a, b, c]"; the payload is prefixed with a
// single topic byte.
type NanoMsg struct {
	topic      byte
	format     string
	driverData []DriverData
	prevState  State
	drivers    *driver.Registry
	bus        msgbus.Publisher
	logger     *slog.Logger
}

// NewNanoMsg builds a NanoMsg.
func NewNanoMsg(topic byte, format string, driverData []DriverData, drivers *driver.Registry, bus msgbus.Publisher) *NanoMsg {
	return &NanoMsg{topic: topic, format: format, driverData: driverData, drivers: drivers, bus: bus, logger: log.GetGlobalLogger()}
}

// formatVector renders a state vector the way subscribers expect:
// "[1]" or "[2, 3]".
func formatVector(states []uint16) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, s := range states {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatUint(uint64(s), 10))
	}
	b.WriteByte(']')
	return b.String()
}

// collect reads every configured driver slot set into rendered vectors.
func (n *NanoMsg) collect() []string {
	vectors := make([]string, 0, len(n.driverData))
	for _, data := range n.driverData {
		d, err := n.drivers.Get(data.Name)
		if err != nil {
			vectors = append(vectors, "[]")
			continue
		}
		states := make([]uint16, 0, len(data.Idx))
		for _, idx := range data.Idx {
			s, err := d.Poll(idx)
			if err != nil {
				continue
			}
			states = append(states, s)
		}
		vectors = append(vectors, formatVector(states))
	}
	return vectors
}

// Event implements Function.
func (n *NanoMsg) Event(ctx context.Context, state State) ReturnCommand {
	if Rising(state, n.prevState) {
		vectors := n.collect()
		var body strings.Builder
		vi := 0
		for _, r := range n.format {
			if r == '#' && vi < len(vectors) {
				body.WriteString(vectors[vi])
				vi++
				continue
			}
			body.WriteRune(r)
		}
		if err := n.bus.Publish(n.topic, []byte(body.String())); err != nil {
			n.logger.ErrorContext(ctx, "bus publish failed", "topic", n.topic, "error", err)
		}
	}
	n.prevState = state
	return None()
}

// Descriptor implements Function.
func (n *NanoMsg) Descriptor() Descriptor {
	return describe("NanoMsg", struct {
		Topic      byte         `json:"topic"`
		Format     string       `json:"format"`
		DriverData []DriverData `json:"driver_data"`
	}{n.topic, n.format, n.driverData})
}
