// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tickit

// SimTime is a monotonically non-decreasing simulated-time scalar,
// conventionally nanoseconds. Time 0 is the start of a simulation; there is
// no coupling to wall-clock time.
type SimTime int64

// ComponentId identifies a component within one simulation level. It must be
// unique among its siblings; it is not required to be globally unique across
// nested system simulations.
type ComponentId string

// PortId names an input or output port of one component.
type PortId string

// Endpoint is a fully-qualified wire endpoint: one port of one component.
type Endpoint struct {
	Component ComponentId
	Port      PortId
}

func (e Endpoint) String() string {
	return string(e.Component) + "." + string(e.Port)
}
