// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tickit

// Input is delivered to a component exactly once per tick in which it is
// woken. Inputs holds the full, persisted set of current input-port values
// (not just the ones that changed); Changes names the subset that changed
// this tick. A component woken purely by its own timer sees an empty
// Changes set but still receives Inputs with whatever values were last
// persisted.
type Input struct {
	Time    SimTime
	Inputs  map[PortId]Value
	Changes PortSet
}

// Output is a component's reply to an Input. Changes lists the output ports
// whose value changed this tick; an empty Changes is valid and produces no
// fan-out. CallAt, if non-nil, asks the scheduler to wake this component
// again once simulated time reaches *CallAt; it must be >= Time.
type Output struct {
	Time    SimTime
	Changes Changes
	CallAt  *SimTime
}

// At returns an Output.CallAt pointer for time t, for convenience at device
// call sites (`return tickit.Output{..., CallAt: tickit.At(now + 10)}`).
func At(t SimTime) *SimTime {
	return &t
}
