// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package testdevice provides toy tickit.Component implementations used only
// by the kernel's own tests: a constant Source, a recording Sink, a
// passthrough/transform Mid, and a self-waking Timer. These stand in for the
// out-of-scope device-behavior library the way the teacher's hwlib/gates.go
// and hwlib/dff.go stand in for real hardware parts — minimal, deterministic
// functions of their inputs, exercised purely to drive the kernel's own
// tests.
package testdevice

import (
	"context"
	"sync"

	"github.com/db47h/tickit"
)

// Source emits a fixed Changes map on its first invocation (time 0) and
// nothing thereafter, unless Push queues new values between ticks
// (simulating an external input changing).
type Source struct {
	mu     sync.Mutex
	Values tickit.Changes
	sent   bool
}

func NewSource(values tickit.Changes) *Source {
	return &Source{Values: values}
}

// Push queues vals to be emitted as changes on the component's next
// invocation (simulating an externally-driven input).
func (s *Source) Push(vals tickit.Changes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p, v := range vals {
		s.Values[p] = v
	}
	s.sent = false
}

func (s *Source) HandleInput(_ context.Context, in tickit.Input) (tickit.Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent {
		return tickit.Output{Time: in.Time}, nil
	}
	s.sent = true
	ch := make(tickit.Changes, len(s.Values))
	for p, v := range s.Values {
		ch[p] = v
	}
	return tickit.Output{Time: in.Time, Changes: ch}, nil
}

// Sink records every Input it receives, in order, for test assertions.
type Sink struct {
	mu   sync.Mutex
	Recv []tickit.Input
}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) HandleInput(_ context.Context, in tickit.Input) (tickit.Output, error) {
	s.mu.Lock()
	cp := tickit.Input{Time: in.Time, Inputs: cloneValues(in.Inputs), Changes: clonePortSet(in.Changes)}
	s.Recv = append(s.Recv, cp)
	s.mu.Unlock()
	return tickit.Output{Time: in.Time}, nil
}

// History returns a snapshot of every Input received so far.
func (s *Sink) History() []tickit.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tickit.Input(nil), s.Recv...)
}

// Mid applies Fn to its current Inputs on every invocation and republishes
// the result unconditionally, regardless of Changes — a minimal combinational
// stand-in for an arbitrary device transform (the teacher's gate-function
// shape in hwlib/gates.go, generalized from a fixed bool func to an
// arbitrary map transform).
type Mid struct {
	Fn func(in map[tickit.PortId]tickit.Value) tickit.Changes
}

func NewMid(fn func(in map[tickit.PortId]tickit.Value) tickit.Changes) *Mid {
	return &Mid{Fn: fn}
}

func (m *Mid) HandleInput(_ context.Context, in tickit.Input) (tickit.Output, error) {
	return tickit.Output{Time: in.Time, Changes: m.Fn(in.Inputs)}, nil
}

// Timer requests to be woken every Period units of simulated time starting at its first
// invocation, emitting an incrementing counter on port "count" each time —
// the self-waking shape spec §4.1 describes ("a component with no inputs
// that only drives time-based output").
type Timer struct {
	Period tickit.SimTime
	count  int
}

func NewTimer(period tickit.SimTime) *Timer {
	return &Timer{Period: period}
}

func (t *Timer) HandleInput(_ context.Context, in tickit.Input) (tickit.Output, error) {
	t.count++
	return tickit.Output{
		Time:    in.Time,
		Changes: tickit.Changes{"count": t.count},
		CallAt:  tickit.At(in.Time + t.Period),
	}, nil
}

func cloneValues(m map[tickit.PortId]tickit.Value) map[tickit.PortId]tickit.Value {
	out := make(map[tickit.PortId]tickit.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clonePortSet(s tickit.PortSet) tickit.PortSet {
	out := make(tickit.PortSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}
