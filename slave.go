// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tickit

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// boundaryIn is the synthetic component whose outputs correspond to the
// system simulation's exposed input ports (spec §4.5). Its Output.Changes
// on each invocation are exactly the values the parent just delivered —
// the slave sets pendingValues/pendingChanged immediately before running
// the internal ticker, and this is a single-threaded scheduler task, so
// there is no synchronization to do.
type boundaryIn struct {
	slave *Slave
}

func (b *boundaryIn) HandleInput(_ context.Context, in Input) (Output, error) {
	ch := make(Changes, len(b.slave.pendingChanged))
	for p := range b.slave.pendingChanged {
		ch[p] = b.slave.pendingValues[p]
	}
	return Output{Time: in.Time, Changes: ch}, nil
}

// boundaryOut is the synthetic component whose inputs correspond to the
// system simulation's exposed output ports. It re-exports whatever changed
// on its own inputs this tick, under the same port names, so the slave can
// read res.Outputs[boundaryOutId].Changes directly as its own Output.
type boundaryOut struct{}

func (boundaryOut) HandleInput(_ context.Context, in Input) (Output, error) {
	ch := make(Changes, len(in.Changes))
	for p := range in.Changes {
		ch[p] = in.Inputs[p]
	}
	return Output{Time: in.Time, Changes: ch}, nil
}

// Slave is the inner scheduler of a system-simulation component (spec
// §4.5): from the outside it is addressed as a single Component by its
// parent's router and ticker; internally it runs its own Router and Ticker
// over its own sub-graph, bounded by two synthetic components.
type Slave struct {
	router        *Router
	wake          *WakeQueue
	inputs        map[ComponentId]map[PortId]Value
	ticker        *Ticker
	boundaryInId  ComponentId
	boundaryOutId ComponentId
	log           *logrus.Entry
	rec           TickRecorder

	pendingValues  map[PortId]Value
	pendingChanged PortSet
}

// NewSlave builds a Slave embedding innerHandles wired by links, which must
// include edges from boundaryInId's ports to their internal consumers and
// from internal producers to boundaryOutId's ports. boundaryInId and
// boundaryOutId name the two synthetic components; they must not collide
// with any id in innerHandles.
func NewSlave(boundaryInId, boundaryOutId ComponentId, innerHandles []ComponentHandle, links []Link, timeout time.Duration, log *logrus.Entry, rec TickRecorder) (*Slave, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Slave{
		boundaryInId:  boundaryInId,
		boundaryOutId: boundaryOutId,
		wake:          NewWakeQueue(),
		inputs:        make(map[ComponentId]map[PortId]Value, len(innerHandles)+2),
		log:           log,
		rec:           rec,
	}

	components := make(map[ComponentId]Component, len(innerHandles)+2)
	ids := make([]ComponentId, 0, len(innerHandles)+2)
	for _, h := range innerHandles {
		if h.Id == boundaryInId || h.Id == boundaryOutId {
			return nil, newConfigError("inner component id " + string(h.Id) + " collides with a boundary id")
		}
		if _, dup := components[h.Id]; dup {
			return nil, newConfigError("duplicate component id " + string(h.Id))
		}
		components[h.Id] = h.Component
		buf := make(map[PortId]Value, len(h.InitialInputs))
		for p, v := range h.InitialInputs {
			buf[p] = v
		}
		s.inputs[h.Id] = buf
		ids = append(ids, h.Id)
	}
	components[boundaryInId] = &boundaryIn{slave: s}
	components[boundaryOutId] = boundaryOut{}
	s.inputs[boundaryOutId] = make(map[PortId]Value)
	ids = append(ids, boundaryInId, boundaryOutId)

	router, err := NewRouter(ids, links)
	if err != nil {
		return nil, errors.Wrap(err, "building inner router for system simulation")
	}
	s.router = router

	dispatch := func(ctx context.Context, c ComponentId, in Input) (Output, error) {
		comp, ok := components[c]
		if !ok {
			return Output{}, errors.Errorf("tickit: slave has no component %q", c)
		}
		return comp.HandleInput(ctx, in)
	}
	s.ticker = NewTicker(router, dispatch, timeout, log, rec)
	return s, nil
}

// HandleInput implements the boundary-crossing protocol of spec §4.5: set
// now to the parent's tick time, deliver the parent's changed input ports
// on boundaryIn, run the internal ticker over boundaryIn plus whatever
// internal components are independently due at this time, then collect
// boundaryOut's changes as the slave's own Output.
func (s *Slave) HandleInput(ctx context.Context, in Input) (Output, error) {
	now := in.Time
	s.pendingValues = in.Inputs
	s.pendingChanged = in.Changes

	wake := append([]ComponentId{s.boundaryInId}, s.wake.PopDue(now)...)

	res, err := s.ticker.RunTick(ctx, now, wake, s.inputs)
	if err != nil {
		return Output{}, err
	}

	for c, t := range res.WakeRequests {
		s.wake.Schedule(c, t)
	}
	if s.rec != nil {
		s.rec.SetWakeQueueDepth(s.wake.Len())
	}

	out := Output{Time: now}
	if bo, ok := res.Outputs[s.boundaryOutId]; ok && len(bo.Changes) > 0 {
		out.Changes = bo.Changes
	}
	// Wake propagation (spec §4.5): the master only needs to know the
	// earliest time the slave wants to be called again; the slave
	// re-derives which of its children to wake when that Input arrives.
	if next, ok := s.wake.NextTime(); ok {
		out.CallAt = At(next)
	}
	return out, nil
}

// Router exposes the slave's internal router, primarily for tests that
// assert on internal wiring/ordering.
func (s *Slave) Router() *Router { return s.router }
