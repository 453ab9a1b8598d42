// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tickit

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ComponentHandle binds a component's identity, its initial input values,
// and its runtime behavior, as consumed from the configuration surface
// (spec §6's component declarations).
type ComponentHandle struct {
	Id            ComponentId
	Component     Component
	InitialInputs map[PortId]Value
}

// Closer is optionally implemented by a Component to release resources
// (adapter servers, network sockets — spec §4.4 "Shutdown") when the
// master scheduler shuts down.
type Closer interface {
	Close(ctx context.Context) error
}

// Master is the top-level owner of simulated time and the wake queue (spec
// §4.4). It owns the event router, the wake queue, the persistent inputs
// buffer for every top-level component, and drives the ticker.
//
// Master's own state — router, wake queue, inputs buffer — is mutated only
// from the goroutine running Run (spec §5 "shared-resource policy"); it is
// not safe to call Run concurrently with itself.
type Master struct {
	router     *Router
	wake       *WakeQueue
	inputs     map[ComponentId]map[PortId]Value
	components map[ComponentId]Component
	ticker     *Ticker
	log        *logrus.Entry
	rec        TickRecorder

	shutdownOnce sync.Once
	cancel       context.CancelFunc
}

// NewMaster builds a Master over router, driving components via dispatch.
// If dispatch is nil, a default in-process dispatcher that calls
// Component.HandleInput directly is built from handles.
func NewMaster(router *Router, handles []ComponentHandle, dispatch Dispatcher, timeout time.Duration, log *logrus.Entry, rec TickRecorder) (*Master, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	components := make(map[ComponentId]Component, len(handles))
	inputs := make(map[ComponentId]map[PortId]Value, len(handles))
	for _, h := range handles {
		if _, dup := components[h.Id]; dup {
			return nil, newConfigError("duplicate component id " + string(h.Id))
		}
		components[h.Id] = h.Component
		buf := make(map[PortId]Value, len(h.InitialInputs))
		for p, v := range h.InitialInputs {
			buf[p] = v
		}
		inputs[h.Id] = buf
	}

	if dispatch == nil {
		dispatch = func(ctx context.Context, c ComponentId, in Input) (Output, error) {
			comp, ok := components[c]
			if !ok {
				return Output{}, errors.Errorf("tickit: no component registered for %q", c)
			}
			return comp.HandleInput(ctx, in)
		}
	}

	m := &Master{
		router:     router,
		wake:       NewWakeQueue(),
		inputs:     inputs,
		components: components,
		log:        log,
		rec:        rec,
	}
	m.ticker = NewTicker(router, dispatch, timeout, log, rec)
	return m, nil
}

// Run drives the master loop (spec §4.4) until the wake queue is
// exhausted, a fatal error occurs, or ctx is cancelled. It returns nil on a
// clean exhaustion-driven shutdown.
func (m *Master) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	defer cancel()

	// Startup (spec §4.4): every component is issued an Input at time 0
	// with its configured initial inputs.
	now := SimTime(0)
	wake := make([]ComponentId, 0, len(m.components))
	for _, c := range m.router.TopoOrder() {
		if _, ok := m.components[c]; ok {
			wake = append(wake, c)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		m.log.WithField("time", now).WithField("woken", len(wake)).Debug("tick start")
		res, err := m.ticker.RunTick(ctx, now, wake, m.inputs)
		if err != nil {
			m.log.WithError(err).Error("fatal error during tick")
			return err
		}
		for c, t := range res.WakeRequests {
			m.wake.Schedule(c, t)
		}
		if m.rec != nil {
			m.rec.SetWakeQueueDepth(m.wake.Len())
		}

		next, ok := m.wake.NextTime()
		if !ok {
			m.log.Debug("wake queue exhausted, shutting down")
			return nil
		}
		now = next
		wake = m.wake.PopDue(next)
	}
}

// Shutdown triggers shutdown (spec §4.4): cancels the context driving Run,
// which unblocks any outstanding dispatch await, and releases every
// component implementing Closer. Idempotent.
func (m *Master) Shutdown(ctx context.Context) error {
	var err error
	m.shutdownOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		for id, c := range m.components {
			if cl, ok := c.(Closer); ok {
				if cerr := cl.Close(ctx); cerr != nil {
					m.log.WithField("component", id).WithError(cerr).Warn("error closing component")
					if err == nil {
						err = cerr
					}
				}
			}
		}
	})
	return err
}

// Inputs returns the persistent input buffer currently held for component
// c. Intended for tests and diagnostics only; components read their inputs
// from the Input message they are handed, never through this accessor
// (spec §4.1 — the kernel exposes no settable or directly readable clock
// or buffer to components).
func (m *Master) Inputs(c ComponentId) map[PortId]Value {
	return m.inputs[c]
}
