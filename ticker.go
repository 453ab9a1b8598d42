// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tickit

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Dispatcher sends an Input to component and waits for its Output. Master
// and Slave schedulers supply the concrete implementation: a direct
// in-process call to Component.HandleInput, or a round trip through a
// tickit/stateif transport for out-of-process components. The ticker
// itself never constructs components or knows about transports (spec §4.6:
// "the kernel treats both variants identically").
type Dispatcher func(ctx context.Context, component ComponentId, in Input) (Output, error)

// TickRecorder receives optional tick-level telemetry. A nil TickRecorder
// disables all recording; tickit/metrics implements this against
// Prometheus.
type TickRecorder interface {
	ObserveTickDuration(d time.Duration)
	ObserveComponentTimeout(component ComponentId)
	// SetWakeQueueDepth reports the number of components currently scheduled
	// in a Master's or Slave's wake queue. Called once per tick after wake
	// requests for that tick have been scheduled.
	SetWakeQueueDepth(n int)
}

// Ticker executes single simulated instants (spec §4.3). It holds no
// simulated-time state of its own: Time is supplied by the caller (the
// master or slave scheduler) on each RunTick call.
type Ticker struct {
	router   *Router
	dispatch Dispatcher
	timeout  time.Duration
	log      *logrus.Entry
	rec      TickRecorder
}

// NewTicker builds a Ticker over router, sending Inputs through dispatch.
// A timeout <= 0 disables the per-tick ComponentTimeout check.
func NewTicker(router *Router, dispatch Dispatcher, timeout time.Duration, log *logrus.Entry, rec TickRecorder) *Ticker {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Ticker{router: router, dispatch: dispatch, timeout: timeout, log: log, rec: rec}
}

// TickResult is the outcome of one RunTick call.
type TickResult struct {
	// Outputs holds every component's Output this tick, keyed by component.
	Outputs map[ComponentId]Output
	// WakeRequests holds the call_at value requested by each component that
	// returned a non-nil CallAt this tick.
	WakeRequests map[ComponentId]SimTime
}

// RunTick executes one simulated instant. wake names the components the
// scheduler has chosen to update this tick (because they have pending
// inputs, or their scheduled wake time has arrived). inputs is the
// persistent per-component input buffer (PortId -> Value); RunTick mutates
// it in place to apply this tick's changes, exactly as spec §3 describes
// ("a tick updates only the keys that actually changed").
//
// RunTick grows the reachable closure R starting from wake as described in
// spec §4.3: when a component's Output changes a port, every subscriber of
// that port is added to R (unless the delivered value is already equal to
// what the subscriber's input buffer holds — the value-equality
// short-circuit). A component reached after its topological position has
// already been visited is an OrderingError.
func (t *Ticker) RunTick(ctx context.Context, now SimTime, wake []ComponentId, inputs map[ComponentId]map[PortId]Value) (*TickResult, error) {
	start := time.Now()
	defer func() {
		if t.rec != nil {
			t.rec.ObserveTickDuration(time.Since(start))
		}
	}()

	order := t.router.TopoOrder()

	inR := make(map[ComponentId]struct{}, len(wake))
	// changedThisTick[c] names the input ports of c that were freshly
	// delivered this tick (for Input.Changes); the values themselves are
	// written straight into the persistent inputs buffer as they arrive, so
	// that they remain visible on every subsequent tick (spec §3: "Inputs
	// persist across ticks").
	changedThisTick := make(map[ComponentId]PortSet)
	result := &TickResult{
		Outputs:      make(map[ComponentId]Output),
		WakeRequests: make(map[ComponentId]SimTime),
	}

	for _, c := range wake {
		inR[c] = struct{}{}
	}

	// Visit components strictly in the router's topological order (spec
	// §4.3 step 2): since every producer's position precedes every one of
	// its consumers, by the time position i is reached, any component at an
	// earlier position that belongs to R has already produced its Output.
	// R only ever grows towards later positions (fanout targets always sit
	// downstream of their producer), so a single forward pass suffices —
	// the same round-robin-by-position shape the heistp-scim grounding
	// processes its per-node channels in, generalized from a fixed node
	// list to the dynamically growing reachable closure R.
	for i := 0; i < len(order); i++ {
		c := order[i]
		if _, ok := inR[c]; !ok {
			continue
		}

		out, err := t.dispatchOne(ctx, c, now, inputs, changedThisTick)
		if err != nil {
			var timeout *ComponentTimeout
			if errors.As(err, &timeout) && t.rec != nil {
				t.rec.ObserveComponentTimeout(c)
			}
			return nil, err
		}
		if out.Time != now {
			return nil, newOrderingError(c, "Output.Time does not match the tick's simulated time")
		}
		if out.CallAt != nil {
			if *out.CallAt < now {
				return nil, newConfigError(fmt.Sprintf("component %s requested call_at %d earlier than now (%d)", c, *out.CallAt, now))
			}
			result.WakeRequests[c] = *out.CallAt
		}
		result.Outputs[c] = out

		deliveries := t.router.Fanout(c, out.Changes)
		for dest, vals := range deliveries {
			if t.router.Order(dest) <= i {
				return nil, newOrderingError(dest, "received a delivery after already being visited this tick (cycle at runtime)")
			}
			destBuf, ok := inputs[dest]
			if !ok {
				destBuf = make(map[PortId]Value)
				inputs[dest] = destBuf
			}
			var changedPorts []PortId
			for p, v := range vals {
				if !valueEqual(destBuf[p], v) {
					changedPorts = append(changedPorts, p)
					destBuf[p] = v
				}
			}
			if len(changedPorts) == 0 {
				continue
			}
			set, ok := changedThisTick[dest]
			if !ok {
				set = NewPortSet()
				changedThisTick[dest] = set
			}
			for _, p := range changedPorts {
				set.Add(p)
			}
			inR[dest] = struct{}{}
		}
	}

	return result, nil
}

// dispatchOne assembles one component's Input from the (already
// up-to-date) persistent buffer and awaits its Output, enforcing the
// per-tick timeout if configured.
func (t *Ticker) dispatchOne(ctx context.Context, c ComponentId, now SimTime, inputs map[ComponentId]map[PortId]Value, changedThisTick map[ComponentId]PortSet) (Output, error) {
	buf := inputs[c]
	merged := make(map[PortId]Value, len(buf))
	for p, v := range buf {
		merged[p] = v
	}
	changed := changedThisTick[c]
	if changed == nil {
		changed = NewPortSet()
	}

	in := Input{Time: now, Inputs: merged, Changes: changed}

	dctx := ctx
	var cancel context.CancelFunc
	if t.timeout > 0 {
		dctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	type result struct {
		out Output
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := t.dispatch(dctx, c, in)
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-dctx.Done():
		return Output{}, newComponentTimeout(c, now)
	}
}
