// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tickit

import "context"

// Component is the capability every simulated device or nested system must
// implement to be driven by a ticker. It replaces runtime attribute lookup
// over a dynamic device object with a single closed interface (spec §9,
// "Dynamic dispatch over components").
//
// HandleInput is called at most once per tick (spec §3, invariant 2/3). It
// may block on the component's own internal I/O (spec §5's "await internal
// I/O" suspension point) but must respect ctx cancellation: on shutdown the
// ticker cancels ctx and expects HandleInput to return promptly.
type Component interface {
	HandleInput(ctx context.Context, in Input) (Output, error)
}

// ComponentFn adapts a plain function to the Component interface, the way
// the teacher's UpdaterFn adapts a func(bool) to Updater.
type ComponentFn func(ctx context.Context, in Input) (Output, error)

// HandleInput implements Component.
func (f ComponentFn) HandleInput(ctx context.Context, in Input) (Output, error) {
	return f(ctx, in)
}

// DeviceSimulation wraps a leaf device: a component with no internal
// sub-graph, whose behavior is supplied entirely by the caller (the
// out-of-scope device-behavior library plugs in here).
type DeviceSimulation struct {
	Id      ComponentId
	Behavior Component
}

// HandleInput implements Component by delegating to the wrapped behavior.
func (d *DeviceSimulation) HandleInput(ctx context.Context, in Input) (Output, error) {
	return d.Behavior.HandleInput(ctx, in)
}

// SystemSimulation wraps a nested sub-simulation so it presents as a single
// component to its parent's event router and ticker, per spec §4.5. Its
// HandleInput is implemented by *Slave (see slave.go); SystemSimulation
// itself is just the identity + id-carrying adapter the router and ticker
// address by ComponentId, exactly mirroring how DeviceSimulation wraps a
// leaf behavior.
type SystemSimulation struct {
	Id    ComponentId
	Slave *Slave
}

// HandleInput implements Component by delegating to the embedded slave
// scheduler's boundary-crossing protocol.
func (s *SystemSimulation) HandleInput(ctx context.Context, in Input) (Output, error) {
	return s.Slave.HandleInput(ctx, in)
}
