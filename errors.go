// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tickit

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigError reports a problem detected while building the wiring graph or
// while validating a runtime request against static configuration (e.g. a
// call_at scheduled before now). It is always fatal: construction aborts, or
// (for the runtime variant named in spec §9's Open Question) the run
// terminates.
type ConfigError struct {
	Reason string
	cause  error
}

func (e *ConfigError) Error() string {
	if e.cause != nil {
		return "tickit: config error: " + e.Reason + ": " + e.cause.Error()
	}
	return "tickit: config error: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.cause }

func newConfigError(reason string) error {
	return errors.WithStack(&ConfigError{Reason: reason})
}

func wrapConfigError(err error, reason string) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&ConfigError{Reason: reason, cause: err})
}

// OrderingError reports a violation of one of the kernel's per-tick
// invariants (spec §3 invariants 2-5): a second Output from the same
// component in one tick, a component added to the reachable closure after
// its topological position has already been visited, etc. Always fatal.
type OrderingError struct {
	Component ComponentId
	Reason    string
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("tickit: ordering error: component %q: %s", e.Component, e.Reason)
}

func newOrderingError(c ComponentId, reason string) error {
	return errors.WithStack(&OrderingError{Component: c, Reason: reason})
}

// ComponentTimeout reports that a component did not produce an Output
// within the configured per-tick budget. The kernel has no retry policy:
// a ComponentTimeout always aborts the tick that raised it.
type ComponentTimeout struct {
	Component ComponentId
	Time      SimTime
}

func (e *ComponentTimeout) Error() string {
	return fmt.Sprintf("tickit: component %q timed out waiting for Output at time %d", e.Component, e.Time)
}

func newComponentTimeout(c ComponentId, t SimTime) error {
	return errors.WithStack(&ComponentTimeout{Component: c, Time: t})
}

// TransportError reports a state-interface disconnect or publish failure.
// The state interfaces in tickit/stateif do not retry: every such failure
// is returned as a TransportError the first time it occurs.
type TransportError struct {
	Topic string
	cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tickit: transport error on topic %q: %v", e.Topic, e.cause)
}

func (e *TransportError) Unwrap() error { return e.cause }

// NewTransportError wraps a transport-layer failure for a given topic. It is
// exported because state-interface implementations living outside this
// package (tickit/stateif) need to construct it.
func NewTransportError(topic string, cause error) error {
	return errors.WithStack(&TransportError{Topic: topic, cause: cause})
}

// ComponentError wraps an out-of-band error reported by a component inside
// its Output (the field that carries it is not specified by the kernel —
// see spec §7). Non-fatal unless the component marks it Fatal.
type ComponentError struct {
	Component ComponentId
	Fatal     bool
	cause     error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("tickit: component %q reported an error (fatal=%v): %v", e.Component, e.Fatal, e.cause)
}

func (e *ComponentError) Unwrap() error { return e.cause }

// NewComponentError builds a ComponentError for surfacing a component's
// self-reported failure to the operator.
func NewComponentError(c ComponentId, fatal bool, cause error) error {
	return errors.WithStack(&ComponentError{Component: c, Fatal: fatal, cause: cause})
}
