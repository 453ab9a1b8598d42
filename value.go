// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tickit

// Value is an opaque, typed payload flowing on a wire. The kernel never
// interprets a Value's contents; it only compares values for equality to
// detect whether an output port actually changed (see Changes).
//
// Values must be immutable once published: a component that hands the same
// Value to two output ports, or keeps a reference after publishing it, must
// not mutate it afterwards.
type Value interface{}

// valueEqual reports whether two Values are the same for the purposes of the
// ticker's value-equality short-circuit (spec §4.3). Values whose dynamic
// type is comparable are compared with == (pointers by address); values of
// an uncomparable type (slices, maps, funcs) are never considered equal,
// which only disables the optimisation — it never affects correctness.
func valueEqual(a, b Value) (eq bool) {
	if a == nil || b == nil {
		return a == b
	}
	// a == b panics if the dynamic type is uncomparable (slice, map, func).
	// Treat that case as "not equal": it only disables the short-circuit,
	// never affects correctness.
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// Changes is an unordered mapping of output PortId to the Value it now
// holds, attached to an Output message, listing the ports whose value
// changed this tick.
type Changes map[PortId]Value

// PortSet is an unordered set of PortId, used to name which input ports
// changed in a given Input message.
type PortSet map[PortId]struct{}

// NewPortSet builds a PortSet from the given ports.
func NewPortSet(ports ...PortId) PortSet {
	s := make(PortSet, len(ports))
	for _, p := range ports {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether p is a member of the set. A nil PortSet has no
// members.
func (s PortSet) Has(p PortId) bool {
	_, ok := s[p]
	return ok
}

// Add inserts p into the set.
func (s PortSet) Add(p PortId) {
	s[p] = struct{}{}
}
