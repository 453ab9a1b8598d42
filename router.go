// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tickit

import (
	"sort"

	"github.com/pkg/errors"
)

// Link describes one entry of the static wiring list: a producer's output
// port feeding a consumer's input port (spec §6's wiring list).
type Link struct {
	Producer     ComponentId
	OutputPort   PortId
	Consumer     ComponentId
	ConsumerPort PortId
}

// subscriber is one fan-out destination of a producer output port.
type subscriber struct {
	component ComponentId
	port      PortId
}

// Router encapsulates the static wiring graph and the two queries the
// ticker needs: fanout (an output's changed ports to the input deliveries
// they cause) and a topological order over components consistent with the
// dependency DAG (spec §4.2).
//
// Router is read-only after construction (spec §5, "shared-resource
// policy"): NewRouter does all the work, and every method on the returned
// Router is safe for concurrent read access.
type Router struct {
	// fanoutTbl[producer][outputPort] -> subscribers
	fanoutTbl map[ComponentId]map[PortId][]subscriber
	// deps[c] = set of components c directly depends on (its producers)
	deps map[ComponentId]map[ComponentId]struct{}
	// rdeps[c] = set of components that directly depend on c
	rdeps map[ComponentId]map[ComponentId]struct{}
	// order[c] = position of c in the topological order; lower runs first
	order map[ComponentId]int
	// components in topological order
	sorted []ComponentId
}

// NewRouter builds a Router from the given component set and wiring list.
// It returns a ConfigError if the wiring references a component not in
// components, or if the induced component-level dependency graph contains a
// cycle (spec §4.2's cycle policy, scenario F).
func NewRouter(components []ComponentId, links []Link) (*Router, error) {
	known := make(map[ComponentId]struct{}, len(components))
	for _, c := range components {
		known[c] = struct{}{}
	}

	r := &Router{
		fanoutTbl: make(map[ComponentId]map[PortId][]subscriber),
		deps:      make(map[ComponentId]map[ComponentId]struct{}, len(components)),
		rdeps:     make(map[ComponentId]map[ComponentId]struct{}, len(components)),
	}
	for _, c := range components {
		r.deps[c] = make(map[ComponentId]struct{})
		r.rdeps[c] = make(map[ComponentId]struct{})
	}

	for _, l := range links {
		if _, ok := known[l.Producer]; !ok {
			return nil, wrapConfigError(errors.Errorf("unknown component %q", l.Producer), "wiring references unknown producer")
		}
		if _, ok := known[l.Consumer]; !ok {
			return nil, wrapConfigError(errors.Errorf("unknown component %q", l.Consumer), "wiring references unknown consumer")
		}
		if l.Producer == l.Consumer {
			return nil, wrapConfigError(errors.Errorf("%q wired to itself", l.Producer), "self-loop")
		}

		byPort, ok := r.fanoutTbl[l.Producer]
		if !ok {
			byPort = make(map[PortId][]subscriber)
			r.fanoutTbl[l.Producer] = byPort
		}
		byPort[l.OutputPort] = append(byPort[l.OutputPort], subscriber{l.Consumer, l.ConsumerPort})

		if r.deps[l.Consumer] == nil {
			r.deps[l.Consumer] = make(map[ComponentId]struct{})
		}
		r.deps[l.Consumer][l.Producer] = struct{}{}
		if r.rdeps[l.Producer] == nil {
			r.rdeps[l.Producer] = make(map[ComponentId]struct{})
		}
		r.rdeps[l.Producer][l.Consumer] = struct{}{}
	}

	order, err := topoSort(components, r.deps)
	if err != nil {
		return nil, err
	}
	r.sorted = order
	r.order = make(map[ComponentId]int, len(order))
	for i, c := range order {
		r.order[c] = i
	}

	return r, nil
}

// topoSort returns components ordered so that every producer precedes every
// one of its consumers (Kahn's algorithm), or a ConfigError naming the cycle
// if the dependency graph is not a DAG.
func topoSort(components []ComponentId, deps map[ComponentId]map[ComponentId]struct{}) ([]ComponentId, error) {
	// indegree[c] = number of unresolved producers c still depends on
	indegree := make(map[ComponentId]int, len(components))
	for _, c := range components {
		indegree[c] = len(deps[c])
	}

	// stable iteration order for determinism independent of map iteration
	sortedInput := append([]ComponentId(nil), components...)
	sort.Slice(sortedInput, func(i, j int) bool { return sortedInput[i] < sortedInput[j] })

	var ready []ComponentId
	for _, c := range sortedInput {
		if indegree[c] == 0 {
			ready = append(ready, c)
		}
	}

	consumersOf := make(map[ComponentId][]ComponentId, len(components))
	for c, ps := range deps {
		for p := range ps {
			consumersOf[p] = append(consumersOf[p], c)
		}
	}
	for _, cs := range consumersOf {
		sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })
	}

	var out []ComponentId
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		c := ready[0]
		ready = ready[1:]
		out = append(out, c)
		for _, next := range consumersOf[c] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(out) != len(components) {
		var stuck []ComponentId
		for _, c := range components {
			if indegree[c] > 0 {
				stuck = append(stuck, c)
			}
		}
		return nil, wrapConfigError(errors.Errorf("components involved in cycle: %v", stuck), "wiring contains a cycle")
	}
	return out, nil
}

// Fanout translates a producer's changed output ports into a per-consumer
// set of delivered input values, per spec §4.2. Ports not present in
// changes are not fanned out.
func (r *Router) Fanout(producer ComponentId, changes Changes) map[ComponentId]map[PortId]Value {
	if len(changes) == 0 {
		return nil
	}
	byPort := r.fanoutTbl[producer]
	if len(byPort) == 0 {
		return nil
	}
	out := make(map[ComponentId]map[PortId]Value)
	for port, value := range changes {
		for _, sub := range byPort[port] {
			m, ok := out[sub.component]
			if !ok {
				m = make(map[PortId]Value)
				out[sub.component] = m
			}
			m[sub.port] = value
		}
	}
	return out
}

// Dependants returns the set of downstream components that may need
// updating if component changes any output.
func (r *Router) Dependants(component ComponentId) map[ComponentId]struct{} {
	return r.rdeps[component]
}

// InverseDependants returns the set of upstream components that component
// directly depends on. Used by slave schedulers to walk upstream at
// simulation boundaries.
func (r *Router) InverseDependants(component ComponentId) map[ComponentId]struct{} {
	return r.deps[component]
}

// Order returns component's position in the router's topological order.
// Producers always have a lower Order than their consumers.
func (r *Router) Order(component ComponentId) int {
	return r.order[component]
}

// TopoOrder returns the full topological order of components, producers
// before consumers. The returned slice must not be modified.
func (r *Router) TopoOrder() []ComponentId {
	return r.sorted
}
