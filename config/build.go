// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package config

import (
	"github.com/pkg/errors"

	"github.com/db47h/tickit"
	"github.com/db47h/tickit/stateif"
)

// Factory builds a tickit.Component instance for one Component declaration.
// A registry (plain map[string]Factory) is the injection point spec §1
// reserves for the device-behavior library: this package never knows what a
// "kind" string means.
type Factory func(decl Component) (tickit.Component, error)

// Build resolves cfg's component declarations and wiring list into the
// handles and links tickit.NewRouter/tickit.NewMaster consume, using
// factories to turn each declaration's Kind into a live tickit.Component.
// System-simulation declarations (those with a non-empty BoundaryIn) are
// resolved into a tickit.SystemSimulation wrapping a freshly-built
// tickit.Slave over their own Inner declarations and InnerWiring.
func Build(cfg *Config, factories map[string]Factory) ([]tickit.ComponentHandle, []tickit.Link, error) {
	handles := make([]tickit.ComponentHandle, 0, len(cfg.Components))
	for _, decl := range cfg.Components {
		comp, err := buildOne(decl, factories)
		if err != nil {
			return nil, nil, err
		}
		handles = append(handles, tickit.ComponentHandle{
			Id:            tickit.ComponentId(decl.Id),
			Component:     comp,
			InitialInputs: toValues(decl.InitialInputs),
		})
	}

	links := make([]tickit.Link, 0, len(cfg.Wiring))
	for _, w := range cfg.Wiring {
		links = append(links, toLink(w))
	}
	return handles, links, nil
}

func buildOne(decl Component, factories map[string]Factory) (tickit.Component, error) {
	if decl.BoundaryIn != "" {
		return buildSystemSimulation(decl, factories)
	}
	f, ok := factories[decl.Kind]
	if !ok {
		return nil, errors.Errorf("tickit/config: no factory registered for kind %q (component %q)", decl.Kind, decl.Id)
	}
	comp, err := f(decl)
	if err != nil {
		return nil, errors.Wrapf(err, "tickit/config: building component %q", decl.Id)
	}
	return &tickit.DeviceSimulation{Id: tickit.ComponentId(decl.Id), Behavior: comp}, nil
}

func buildSystemSimulation(decl Component, factories map[string]Factory) (tickit.Component, error) {
	innerHandles := make([]tickit.ComponentHandle, 0, len(decl.Inner))
	for _, inner := range decl.Inner {
		comp, err := buildOne(inner, factories)
		if err != nil {
			return nil, err
		}
		innerHandles = append(innerHandles, tickit.ComponentHandle{
			Id:            tickit.ComponentId(inner.Id),
			Component:     comp,
			InitialInputs: toValues(inner.InitialInputs),
		})
	}
	innerLinks := make([]tickit.Link, 0, len(decl.InnerWiring))
	for _, w := range decl.InnerWiring {
		innerLinks = append(innerLinks, toLink(w))
	}
	slave, err := tickit.NewSlave(
		tickit.ComponentId(decl.BoundaryIn),
		tickit.ComponentId(decl.BoundaryOut),
		innerHandles,
		innerLinks,
		0, nil, nil,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "tickit/config: building system simulation %q", decl.Id)
	}
	return &tickit.SystemSimulation{Id: tickit.ComponentId(decl.Id), Slave: slave}, nil
}

func toValues(m map[string]interface{}) map[tickit.PortId]tickit.Value {
	out := make(map[tickit.PortId]tickit.Value, len(m))
	for k, v := range m {
		out[tickit.PortId(k)] = v
	}
	return out
}

func toLink(w Wire) tickit.Link {
	return tickit.Link{
		Producer:     tickit.ComponentId(w.Producer),
		OutputPort:   tickit.PortId(w.OutputPort),
		Consumer:     tickit.ComponentId(w.Consumer),
		ConsumerPort: tickit.PortId(w.ConsumerPort),
	}
}

// BuildStateInterface constructs the StateInterface named by cfg.Transport
// (spec §6's transport selector).
func BuildStateInterface(t Transport) (stateif.StateInterface, error) {
	switch t.Kind {
	case TransportKafka:
		k, err := stateif.NewKafka(t.Brokers, t.GroupID)
		if err != nil {
			return nil, errors.Wrap(err, "tickit/config: building kafka transport")
		}
		return k, nil
	case TransportInternal, "":
		return stateif.NewInProcess(16), nil
	default:
		return nil, errors.Errorf("tickit/config: unknown transport kind %q", t.Kind)
	}
}
