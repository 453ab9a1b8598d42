// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package config

import (
	"context"
	"testing"

	"github.com/db47h/tickit"
)

func echoFactory(decl Component) (tickit.Component, error) {
	return tickit.ComponentFn(func(_ context.Context, in tickit.Input) (tickit.Output, error) {
		return tickit.Output{Time: in.Time}, nil
	}), nil
}

func TestBuildResolvesFactoriesAndWiring(t *testing.T) {
	cfg := &Config{
		Components: []Component{
			{Id: "a", Kind: "echo", InitialInputs: map[string]interface{}{"x": 1}},
			{Id: "b", Kind: "echo"},
		},
		Wiring: []Wire{
			{Producer: "a", OutputPort: "out", Consumer: "b", ConsumerPort: "in"},
		},
	}
	handles, links, err := Build(cfg, map[string]Factory{"echo": echoFactory})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(handles) != 2 {
		t.Fatalf("got %d handles, want 2", len(handles))
	}
	if len(links) != 1 || links[0].Producer != "a" || links[0].Consumer != "b" {
		t.Fatalf("unexpected links: %+v", links)
	}
	if handles[0].InitialInputs["x"] != 1 {
		t.Fatalf("initial input x = %v, want 1", handles[0].InitialInputs["x"])
	}
}

func TestBuildUnknownKind(t *testing.T) {
	cfg := &Config{Components: []Component{{Id: "a", Kind: "nonexistent"}}}
	_, _, err := Build(cfg, map[string]Factory{})
	if err == nil {
		t.Fatal("expected an error for an unregistered kind")
	}
}

func TestBuildSystemSimulation(t *testing.T) {
	cfg := &Config{
		Components: []Component{{
			Id:          "sys",
			BoundaryIn:  "boundary_in",
			BoundaryOut: "boundary_out",
			Inner: []Component{
				{Id: "core", Kind: "echo"},
			},
			InnerWiring: []Wire{
				{Producer: "boundary_in", OutputPort: "p", Consumer: "core", ConsumerPort: "in"},
				{Producer: "core", OutputPort: "out", Consumer: "boundary_out", ConsumerPort: "q"},
			},
		}},
	}
	handles, _, err := Build(cfg, map[string]Factory{"echo": echoFactory})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(handles) != 1 {
		t.Fatalf("got %d handles, want 1", len(handles))
	}
	if _, ok := handles[0].Component.(*tickit.SystemSimulation); !ok {
		t.Fatalf("expected a *tickit.SystemSimulation, got %T", handles[0].Component)
	}
}

func TestBuildStateInterfaceInternal(t *testing.T) {
	si, err := BuildStateInterface(Transport{Kind: TransportInternal})
	if err != nil {
		t.Fatalf("BuildStateInterface: %v", err)
	}
	defer si.Close()
	if si == nil {
		t.Fatal("expected a non-nil StateInterface")
	}
}

func TestBuildStateInterfaceUnknownKind(t *testing.T) {
	_, err := BuildStateInterface(Transport{Kind: "bogus"})
	if err == nil {
		t.Fatal("expected an error for an unknown transport kind")
	}
}
