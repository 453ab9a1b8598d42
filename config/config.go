// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config defines the configuration surface consumed by the
// scheduler (spec §6) and a thin loader over it. It intentionally does not
// interpret a component's Kind beyond resolving it through an injected
// Factory registry: the device-behavior library and the YAML configuration
// loader's full semantics are external collaborators (spec §1).
package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/db47h/tickit/internal/wiredesc"
)

// Component declares one component instance (spec §6): its id, the kind
// string a Factory resolves into a tickit.Component, its initial input
// values, and — for system simulations — its nested declarations and
// wiring. There is no separate expose map: the ports bridged across the
// boundary are the InnerWiring edges that start at BoundaryIn or end at
// BoundaryOut.
type Component struct {
	Id            string                 `mapstructure:"id" yaml:"id"`
	Kind          string                 `mapstructure:"kind" yaml:"kind"`
	InitialInputs map[string]interface{} `mapstructure:"initial_inputs" yaml:"initial_inputs"`

	// System simulations only (spec §4.5): Inner lists the kind's nested
	// component declarations and wiring, BoundaryIn/BoundaryOut name the
	// synthetic boundary-crossing components.
	Inner         []Component `mapstructure:"inner" yaml:"inner"`
	InnerWiring   []Wire      `mapstructure:"inner_wiring" yaml:"inner_wiring"`
	BoundaryIn    string      `mapstructure:"boundary_in" yaml:"boundary_in"`
	BoundaryOut   string      `mapstructure:"boundary_out" yaml:"boundary_out"`
}

// Wire is one entry of the wiring list (spec §6):
// {producer, output-port, consumer, input-port}.
type Wire struct {
	Producer     string `mapstructure:"producer" yaml:"producer"`
	OutputPort   string `mapstructure:"output_port" yaml:"output_port"`
	Consumer     string `mapstructure:"consumer" yaml:"consumer"`
	ConsumerPort string `mapstructure:"consumer_port" yaml:"consumer_port"`
}

// TransportKind selects the state interface variant (spec §6).
type TransportKind string

const (
	TransportInternal TransportKind = "internal"
	TransportKafka    TransportKind = "kafka"
)

// Transport is the transport selector.
type Transport struct {
	Kind    TransportKind `mapstructure:"kind" yaml:"kind"`
	Brokers string        `mapstructure:"brokers" yaml:"brokers"`
	GroupID string        `mapstructure:"group_id" yaml:"group_id"`
}

// Config is the full configuration surface: component declarations, the
// top-level wiring list, and the transport selector.
type Config struct {
	Components []Component `mapstructure:"components" yaml:"components"`
	Wiring     []Wire      `mapstructure:"wiring" yaml:"wiring"`
	Transport  Transport   `mapstructure:"transport" yaml:"transport"`

	// TickTimeoutMS is the per-tick ComponentTimeout budget in
	// milliseconds; <= 0 disables the check.
	TickTimeoutMS int `mapstructure:"tick_timeout_ms" yaml:"tick_timeout_ms"`

	// WiringFile, if set, names a file written in wiredesc's terse
	// "producer.out -> consumer.in" grammar (spec §6): an alternate,
	// more compact way to write the top-level wiring list. Edges it
	// describes are appended to Wiring after Load decodes the YAML.
	WiringFile string `mapstructure:"wiring_file" yaml:"wiring_file"`
}

// Load reads path (YAML) into a Config using viper, the way
// flightctl-flightctl's own configuration surface is loaded. Load performs
// no validation beyond decoding: wiring against unknown components or a
// cyclic graph surfaces only later, as a tickit.ConfigError, when the
// caller builds the Router. Port names are not checked at either stage.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "tickit/config: reading %s", path)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "tickit/config: decoding %s", path)
	}
	if cfg.WiringFile != "" {
		edges, err := loadWiredesc(cfg.WiringFile)
		if err != nil {
			return nil, err
		}
		cfg.Wiring = append(cfg.Wiring, edges...)
	}
	return &cfg, nil
}

// loadWiredesc reads and parses path as a wiredesc wiring description,
// converting every edge it names into a Wire.
func loadWiredesc(path string) ([]Wire, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "tickit/config: reading wiring file %s", path)
	}
	edges, err := wiredesc.Parse(string(src))
	if err != nil {
		return nil, errors.Wrapf(err, "tickit/config: parsing wiring file %s", path)
	}
	wires := make([]Wire, len(edges))
	for i, e := range edges {
		wires[i] = Wire{
			Producer:     e.Producer,
			OutputPort:   e.OutputPort,
			Consumer:     e.Consumer,
			ConsumerPort: e.ConsumerPort,
		}
	}
	return wires, nil
}
