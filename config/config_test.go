// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestLoadMergesWiredescWiringFile(t *testing.T) {
	dir := t.TempDir()
	wiringPath := writeFile(t, dir, "wiring.txt", "a.out -> b.in\n# a comment\nb.sum -> c.x\n")
	cfgPath := writeFile(t, dir, "tickit.yaml", `
components:
  - id: a
    kind: echo
  - id: b
    kind: echo
  - id: c
    kind: echo
wiring:
  - producer: a
    output_port: extra
    consumer: c
    consumer_port: y
wiring_file: `+wiringPath+"\n")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Wiring) != 3 {
		t.Fatalf("got %d wiring entries, want 3 (1 YAML + 2 wiredesc)", len(cfg.Wiring))
	}
	found := map[string]bool{}
	for _, w := range cfg.Wiring {
		found[w.Producer+"."+w.OutputPort+"->"+w.Consumer+"."+w.ConsumerPort] = true
	}
	for _, want := range []string{"a.extra->c.y", "a.out->b.in", "b.sum->c.x"} {
		if !found[want] {
			t.Fatalf("wiring missing edge %s, got %+v", want, cfg.Wiring)
		}
	}
}

func TestLoadWithoutWiringFileLeavesWiringUntouched(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "tickit.yaml", `
components:
  - id: a
    kind: echo
wiring: []
`)
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Wiring) != 0 {
		t.Fatalf("got %d wiring entries, want 0", len(cfg.Wiring))
	}
}
