// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wiredesc

import (
	"reflect"
	"testing"
)

func TestParseBasic(t *testing.T) {
	src := `
# full adder wiring
a.sum -> b.x
a.carry -> b.y   # trailing comment
`
	got, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []Edge{
		{Producer: "a", OutputPort: "sum", Consumer: "b", ConsumerPort: "x"},
		{Producer: "a", OutputPort: "carry", Consumer: "b", ConsumerPort: "y"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseBlankAndCommentOnly(t *testing.T) {
	got, err := Parse("\n# nothing here\n   \n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no edges, got %+v", got)
	}
}

func TestParseMissingArrow(t *testing.T) {
	_, err := Parse("a.out b.in")
	if err == nil {
		t.Fatal("expected an error for a missing arrow")
	}
	se, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if se.Line != 1 {
		t.Fatalf("expected line 1, got %d", se.Line)
	}
}

func TestParseBadIdentifier(t *testing.T) {
	for _, src := range []string{
		"1a.out -> b.in",
		"a.out -> b.",
		"a -> b.in",
	} {
		if _, err := Parse(src); err == nil {
			t.Fatalf("Parse(%q): expected error", src)
		}
	}
}
