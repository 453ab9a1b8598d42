// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package wiredesc parses the compact wiring-description grammar used in
// config files and tests to write a wiring list tersely:
//
//	producer.out -> consumer.in
//	# comments run to end of line
//	a.sum -> b.x
//	a.carry -> b.y
//
// One edge per non-blank, non-comment line. This is a self-contained
// tokenizer: the teacher's internal/hdl/parse.go builds on a shared
// internal/lex state-machine package that was never retrieved into this
// repo's dependency pack (see DESIGN.md), so this parser instead splits
// each line with the standard strings package and checks identifiers by
// hand, without depending on that package.
package wiredesc

import (
	"bufio"
	"strings"

	"github.com/pkg/errors"
)

// Edge is one parsed wiring entry: producer.outputPort -> consumer.inputPort.
type Edge struct {
	Producer     string
	OutputPort   string
	Consumer     string
	ConsumerPort string
}

// Parse scans src line by line and returns every edge it describes. A
// malformed line is reported as a *SyntaxError naming the line number and
// offending text; Parse stops at the first one.
func Parse(src string) ([]Edge, error) {
	var edges []Edge
	sc := bufio.NewScanner(strings.NewReader(src))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := stripComment(sc.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		e, err := parseLine(line)
		if err != nil {
			return nil, &SyntaxError{Line: lineNo, Text: line, cause: err}
		}
		edges = append(edges, e)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "wiredesc: scanning input")
	}
	return edges, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// parseLine parses "producer.port -> consumer.port".
func parseLine(line string) (Edge, error) {
	lhs, rhs, ok := strings.Cut(line, "->")
	if !ok {
		return Edge{}, errors.New(`missing "->"`)
	}
	prod, outPort, err := parseEndpoint(strings.TrimSpace(lhs))
	if err != nil {
		return Edge{}, errors.Wrap(err, "left-hand endpoint")
	}
	cons, inPort, err := parseEndpoint(strings.TrimSpace(rhs))
	if err != nil {
		return Edge{}, errors.Wrap(err, "right-hand endpoint")
	}
	return Edge{Producer: prod, OutputPort: outPort, Consumer: cons, ConsumerPort: inPort}, nil
}

// parseEndpoint parses "component.port", requiring both halves to be
// non-empty identifiers.
func parseEndpoint(s string) (component, port string, err error) {
	component, port, ok := strings.Cut(s, ".")
	if !ok {
		return "", "", errors.Errorf("expected component.port, got %q", s)
	}
	if !isIdent(component) {
		return "", "", errors.Errorf("invalid component identifier %q", component)
	}
	if !isIdent(port) {
		return "", "", errors.Errorf("invalid port identifier %q", port)
	}
	return component, port, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// SyntaxError reports a malformed wiring-description line.
type SyntaxError struct {
	Line  int
	Text  string
	cause error
}

func (e *SyntaxError) Error() string {
	return errors.Wrapf(e.cause, "wiredesc: line %d: %q", e.Line, e.Text).Error()
}

func (e *SyntaxError) Cause() error { return e.cause }
func (e *SyntaxError) Unwrap() error { return e.cause }
