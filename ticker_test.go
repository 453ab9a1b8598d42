// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tickit

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func simpleDispatch(components map[ComponentId]Component) Dispatcher {
	return func(ctx context.Context, c ComponentId, in Input) (Output, error) {
		return components[c].HandleInput(ctx, in)
	}
}

func TestTickerPropagatesAcrossDependency(t *testing.T) {
	// a.out -> b.in ; b doubles whatever it receives.
	components := map[ComponentId]Component{
		"a": ComponentFn(func(_ context.Context, in Input) (Output, error) {
			return Output{Time: in.Time, Changes: Changes{"out": 21}}, nil
		}),
		"b": ComponentFn(func(_ context.Context, in Input) (Output, error) {
			v, _ := in.Inputs["in"].(int)
			return Output{Time: in.Time, Changes: Changes{"out": v * 2}}, nil
		}),
	}
	router, err := NewRouter([]ComponentId{"a", "b"}, []Link{
		{Producer: "a", OutputPort: "out", Consumer: "b", ConsumerPort: "in"},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	ticker := NewTicker(router, simpleDispatch(components), 0, nil, nil)
	inputs := map[ComponentId]map[PortId]Value{"a": {}, "b": {}}

	res, err := ticker.RunTick(context.Background(), 0, []ComponentId{"a"}, inputs)
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if _, ok := res.Outputs["a"]; !ok {
		t.Fatal("expected a to have produced an Output")
	}
	bOut, ok := res.Outputs["b"]
	if !ok {
		t.Fatal("expected b to have been woken by a's fanout")
	}
	if got := bOut.Changes["out"]; got != 42 {
		t.Fatalf("b.out = %v, want 42", got)
	}
	if inputs["b"]["in"] != 21 {
		t.Fatalf("persistent input buffer for b.in = %v, want 21 (spec: inputs persist across ticks)", inputs["b"]["in"])
	}
}

func TestTickerValueEqualityShortCircuit(t *testing.T) {
	calls := 0
	components := map[ComponentId]Component{
		"a": ComponentFn(func(_ context.Context, in Input) (Output, error) {
			return Output{Time: in.Time, Changes: Changes{"out": 7}}, nil
		}),
		"b": ComponentFn(func(_ context.Context, in Input) (Output, error) {
			calls++
			return Output{Time: in.Time}, nil
		}),
	}
	router, _ := NewRouter([]ComponentId{"a", "b"}, []Link{
		{Producer: "a", OutputPort: "out", Consumer: "b", ConsumerPort: "in"},
	})
	ticker := NewTicker(router, simpleDispatch(components), 0, nil, nil)
	inputs := map[ComponentId]map[PortId]Value{"a": {}, "b": {"in": 7}}

	// b's input buffer already holds 7; a republishing 7 must not wake b.
	if _, err := ticker.RunTick(context.Background(), 0, []ComponentId{"a"}, inputs); err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if calls != 0 {
		t.Fatalf("b was woken %d times, want 0 (value-equality short-circuit)", calls)
	}
}

func TestTickerOutputTimeMismatchIsOrderingError(t *testing.T) {
	components := map[ComponentId]Component{
		"a": ComponentFn(func(_ context.Context, in Input) (Output, error) {
			return Output{Time: in.Time + 1}, nil
		}),
	}
	router, _ := NewRouter([]ComponentId{"a"}, nil)
	ticker := NewTicker(router, simpleDispatch(components), 0, nil, nil)
	_, err := ticker.RunTick(context.Background(), 0, []ComponentId{"a"}, map[ComponentId]map[PortId]Value{"a": {}})
	var oe *OrderingError
	if !errors.As(err, &oe) {
		t.Fatalf("expected *OrderingError, got %T (%v)", err, err)
	}
}

func TestTickerCallAtBeforeNowIsConfigError(t *testing.T) {
	components := map[ComponentId]Component{
		"a": ComponentFn(func(_ context.Context, in Input) (Output, error) {
			return Output{Time: in.Time, CallAt: At(in.Time - 1)}, nil
		}),
	}
	router, _ := NewRouter([]ComponentId{"a"}, nil)
	ticker := NewTicker(router, simpleDispatch(components), 0, nil, nil)
	_, err := ticker.RunTick(context.Background(), 5, []ComponentId{"a"}, map[ComponentId]map[PortId]Value{"a": {}})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %T (%v)", err, err)
	}
}

func TestTickerComponentTimeout(t *testing.T) {
	components := map[ComponentId]Component{
		"a": ComponentFn(func(ctx context.Context, in Input) (Output, error) {
			<-ctx.Done()
			return Output{}, ctx.Err()
		}),
	}
	router, _ := NewRouter([]ComponentId{"a"}, nil)
	ticker := NewTicker(router, simpleDispatch(components), 10*time.Millisecond, nil, nil)
	_, err := ticker.RunTick(context.Background(), 0, []ComponentId{"a"}, map[ComponentId]map[PortId]Value{"a": {}})
	var ct *ComponentTimeout
	if !errors.As(err, &ct) {
		t.Fatalf("expected *ComponentTimeout, got %T (%v)", err, err)
	}
}
