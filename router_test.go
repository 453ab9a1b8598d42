// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tickit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterTopoOrderProperty(t *testing.T) {
	// a -> b -> d, a -> c -> d (diamond): every producer must precede every
	// one of its consumers regardless of declaration order.
	links := []Link{
		{Producer: "a", OutputPort: "out", Consumer: "c", ConsumerPort: "in"},
		{Producer: "c", OutputPort: "out", Consumer: "d", ConsumerPort: "in2"},
		{Producer: "a", OutputPort: "out", Consumer: "b", ConsumerPort: "in"},
		{Producer: "b", OutputPort: "out", Consumer: "d", ConsumerPort: "in1"},
	}
	r, err := NewRouter([]ComponentId{"d", "c", "b", "a"}, links)
	require.NoError(t, err)

	order := r.TopoOrder()
	require.Len(t, order, 4)

	pos := make(map[ComponentId]int, len(order))
	for i, c := range order {
		pos[c] = i
	}
	for _, l := range links {
		assert.Lessf(t, pos[l.Producer], pos[l.Consumer], "producer %q must precede consumer %q", l.Producer, l.Consumer)
	}
}

func TestRouterRejectsCycle(t *testing.T) {
	_, err := NewRouter([]ComponentId{"a", "b"}, []Link{
		{Producer: "a", OutputPort: "out", Consumer: "b", ConsumerPort: "in"},
		{Producer: "b", OutputPort: "out", Consumer: "a", ConsumerPort: "in"},
	})
	require.Error(t, err)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
}

func TestRouterRejectsUnknownComponent(t *testing.T) {
	_, err := NewRouter([]ComponentId{"a"}, []Link{
		{Producer: "a", OutputPort: "out", Consumer: "ghost", ConsumerPort: "in"},
	})
	require.Error(t, err)
}

func TestRouterRejectsSelfLoop(t *testing.T) {
	_, err := NewRouter([]ComponentId{"a"}, []Link{
		{Producer: "a", OutputPort: "out", Consumer: "a", ConsumerPort: "in"},
	})
	require.Error(t, err)
}

func TestRouterFanout(t *testing.T) {
	r, err := NewRouter([]ComponentId{"a", "b", "c"}, []Link{
		{Producer: "a", OutputPort: "out", Consumer: "b", ConsumerPort: "x"},
		{Producer: "a", OutputPort: "out", Consumer: "c", ConsumerPort: "y"},
		{Producer: "a", OutputPort: "other", Consumer: "b", ConsumerPort: "z"},
	})
	require.NoError(t, err)

	deliveries := r.Fanout("a", Changes{"out": 42})
	require.Equal(t, map[PortId]Value{"x": 42}, deliveries["b"])
	require.Equal(t, map[PortId]Value{"y": 42}, deliveries["c"])

	// an empty Changes fans out nothing.
	assert.Nil(t, r.Fanout("a", nil))
}

func TestRouterOrderAndDependants(t *testing.T) {
	r, err := NewRouter([]ComponentId{"a", "b"}, []Link{
		{Producer: "a", OutputPort: "out", Consumer: "b", ConsumerPort: "in"},
	})
	require.NoError(t, err)
	assert.Less(t, r.Order("a"), r.Order("b"))
	_, ok := r.Dependants("a")["b"]
	assert.True(t, ok)
	_, ok = r.InverseDependants("b")["a"]
	assert.True(t, ok)
}
