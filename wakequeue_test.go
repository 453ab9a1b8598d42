// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tickit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWakeQueueEmptyNextTime(t *testing.T) {
	q := NewWakeQueue()
	_, ok := q.NextTime()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestWakeQueueOrdersByTime(t *testing.T) {
	q := NewWakeQueue()
	q.Schedule("c", 30)
	q.Schedule("a", 10)
	q.Schedule("b", 20)

	next, ok := q.NextTime()
	require.True(t, ok)
	assert.EqualValues(t, 10, next)

	due := q.PopDue(next)
	assert.Equal(t, []ComponentId{"a"}, due)

	next, ok = q.NextTime()
	require.True(t, ok)
	assert.EqualValues(t, 20, next)
}

func TestWakeQueueLastWinsIfEarlier(t *testing.T) {
	q := NewWakeQueue()
	q.Schedule("a", 100)
	q.Schedule("a", 50) // earlier, replaces
	q.Schedule("a", 75) // later than current pending (50), ignored

	next, ok := q.NextTime()
	require.True(t, ok)
	assert.EqualValues(t, 50, next)
	assert.Equal(t, 1, q.Len())

	due := q.PopDue(next)
	assert.Equal(t, []ComponentId{"a"}, due)
	assert.Equal(t, 0, q.Len())
}

func TestWakeQueuePopDueCoalescesSameTime(t *testing.T) {
	q := NewWakeQueue()
	q.Schedule("a", 10)
	q.Schedule("b", 10)
	q.Schedule("c", 20)

	next, ok := q.NextTime()
	require.True(t, ok)
	due := q.PopDue(next)
	assert.ElementsMatch(t, []ComponentId{"a", "b"}, due)

	next, ok = q.NextTime()
	require.True(t, ok)
	assert.EqualValues(t, 20, next)
}

func TestWakeQueueRoundTripProperty(t *testing.T) {
	// Scheduling N distinct components at N distinct times and draining via
	// NextTime/PopDue must observe them in strictly non-decreasing time order
	// and each component exactly once.
	q := NewWakeQueue()
	times := []SimTime{50, 10, 40, 20, 30}
	for i, tm := range times {
		q.Schedule(ComponentId(string(rune('a'+i))), tm)
	}

	var seen []SimTime
	for q.Len() > 0 {
		next, ok := q.NextTime()
		require.True(t, ok)
		due := q.PopDue(next)
		require.NotEmpty(t, due)
		seen = append(seen, next)
	}
	require.Len(t, seen, len(times))
	for i := 1; i < len(seen); i++ {
		assert.Less(t, int64(seen[i-1]), int64(seen[i]))
	}
}
