// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package tickit

import "container/heap"

// wakeEntry is one (time, component) pair in the wake queue.
type wakeEntry struct {
	time      SimTime
	component ComponentId
}

// wakeHeap is a container/heap.Interface min-heap over wakeEntry.time.
type wakeHeap []wakeEntry

func (h wakeHeap) Len() int            { return len(h) }
func (h wakeHeap) Less(i, j int) bool  { return h[i].time < h[j].time }
func (h wakeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *wakeHeap) Push(x interface{}) { *h = append(*h, x.(wakeEntry)) }
func (h *wakeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// WakeQueue is a min-heap of (SimTime, ComponentId) entries representing
// "component C has asked to be called at time T or later" (spec §3). At
// most one outstanding entry per component is meaningful; duplicates are
// tolerated and filtered on Pop via a pending-time map that keeps the
// earliest requested time for each component, so a
// component that calls Schedule twice before its wake arrives is only woken
// once, at the earliest of the two times.
//
// WakeQueue is owned exclusively by a scheduler task (spec §5); it is not
// safe for concurrent use.
type WakeQueue struct {
	h       wakeHeap
	pending map[ComponentId]SimTime
}

// NewWakeQueue returns an empty wake queue.
func NewWakeQueue() *WakeQueue {
	return &WakeQueue{pending: make(map[ComponentId]SimTime)}
}

// Schedule requests that component be woken at time t or later. If an entry
// for component is already pending, it is replaced if t is earlier.
func (q *WakeQueue) Schedule(component ComponentId, t SimTime) {
	if cur, ok := q.pending[component]; ok && cur <= t {
		return
	}
	q.pending[component] = t
	heap.Push(&q.h, wakeEntry{time: t, component: component})
}

// NextTime reports the earliest pending wake time and whether the queue is
// non-empty.
func (q *WakeQueue) NextTime() (SimTime, bool) {
	for len(q.h) > 0 {
		top := q.h[0]
		if pt, ok := q.pending[top.component]; !ok || pt != top.time {
			// stale duplicate entry superseded by a later Schedule call; drop it.
			heap.Pop(&q.h)
			continue
		}
		return top.time, true
	}
	return 0, false
}

// PopDue removes and returns every component whose wake time equals t,
// clearing their pending entries. Callers must have already established
// via NextTime that t is the earliest pending time.
func (q *WakeQueue) PopDue(t SimTime) []ComponentId {
	var due []ComponentId
	for len(q.h) > 0 && q.h[0].time == t {
		e := heap.Pop(&q.h).(wakeEntry)
		if pt, ok := q.pending[e.component]; ok && pt == e.time {
			due = append(due, e.component)
			delete(q.pending, e.component)
		}
	}
	return due
}

// Len reports the number of distinct components with a pending wake
// request (not the number of raw heap entries, which may include stale
// duplicates awaiting lazy deletion).
func (q *WakeQueue) Len() int {
	return len(q.pending)
}
