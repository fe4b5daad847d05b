package simlib

import (
	"container/heap"
	"time"
)

// scheduledEvent is one entry in the discrete-event priority queue. For a
// STOP, Category/Reason/NextProduct are decided at the moment the event is
// scheduled (i.e. at the preceding START), not when it fires — this is the
// cause pre-classification the sensor and production generators depend on.
type scheduledEvent struct {
	Timestamp   time.Time
	EquipmentID string
	Sequence    int64
	Type        EventType

	Category    DowntimeCategory
	Reason      string
	NextProduct string
}

// eventHeap is a container/heap min-heap ordered by (Timestamp,
// EquipmentID, Sequence), mirroring the timerHeap pattern of a slice-backed
// heap.Interface implementation with an explicit tie-breaking sequence.
type eventHeap []scheduledEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if !h[i].Timestamp.Equal(h[j].Timestamp) {
		return h[i].Timestamp.Before(h[j].Timestamp)
	}
	if h[i].EquipmentID != h[j].EquipmentID {
		return h[i].EquipmentID < h[j].EquipmentID
	}
	return h[i].Sequence < h[j].Sequence
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(scheduledEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// eventQueue wraps eventHeap with a monotonic sequence counter so callers
// never have to manage it by hand.
type eventQueue struct {
	h   eventHeap
	seq int64
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	heap.Init(&q.h)
	return q
}

func (q *eventQueue) push(e scheduledEvent) {
	e.Sequence = q.seq
	q.seq++
	heap.Push(&q.h, e)
}

func (q *eventQueue) pop() (scheduledEvent, bool) {
	if q.h.Len() == 0 {
		return scheduledEvent{}, false
	}
	return heap.Pop(&q.h).(scheduledEvent), true
}

func (q *eventQueue) len() int { return q.h.Len() }
