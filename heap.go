package simnet

//
// Deadline-ordered min-heap
//

import (
	"container/heap"
	"time"
)

// timedEntry pairs a deadline with an opaque payload: a timer ID for
// per-dispatcher timers, an [inflightFrame] for frames in transit.
type timedEntry[T any] struct {
	// deadline is the instant at which the entry becomes due.
	deadline time.Time

	// seq breaks ties between equal deadlines: entries sharing a
	// deadline come out in insertion order.
	seq uint64

	// payload is the entry payload, never inspected for ordering.
	payload T
}

// timedHeap is a min-heap of [timedEntry] ordered by deadline, with
// insertion order as the tie-break. Use [timedHeap.push] to insert.
type timedHeap[T any] struct {
	// entries contains the entries in heap order.
	entries []timedEntry[T]

	// seq counts insertions.
	seq uint64
}

var _ heap.Interface = &timedHeap[int]{}

// Len implements heap.Interface
func (th *timedHeap[T]) Len() int {
	return len(th.entries)
}

// Less implements heap.Interface
func (th *timedHeap[T]) Less(i, j int) bool {
	left, right := th.entries[i], th.entries[j]
	if !left.deadline.Equal(right.deadline) {
		return left.deadline.Before(right.deadline)
	}
	return left.seq < right.seq
}

// Swap implements heap.Interface
func (th *timedHeap[T]) Swap(i, j int) {
	th.entries[i], th.entries[j] = th.entries[j], th.entries[i]
}

// Push implements heap.Interface
func (th *timedHeap[T]) Push(x any) {
	th.entries = append(th.entries, x.(timedEntry[T]))
}

// Pop implements heap.Interface
func (th *timedHeap[T]) Pop() any {
	old := th.entries
	n := len(old)
	entry := old[n-1]
	th.entries = old[:n-1]
	return entry
}

// push inserts an entry, stamping it with the next sequence number.
func (th *timedHeap[T]) push(deadline time.Time, payload T) {
	th.seq++
	heap.Push(th, timedEntry[T]{
		deadline: deadline,
		seq:      th.seq,
		payload:  payload,
	})
}

// nextDeadline returns the earliest deadline in the heap, without
// removing the corresponding entry.
func (th *timedHeap[T]) nextDeadline() (time.Time, bool) {
	if len(th.entries) <= 0 {
		return time.Time{}, false
	}
	return th.entries[0].deadline, true
}

// popDue removes and returns the payloads of all the entries whose
// deadline is not after the given instant, in deadline order with
// same-deadline entries in insertion order.
func (th *timedHeap[T]) popDue(now time.Time) []T {
	var due []T
	for len(th.entries) > 0 && !th.entries[0].deadline.After(now) {
		entry := heap.Pop(th).(timedEntry[T])
		due = append(due, entry.payload)
	}
	return due
}
