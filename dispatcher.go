package simnet

//
// Fake dispatcher: timers and outbound frames for a single host
//

import (
	"container/heap"
	"time"

	"github.com/bassosimone/simnet/optional"
)

// Dispatcher is the fake I/O surface a [Handler] is written against. It
// buffers outgoing frames in send order and keeps pending timers in a
// deadline-ordered heap. Nothing happens when you send a frame or
// schedule a timer: the effects stay buffered inside the dispatcher
// until the owning [Network] runs its next step.
//
// A dispatcher also carries the host's view of the simulated clock.
// Once the host is part of a [Network], the network owns this clock and
// overwrites it at each step so that all hosts stay in lockstep.
//
// The zero value is invalid; a [Dispatcher] is created by [NewHost]
// and obtained with [Host.Dispatcher]. All methods are synchronous and
// none of them is safe for concurrent use: the whole simulation is
// single threaded by design.
type Dispatcher[T comparable] struct {
	// framesSent buffers outgoing frames in send order.
	framesSent []Frame

	// now is the host's view of the simulated clock.
	now time.Time

	// timers contains the pending timers.
	timers timedHeap[T]
}

// newDispatcher creates an empty [Dispatcher]. The clock starts at an
// arbitrary epoch; joining a [Network] resets it to the network's.
func newDispatcher[T comparable]() *Dispatcher[T] {
	return &Dispatcher[T]{
		framesSent: []Frame{},
		now:        time.Now(),
		timers:     timedHeap[T]{},
	}
}

// CurrentTime returns the host's view of the simulated clock.
func (d *Dispatcher[T]) CurrentTime() time.Time {
	return d.now
}

// SendFrame buffers a frame for transmission on the given device. The
// owning [Network] collects buffered frames at the beginning of its
// next step and routes them according to its [RoutingFunc].
func (d *Dispatcher[T]) SendFrame(device DeviceID, payload []byte) {
	d.framesSent = append(d.framesSent, Frame{
		Device:  device,
		Payload: payload,
	})
}

// FramesSent returns the frames buffered for transmission and not yet
// collected by the network, in send order. The returned slice is a view
// for assertions: callers must not modify it.
func (d *Dispatcher[T]) FramesSent() []Frame {
	return d.framesSent
}

// ScheduleTimeout schedules the timer with the given ID to fire after
// the given delay, measured from the current simulated time. It has
// the same replace semantics as [Dispatcher.ScheduleTimeoutAt].
func (d *Dispatcher[T]) ScheduleTimeout(delay time.Duration, id T) optional.Value[time.Time] {
	return d.ScheduleTimeoutAt(d.now.Add(delay), id)
}

// ScheduleTimeoutAt schedules the timer with the given ID to fire at
// the given instant. If a timer with the same ID is already pending, it
// is silently replaced and its previous deadline is returned. A
// deadline in the past is not an error: the timer fires during the
// next step.
func (d *Dispatcher[T]) ScheduleTimeoutAt(deadline time.Time, id T) optional.Value[time.Time] {
	previous := d.CancelTimeout(id)
	d.timers.push(deadline, id)
	return previous
}

// CancelTimeout removes the pending timer with the given ID, returning
// its deadline, or does nothing and returns an empty value when no such
// timer exists. A cancelled timer never fires.
//
// Cancelling scans the whole heap and rebuilds it, which is O(n). This
// is fine for the small timer counts a test harness deals with; an
// indexed heap would remove this cost without changing behavior.
func (d *Dispatcher[T]) CancelTimeout(id T) optional.Value[time.Time] {
	previous := optional.None[time.Time]()
	kept := d.timers.entries[:0]
	for _, entry := range d.timers.entries {
		if entry.payload == id {
			previous = optional.Some(entry.deadline)
			continue
		}
		kept = append(kept, entry)
	}
	d.timers.entries = kept
	heap.Init(&d.timers)
	return previous
}

// drainFrames atomically empties the outgoing frame buffer and returns
// the drained frames in send order.
func (d *Dispatcher[T]) drainFrames() []Frame {
	if len(d.framesSent) <= 0 {
		return nil
	}
	drained := d.framesSent
	d.framesSent = []Frame{}
	return drained
}

// nextTimerDeadline returns the deadline of the earliest pending timer.
func (d *Dispatcher[T]) nextTimerDeadline() (time.Time, bool) {
	return d.timers.nextDeadline()
}

// popDueTimers removes and returns the IDs of all the timers whose
// deadline is not after the given instant, in deadline order. The
// caller fires them after this snapshot, so that handlers rescheduling
// timers at or before the current instant cannot extend the snapshot.
func (d *Dispatcher[T]) popDueTimers(now time.Time) []T {
	return d.timers.popDue(now)
}

// pendingTimers returns the number of pending timers.
func (d *Dispatcher[T]) pendingTimers() int {
	return d.timers.Len()
}

// setCurrentTime overwrites the host's view of the simulated clock.
// Only the owning [Network] calls this method.
func (d *Dispatcher[T]) setCurrentTime(now time.Time) {
	d.now = now
}
