package simnet

//
// Virtual network: hosts, routing, and the stepping algorithm
//

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Host is a participant in a [Network]: a [Handler] under test glued to
// the [Dispatcher] it performs I/O on. The zero value is invalid; use
// [NewHost] to instantiate.
type Host[T comparable] struct {
	// handler is the protocol-stack instance under test.
	handler Handler[T]

	// disp is the dispatcher owned by this host.
	disp *Dispatcher[T]
}

// NewHost creates a [Host] running the given handler. The host starts
// with no pending timers and no buffered frames, which is a requirement
// for joining a [Network].
func NewHost[T comparable](handler Handler[T]) *Host[T] {
	return &Host[T]{
		handler: handler,
		disp:    newDispatcher[T](),
	}
}

// Dispatcher returns the dispatcher owned by this host. Test code uses
// it to inject stimuli (e.g., scheduling a timer or sending a frame)
// and to make assertions about buffered state.
func (h *Host[T]) Dispatcher() *Dispatcher[T] {
	return h.disp
}

// inflightFrame is a frame in transit inside the network's global
// pending-frame heap, already resolved to its destination.
type inflightFrame struct {
	// host is the key of the destination host.
	host string

	// device is the destination device.
	device DeviceID

	// payload contains the frame payload.
	payload []byte
}

// NetworkConfig contains configuration for [NewNetwork]. Make sure you
// initialize all the fields marked as MANDATORY.
type NetworkConfig struct {
	// Capture is the OPTIONAL observer that sees each frame the
	// network delivers, e.g., a [PCAPDumper].
	Capture FrameObserver

	// Logger is the MANDATORY logger.
	Logger Logger

	// Routing is the MANDATORY routing function.
	Routing RoutingFunc
}

// Network simulates a network of [Host]s under a single logical clock.
//
// The network is the sole owner of simulated time: at each step it
// advances its clock to the earliest pending event and mirrors the new
// value into every host's dispatcher, so the clocks never diverge and
// never move backwards.
//
// Ties are broken deterministically. Hosts are always visited in
// ascending key order, so when timers on different hosts are due at
// the very same instant, the host with the smaller key fires first.
// Frames arriving at the very same instant are delivered in the order
// the network collected them, which again follows the ascending key
// order of the sending hosts. Tests may rely on these orderings.
//
// The zero value is invalid; use [NewNetwork] to instantiate.
type Network[T comparable] struct {
	// capture is the optional frame observer.
	capture FrameObserver

	// hosts maps each key to its host.
	hosts map[string]*Host[T]

	// keys contains the host keys in ascending order.
	keys []string

	// logger is the logger to use.
	logger Logger

	// now is the authoritative simulated clock.
	now time.Time

	// pending contains the frames in transit, ordered by arrival.
	pending timedHeap[inflightFrame]

	// routing resolves (host, device) to a [Route].
	routing RoutingFunc
}

// NewNetwork creates a [Network] out of the given hosts, keyed by name.
//
// The simulated clock starts at an arbitrary epoch and every host's
// dispatcher is reset to it, establishing lockstep from the start.
//
// This function panics when the config or any of its MANDATORY fields
// is missing, and when any host already has pending timers: a timer
// scheduled before the network owns the clock would violate the
// lockstep guarantee, and indicates a bug in the test setup.
func NewNetwork[T comparable](config *NetworkConfig, hosts map[string]*Host[T]) *Network[T] {
	if config == nil {
		panic(errors.New("simnet: NewNetwork: config is nil"))
	}
	if config.Logger == nil {
		panic(errors.New("simnet: NewNetwork: config.Logger is nil"))
	}
	if config.Routing == nil {
		panic(errors.New("simnet: NewNetwork: config.Routing is nil"))
	}

	// sort the keys so all iterations are deterministic
	keys := []string{}
	for key := range hosts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// adopt every host, which must not have pending timers
	now := time.Now()
	for _, key := range keys {
		host := hosts[key]
		if count := host.disp.pendingTimers(); count > 0 {
			panic(fmt.Errorf("simnet: NewNetwork: host %s has %d pending timers", key, count))
		}
		host.disp.setCurrentTime(now)
	}

	vn := &Network[T]{
		capture: config.Capture,
		hosts:   hosts,
		keys:    keys,
		logger:  config.Logger,
		now:     now,
		pending: timedHeap[inflightFrame]{},
		routing: config.Routing,
	}
	vn.logger.Debugf("simnet: network up with %d hosts", len(keys))
	return vn
}

// Host returns the host with the given key. Looking up an unknown key
// is a bug in the test and causes a panic.
func (vn *Network[T]) Host(key string) *Host[T] {
	host, found := vn.hosts[key]
	if !found {
		panic(fmt.Errorf("simnet: no such host: %s", key))
	}
	return host
}

// CurrentTime returns the authoritative simulated clock.
func (vn *Network[T]) CurrentTime() time.Time {
	return vn.now
}

// StepResult summarizes what a single [Network.Step] call did.
type StepResult struct {
	// TimeDelta is how far the step advanced the simulated clock.
	TimeDelta time.Duration

	// TimersFired counts the timers fired across all hosts.
	TimersFired int

	// FramesDelivered counts the frames delivered across all hosts.
	FramesDelivered int
}

// IsIdle returns whether the step found nothing to do. Stepping an
// idle network is a no-op, so once a step is idle every subsequent
// step is idle too, until new stimuli are injected.
func (sr *StepResult) IsIdle() bool {
	return sr.TimersFired == 0 && sr.FramesDelivered == 0
}

// Step runs a single simulation tick:
//
// 1. collect the frames buffered by every host and route each of them,
// computing its arrival instant as the current time plus the route's
// latency;
//
// 2. find the earliest event: the minimum across every host's earliest
// timer deadline and the earliest frame arrival; when there is none,
// return an idle [StepResult] without touching the clock;
//
// 3. advance the simulated clock to that instant, never backwards, and
// mirror it into every host's dispatcher;
//
// 4. deliver every in-transit frame whose arrival instant has been
// reached, invoking the destination handler's DeliverFrame;
//
// 5. fire every timer that has come due, invoking the owning handler's
// FireTimer; on each host the due timers are snapshotted before any of
// them fires, so a handler rescheduling at the current instant defers
// the new timer to the next step.
//
// Frames sent and timers scheduled by the handlers while this method
// runs are likewise only visible to the next step. This keeps the work
// of each step bounded even when handlers produce new work for
// themselves unconditionally.
func (vn *Network[T]) Step() *StepResult {
	// collect the frames buffered by each host
	for _, key := range vn.keys {
		host := vn.hosts[key]
		for _, frame := range host.disp.drainFrames() {
			route := vn.routing(key, frame.Device)
			if _, found := vn.hosts[route.Host]; !found {
				panic(fmt.Errorf("simnet: route from %s %s to unknown host %s", key, frame.Device, route.Host))
			}
			arrival := vn.now.Add(route.Latency)
			vn.pending.push(arrival, inflightFrame{
				host:    route.Host,
				device:  route.Device,
				payload: frame.Payload,
			})
			vn.logger.Debugf(
				"simnet: %s %s -> %s %s in flight (%d bytes, arrives +%s)",
				key, frame.Device, route.Host, route.Device,
				len(frame.Payload), arrival.Sub(vn.now),
			)
		}
	}

	// find the earliest pending event, if any
	next, found := vn.nextEventTime()
	if !found {
		return &StepResult{}
	}

	// the clock never moves backwards
	if next.Before(vn.now) {
		next = vn.now
	}

	// advance the clock and keep the hosts in lockstep
	delta := next.Sub(vn.now)
	vn.now = next
	for _, key := range vn.keys {
		vn.hosts[key].disp.setCurrentTime(next)
	}

	// deliver the frames that have arrived, snapshotting first so that
	// frames sent by DeliverFrame stay buffered until the next step
	framesDelivered := 0
	for _, frame := range vn.pending.popDue(vn.now) {
		host := vn.hosts[frame.host]
		vn.logger.Debugf("simnet: deliver %d bytes to %s %s", len(frame.payload), frame.host, frame.device)
		if vn.capture != nil {
			vn.capture.ObserveFrame(vn.now, frame.payload)
		}
		host.handler.DeliverFrame(host.disp, frame.device, frame.payload)
		framesDelivered++
	}

	// fire the timers that have come due, snapshotting first
	timersFired := 0
	for _, key := range vn.keys {
		host := vn.hosts[key]
		for _, id := range host.disp.popDueTimers(vn.now) {
			vn.logger.Debugf("simnet: fire timer %v on %s", id, key)
			host.handler.FireTimer(host.disp, id)
			timersFired++
		}
	}

	return &StepResult{
		TimeDelta:       delta,
		TimersFired:     timersFired,
		FramesDelivered: framesDelivered,
	}
}

// nextEventTime computes the earliest instant at which anything in the
// network is due: a timer on any host or an in-transit frame.
func (vn *Network[T]) nextEventTime() (time.Time, bool) {
	next, found := vn.pending.nextDeadline()
	for _, key := range vn.keys {
		deadline, ok := vn.hosts[key].disp.nextTimerDeadline()
		if !ok {
			continue
		}
		if !found || deadline.Before(next) {
			next = deadline
			found = true
		}
	}
	return next, found
}

// loopLimit bounds the number of steps the run loops may take. Hitting
// the bound almost certainly means the handlers under test feed each
// other work forever, e.g., by retransmitting with zero delay.
const loopLimit = 1_000_000

// ErrLoopLimitExceeded indicates that a run loop performed [loopLimit]
// steps without the network ever becoming idle.
var ErrLoopLimitExceeded = errors.New("simnet: loop limit exceeded")

// RunUntilIdle steps the network until a step reports that there was
// nothing left to do. It returns [ErrLoopLimitExceeded] when the
// network is still busy after [loopLimit] steps, which callers should
// treat as a failure of the handlers under test, not retry.
func (vn *Network[T]) RunUntilIdle() error {
	return vn.RunUntilIdleOr(func() bool {
		return false
	})
}

// RunUntilIdleOr is like [Network.RunUntilIdle] except that it also
// stops, successfully, the first time the given predicate returns true
// after a step. Use it to pause a simulation mid-flight, assert on the
// network state, and then resume with further [Network.Step] calls.
func (vn *Network[T]) RunUntilIdleOr(predicate func() bool) error {
	for i := 0; i < loopLimit; i++ {
		result := vn.Step()
		if result.IsIdle() {
			vn.logger.Debugf("simnet: idle after %d steps", i+1)
			return nil
		}
		if predicate() {
			vn.logger.Debugf("simnet: predicate satisfied after %d steps", i+1)
			return nil
		}
	}
	return ErrLoopLimitExceeded
}
