package simnet

//
// Data model
//

import "time"

// DeviceID names a simulated network device of a [Host], for example
// "eth0". Routing is expressed in terms of (host, device) pairs, so a
// device only needs to be unique within its own host.
type DeviceID string

// Frame is a raw frame buffered on a [Dispatcher] together with the
// device on which it was sent or delivered.
type Frame struct {
	// Device is the device on which the frame travels. For outgoing
	// frames this is the sending host's device; for incoming frames
	// this is the receiving host's device.
	Device DeviceID

	// Payload contains the frame payload. The simulation engine never
	// inspects the payload; any byte content works.
	Payload []byte
}

// Handler is the protocol-stack instance under test attached to a
// [Host]. The simulation engine only interacts with a handler through
// these two entry points, both invoked synchronously by [Network.Step].
//
// A handler may call back into the [Dispatcher] it receives, e.g., to
// reply to a frame or to reschedule a timer. Such effects are buffered
// and only become visible during the next [Network.Step] call. A
// handler MUST NOT call [Network.Step] itself.
//
// The T type parameter identifies timers. The engine treats timer IDs
// as opaque tokens: it only ever compares them for equality.
type Handler[T comparable] interface {
	// DeliverFrame is called when a frame addressed to this host
	// reaches it, after the routing latency has elapsed.
	DeliverFrame(disp *Dispatcher[T], device DeviceID, payload []byte)

	// FireTimer is called when the timer with the given ID comes due.
	FireTimer(disp *Dispatcher[T], id T)
}

// Route is the destination of frames sent on a given (host, device)
// pair, as computed by a [RoutingFunc].
type Route struct {
	// Host is the key of the destination host.
	Host string

	// Device is the device of the destination host on which the
	// frame will be delivered.
	Device DeviceID

	// Latency is the OPTIONAL one-way delay. Leaving it zero means
	// frames arrive at the same instant they are collected, which
	// still defers their delivery by at most one step.
	Latency time.Duration
}

// RoutingFunc maps a sending (host, device) pair to the [Route] that
// frames sent there should follow. The function must be pure: the
// network may call it at any time and expects stable answers. Returning
// a route whose host is not part of the network is a test-author bug
// and makes the network panic.
type RoutingFunc func(host string, device DeviceID) Route

// FrameObserver observes the frames a [Network] delivers. Use it, for
// example, to record traffic with a [PCAPDumper]. The network invokes
// the observer synchronously during the delivery phase of each step.
type FrameObserver interface {
	// ObserveFrame is called for each delivered frame with the
	// simulated delivery time and the frame payload.
	ObserveFrame(now time.Time, payload []byte)

	// Close releases the resources used by the observer.
	Close() error
}

// Logger is the logger we're using.
type Logger interface {
	// Debugf formats and emits a debug message.
	Debugf(format string, v ...any)

	// Debug emits a debug message.
	Debug(message string)

	// Infof formats and emits an informational message.
	Infof(format string, v ...any)

	// Info emits an informational message.
	Info(message string)

	// Warnf formats and emits a warning message.
	Warnf(format string, v ...any)

	// Warn emits a warning message.
	Warn(message string)
}

// NullLogger is a [Logger] that does not emit logs.
type NullLogger struct{}

// Debug implements Logger
func (nl *NullLogger) Debug(message string) {
	// nothing
}

// Debugf implements Logger
func (nl *NullLogger) Debugf(format string, v ...any) {
	// nothing
}

// Info implements Logger
func (nl *NullLogger) Info(message string) {
	// nothing
}

// Infof implements Logger
func (nl *NullLogger) Infof(format string, v ...any) {
	// nothing
}

// Warn implements Logger
func (nl *NullLogger) Warn(message string) {
	// nothing
}

// Warnf implements Logger
func (nl *NullLogger) Warnf(format string, v ...any) {
	// nothing
}

var _ Logger = &NullLogger{}
