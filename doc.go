// Package simnet is a deterministic, single-threaded simulation harness
// for testing event-driven protocol stacks.
//
// The code under test (the "handler") is written against the narrow
// contract exposed by a [Dispatcher]: it can send frames on named
// devices and it can schedule, reschedule, and cancel timers. A fake
// logical clock replaces the wall clock, so nothing in this package
// ever sleeps or spawns goroutines.
//
// To simulate a network, create one [Host] per protocol-stack instance
// using [NewHost], then tie the hosts together with [NewNetwork]. The
// [NetworkConfig] includes a [RoutingFunc] telling the network, for
// each (host, device) pair, which host and device should receive the
// frames sent there and with how much one-way latency.
//
// [Network.Step] executes one simulation tick: it harvests the frames
// buffered by every host, advances the shared clock to the earliest
// pending event, delivers every frame whose arrival time has been
// reached, and fires every timer that has come due. Frames and timers
// created by handlers while a step is running are only visible to the
// next step, which bounds the work done by a single step even when the
// handlers under test retransmit aggressively. [Network.RunUntilIdle]
// repeats [Network.Step] until nothing is pending, returning
// [ErrLoopLimitExceeded] when the handlers appear to be stuck in a
// feedback loop.
//
// Because creating networks manually is error prone, the
// [NewPPPNetwork] factory builds the common point-to-point case: two
// hosts, by convention a client and a server, wired to each other on
// device [PPPDevice] with a configurable one-way delay.
//
// Handlers exchanging real IPv4 or IPv6 packets can parse them with
// [DissectPacket]. To record the frames a network delivers, attach a
// [PCAPDumper]: it timestamps every capture with the simulated clock,
// so the resulting PCAP file reflects simulated rather than real time.
package simnet
