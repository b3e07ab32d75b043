package simnet

//
// Network topologies
//

import (
	"errors"
	"time"
)

const (
	// PPPClient is the key of the client host in a [NewPPPNetwork].
	PPPClient = "client"

	// PPPServer is the key of the server host in a [NewPPPNetwork].
	PPPServer = "server"

	// PPPDevice is the single device both hosts own in a [NewPPPNetwork].
	PPPDevice = DeviceID("eth0")
)

// PPPConfig contains configuration for [NewPPPNetwork]. Make sure you
// initialize all the fields marked as MANDATORY.
type PPPConfig[T comparable] struct {
	// Capture is the OPTIONAL observer that sees each delivered
	// frame, e.g., a [PCAPDumper].
	Capture FrameObserver

	// ClientHandler is the MANDATORY handler of the client host.
	ClientHandler Handler[T]

	// Logger is the MANDATORY logger.
	Logger Logger

	// OneWayDelay is the OPTIONAL one-way delay applied to frames
	// travelling in either direction.
	OneWayDelay time.Duration

	// ServerHandler is the MANDATORY handler of the server host.
	ServerHandler Handler[T]
}

// NewPPPNetwork creates a [Network] with the point-to-point topology:
// two hosts, [PPPClient] and [PPPServer], each owning a [PPPDevice]
// device wired to the peer's, with a symmetric one-way delay. This is
// sugar over [NewNetwork] and a two-entry [RoutingFunc], not a
// separate kind of network.
func NewPPPNetwork[T comparable](config *PPPConfig[T]) *Network[T] {
	if config == nil {
		panic(errors.New("simnet: NewPPPNetwork: config is nil"))
	}
	if config.ClientHandler == nil {
		panic(errors.New("simnet: NewPPPNetwork: config.ClientHandler is nil"))
	}
	if config.ServerHandler == nil {
		panic(errors.New("simnet: NewPPPNetwork: config.ServerHandler is nil"))
	}

	routing := func(host string, device DeviceID) Route {
		peer := PPPServer
		if host == PPPServer {
			peer = PPPClient
		}
		return Route{
			Host:    peer,
			Device:  PPPDevice,
			Latency: config.OneWayDelay,
		}
	}

	return NewNetwork(&NetworkConfig{
		Capture: config.Capture,
		Logger:  config.Logger,
		Routing: routing,
	}, map[string]*Host[T]{
		PPPClient: NewHost(config.ClientHandler),
		PPPServer: NewHost(config.ServerHandler),
	})
}
