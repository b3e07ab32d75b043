package simnet

//
// PCAP dumper
//

import (
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// PCAPDumper is a [FrameObserver] that records the frames a [Network]
// delivers into a PCAP file. Each capture entry is timestamped with
// the simulated clock, so inspecting the file shows simulated rather
// than wall-clock time.
//
// Unlike a real capture there is no background writer: the simulation
// is single threaded, so the dumper writes synchronously as frames are
// delivered. The zero value is invalid; use [NewPCAPDumper].
//
// The PCAP link type is raw IPv4, matching handlers that exchange IP
// packets; frames carrying other payloads still end up in the file but
// dissect as garbage.
type PCAPDumper struct {
	// closeOnce provides "once" semantics for Close.
	closeOnce sync.Once

	// filep is the open PCAP file.
	filep *os.File

	// logger is the logger to use.
	logger Logger

	// w writes PCAP entries into filep.
	w *pcapgo.Writer
}

var _ FrameObserver = &PCAPDumper{}

// NewPCAPDumper creates a [PCAPDumper] writing into the given file,
// which is truncated if it already exists.
func NewPCAPDumper(filename string, logger Logger) (*PCAPDumper, error) {
	filep, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	w := pcapgo.NewWriter(filep)
	const largeSnapLen = 262144
	if err := w.WriteFileHeader(largeSnapLen, layers.LinkTypeIPv4); err != nil {
		filep.Close()
		return nil, err
	}
	pd := &PCAPDumper{
		closeOnce: sync.Once{},
		filep:     filep,
		logger:    logger,
		w:         w,
	}
	pd.logger.Infof("simnet: PCAPDumper: writing %s", filename)
	return pd, nil
}

// ObserveFrame implements FrameObserver
func (pd *PCAPDumper) ObserveFrame(now time.Time, payload []byte) {
	// make sure the capture length makes sense
	packetLength := len(payload)
	captureLength := 256
	if packetLength < captureLength {
		captureLength = packetLength
	}

	ci := gopacket.CaptureInfo{
		Timestamp:      now, // the simulated clock, not the wall clock
		CaptureLength:  captureLength,
		Length:         packetLength,
		InterfaceIndex: 0,
		AncillaryData:  []interface{}{},
	}
	if err := pd.w.WritePacket(ci, payload[:captureLength]); err != nil {
		pd.logger.Warnf("simnet: PCAPDumper: WritePacket: %s", err.Error())
		// fallthrough
	}
}

// Close implements FrameObserver
func (pd *PCAPDumper) Close() error {
	var err error
	pd.closeOnce.Do(func() {
		err = pd.filep.Close()
	})
	return err
}
