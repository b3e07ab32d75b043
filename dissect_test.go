package simnet

import (
	"errors"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// newIPv4UDPPacket serializes an IPv4/UDP packet for testing.
func newIPv4UDPPacket(t *testing.T, srcIP, dstIP string, srcPort, dstPort uint16, payload []byte) []byte {
	t.Helper()
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.ParseIP(srcIP),
		DstIP:    net.ParseIP(dstIP),
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(srcPort),
		DstPort: layers.UDPPort(dstPort),
	}
	udp.SetNetworkLayerForChecksum(ip)
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	if err := gopacket.SerializeLayers(buf, opts, ip, udp, gopacket.Payload(payload)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDissectPacket(t *testing.T) {
	t.Run("for an IPv4/UDP packet", func(t *testing.T) {
		rawPacket := newIPv4UDPPacket(t, "10.0.0.1", "10.0.0.2", 54321, 443, []byte("xyzzy"))
		packet, err := DissectPacket(rawPacket)
		if err != nil {
			t.Fatal(err)
		}
		if packet.SourceIPAddress() != "10.0.0.1" {
			t.Fatal("unexpected source address", packet.SourceIPAddress())
		}
		if packet.DestinationIPAddress() != "10.0.0.2" {
			t.Fatal("unexpected destination address", packet.DestinationIPAddress())
		}
		if packet.TransportProtocol() != layers.IPProtocolUDP {
			t.Fatal("unexpected transport protocol", packet.TransportProtocol())
		}
		if packet.UDP == nil || string(packet.UDP.Payload) != "xyzzy" {
			t.Fatal("unexpected UDP payload")
		}
		if packet.TimeToLive() != 64 {
			t.Fatal("unexpected TTL", packet.TimeToLive())
		}
	})

	t.Run("for a too-short packet", func(t *testing.T) {
		packet, err := DissectPacket([]byte{})
		if !errors.Is(err, ErrDissectShortPacket) {
			t.Fatal("unexpected error", err)
		}
		if packet != nil {
			t.Fatal("expected a nil packet")
		}
	})

	t.Run("for an unknown IP version", func(t *testing.T) {
		packet, err := DissectPacket([]byte{0x00, 0x01, 0x02})
		if !errors.Is(err, ErrDissectNetwork) {
			t.Fatal("unexpected error", err)
		}
		if packet != nil {
			t.Fatal("expected a nil packet")
		}
	})
}

func TestDissectedPacketRoundTrip(t *testing.T) {
	rawPacket := newIPv4UDPPacket(t, "10.0.0.1", "10.0.0.2", 54321, 443, []byte("xyzzy"))
	packet, err := DissectPacket(rawPacket)
	if err != nil {
		t.Fatal(err)
	}

	// a forwarding hop decrements the TTL and reserializes
	packet.DecrementTimeToLive()
	reserialized, err := packet.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	packet2, err := DissectPacket(reserialized)
	if err != nil {
		t.Fatal(err)
	}
	if packet2.TimeToLive() != 63 {
		t.Fatal("expected the TTL to have been decremented, got", packet2.TimeToLive())
	}
	if packet2.DestinationIPAddress() != "10.0.0.2" {
		t.Fatal("the destination address must survive reserialization")
	}
	if packet2.UDP == nil || string(packet2.UDP.Payload) != "xyzzy" {
		t.Fatal("the UDP payload must survive reserialization")
	}
}
