// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package packet

import (
	"net"
	"testing"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

// buildGopacketUDP serializes a real Ethernet/IPv4/UDP frame with gopacket,
// the way the teacher's cmd/flywall-sim/replay.go constructs synthetic
// wire bytes for simulation, rather than hand-building byte offsets.
func buildGopacketUDP(t *testing.T, srcIP, dstIP string, srcPort, dstPort uint16, payload []byte) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		DstMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.ParseIP(srcIP).To4(),
		DstIP:    net.ParseIP(dstIP).To4(),
	}
	udp := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: layers.UDPPort(dstPort)}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("set checksum network layer: %v", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		t.Fatalf("serialize layers: %v", err)
	}
	return buf.Bytes()
}

func TestDissectEthernet_GopacketConstructedFrame(t *testing.T) {
	frame := buildGopacketUDP(t, "10.0.0.2", "10.0.0.1", 53, 1234, []byte("hello"))

	info := DissectEthernet(frame, time.Now(), len(frame), 1)

	if info.IPProto != ProtoUDP {
		t.Fatalf("expected UDP, got proto %d", info.IPProto)
	}
	if info.SrcPort != 53 || info.DstPort != 1234 {
		t.Fatalf("unexpected ports: %d -> %d", info.SrcPort, info.DstPort)
	}
	if info.Src.String() != "10.0.0.2" || info.Dst.String() != "10.0.0.1" {
		t.Fatalf("unexpected addrs: %s -> %s", info.Src, info.Dst)
	}
}
