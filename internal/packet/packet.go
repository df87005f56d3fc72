// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package packet dissects raw Ethernet frames into a PacketInfo value used
// by the flow cache and IP-state table. Dissection never reads past the
// captured length; malformed frames are dropped silently rather than
// surfaced as errors.
package packet

import (
	"encoding/binary"
	"net/netip"
	"time"
)

// IP protocol numbers the dissector chain recognizes.
const (
	ProtoICMP = 1
	ProtoTCP  = 6
	ProtoUDP  = 17
)

// TCPFlagSYN is the lone TCP flag bit the trigger engine cares about.
const TCPFlagSYN = 0x02

// EtherTypeIPv4 is the network-order ether_type value the Ethernet
// dissector descends into; any other value leaves Info's IP fields
// zeroed and callers must not forward the result past the dissector
// (spec.md §4.1: "Non-IPv4 frames are silently dropped from further
// processing").
const EtherTypeIPv4 = 0x0800

const (
	etherHeaderLen = 14
	minIPHeaderLen = 20
)

// Info is a transient per-packet descriptor populated by the dissector
// chain. It is stack-scoped for the duration of trigger evaluation and is
// retained only by value-copy inside a BanRecord.
type Info struct {
	Timestamp time.Time
	Len       int // total bytes on the wire
	Packets   int // always 1 for live capture; carried through for replay

	EtherType uint16

	Src     netip.Addr
	Dst     netip.Addr
	IPProto uint8

	SrcPort  uint16
	DstPort  uint16
	TCPFlags uint8

	NewFlow bool
}

// DissectEthernet parses frame as an Ethernet II frame. Only IPv4 payloads
// (ether_type 0x0800) are descended into; anything else returns with IP
// fields left zero. frame must include the full captured bytes; truncated
// frames are ignored.
func DissectEthernet(frame []byte, ts time.Time, length, count int) Info {
	info := Info{Timestamp: ts, Len: length, Packets: count}
	if len(frame) < etherHeaderLen {
		return info
	}

	info.EtherType = binary.BigEndian.Uint16(frame[12:14])
	if info.EtherType != EtherTypeIPv4 {
		return info
	}

	dissectIP(&info, frame[etherHeaderLen:])
	return info
}

func dissectIP(info *Info, b []byte) {
	if len(b) < minIPHeaderLen {
		return
	}

	ihl := int(b[0]&0x0f) * 4
	if ihl < minIPHeaderLen || len(b) < ihl {
		return
	}

	src, ok1 := netip.AddrFromSlice(b[12:16])
	dst, ok2 := netip.AddrFromSlice(b[16:20])
	if !ok1 || !ok2 {
		return
	}

	info.Src = src
	info.Dst = dst
	info.IPProto = b[9]

	rest := b[ihl:]
	switch info.IPProto {
	case ProtoTCP:
		dissectTCP(info, rest)
	case ProtoUDP:
		dissectUDP(info, rest)
	case ProtoICMP:
		dissectICMP(info, rest)
	default:
		// Unknown IP protocols still flow through to flow injection with
		// zero ports, handled by the caller.
	}
}

func dissectTCP(info *Info, b []byte) {
	if len(b) < 14 {
		return
	}
	info.SrcPort = binary.BigEndian.Uint16(b[0:2])
	info.DstPort = binary.BigEndian.Uint16(b[2:4])
	info.TCPFlags = b[13]
}

func dissectUDP(info *Info, b []byte) {
	if len(b) < 4 {
		return
	}
	info.SrcPort = binary.BigEndian.Uint16(b[0:2])
	info.DstPort = binary.BigEndian.Uint16(b[2:4])
}

func dissectICMP(info *Info, b []byte) {
	// Ports stay zero; flow injection keys on the 5-tuple with zeroed ports.
}
