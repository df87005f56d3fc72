// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package source implements the packet-source contract described in
// spec.md §6.2: delivery of raw Ethernet frames with a captured length,
// timestamp, and opaque per-packet handle, returning an ACCEPT/DROP
// verdict. The core always returns ACCEPT; it is detect-and-signal only.
package source

import (
	"time"

	"grimm.is/ddosentinel/internal/packet"
)

// Verdict is the disposition returned for a processed packet. The core
// never computes anything other than Accept; blocking is delegated to an
// action installing external firewall rules.
type Verdict int

const (
	Accept Verdict = iota
	Drop
)

// Frame is one raw Ethernet frame delivered by the kernel queue, paired
// with the metadata the dissector chain needs.
type Frame struct {
	Payload   []byte
	Length    int
	Timestamp time.Time
	ID        uint32 // opaque per-packet handle used to return a verdict
}

// Pipeline is the per-packet processing the source hands frames to: parse
// into packet.Info and drive it through the flow cache / IP-state table /
// trigger engine chain.
type Pipeline func(info packet.Info)

// NFLogEntry mirrors the fields a frame carries once inside the pipeline,
// for sources (and tests) that want to construct synthetic entries
// without a live kernel queue.
type NFLogEntry struct {
	Frame
}
