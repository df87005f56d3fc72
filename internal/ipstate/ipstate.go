// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ipstate maintains per-source-IP, per-protocol traffic rates and
// publishes the HOOK_CHECK_TRIGGER notification consumed by the trigger
// engine.
package ipstate

import (
	"net/netip"
	"sync"
	"time"

	"grimm.is/ddosentinel/internal/hooks"
	"grimm.is/ddosentinel/internal/packet"
)

// window is the length of the rate estimator's fixed accumulation window. No
// original rate-estimator source was retrieved (ipstate.c was not part of
// the corpus); this is a standard windowed-average implementation chosen
// to satisfy the unit contract in spec.md §4.3/§9 (flow in bits/sec,
// compared with plain > / <, not >= / <=).
const window = 1 * time.Second

// FlowData is the current rate estimate for one (source IP, protocol)
// pair: a fixed-window accumulator that resets once `window` has elapsed
// since the window began.
type FlowData struct {
	mu sync.Mutex

	windowStart   time.Time
	windowBytes   uint64
	windowPackets uint64

	flowBits float64 // bits/sec-equivalent estimate
	pps      float64
	count    uint32 // distinct flow count
}

// Flow returns the current bits/sec-equivalent rate estimate.
func (f *FlowData) Flow() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flowBits
}

// PPS returns the current packets/sec estimate.
func (f *FlowData) PPS() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pps
}

// Count returns the distinct flow count observed for this protocol slot.
func (f *FlowData) Count() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func (f *FlowData) update(now time.Time, lenBytes int, pkts int, newFlow bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.windowStart.IsZero() || now.Sub(f.windowStart) >= window {
		f.windowStart = now
		f.windowBytes = 0
		f.windowPackets = 0
	}

	f.windowBytes += uint64(lenBytes)
	f.windowPackets += uint64(pkts)

	elapsed := now.Sub(f.windowStart).Seconds()
	if elapsed < 0.001 {
		elapsed = 0.001
	}

	f.flowBits = float64(f.windowBytes*8) / elapsed
	f.pps = float64(f.windowPackets) / elapsed

	if newFlow {
		f.count++
	}
}

// Record is aggregated per-source-IP state, partitioned by IP protocol.
type Record struct {
	mu    sync.Mutex
	flows map[uint8]*FlowData
}

func newRecord() *Record {
	return &Record{flows: make(map[uint8]*FlowData)}
}

// LookupFlowData returns the FlowData slot for proto, or nil if it has
// never been populated.
func (r *Record) LookupFlowData(proto uint8) *FlowData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flows[proto]
}

// snapshot returns a frozen, independently-mutexed copy of f's current
// rate-estimate values. Used to take a value-copy of a FlowData at ban
// time so a later reader never observes traffic accounted after that
// moment.
func (f *FlowData) snapshot() *FlowData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &FlowData{
		windowStart:   f.windowStart,
		windowBytes:   f.windowBytes,
		windowPackets: f.windowPackets,
		flowBits:      f.flowBits,
		pps:           f.pps,
		count:         f.count,
	}
}

// Snapshot returns a value-copy of r: a Record whose FlowData slots are
// frozen at the values observed at call time and never mutated again.
// Used by the trigger engine to populate BanRecord.IPRecord per spec.md
// §3 ("copies of the PacketInfo and IPRecord that triggered it") instead
// of retaining a pointer into the live, still-mutating table entry.
func (r *Record) Snapshot() *Record {
	r.mu.Lock()
	protos := make([]uint8, 0, len(r.flows))
	flows := make([]*FlowData, 0, len(r.flows))
	for proto, fd := range r.flows {
		protos = append(protos, proto)
		flows = append(flows, fd)
	}
	r.mu.Unlock()

	out := newRecord()
	for i, proto := range protos {
		out.flows[proto] = flows[i].snapshot()
	}
	return out
}

func (r *Record) flowDataFor(proto uint8) *FlowData {
	r.mu.Lock()
	defer r.mu.Unlock()

	fd, ok := r.flows[proto]
	if !ok {
		fd = &FlowData{}
		r.flows[proto] = fd
	}
	return fd
}

// Table maps source IP to its aggregated Record.
type Table struct {
	mu      sync.Mutex
	records map[netip.Addr]*Record
	hooks   *hooks.Registry
}

// New returns an empty IP-state table publishing HOOK_CHECK_TRIGGER
// notifications through reg.
func New(reg *hooks.Registry) *Table {
	return &Table{records: make(map[netip.Addr]*Record), hooks: reg}
}

// Lookup returns the Record for src, or nil if the source IP has never
// been observed.
func (t *Table) Lookup(src netip.Addr) *Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records[src]
}

func (t *Table) recordFor(src netip.Addr) *Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[src]
	if !ok {
		rec = newRecord()
		t.records[src] = rec
	}
	return rec
}

// Update locates (creating if absent) the Record for info.Src, rolls its
// per-protocol FlowData forward, and emits HOOK_CHECK_TRIGGER.
func (t *Table) Update(info *packet.Info) {
	rec := t.recordFor(info.Src)
	fd := rec.flowDataFor(info.IPProto)

	ts := info.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	fd.update(ts, info.Len, info.Packets, info.NewFlow)

	if t.hooks != nil {
		t.hooks.CheckTrigger(info, rec)
	}
}
