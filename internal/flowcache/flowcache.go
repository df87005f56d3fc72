// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package flowcache deduplicates and aggregates traffic into per-5-tuple
// flow records, keyed on (destination IP, source IP, source port,
// destination port, IP protocol).
package flowcache

import (
	"net/netip"
	"sync"

	"grimm.is/ddosentinel/internal/packet"
)

// Record is one entry per (dst-host, src-host, src-port, dst-port,
// protocol). Injected becomes true once the record has been accounted into
// IP-state; a flow cache emits new_flow exactly when Injected was false at
// entry.
type Record struct {
	Bytes    uint64
	Packets  uint64
	Injected bool
}

type key struct {
	dst   netip.Addr
	src   netip.Addr
	sport uint16
	dport uint16
	proto uint8
}

// Cache is an index of active flows: a single map keyed on the full
// 5-tuple (dst, src, src port, dst port, protocol), so two packets share
// a record exactly when all five fields are equal.
type Cache struct {
	mu      sync.Mutex
	records map[key]*Record
}

// New returns an empty flow cache.
func New() *Cache {
	return &Cache{records: make(map[key]*Record)}
}

func keyOf(info *packet.Info) key {
	return key{
		dst:   info.Dst,
		src:   info.Src,
		sport: info.SrcPort,
		dport: info.DstPort,
		proto: info.IPProto,
	}
}

// LookupOrInsert returns the existing record matching info's 5-tuple, or
// creates one.
func (c *Cache) LookupOrInsert(info *packet.Info) *Record {
	k := keyOf(info)

	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[k]
	if !ok {
		rec = &Record{}
		c.records[k] = rec
	}
	return rec
}

// Injector is the downstream consumer that receives flow updates after
// injection, i.e. the IP-state table's Update method.
type Injector interface {
	Update(info *packet.Info)
}

// Inject looks up or creates the matching flow record, accumulates bytes
// and packets, sets info.NewFlow, forwards info to next, then marks the
// record injected. NewFlow is true for exactly the first Inject of each
// flow record's life.
func (c *Cache) Inject(info *packet.Info, next Injector) {
	rec := c.LookupOrInsert(info)

	c.mu.Lock()
	rec.Bytes += uint64(info.Len)
	if info.Packets > 0 {
		rec.Packets += uint64(info.Packets)
	} else {
		rec.Packets++
	}
	info.NewFlow = !rec.Injected
	c.mu.Unlock()

	next.Update(info)

	c.mu.Lock()
	rec.Injected = true
	c.mu.Unlock()
}
