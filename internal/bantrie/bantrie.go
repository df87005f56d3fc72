// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package bantrie wraps a longest-prefix-match IPv4 trie mapping /32 keys
// to active ban records. Only /32 insertions are used by the core; the
// underlying structure supports arbitrary prefix lengths for future CIDR
// extension.
package bantrie

import (
	"net/netip"
	"sync"

	"github.com/gaissmai/bart"
)

// Trie is a concurrency-safe wrapper around a bart.Table[any] specialized
// to hold ban-record pointers.
type Trie struct {
	mu sync.Mutex
	t  bart.Table[any]
}

// New returns an empty ban trie.
func New() *Trie {
	return &Trie{}
}

// Insert adds val at the /32 prefix derived from addr.
func (b *Trie) Insert(addr netip.Addr, val any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.t.Insert(netip.PrefixFrom(addr, addr.BitLen()), val)
}

// LookupExact returns the value at the exact /32 prefix for addr, and
// whether one exists. This is the dedup check used before a new ban is
// created.
func (b *Trie) LookupExact(addr netip.Addr) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.t.Get(netip.PrefixFrom(addr, addr.BitLen()))
}

// Remove deletes the exact /32 entry for addr, if present.
func (b *Trie) Remove(addr netip.Addr) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.t.Delete(netip.PrefixFrom(addr, addr.BitLen()))
}

// Len returns the number of entries currently in the trie.
func (b *Trie) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.t.Size()
}
