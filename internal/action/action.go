// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package action implements the process-wide action registry: a
// case-insensitive name -> callback mapping invoked by the trigger engine
// on BAN/UNBAN transitions. The registry is populated during module
// initialization and is effectively read-only thereafter.
package action

import (
	"strings"
	"sync"

	"grimm.is/ddosentinel/internal/ipstate"
	"grimm.is/ddosentinel/internal/packet"
)

// Kind is the mitigation transition an action callback observes.
type Kind int

const (
	// BAN fires once, when a ban record is created and inserted into the
	// trie, before the record is visible to any other path.
	BAN Kind = iota
	// UNBAN fires once, when the ban record's timer expires.
	UNBAN
)

func (k Kind) String() string {
	if k == BAN {
		return "BAN"
	}
	return "UNBAN"
}

// Direction mirrors the trigger's action_direction: which address the ban
// is keyed on.
type Direction int

const (
	DST Direction = iota
	SRC
)

func (d Direction) String() string {
	if d == SRC {
		return "SRC"
	}
	return "DST"
}

// Record exposes the read-only fields of a ban record available to action
// callbacks, per the ABI in spec.md §6.3. ID is additive beyond the spec's
// ABI: a stable correlation identifier so a log or metrics sink can join a
// BAN entry with its later UNBAN without re-deriving the /32 key.
type Record interface {
	ID() string
	Added() int64
	ExpiryTS() int64
}

// Func is the action callback ABI: (kind, direction, packet snapshot,
// read-only ban record, user data, IP-record snapshot taken at ban time).
type Func func(kind Kind, dir Direction, info *packet.Info, rec Record, data any, iprec *ipstate.Record)

type entry struct {
	name string
	fn   Func
	data any
}

// Registry is the process-wide name -> callback mapping.
type Registry struct {
	mu      sync.Mutex
	entries []entry
}

// New returns an empty action registry.
func New() *Registry {
	return &Registry{}
}

// Register appends a new action under name (case-insensitive). A later
// registration under the same name does not replace an earlier one:
// Find returns the first match, matching the source's append-and-scan
// semantics.
func (r *Registry) Register(name string, fn Func, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{name: strings.ToLower(name), fn: fn, data: data})
}

// Find returns the first registered action under name, or nil if none is
// registered. Matching is case-insensitive.
func (r *Registry) Find(name string) (Func, any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.ToLower(name)
	for _, e := range r.entries {
		if e.name == name {
			return e.fn, e.data, true
		}
	}
	return nil, nil, false
}
