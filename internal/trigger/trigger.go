// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package trigger implements the linear condition-trigger evaluator and
// the ban-record lifecycle state machine: the heart of the
// detection-and-reaction core. It owns the ban trie and arms/fires the
// one-shot expiry timers that transition a /32 key from BANNED back to
// CLEAR.
package trigger

import (
	"math"
	"net/netip"
	"sync"
	"time"

	"github.com/google/uuid"

	"grimm.is/ddosentinel/internal/action"
	"grimm.is/ddosentinel/internal/bantrie"
	"grimm.is/ddosentinel/internal/clock"
	"grimm.is/ddosentinel/internal/hooks"
	"grimm.is/ddosentinel/internal/ipstate"
	"grimm.is/ddosentinel/internal/packet"
)

// Trigger is a compiled condition rule: target IP protocol, optional
// thresholds, direction, and an ordered list of action references.
// Immutable once constructed.
type Trigger struct {
	Protocol      uint8
	TCPSynOnly    bool
	TargetPPS     uint64
	TargetMbps    uint64
	TargetFlowCnt uint32
	BelowMbps     uint64
	Expiry        time.Duration // zero means "use the engine default"
	Direction     action.Direction
	Actions       []boundAction
}

type boundAction struct {
	name string
	fn   action.Func
	data any
}

// Record is a read-only view of an active ban, satisfying action.Record.
type Record struct {
	id      string
	trigger *Trigger
	info    packet.Info
	// iprec is a value-copy (ipstate.Record.Snapshot) taken at ban time,
	// not a pointer into the live, still-mutating table entry.
	iprec    *ipstate.Record
	added    time.Time
	expiryTS time.Time
	timer    *time.Timer
}

// ID returns the ban record's correlation identifier, stable across its
// BAN and UNBAN callbacks.
func (r *Record) ID() string { return r.id }

// Added returns the ban's creation time as a Unix timestamp.
func (r *Record) Added() int64 { return r.added.Unix() }

// ExpiryTS returns the ban's scheduled expiry time as a Unix timestamp.
func (r *Record) ExpiryTS() int64 { return r.expiryTS.Unix() }

// Engine evaluates triggers per IP protocol and owns the ban trie and its
// lifecycle. Triggers are grouped by target IP protocol and evaluated in
// insertion-reversed order (most recently configured first), matching the
// source's head-insertion linked list.
type Engine struct {
	mu       sync.Mutex
	triggers map[uint8][]*Trigger

	defaultExpiry time.Duration
	trie          *bantrie.Trie
	hooks         *hooks.Registry
	clock         clock.Clock

	scheduleFunc func(d time.Duration, fn func()) *time.Timer
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithClock overrides the engine's clock, for deterministic tests of ban
// expiry timing.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithScheduler overrides how the engine arms one-shot expiry timers,
// letting tests observe/trigger expiry deterministically instead of
// waiting on a real time.Timer.
func WithScheduler(fn func(d time.Duration, cb func()) *time.Timer) Option {
	return func(e *Engine) { e.scheduleFunc = fn }
}

// New returns an Engine with the given default expiry, ban trie, and hook
// registry.
func New(defaultExpiry time.Duration, trie *bantrie.Trie, reg *hooks.Registry, opts ...Option) *Engine {
	e := &Engine{
		triggers:      make(map[uint8][]*Trigger),
		defaultExpiry: defaultExpiry,
		trie:          trie,
		hooks:         reg,
		clock:         clock.Real{},
	}
	e.scheduleFunc = func(d time.Duration, cb func()) *time.Timer {
		return time.AfterFunc(d, cb)
	}
	for _, opt := range opts {
		opt(e)
	}

	reg.OnCheckTrigger(e.checkTrigger)
	return e
}

// Compile registers t under its target protocol, inserted at the head of
// that protocol's list (most recently compiled evaluates first).
func (e *Engine) Compile(t *Trigger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.triggers[t.Protocol] = append([]*Trigger{t}, e.triggers[t.Protocol]...)
}

// checkTrigger is registered as the HOOK_CHECK_TRIGGER subscriber.
func (e *Engine) checkTrigger(info *packet.Info, rec any) {
	iprec, ok := rec.(*ipstate.Record)
	if !ok {
		return
	}

	flow := iprec.LookupFlowData(info.IPProto)
	if flow == nil {
		return
	}

	mbps := uint64(math.Floor(flow.Flow() / 1_000_000))
	pps := uint64(flow.PPS())

	e.mu.Lock()
	triggers := append([]*Trigger(nil), e.triggers[info.IPProto]...)
	e.mu.Unlock()

	for _, t := range triggers {
		fire := evaluate(t, info, flow, mbps, pps)

		if fire {
			fire = e.hooks.CheckExempt(info, iprec)
		}

		if fire {
			e.ban(t, info, iprec)
		}
	}
}

// evaluate applies the ordered rule set from spec.md §4.6.1. Later rules
// override earlier ones; this includes the target_mbps hysteresis
// preserved verbatim from the source (see Q1 in the design ledger).
func evaluate(t *Trigger, info *packet.Info, flow *ipstate.FlowData, mbps, pps uint64) bool {
	fire := false

	if t.TargetPPS > 0 && pps > t.TargetPPS {
		fire = true
	}
	if t.TargetMbps > 0 && mbps > t.TargetMbps {
		fire = true
	}
	if t.TargetMbps > 0 && mbps < t.TargetMbps {
		fire = false
	}
	if t.BelowMbps > 0 && mbps > t.BelowMbps {
		fire = false
	}
	if t.TCPSynOnly && info.TCPFlags != packet.TCPFlagSYN {
		fire = false
	}
	if t.TargetFlowCnt > 0 && uint32(flow.Count()) < t.TargetFlowCnt {
		fire = false
	}

	return fire
}

func (e *Engine) keyFor(t *Trigger, info *packet.Info) netip.Addr {
	if t.Direction == action.SRC {
		return info.Src
	}
	return info.Dst
}

// ban implements the BAN side of the lifecycle. If a ban already exists
// for the derived /32 key, this is a silent dedup no-op.
func (e *Engine) ban(t *Trigger, info *packet.Info, iprec *ipstate.Record) *Record {
	key := e.keyFor(t, info)

	if _, exists := e.trie.LookupExact(key); exists {
		return nil
	}

	now := e.clock.Now()
	expiry := t.Expiry
	if expiry == 0 {
		expiry = e.defaultExpiry
	}

	rec := &Record{
		id: uuid.NewString(),
		// info and iprec are value-copies taken at ban time (spec.md §3);
		// iprec.Snapshot() freezes the per-protocol rate estimates so a
		// later UNBAN action observes the state that triggered the ban,
		// not whatever the live, still-mutating ipstate.Record has
		// accumulated by the time the timer fires.
		trigger:  t,
		info:     *info,
		iprec:    iprec.Snapshot(),
		added:    now,
		expiryTS: now.Add(expiry),
	}

	e.trie.Insert(key, rec)

	for _, a := range t.Actions {
		a.fn(action.BAN, t.Direction, info, rec, a.data, rec.iprec)
	}

	rec.timer = e.scheduleFunc(expiry, func() { e.expire(rec) })

	return rec
}

// expire implements the UNBAN side of the lifecycle: fire UNBAN actions,
// then remove the trie entry, deriving the key from the trigger direction
// and the stored packet snapshot, not any live packet.
func (e *Engine) expire(rec *Record) {
	for _, a := range rec.trigger.Actions {
		a.fn(action.UNBAN, rec.trigger.Direction, &rec.info, rec, a.data, rec.iprec)
	}

	key := e.keyFor(rec.trigger, &rec.info)
	e.trie.Remove(key)
}

// BindActions resolves a trigger's action names against reg, skipping
// unknown names silently per spec.md §6.1/§7.
func BindActions(t *Trigger, names []string, reg *action.Registry) {
	for _, name := range names {
		fn, data, ok := reg.Find(name)
		if !ok {
			continue
		}
		t.Actions = append(t.Actions, boundAction{name: name, fn: fn, data: data})
	}
}
