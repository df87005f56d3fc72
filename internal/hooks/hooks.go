// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package hooks implements the named multicast dispatch points used for
// cross-cutting concerns: the IP-state table's post-update notification
// and the trigger engine's exemption veto. Subscribers register typed
// callbacks; dispatch order is registration order.
package hooks

import (
	"sync"

	"grimm.is/ddosentinel/internal/packet"
)

// TriggerFunc is invoked by the IP-state table after every packet update.
// rec is the opaque per-source-IP record; consumers type-assert it to the
// concrete type they expect (the trigger engine's *ipstate.Record).
type TriggerFunc func(info *packet.Info, rec any)

// ExemptFunc is invoked by the trigger engine once a trigger's thresholds
// are met. doTrigger starts true; any subscriber may clear it to veto the
// pending ban.
type ExemptFunc func(info *packet.Info, rec any, doTrigger *bool)

// Registry holds the two hook points the detection-and-reaction core
// publishes. Additional hooks defined by collaborators (e.g. IP-record
// expiry notification) are out of the core's scope and not modeled here.
type Registry struct {
	mu      sync.Mutex
	trigger []TriggerFunc
	exempt  []ExemptFunc
}

// New returns an empty hook registry.
func New() *Registry {
	return &Registry{}
}

// OnCheckTrigger registers a HOOK_CHECK_TRIGGER subscriber.
func (r *Registry) OnCheckTrigger(fn TriggerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trigger = append(r.trigger, fn)
}

// OnCheckExempt registers a HOOK_CHECK_EXEMPT subscriber.
func (r *Registry) OnCheckExempt(fn ExemptFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exempt = append(r.exempt, fn)
}

// CheckTrigger fires every registered TriggerFunc in registration order.
func (r *Registry) CheckTrigger(info *packet.Info, rec any) {
	r.mu.Lock()
	subs := append([]TriggerFunc(nil), r.trigger...)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(info, rec)
	}
}

// CheckExempt fires every registered ExemptFunc in registration order,
// threading a single mutable veto flag through all of them.
func (r *Registry) CheckExempt(info *packet.Info, rec any) bool {
	doTrigger := true

	r.mu.Lock()
	subs := append([]ExemptFunc(nil), r.exempt...)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(info, rec, &doTrigger)
	}
	return doTrigger
}
