// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package trigger

import (
	"net/netip"
	"sync"
	"testing"
	"time"

	"grimm.is/ddosentinel/internal/action"
	"grimm.is/ddosentinel/internal/bantrie"
	"grimm.is/ddosentinel/internal/clock"
	"grimm.is/ddosentinel/internal/hooks"
	"grimm.is/ddosentinel/internal/ipstate"
	"grimm.is/ddosentinel/internal/packet"
)

type recorder struct {
	mu    sync.Mutex
	calls []action.Kind
}

func (r *recorder) callback(kind action.Kind, dir action.Direction, info *packet.Info, rec action.Record, data any, iprec *ipstate.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, kind)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// manualScheduler lets tests fire expiry deterministically instead of
// waiting on a real timer.
type manualScheduler struct {
	mu  sync.Mutex
	cbs []func()
}

func (s *manualScheduler) schedule(d time.Duration, cb func()) *time.Timer {
	s.mu.Lock()
	s.cbs = append(s.cbs, cb)
	s.mu.Unlock()
	return nil
}

func (s *manualScheduler) fireAll() {
	s.mu.Lock()
	cbs := append([]func(){}, s.cbs...)
	s.cbs = nil
	s.mu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}

func setup(t *testing.T) (*Engine, *hooks.Registry, *ipstate.Table, *manualScheduler, *clock.Mock) {
	t.Helper()
	reg := hooks.New()
	mc := clock.NewMock(time.Unix(1000, 0))
	sched := &manualScheduler{}
	engine := New(10*time.Second, bantrie.New(), reg, WithClock(mc), WithScheduler(sched.schedule))
	table := ipstate.New(reg)
	return engine, reg, table, sched, mc
}

func feedUDP(table *ipstate.Table, src, dst netip.Addr, n int, ts time.Time) {
	for i := 0; i < n; i++ {
		table.Update(&packet.Info{
			Src: src, Dst: dst, IPProto: packet.ProtoUDP,
			Len: 64, Packets: 1, Timestamp: ts, NewFlow: i == 0,
		})
	}
}

func TestScenario1_ThresholdCrossDST(t *testing.T) {
	engine, _, table, sched, _ := setup(t)
	rec := &recorder{}

	trg := &Trigger{Protocol: packet.ProtoUDP, TargetPPS: 1000, Direction: action.DST}
	BindActions(trg, []string{"log"}, mustRegistry(rec))
	engine.Compile(trg)

	src := netip.MustParseAddr("10.0.0.2")
	dst := netip.MustParseAddr("10.0.0.1")
	feedUDP(table, src, dst, 1001, time.Now())

	if rec.count() != 1 {
		t.Fatalf("expected exactly one BAN callback, got %d", rec.count())
	}

	sched.fireAll()
	if rec.count() != 2 {
		t.Fatalf("expected BAN+UNBAN after expiry fires, got %d", rec.count())
	}
}

func TestScenario2_Deduplication(t *testing.T) {
	engine, _, table, sched, _ := setup(t)
	rec := &recorder{}

	trg := &Trigger{Protocol: packet.ProtoUDP, TargetPPS: 1000, Direction: action.DST}
	BindActions(trg, []string{"log"}, mustRegistry(rec))
	engine.Compile(trg)

	src := netip.MustParseAddr("10.0.0.2")
	dst := netip.MustParseAddr("10.0.0.1")
	feedUDP(table, src, dst, 1001, time.Now())
	if rec.count() != 1 {
		t.Fatalf("expected one BAN, got %d", rec.count())
	}

	feedUDP(table, src, dst, 1001, time.Now())
	if rec.count() != 1 {
		t.Fatalf("expected no additional BAN before expiry, got %d", rec.count())
	}

	sched.fireAll()
	if rec.count() != 2 {
		t.Fatalf("expected UNBAN after expiry, got %d", rec.count())
	}
}

func TestScenario3_SYNOnlyFilter(t *testing.T) {
	engine, reg, _, _, _ := setup(t)
	table := ipstate.New(reg)
	rec := &recorder{}

	trg := &Trigger{Protocol: packet.ProtoTCP, TCPSynOnly: true, TargetPPS: 100, Direction: action.DST}
	BindActions(trg, []string{"log"}, mustRegistry(rec))
	engine.Compile(trg)

	src := netip.MustParseAddr("10.0.0.3")
	dst := netip.MustParseAddr("10.0.0.1")
	for i := 0; i < 200; i++ {
		table.Update(&packet.Info{Src: src, Dst: dst, IPProto: packet.ProtoTCP, TCPFlags: 0x10, Len: 64, Packets: 1, NewFlow: i == 0})
	}
	if rec.count() != 0 {
		t.Fatalf("expected zero BANs for ACK-only traffic, got %d", rec.count())
	}

	for i := 0; i < 200; i++ {
		table.Update(&packet.Info{Src: src, Dst: dst, IPProto: packet.ProtoTCP, TCPFlags: packet.TCPFlagSYN, Len: 64, Packets: 1})
	}
	if rec.count() != 1 {
		t.Fatalf("expected one BAN for SYN traffic, got %d", rec.count())
	}
}

func TestScenario4_ExemptionHook(t *testing.T) {
	engine, reg, table, _, _ := setup(t)
	rec := &recorder{}

	reg.OnCheckExempt(func(info *packet.Info, iprec any, doTrigger *bool) {
		if info.Src.String() == "10.0.0.9" {
			*doTrigger = false
		}
	})

	trg := &Trigger{Protocol: packet.ProtoUDP, TargetPPS: 10, Direction: action.DST}
	BindActions(trg, []string{"log"}, mustRegistry(rec))
	engine.Compile(trg)

	src := netip.MustParseAddr("10.0.0.9")
	dst := netip.MustParseAddr("10.0.0.1")
	feedUDP(table, src, dst, 20, time.Now())

	if rec.count() != 0 {
		t.Fatalf("expected exemption to suppress the ban, got %d calls", rec.count())
	}
}

func TestScenario5_SRCDirection(t *testing.T) {
	engine, _, table, _, _ := setup(t)
	rec := &recorder{}

	trg := &Trigger{Protocol: packet.ProtoICMP, TargetPPS: 50, Direction: action.SRC}
	BindActions(trg, []string{"log"}, mustRegistry(rec))
	engine.Compile(trg)

	src := netip.MustParseAddr("10.0.0.7")
	for i := 0; i < 51; i++ {
		dst := netip.MustParseAddr("10.0.0.100")
		table.Update(&packet.Info{Src: src, Dst: dst, IPProto: packet.ProtoICMP, Len: 64, Packets: 1, NewFlow: i == 0})
	}

	if rec.count() != 1 {
		t.Fatalf("expected one BAN keyed on source, got %d", rec.count())
	}
}

func TestScenario6_UnknownActionNameSkipped(t *testing.T) {
	rec := &recorder{}
	reg := mustRegistry(rec)

	trg := &Trigger{Protocol: packet.ProtoUDP, TargetPPS: 1, Direction: action.DST}
	BindActions(trg, []string{"nonexistent", "log"}, reg)

	if len(trg.Actions) != 1 {
		t.Fatalf("expected only the known action to be bound, got %d", len(trg.Actions))
	}
}

func TestBelowMbpsHysteresis(t *testing.T) {
	engine, _, table, _, _ := setup(t)
	rec := &recorder{}

	trg := &Trigger{Protocol: packet.ProtoUDP, TargetPPS: 1, BelowMbps: 1, Direction: action.DST}
	BindActions(trg, []string{"log"}, mustRegistry(rec))
	engine.Compile(trg)

	src := netip.MustParseAddr("10.0.0.4")
	dst := netip.MustParseAddr("10.0.0.1")
	// Large packets pushing mbps well above the below_mbps ceiling, which
	// per spec.md §4.6.1/§9 suppresses the ban even though pps clears its
	// own target (the below_mbps suppressor, see P5).
	for i := 0; i < 5; i++ {
		table.Update(&packet.Info{Src: src, Dst: dst, IPProto: packet.ProtoUDP, Len: 2_000_000, Packets: 1, NewFlow: i == 0})
	}

	if rec.count() != 0 {
		t.Fatalf("expected below_mbps to suppress the ban, got %d", rec.count())
	}
}

func mustRegistry(rec *recorder) *action.Registry {
	reg := action.New()
	reg.Register("log", rec.callback, nil)
	return reg
}
