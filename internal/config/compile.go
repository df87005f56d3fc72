// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"strings"
	"time"

	"grimm.is/ddosentinel/internal/action"
	"grimm.is/ddosentinel/internal/errors"
	"grimm.is/ddosentinel/internal/packet"
	"grimm.is/ddosentinel/internal/trigger"
)

// Compile builds and registers one trigger.Trigger per trigger block in
// cfg against eng, resolving action names against reg. Unknown action
// names are silently skipped by trigger.BindActions per spec.md §6.1/§7.
// Blocks are compiled in file order; Engine.Compile prepends, so the
// engine ends up evaluating triggers in insertion-reversed (most recently
// configured first) order per spec.md I4.
func Compile(cfg *Config, eng *trigger.Engine, reg *action.Registry) error {
	for i, tc := range cfg.Triggers {
		t, err := compileTrigger(tc)
		if err != nil {
			return errors.Wrapf(err, errors.KindValidation, "config: trigger block %d", i)
		}
		trigger.BindActions(t, tc.Actions, reg)
		eng.Compile(t)
	}
	return nil
}

func compileTrigger(tc TriggerConfig) (*trigger.Trigger, error) {
	proto, synOnly, err := protocolByName(tc.Protocol)
	if err != nil {
		return nil, err
	}

	dir, err := directionByName(tc.ActionDirection)
	if err != nil {
		return nil, err
	}

	t := &trigger.Trigger{
		Protocol:   proto,
		TCPSynOnly: synOnly,
		Direction:  dir,
	}
	if tc.TargetPPS != nil {
		t.TargetPPS = *tc.TargetPPS
	}
	if tc.TargetMbps != nil {
		t.TargetMbps = *tc.TargetMbps
	}
	if tc.FlowCount != nil {
		t.TargetFlowCnt = *tc.FlowCount
	}
	if tc.BelowMbps != nil {
		t.BelowMbps = *tc.BelowMbps
	}
	if tc.Expiry != nil {
		t.Expiry = time.Duration(*tc.Expiry) * time.Second
	}

	return t, nil
}

// protocolByName maps the case-insensitive protocol keyword to an IP
// protocol number and the tcp-syn pseudo-protocol flag. tcp and tcp-syn
// both map to IPPROTO_TCP, disambiguated only by the flag, matching the
// original's reuse of trigger_t.protocol for both (see SPEC_FULL.md
// SUPPLEMENTED FEATURES).
func protocolByName(name string) (proto uint8, synOnly bool, err error) {
	switch strings.ToLower(name) {
	case "tcp":
		return packet.ProtoTCP, false, nil
	case "tcp-syn":
		return packet.ProtoTCP, true, nil
	case "udp":
		return packet.ProtoUDP, false, nil
	case "icmp":
		return packet.ProtoICMP, false, nil
	default:
		return 0, false, errors.Errorf(errors.KindValidation, "config: unknown trigger protocol %q", name)
	}
}

// directionByName maps the case-insensitive action_direction keyword,
// defaulting to destination per spec.md §6.1.
func directionByName(name *string) (action.Direction, error) {
	if name == nil {
		return action.DST, nil
	}
	switch strings.ToLower(*name) {
	case "", "destination":
		return action.DST, nil
	case "source":
		return action.SRC, nil
	default:
		return action.DST, errors.Errorf(errors.KindValidation, "config: unknown action_direction %q", *name)
	}
}
