// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux

package main

import (
	"grimm.is/ddosentinel/internal/action"
	"grimm.is/ddosentinel/internal/action/nftaction"
)

// registerPlatformActions wires the nftables-backed action provider,
// available only on Linux where nftables exists. Failing to open an
// nftables connection (e.g. missing privileges, running in a container
// without NET_ADMIN) is logged and otherwise non-fatal: the daemon keeps
// running with whatever other action providers registered successfully.
func registerPlatformActions(reg *action.Registry) {
	p, err := nftaction.New("inet", "ddosentinel", "banned_v4")
	if err != nil {
		logger.Warn("nftaction unavailable, continuing without it", "err", err)
		return
	}
	p.Register(reg)
}
