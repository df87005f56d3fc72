// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux

package main

import "grimm.is/ddosentinel/internal/action"

// registerPlatformActions is a no-op off Linux: nftables is a Linux-only
// kernel facility.
func registerPlatformActions(reg *action.Registry) {}
