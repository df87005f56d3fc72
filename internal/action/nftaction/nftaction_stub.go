// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux

package nftaction

import (
	"grimm.is/ddosentinel/internal/action"
	"grimm.is/ddosentinel/internal/errors"
)

// New is a stub on non-Linux systems; nftables set manipulation requires
// the Linux netlink interface.
func New(family, tableName, setName string) (*Provider, error) {
	return nil, errors.New(errors.KindUnavailable, "nftaction: nftables is only supported on Linux")
}

// Provider is an empty stub on non-Linux systems.
type Provider struct{}

// Register is a no-op stub on non-Linux systems.
func (p *Provider) Register(reg *action.Registry) {}
