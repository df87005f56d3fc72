// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logaction is an action provider that logs every BAN/UNBAN
// transition through a component-scoped structured logger. It is the
// simplest concrete collaborator for internal/action's registry and the
// one every example configuration attaches by default.
package logaction

import (
	"grimm.is/ddosentinel/internal/action"
	"grimm.is/ddosentinel/internal/ipstate"
	"grimm.is/ddosentinel/internal/logging"
	"grimm.is/ddosentinel/internal/packet"
)

var logger = logging.WithComponent("action.log")

// Name is the action name this provider registers under.
const Name = "log"

// Register installs the log action into reg.
func Register(reg *action.Registry) {
	reg.Register(Name, callback, nil)
}

func callback(kind action.Kind, dir action.Direction, info *packet.Info, rec action.Record, data any, iprec *ipstate.Record) {
	logger.Info("mitigation transition",
		"ban_id", rec.ID(),
		"kind", kind.String(),
		"direction", dir.String(),
		"src", info.Src.String(),
		"dst", info.Dst.String(),
		"proto", info.IPProto,
		"added", rec.Added(),
		"expiry_ts", rec.ExpiryTS(),
	)
}
