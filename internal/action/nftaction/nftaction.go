// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux

// Package nftaction is an action provider that installs/revokes drop
// elements in an nftables set, the concrete firewall-rule collaborator
// for BAN/UNBAN transitions. A single "banned" IPv4 set is maintained in
// a caller-chosen table; the core never builds the rest of the
// ruleset, only the set membership.
package nftaction

import (
	"net"

	"github.com/google/nftables"

	"grimm.is/ddosentinel/internal/action"
	"grimm.is/ddosentinel/internal/errors"
	"grimm.is/ddosentinel/internal/ipstate"
	"grimm.is/ddosentinel/internal/logging"
	"grimm.is/ddosentinel/internal/packet"
)

// Name is the action name this provider registers under.
const Name = "nft"

var logger = logging.WithComponent("action.nft")

// Provider owns the nftables set that mirrors active ban records.
type Provider struct {
	conn  *nftables.Conn
	table *nftables.Table
	set   *nftables.Set
}

// New creates (or reuses) an IPv4 address set named setName in table/family,
// ready to receive ban elements. The caller is responsible for wiring a
// drop rule matching this set into its own ruleset; this provider only
// maintains set membership. family is one of "inet", "ip", "ip6", "bridge",
// "arp", or "netdev", matching nftables table-family names.
func New(family, tableName, setName string) (*Provider, error) {
	conn, err := nftables.New()
	if err != nil {
		return nil, errors.Wrap(err, errors.KindUnavailable, "nftaction: open nftables connection")
	}

	table := conn.AddTable(&nftables.Table{Name: tableName, Family: familyByName(family)})
	set := &nftables.Set{
		Table:   table,
		Name:    setName,
		KeyType: nftables.TypeIPAddr,
	}
	if err := conn.AddSet(set, nil); err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "nftaction: add set")
	}
	if err := conn.Flush(); err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "nftaction: flush set creation")
	}

	return &Provider{conn: conn, table: table, set: set}, nil
}

func familyByName(name string) nftables.TableFamily {
	switch name {
	case "ip":
		return nftables.TableFamilyIPv4
	case "ip6":
		return nftables.TableFamilyIPv6
	case "bridge":
		return nftables.TableFamilyBridge
	case "arp":
		return nftables.TableFamilyARP
	case "netdev":
		return nftables.TableFamilyNetdev
	default:
		return nftables.TableFamilyINet
	}
}

// Register installs p's callback into reg under Name.
func (p *Provider) Register(reg *action.Registry) {
	reg.Register(Name, p.callback, nil)
}

func (p *Provider) callback(kind action.Kind, dir action.Direction, info *packet.Info, rec action.Record, data any, iprec *ipstate.Record) {
	addr := info.Dst
	if dir == action.SRC {
		addr = info.Src
	}
	ip := net.ParseIP(addr.String()).To4()
	if ip == nil {
		return
	}

	elem := nftables.SetElement{Key: ip}

	switch kind {
	case action.BAN:
		if err := p.conn.SetAddElements(p.set, []nftables.SetElement{elem}); err != nil {
			logger.Error("add set element failed", "addr", addr.String(), "err", err)
			return
		}
	case action.UNBAN:
		if err := p.conn.SetDeleteElements(p.set, []nftables.SetElement{elem}); err != nil {
			logger.Error("delete set element failed", "addr", addr.String(), "err", err)
			return
		}
	}

	if err := p.conn.Flush(); err != nil {
		logger.Error("flush nftables set update failed", "addr", addr.String(), "err", err)
	}
}
