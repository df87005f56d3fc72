// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metricsaction is an action provider that exposes Prometheus
// counters/gauges for mitigation transitions, letting the detection core
// be scraped the same way the rest of the fleet is scraped.
package metricsaction

import (
	"github.com/prometheus/client_golang/prometheus"

	"grimm.is/ddosentinel/internal/action"
	"grimm.is/ddosentinel/internal/ipstate"
	"grimm.is/ddosentinel/internal/packet"
)

// Name is the action name this provider registers under.
const Name = "metrics"

var (
	transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ddosentinel",
		Subsystem: "trigger",
		Name:      "mitigation_transitions_total",
		Help:      "Count of BAN/UNBAN transitions observed by the trigger engine.",
	}, []string{"kind", "direction", "protocol"})

	activeBans = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ddosentinel",
		Subsystem: "trigger",
		Name:      "active_bans",
		Help:      "Current number of active ban records.",
	})
)

func init() {
	prometheus.MustRegister(transitions, activeBans)
}

// Register installs the metrics action into reg.
func Register(reg *action.Registry) {
	reg.Register(Name, callback, nil)
}

func callback(kind action.Kind, dir action.Direction, info *packet.Info, rec action.Record, data any, iprec *ipstate.Record) {
	transitions.WithLabelValues(kind.String(), dir.String(), protoName(info.IPProto)).Inc()

	switch kind {
	case action.BAN:
		activeBans.Inc()
	case action.UNBAN:
		activeBans.Dec()
	}
}

func protoName(p uint8) string {
	switch p {
	case packet.ProtoTCP:
		return "tcp"
	case packet.ProtoUDP:
		return "udp"
	case packet.ProtoICMP:
		return "icmp"
	default:
		return "other"
	}
}
