package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// YardMetrics counts the operator actions that move capacity and shipments.
// A nil *YardMetrics is valid and records nothing.
type YardMetrics struct {
	approvals          *prometheus.CounterVec
	trucksReceived     prometheus.Counter
	shipmentsReceived  prometheus.Counter
	settlementFailures *prometheus.CounterVec
	calendarSyncs      *prometheus.CounterVec
}

// NewYardMetrics registers the yard counters on the provided registerer.
func NewYardMetrics(reg prometheus.Registerer) *YardMetrics {
	if reg == nil {
		return &YardMetrics{}
	}
	m := &YardMetrics{
		approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "approvals",
			Name:      "decisions_total",
			Help:      "Storage request decisions by outcome.",
		}, []string{"outcome"}),
		trucksReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "receiving",
			Name:      "trucks_received_total",
			Help:      "Trucks transitioned to RECEIVED.",
		}),
		shipmentsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "receiving",
			Name:      "shipments_received_total",
			Help:      "Shipments transitioned to RECEIVED (one notification each).",
		}),
		settlementFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "receiving",
			Name:      "settlement_failures_total",
			Help:      "Settlement failures by step.",
		}, []string{"step"}),
		calendarSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calendar",
			Name:      "syncs_total",
			Help:      "Calendar reconciliation attempts by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.approvals, m.trucksReceived, m.shipmentsReceived, m.settlementFailures, m.calendarSyncs)
	return m
}

// IncApproval records an approval workflow outcome
// (approved, rejected, insufficient_capacity).
func (m *YardMetrics) IncApproval(outcome string) {
	if m == nil || m.approvals == nil {
		return
	}
	m.approvals.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *YardMetrics) IncTruckReceived() {
	if m == nil || m.trucksReceived == nil {
		return
	}
	m.trucksReceived.Inc()
}

func (m *YardMetrics) IncShipmentReceived() {
	if m == nil || m.shipmentsReceived == nil {
		return
	}
	m.shipmentsReceived.Inc()
}

func (m *YardMetrics) IncSettlementFailure(step string) {
	if m == nil || m.settlementFailures == nil {
		return
	}
	m.settlementFailures.WithLabelValues(normalizeLabel(step)).Inc()
}

func (m *YardMetrics) IncCalendarSync(result string) {
	if m == nil || m.calendarSyncs == nil {
		return
	}
	m.calendarSyncs.WithLabelValues(normalizeLabel(result)).Inc()
}
