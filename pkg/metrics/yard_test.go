package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestYardMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewYardMetrics(reg)

	m.IncApproval("approved")
	m.IncApproval("insufficient_capacity")
	m.IncTruckReceived()
	m.IncTruckReceived()
	m.IncShipmentReceived()
	m.IncSettlementFailure("manifest_settlement")
	m.IncCalendarSync("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "yardops_approvals_decisions_total", "outcome", "insufficient_capacity"); err != nil || got != 1 {
		t.Fatalf("expected one insufficient_capacity decision, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "yardops_receiving_settlement_failures_total", "step", "manifest_settlement"); err != nil || got != 1 {
		t.Fatalf("expected one manifest failure, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "yardops_calendar_syncs_total", "result", "unknown"); err != nil || got != 1 {
		t.Fatalf("empty label should normalise to unknown, got %f (%v)", got, err)
	}

	trucks := findMetricFamily(mfs, "yardops_receiving_trucks_received_total")
	if trucks == nil || trucks.GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Fatalf("expected two trucks received")
	}
}

func TestNilYardMetricsIsNoop(t *testing.T) {
	var m *YardMetrics
	m.IncApproval("approved")
	m.IncTruckReceived()
	m.IncShipmentReceived()
	m.IncSettlementFailure("truck_received")
	m.IncCalendarSync("synced")

	empty := NewYardMetrics(nil)
	empty.IncTruckReceived()
}
