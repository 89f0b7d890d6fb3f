package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsFranchiseLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("franchise_id", "123"),
		attribute.String("granularity", "monthly"),
		attribute.Bool("compliant", true),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "franchise_id" {
			t.Fatalf("expected franchise_id to be dropped")
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordEvaluation(context.Background(), "monthly", true)
	m.RecordOrderDecision(context.Background(), "rejected")
	m.RecordEntryFeeDenied(context.Background(), "unpaid")
	m.RecordObligationDerived(context.Background(), "commission", true)
}

func TestNewRegistersInstruments(t *testing.T) {
	m, err := New(Config{ServiceName: "test"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordEvaluation(context.Background(), "quarterly", false)
}
