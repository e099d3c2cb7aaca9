package telemetry

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/bareos-community/dirjobq/id"
	"github.com/bareos-community/dirjobq/jcr"
)

func TestHookRecordsSubmittedAndAdmitted(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("dirjobq-test")

	h, err := New(meter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	j := jcr.New(id.NewJobID(), "nightly-backup", jcr.TypeBackup)
	ctx := context.Background()

	if err := h.OnSubmitted(ctx, j); err != nil {
		t.Fatalf("OnSubmitted: %v", err)
	}
	if err := h.OnAdmitted(ctx, j); err != nil {
		t.Fatalf("OnAdmitted: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
		}
	}

	for _, want := range []string{"dirjobq.job.submitted", "dirjobq.job.admitted"} {
		if !found[want] {
			t.Fatalf("expected metric %q to have been recorded, got %v", want, found)
		}
	}
}

func TestHookGaugeDeltas(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("dirjobq-test")

	h, err := New(meter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	h.SetNumWorkers(ctx, 1)
	h.SetQueueDepthDelta(ctx, "waiting", 3)
	h.SetResourceInUseDelta(ctx, "client", 1)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected at least one scope of metrics")
	}
}
