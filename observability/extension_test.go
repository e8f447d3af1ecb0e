package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/reconcile"
	"github.com/xraph/feeledger/types"
)

type fakeCounter struct{ value float64 }

func (c *fakeCounter) Inc()          { c.value++ }
func (c *fakeCounter) Add(v float64) { c.value += v }

type fakeHistogram struct{ values []float64 }

func (h *fakeHistogram) Observe(v float64) { h.values = append(h.values, v) }

type fakeFactory struct {
	counters   map[string]*fakeCounter
	histograms map[string]*fakeHistogram
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		counters:   make(map[string]*fakeCounter),
		histograms: make(map[string]*fakeHistogram),
	}
}

func (f *fakeFactory) Counter(name string) Counter {
	c, ok := f.counters[name]
	if !ok {
		c = &fakeCounter{}
		f.counters[name] = c
	}
	return c
}

func (f *fakeFactory) Histogram(name string) Histogram {
	h, ok := f.histograms[name]
	if !ok {
		h = &fakeHistogram{}
		f.histograms[name] = h
	}
	return h
}

func TestMetricsExtension(t *testing.T) {
	ctx := context.Background()
	f := newFakeFactory()
	m := NewMetricsExtension(f)

	_ = m.OnFeeStructureSaved(ctx, &feestructure.FeeStructure{}, true)
	_ = m.OnFeeStructureSaved(ctx, &feestructure.FeeStructure{}, false)
	_ = m.OnFeeStructureSaved(ctx, &feestructure.FeeStructure{}, false)
	_ = m.OnFeeStructureDeleted(ctx, id.NewFeeStructureID())
	_ = m.OnPaymentRecorded(ctx, &payment.Payment{Amount: types.INR(1000050)})
	_ = m.OnPaymentDeleted(ctx, id.NewPaymentID())
	_ = m.OnAnomalyDetected(ctx, reconcile.Anomaly{Kind: reconcile.AnomalyDuplicatePayment})
	_ = m.OnAnomalyDetected(ctx, reconcile.Anomaly{Kind: reconcile.AnomalyDuplicatePayment})
	_ = m.OnAnomalyDetected(ctx, reconcile.Anomaly{Kind: reconcile.AnomalyDuplicateFeeStructure})
	_ = m.OnStoreError(ctx, "list payments", errors.New("down"))

	counters := []struct {
		name string
		want float64
	}{
		{"feeledger.fee_structure.created", 1},
		{"feeledger.fee_structure.updated", 2},
		{"feeledger.fee_structure.deleted", 1},
		{"feeledger.payment.recorded", 1},
		{"feeledger.payment.deleted", 1},
		{"feeledger.anomaly.duplicate_payment", 2},
		{"feeledger.anomaly.duplicate_fee_structure", 1},
		{"feeledger.store.errors", 1},
	}
	for _, c := range counters {
		t.Run(c.name, func(t *testing.T) {
			got, ok := f.counters[c.name]
			if !ok {
				t.Fatalf("counter %s not created", c.name)
			}
			if got.value != c.want {
				t.Errorf("got %v, want %v", got.value, c.want)
			}
		})
	}

	amounts := f.histograms["feeledger.payment.amount"].values
	if len(amounts) != 1 || amounts[0] != 10000.5 {
		t.Errorf("payment amount histogram: got %v, want [10000.5]", amounts)
	}
}

func TestStatementMetrics(t *testing.T) {
	ctx := context.Background()
	f := newFakeFactory()
	m := NewMetricsExtension(f)

	current := &reconcile.Statement{Installments: []reconcile.Installment{
		{Number: 1, Status: reconcile.StatusPaid},
		{Number: 2, Status: reconcile.StatusPending},
	}}
	overdue := &reconcile.Statement{Installments: []reconcile.Installment{
		{Number: 1, Status: reconcile.StatusPending, Overdue: true},
		{Number: 2, Status: reconcile.StatusPending, Overdue: true},
	}}

	_ = m.OnStatementReconciled(ctx, current, 3*time.Millisecond)
	_ = m.OnStatementReconciled(ctx, overdue, 7*time.Millisecond)

	if got := f.counters["feeledger.statement.reconciled"].value; got != 2 {
		t.Errorf("reconciled: got %v, want 2", got)
	}
	if got := f.counters["feeledger.statement.overdue"].value; got != 1 {
		t.Errorf("overdue: got %v, want 1", got)
	}
	latency := f.histograms["feeledger.statement.latency_ms"].values
	if len(latency) != 2 || latency[0] != 3 || latency[1] != 7 {
		t.Errorf("latency: got %v, want [3 7]", latency)
	}
}
