package plugin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/xraph/feeledger/feestructure"
	"github.com/xraph/feeledger/id"
	"github.com/xraph/feeledger/payment"
	"github.com/xraph/feeledger/reconcile"
	"github.com/xraph/feeledger/types"
)

type basePlugin struct{ name string }

func (p basePlugin) Name() string { return p.name }

type eventPlugin struct {
	basePlugin

	mu     sync.Mutex
	events []string
}

func (p *eventPlugin) add(event string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *eventPlugin) got() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *eventPlugin) OnFeeStructureSaved(_ context.Context, _ *feestructure.FeeStructure, created bool) error {
	if created {
		p.add("fs.created")
	} else {
		p.add("fs.updated")
	}
	return nil
}

func (p *eventPlugin) OnPaymentRecorded(_ context.Context, _ *payment.Payment) error {
	p.add("payment.recorded")
	return nil
}

func (p *eventPlugin) OnAnomalyDetected(_ context.Context, a reconcile.Anomaly) error {
	p.add("anomaly." + string(a.Kind))
	return nil
}

type rejectingValidator struct {
	basePlugin
	err error
}

func (v rejectingValidator) ValidatePayment(_ context.Context, _ *payment.Payment) error {
	return v.err
}

type slowPlugin struct {
	basePlugin
	delay time.Duration
}

func (p slowPlugin) OnPaymentDeleted(_ context.Context, _ id.PaymentID) error {
	time.Sleep(p.delay)
	return nil
}

func (p slowPlugin) ValidatePayment(_ context.Context, _ *payment.Payment) error {
	time.Sleep(p.delay)
	return nil
}

func quietRegistry() *Registry {
	return NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegister(t *testing.T) {
	r := quietRegistry()

	if err := r.Register(&eventPlugin{basePlugin: basePlugin{"events"}}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(basePlugin{"plain"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(basePlugin{"events"}); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	if got := r.Count(); got != 2 {
		t.Errorf("Count: got %d, want 2", got)
	}
	if r.Get("plain") == nil {
		t.Error("Get(plain) returned nil")
	}
	if r.Get("missing") != nil {
		t.Error("Get(missing) should return nil")
	}
	if got := len(r.List()); got != 2 {
		t.Errorf("List: got %d plugins, want 2", got)
	}
}

func TestImplementedInterfaces(t *testing.T) {
	got := implementedInterfaces(&eventPlugin{})
	want := []string{"OnFeeStructureSaved", "OnPaymentRecorded", "OnAnomalyDetected"}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestEmitDispatchesToImplementers(t *testing.T) {
	r := quietRegistry()
	events := &eventPlugin{basePlugin: basePlugin{"events"}}
	_ = r.Register(events)
	_ = r.Register(basePlugin{"plain"})

	ctx := context.Background()
	r.EmitFeeStructureSaved(ctx, &feestructure.FeeStructure{}, true)
	r.EmitFeeStructureSaved(ctx, &feestructure.FeeStructure{}, false)
	r.EmitPaymentRecorded(ctx, &payment.Payment{Amount: types.INR(100)})
	r.EmitAnomalyDetected(ctx, reconcile.Anomaly{Kind: reconcile.AnomalyDuplicatePayment})
	r.EmitPaymentDeleted(ctx, id.NewPaymentID())

	want := []string{"fs.created", "fs.updated", "payment.recorded", "anomaly.duplicate_payment"}
	got := events.got()
	if len(got) != len(want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestValidatePayment(t *testing.T) {
	errLate := errors.New("payment date after term end")
	errCap := errors.New("amount above cap")

	tests := []struct {
		name       string
		validators []Plugin
		wantErrs   []error
	}{
		{"no validators", nil, nil},
		{"accepting", []Plugin{rejectingValidator{basePlugin{"ok"}, nil}}, nil},
		{"one rejection", []Plugin{
			rejectingValidator{basePlugin{"ok"}, nil},
			rejectingValidator{basePlugin{"late"}, errLate},
		}, []error{errLate}},
		{"joined rejections", []Plugin{
			rejectingValidator{basePlugin{"late"}, errLate},
			rejectingValidator{basePlugin{"cap"}, errCap},
		}, []error{errLate, errCap}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := quietRegistry()
			for _, v := range tt.validators {
				if err := r.Register(v); err != nil {
					t.Fatal(err)
				}
			}

			err := r.ValidatePayment(context.Background(), &payment.Payment{})
			if len(tt.wantErrs) == 0 {
				if err != nil {
					t.Fatalf("got %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected rejection")
			}
			for _, want := range tt.wantErrs {
				if !errors.Is(err, want) {
					t.Errorf("error %v does not wrap %v", err, want)
				}
			}
		})
	}
}

func TestCallTimeout(t *testing.T) {
	r := quietRegistry().WithTimeout(10 * time.Millisecond)
	_ = r.Register(slowPlugin{basePlugin{"slow"}, 200 * time.Millisecond})

	start := time.Now()
	r.EmitPaymentDeleted(context.Background(), id.NewPaymentID())
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("emit blocked for %s, want it bounded by the timeout", elapsed)
	}

	if err := r.ValidatePayment(context.Background(), &payment.Payment{}); err == nil {
		t.Error("expected a timed out validator to reject")
	}
}

func TestCallCanceledContext(t *testing.T) {
	r := quietRegistry()
	_ = r.Register(slowPlugin{basePlugin{"slow"}, 200 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.ValidatePayment(ctx, &payment.Payment{}); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
