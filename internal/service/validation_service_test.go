package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sovereign-veritas/internal/cache"
	"sovereign-veritas/internal/domain"
	"sovereign-veritas/internal/orchestrator"

	"go.opentelemetry.io/otel/trace"
)

type fakeRunner struct {
	result domain.OrchestrationResult
	err    error
	calls  int
}

func (f *fakeRunner) Run(_ context.Context, symbol string, _ orchestrator.ProgressFunc) (domain.OrchestrationResult, error) {
	f.calls++
	if f.err != nil {
		return domain.OrchestrationResult{}, f.err
	}
	res := f.result
	res.Symbol = symbol
	return res, nil
}

type fakeStore struct {
	inserted []domain.OrchestrationResult
	err      error
}

func (f *fakeStore) InsertRun(_ context.Context, res domain.OrchestrationResult) error {
	f.inserted = append(f.inserted, res)
	return f.err
}

type fakeAlerter struct {
	messages []string
}

func (f *fakeAlerter) SendAlert(text string) {
	f.messages = append(f.messages, text)
}

func newTestService(runner *fakeRunner, store *fakeStore, alerter *fakeAlerter) *ValidationService {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	var s RunStore
	if store != nil {
		s = store
	}
	var a Alerter
	if alerter != nil {
		a = alerter
	}
	return NewValidationService(tracer, runner, cache.NewResultCache(nil, 0), s, a, nil)
}

func TestValidateRejectsUnknownSymbol(t *testing.T) {
	svc := newTestService(&fakeRunner{}, nil, nil)

	_, err := svc.Validate(context.Background(), "WAT", nil)
	if !errors.Is(err, ErrUnsupportedSymbol) {
		t.Fatalf("expected ErrUnsupportedSymbol, got %v", err)
	}
}

func TestValidatePersistsRun(t *testing.T) {
	store := &fakeStore{}
	runner := &fakeRunner{result: domain.OrchestrationResult{Success: true, Confidence: domain.ConfidenceScore{Overall: 90}}}
	svc := newTestService(runner, store, nil)

	res, err := svc.Validate(context.Background(), "BTC", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Symbol != "BTC" {
		t.Fatalf("unexpected symbol: %s", res.Symbol)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 persisted run, got %d", len(store.inserted))
	}
}

func TestValidateSurvivesStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	runner := &fakeRunner{result: domain.OrchestrationResult{Success: true}}
	svc := newTestService(runner, store, nil)

	if _, err := svc.Validate(context.Background(), "BTC", nil); err != nil {
		t.Fatalf("persistence failure must not fail the request: %v", err)
	}
}

func TestValidateAlertsOnHalt(t *testing.T) {
	alerter := &fakeAlerter{}
	runner := &fakeRunner{result: domain.OrchestrationResult{
		Halted:     true,
		HaltReason: "price deviation 20.00% between coingecko and binance exceeds fatal threshold 10.0%",
	}}
	svc := newTestService(runner, nil, alerter)

	if _, err := svc.Validate(context.Background(), "BTC", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerter.messages) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerter.messages))
	}
	if !strings.Contains(alerter.messages[0], "halted") {
		t.Fatalf("unexpected alert text: %s", alerter.messages[0])
	}
}

func TestValidateAlertsOnLowConfidence(t *testing.T) {
	alerter := &fakeAlerter{}
	runner := &fakeRunner{result: domain.OrchestrationResult{
		Success:    true,
		Confidence: domain.ConfidenceScore{Overall: 42},
	}}
	svc := newTestService(runner, nil, alerter)

	if _, err := svc.Validate(context.Background(), "BTC", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerter.messages) != 1 {
		t.Fatalf("expected 1 degraded-quality alert, got %d", len(alerter.messages))
	}
}

func TestValidateNoAlertOnHealthyRun(t *testing.T) {
	alerter := &fakeAlerter{}
	runner := &fakeRunner{result: domain.OrchestrationResult{
		Success:    true,
		Confidence: domain.ConfidenceScore{Overall: 95},
	}}
	svc := newTestService(runner, nil, alerter)

	if _, err := svc.Validate(context.Background(), "BTC", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerter.messages) != 0 {
		t.Fatalf("healthy run must not alert, got %v", alerter.messages)
	}
}

func TestNarrativeFallsBackToSummary(t *testing.T) {
	svc := newTestService(&fakeRunner{}, nil, nil)
	res := domain.OrchestrationResult{Summary: "plain summary"}

	if got := svc.Narrative(context.Background(), res); got != "plain summary" {
		t.Fatalf("expected summary fallback, got %q", got)
	}
}

func TestSweepAllCollectsErrors(t *testing.T) {
	runner := &fakeRunner{err: errors.New("upstream down")}
	svc := newTestService(runner, nil, nil)

	validated, errs := svc.SweepAll(context.Background())
	if validated != 0 {
		t.Fatalf("expected 0 validated, got %d", validated)
	}
	if len(errs) != len(domain.SupportedSymbols) {
		t.Fatalf("expected one error per symbol, got %d", len(errs))
	}
}

func TestSweepAllValidatesEverySymbol(t *testing.T) {
	runner := &fakeRunner{result: domain.OrchestrationResult{Success: true, Confidence: domain.ConfidenceScore{Overall: 95}}}
	svc := newTestService(runner, nil, nil)

	validated, errs := svc.SweepAll(context.Background())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if validated != len(domain.SupportedSymbols) {
		t.Fatalf("expected %d validated, got %d", len(domain.SupportedSymbols), validated)
	}
	if runner.calls != len(domain.SupportedSymbols) {
		t.Fatalf("expected %d runner calls, got %d", len(domain.SupportedSymbols), runner.calls)
	}
}
