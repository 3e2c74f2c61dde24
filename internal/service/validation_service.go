package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"sovereign-veritas/internal/cache"
	"sovereign-veritas/internal/domain"
	"sovereign-veritas/internal/orchestrator"

	"go.opentelemetry.io/otel/trace"
)

// ErrUnsupportedSymbol is returned for symbols outside the tracked set.
var ErrUnsupportedSymbol = errors.New("unsupported symbol")

type Runner interface {
	Run(ctx context.Context, symbol string, onProgress orchestrator.ProgressFunc) (domain.OrchestrationResult, error)
}

type RunStore interface {
	InsertRun(ctx context.Context, res domain.OrchestrationResult) error
}

type Alerter interface {
	SendAlert(text string)
}

type Narrator interface {
	Narrate(ctx context.Context, res domain.OrchestrationResult) (string, error)
}

// ValidationService wraps the orchestrator with caching, persistence, and
// alerting. Every collaborator except the runner is optional.
type ValidationService struct {
	tracer   trace.Tracer
	runner   Runner
	results  *cache.ResultCache
	store    RunStore
	alerter  Alerter
	narrator Narrator
}

func NewValidationService(tracer trace.Tracer, runner Runner, results *cache.ResultCache, store RunStore, alerter Alerter, narrator Narrator) *ValidationService {
	return &ValidationService{
		tracer:   tracer,
		runner:   runner,
		results:  results,
		store:    store,
		alerter:  alerter,
		narrator: narrator,
	}
}

// SetAlerter installs the alert sink after construction. The bot and the
// service reference each other, so one side has to be wired late.
func (s *ValidationService) SetAlerter(a Alerter) {
	s.alerter = a
}

// Validate runs the full pipeline for one symbol, serving a recent cached run
// when available. The returned result is always usable even when downstream
// persistence or alerting fails.
func (s *ValidationService) Validate(ctx context.Context, symbol string, onProgress orchestrator.ProgressFunc) (domain.OrchestrationResult, error) {
	ctx, span := s.tracer.Start(ctx, "validation-service.validate")
	defer span.End()

	if !domain.IsSupportedSymbol(symbol) {
		return domain.OrchestrationResult{}, fmt.Errorf("%w: %s", ErrUnsupportedSymbol, symbol)
	}

	if cached, err := s.results.Get(ctx, symbol); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("Result cache read error for %s: %v", symbol, err)
	}

	res, err := s.runner.Run(ctx, symbol, onProgress)
	if err != nil {
		return domain.OrchestrationResult{}, err
	}

	if err := s.results.Set(ctx, res); err != nil {
		log.Printf("Result cache write error for %s: %v", symbol, err)
	}
	if s.store != nil {
		if err := s.store.InsertRun(ctx, res); err != nil {
			log.Printf("Failed to persist run for %s: %v", symbol, err)
		}
	}
	s.alertIfDegraded(res)

	return res, nil
}

// Narrative produces an LLM-written account of a run's data quality. Callers
// get the plain summary back when no narrator is configured.
func (s *ValidationService) Narrative(ctx context.Context, res domain.OrchestrationResult) string {
	if s.narrator == nil {
		return res.Summary
	}
	text, err := s.narrator.Narrate(ctx, res)
	if err != nil {
		log.Printf("Narrative synthesis failed for %s: %v", res.Symbol, err)
		return res.Summary
	}
	return text
}

func (s *ValidationService) alertIfDegraded(res domain.OrchestrationResult) {
	if s.alerter == nil {
		return
	}
	switch {
	case res.Halted:
		s.alerter.SendAlert(fmt.Sprintf("⛔ Validation halted for %s: %s", res.Symbol, res.HaltReason))
	case !orchestrator.IsSufficientForAnalysis(res):
		s.alerter.SendAlert(fmt.Sprintf("⚠️ Data quality degraded for %s: confidence %.1f/100", res.Symbol, res.Confidence.Overall))
	}
}

// SweepAll validates every supported symbol once, for the periodic job.
func (s *ValidationService) SweepAll(ctx context.Context) (int, []string) {
	ctx, span := s.tracer.Start(ctx, "validation-service.sweep-all")
	defer span.End()

	validated := 0
	var errs []string
	start := time.Now()
	for _, symbol := range domain.SupportedSymbols {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err().Error())
			break
		}
		if _, err := s.Validate(ctx, symbol, nil); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", symbol, err))
			continue
		}
		validated++
	}
	log.Printf("Validation sweep complete symbols=%d errors=%d took=%s", validated, len(errs), time.Since(start).Round(time.Millisecond))
	return validated, errs
}
