package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"sovereign-veritas/internal/collector"
	"sovereign-veritas/internal/domain"
	"sovereign-veritas/internal/veritas"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultGlobalTimeout = 15 * time.Second

// Stage weights for the overall confidence score. Market data is the primary
// fact being validated, so it carries the most weight. Stages missing at
// termination keep their weight and contribute zero.
var stageWeights = map[domain.Stage]float64{
	domain.StageMarket:  0.35,
	domain.StageOnChain: 0.25,
	domain.StageSocial:  0.20,
	domain.StageNews:    0.20,
}

// ErrEmptySymbol is returned for a blank symbol: a caller programming error,
// not a data condition.
var ErrEmptySymbol = errors.New("symbol must not be empty")

// ProgressFunc receives a snapshot after every stage transition, including
// halt and timeout. Invocations are fire-and-forget; a slow callback can
// never stall the pipeline.
type ProgressFunc func(domain.ProgressUpdate)

// Orchestrator drives the fixed market -> social -> onchain -> news sequence
// with a global wall-clock deadline and partial-result fallback.
type Orchestrator struct {
	tracer        trace.Tracer
	collector     *collector.Collector
	validator     *veritas.Validator
	globalTimeout time.Duration
}

func New(tracer trace.Tracer, c *collector.Collector, v *veritas.Validator, globalTimeout time.Duration) *Orchestrator {
	if globalTimeout <= 0 {
		globalTimeout = defaultGlobalTimeout
	}
	return &Orchestrator{
		tracer:        tracer,
		collector:     c,
		validator:     v,
		globalTimeout: globalTimeout,
	}
}

// stageOutcome crosses the goroutine boundary between a stage worker and the
// timeout race in Run.
type stageOutcome struct {
	results []domain.DataSourceResult
	report  veritas.StageReport
	err     error
}

// Run executes the full validation workflow for one symbol. It returns an
// error only for configuration mistakes (blank symbol, a stage with zero
// providers); every runtime data problem is folded into the result.
func (o *Orchestrator) Run(ctx context.Context, symbol string, onProgress ProgressFunc) (domain.OrchestrationResult, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.run")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	if symbol == "" {
		return domain.OrchestrationResult{}, ErrEmptySymbol
	}

	started := time.Now()
	result := domain.OrchestrationResult{
		Symbol:    symbol,
		Results:   make(map[domain.Stage][]domain.DataSourceResult),
		StartedAt: started.UTC(),
	}
	result.Confidence.PerCategory = make(map[domain.Stage]float64)

	// The deadline is threaded through every stage join rather than
	// wrapped around the whole call, so partial results stay collectible
	// even when a stage is interrupted mid-flight.
	runCtx, cancel := context.WithTimeout(ctx, o.globalTimeout)
	defer cancel()

	prior := domain.NewStageContext()

	for _, stage := range domain.StageOrder {
		if runCtx.Err() != nil {
			result.TimedOut = true
			break
		}

		outcome := make(chan stageOutcome, 1)
		go o.runStage(runCtx, stage, symbol, prior, outcome)

		var out stageOutcome
		select {
		case <-runCtx.Done():
			result.TimedOut = true
		case out = <-outcome:
		}
		if result.TimedOut {
			o.emitProgress(onProgress, stage, result.Completed)
			break
		}

		if out.err != nil {
			// Only configuration errors escape a stage worker.
			return domain.OrchestrationResult{}, out.err
		}

		result.Results[stage] = out.results
		prior.Results[stage] = out.results
		result.Completed = append(result.Completed, stage)
		result.Confidence.PerCategory[stage] = out.report.Score
		result.Confidence.Findings = append(result.Confidence.Findings, out.report.Findings...)
		for _, r := range out.results {
			if r.Status != domain.StatusOk {
				result.Errors = append(result.Errors, fmt.Sprintf("%s:%s: %s", stage, r.ProviderID, r.Err))
			}
		}

		o.emitProgress(onProgress, stage, result.Completed)

		if out.report.Halt {
			result.Halted = true
			result.HaltReason = out.report.HaltReason
			break
		}
	}

	result.Progress = progressPercent(len(result.Completed))
	result.Success = !result.Halted && !result.TimedOut && len(result.Completed) == len(domain.StageOrder)
	result.Confidence.Overall = overallScore(result.Confidence.PerCategory)
	result.Duration = time.Since(started)
	result.Summary = GenerateDataQualitySummary(result)
	return result, nil
}

func (o *Orchestrator) runStage(ctx context.Context, stage domain.Stage, symbol string, prior domain.StageContext, out chan<- stageOutcome) {
	results, err := o.collector.Collect(ctx, stage, symbol, prior)
	if err != nil {
		out <- stageOutcome{err: err}
		return
	}
	report := o.validator.ValidateStage(stage, results, prior)
	out <- stageOutcome{results: results, report: report}
}

// emitProgress snapshots state before dispatch so the callback goroutine
// never races the loop.
func (o *Orchestrator) emitProgress(onProgress ProgressFunc, stage domain.Stage, completed []domain.Stage) {
	if onProgress == nil {
		return
	}
	update := domain.ProgressUpdate{
		CurrentStage: stage,
		Percent:      progressPercent(len(completed)),
		Completed:    append([]domain.Stage(nil), completed...),
	}
	go onProgress(update)
}

func progressPercent(completed int) int {
	return int(math.Round(float64(completed) / float64(len(domain.StageOrder)) * 100))
}

// overallScore is the weighted average over all stages; stages absent from
// perCategory contribute zero at full weight rather than being silently
// renormalized away.
func overallScore(perCategory map[domain.Stage]float64) float64 {
	total := 0.0
	for stage, weight := range stageWeights {
		total += weight * perCategory[stage]
	}
	return math.Round(total*100) / 100
}
