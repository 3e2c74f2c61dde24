package veritas

import (
	"fmt"
	"math"

	"sovereign-veritas/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// Thresholds are the cross-validation business parameters. Defaults come
// from config; change them there, not here.
type Thresholds struct {
	PriceWarnPct      float64 // pairwise price deviation that degrades trust
	PriceFatalPct     float64 // pairwise price deviation that halts the run
	VolumeWarnPct     float64 // volumes are noisier across venues
	ArbitragePct      float64 // informational arbitrage note, not a trust signal
	SentimentMismatch float64 // points on the 0-100 sentiment scale
	WarningPenalty    float64 // per-warning score deduction
	SingleSourceCap   float64 // ceiling when only one provider corroborates
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		PriceWarnPct:      1.5,
		PriceFatalPct:     10,
		VolumeWarnPct:     10,
		ArbitragePct:      2,
		SentimentMismatch: 30,
		WarningPenalty:    15,
		SingleSourceCap:   50,
	}
}

// StageReport is the validation outcome for a single stage.
type StageReport struct {
	Stage      domain.Stage
	Findings   []domain.ValidationFinding
	Score      float64
	Halt       bool
	HaltReason string
}

// TextClassifier scores a batch of raw texts on a [-1,1] bullish/bearish
// axis. The secondary classification pass in the social validator uses it to
// catch logical impossibilities; the default is the lexicon heuristic, with
// an optional LLM-backed implementation layered on top.
type TextClassifier interface {
	ClassifyTexts(texts []string) (score float64, confidence float64)
}

// AnomalyScorer flags anomalous rows in a metric matrix. Scores are in
// [0,1], higher meaning more anomalous.
type AnomalyScorer interface {
	Scores(rows [][]float64) []float64
}

// Validator cross-checks a stage's provider results against each other and
// against earlier stages. It never errors on data-quality problems; those
// become findings.
type Validator struct {
	tracer     trace.Tracer
	thresholds Thresholds
	classifier TextClassifier
	anomaly    AnomalyScorer
}

func NewValidator(tracer trace.Tracer, thresholds Thresholds, classifier TextClassifier, anomaly AnomalyScorer) *Validator {
	if thresholds.PriceWarnPct <= 0 || thresholds.PriceFatalPct <= thresholds.PriceWarnPct {
		thresholds = DefaultThresholds()
	}
	if classifier == nil {
		classifier = LexiconClassifier{}
	}
	return &Validator{
		tracer:     tracer,
		thresholds: thresholds,
		classifier: classifier,
		anomaly:    anomaly,
	}
}

// ValidateStage dispatches to the stage's check set. Findings are appended
// in a deterministic check order, so identical inputs always produce
// identical reports.
func (v *Validator) ValidateStage(stage domain.Stage, results []domain.DataSourceResult, prior domain.StageContext) StageReport {
	switch stage {
	case domain.StageMarket:
		return v.validateMarket(results)
	case domain.StageSocial:
		return v.validateSocial(results)
	case domain.StageOnChain:
		return v.validateOnChain(results, prior)
	case domain.StageNews:
		return v.validateNews(results)
	default:
		return StageReport{
			Stage: stage,
			Findings: []domain.ValidationFinding{{
				Category:    stage,
				Severity:    domain.SeverityWarning,
				Description: fmt.Sprintf("no validation rules for stage %s", stage),
			}},
		}
	}
}

// okResults filters to successful calls; order is preserved.
func okResults(results []domain.DataSourceResult) []domain.DataSourceResult {
	out := make([]domain.DataSourceResult, 0, len(results))
	for _, r := range results {
		if r.Status == domain.StatusOk && r.Payload != nil {
			out = append(out, r)
		}
	}
	return out
}

// relativeDeviationPct is |a-b| / min(a,b) expressed in percent.
func relativeDeviationPct(a, b float64) float64 {
	lo := math.Min(a, b)
	if lo <= 0 {
		return 0
	}
	return math.Abs(a-b) / lo * 100
}

// scoreFromFindings applies the standard penalty schedule: start at 100,
// subtract WarningPenalty per warning, floor a fatal at zero, then apply the
// single-source cap if corroboration was insufficient.
func (v *Validator) scoreFromFindings(findings []domain.ValidationFinding, capped bool) float64 {
	score := 100.0
	for _, f := range findings {
		switch f.Severity {
		case domain.SeverityWarning:
			score -= v.thresholds.WarningPenalty
		case domain.SeverityFatal:
			return 0
		}
	}
	if capped && score > v.thresholds.SingleSourceCap {
		score = v.thresholds.SingleSourceCap
	}
	if score < 0 {
		score = 0
	}
	return score
}

func metricPtr(v float64) *float64 {
	rounded := math.Round(v*10000) / 10000
	return &rounded
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
