package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stage is one of the four sequential validation phases.
type Stage string

const (
	StageMarket  Stage = "market"
	StageSocial  Stage = "social"
	StageOnChain Stage = "onchain"
	StageNews    Stage = "news"
)

// StageOrder is the canonical execution order. CompletedStages in any
// OrchestrationResult is always a prefix of this slice.
var StageOrder = []Stage{StageMarket, StageSocial, StageOnChain, StageNews}

// ResultStatus describes the outcome of a single provider call.
type ResultStatus string

const (
	StatusOk       ResultStatus = "ok"
	StatusFailed   ResultStatus = "failed"
	StatusTimedOut ResultStatus = "timed_out"
)

// Severity classifies a validation finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityFatal   Severity = "fatal"
)

// Payload is the category-specific body of a successful provider call.
type Payload interface {
	Category() Stage
}

// MarketPayload carries the numeric market facts a provider reports.
type MarketPayload struct {
	PriceUSD     float64 `json:"price_usd"`
	Volume24h    float64 `json:"volume_24h"`
	Change24hPct float64 `json:"change_24h_pct"`
}

func (MarketPayload) Category() Stage { return StageMarket }

// SocialPayload carries a 0-100 sentiment score plus the raw texts it was
// derived from, so the validator can run its own classification pass.
type SocialPayload struct {
	SentimentScore float64  `json:"sentiment_score"`
	Mentions       int      `json:"mentions"`
	Texts          []string `json:"texts,omitempty"`
}

func (SocialPayload) Category() Stage { return StageSocial }

// OnChainPayload carries a provider-side directional score in [-1,1] plus the
// raw metric vector it was computed from.
type OnChainPayload struct {
	Score           float64            `json:"score"`
	NetExchangeFlow float64            `json:"net_exchange_flow"`
	ActiveAddresses float64            `json:"active_addresses"`
	TxCount         float64            `json:"tx_count"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
}

func (OnChainPayload) Category() Stage { return StageOnChain }

// NewsItem is a single headline from a news provider.
type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

type NewsPayload struct {
	Items []NewsItem `json:"items"`
}

func (NewsPayload) Category() Stage { return StageNews }

// DataSourceResult is the normalized envelope for one provider call.
// Payload is non-nil iff Status == StatusOk. Results are never mutated after
// construction; the collector hands them to the validator read-only.
type DataSourceResult struct {
	Category   Stage        `json:"category"`
	ProviderID string       `json:"provider_id"`
	Status     ResultStatus `json:"status"`
	Payload    Payload      `json:"payload,omitempty"`
	Err        string       `json:"error,omitempty"`
	FetchedAt  time.Time    `json:"fetched_at"`
	LatencyMs  int64        `json:"latency_ms"`
}

// UnmarshalJSON restores the concrete payload type from Category, so cached
// and persisted results survive a JSON round trip.
func (r *DataSourceResult) UnmarshalJSON(data []byte) error {
	type alias DataSourceResult
	aux := struct {
		*alias
		Payload json.RawMessage `json:"payload,omitempty"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Payload) == 0 || string(aux.Payload) == "null" {
		return nil
	}

	switch r.Category {
	case StageMarket:
		var p MarketPayload
		if err := json.Unmarshal(aux.Payload, &p); err != nil {
			return err
		}
		r.Payload = p
	case StageSocial:
		var p SocialPayload
		if err := json.Unmarshal(aux.Payload, &p); err != nil {
			return err
		}
		r.Payload = p
	case StageOnChain:
		var p OnChainPayload
		if err := json.Unmarshal(aux.Payload, &p); err != nil {
			return err
		}
		r.Payload = p
	case StageNews:
		var p NewsPayload
		if err := json.Unmarshal(aux.Payload, &p); err != nil {
			return err
		}
		r.Payload = p
	default:
		return fmt.Errorf("unknown result category %q", r.Category)
	}
	return nil
}

// StageContext exposes earlier stages' results to later collectors and
// validators. It is read-only for consumers.
type StageContext struct {
	Results map[Stage][]DataSourceResult
}

func NewStageContext() StageContext {
	return StageContext{Results: make(map[Stage][]DataSourceResult)}
}

// MarketConsensus averages the successful market results, if any.
func (c StageContext) MarketConsensus() *MarketPayload {
	var sum MarketPayload
	n := 0
	for _, r := range c.Results[StageMarket] {
		if r.Status != StatusOk {
			continue
		}
		p, ok := r.Payload.(MarketPayload)
		if !ok {
			continue
		}
		sum.PriceUSD += p.PriceUSD
		sum.Volume24h += p.Volume24h
		sum.Change24hPct += p.Change24hPct
		n++
	}
	if n == 0 {
		return nil
	}
	return &MarketPayload{
		PriceUSD:     sum.PriceUSD / float64(n),
		Volume24h:    sum.Volume24h / float64(n),
		Change24hPct: sum.Change24hPct / float64(n),
	}
}

// ValidationFinding is one detected consistency issue or confirmation.
type ValidationFinding struct {
	Category    Stage    `json:"category"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Providers   []string `json:"providers,omitempty"`
	Metric      *float64 `json:"metric,omitempty"`
}

// ConfidenceScore is the aggregate trust rating for a whole workflow run.
// Findings keep detection order; Overall is always derived from PerCategory
// and the findings, never assigned independently.
type ConfidenceScore struct {
	Overall     float64             `json:"overall"`
	PerCategory map[Stage]float64   `json:"per_category"`
	Findings    []ValidationFinding `json:"findings"`
}

// OrchestrationResult is what one workflow execution returns. A halted or
// timed-out run still carries whatever stages did finish.
type OrchestrationResult struct {
	Symbol     string                        `json:"symbol"`
	Success    bool                          `json:"success"`
	Completed  []Stage                       `json:"completed_stages"`
	Halted     bool                          `json:"halted"`
	HaltReason string                        `json:"halt_reason,omitempty"`
	TimedOut   bool                          `json:"timed_out"`
	Progress   int                           `json:"progress"`
	Results    map[Stage][]DataSourceResult  `json:"results"`
	Confidence ConfidenceScore               `json:"confidence"`
	Summary    string                        `json:"data_quality_summary"`
	StartedAt  time.Time                     `json:"started_at"`
	Duration   time.Duration                 `json:"duration"`
	Errors     []string                      `json:"errors,omitempty"`
}

// ProgressUpdate is handed to the caller-supplied progress callback after
// every stage transition, including halt and timeout.
type ProgressUpdate struct {
	CurrentStage Stage   `json:"current_stage"`
	Percent      int     `json:"percent"`
	Completed    []Stage `json:"completed_stages"`
}
