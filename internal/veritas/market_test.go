package veritas

import (
	"testing"
	"time"

	"sovereign-veritas/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func newTestValidator() *Validator {
	return NewValidator(trace.NewNoopTracerProvider().Tracer("test"), DefaultThresholds(), nil, nil)
}

func marketResult(id string, price, volume float64) domain.DataSourceResult {
	return domain.DataSourceResult{
		Category:   domain.StageMarket,
		ProviderID: id,
		Status:     domain.StatusOk,
		Payload:    domain.MarketPayload{PriceUSD: price, Volume24h: volume, Change24hPct: 1.0},
		FetchedAt:  time.Now().UTC(),
	}
}

func countSeverity(findings []domain.ValidationFinding, sev domain.Severity) int {
	n := 0
	for _, f := range findings {
		if f.Severity == sev {
			n++
		}
	}
	return n
}

func TestMarketAllAgree(t *testing.T) {
	v := newTestValidator()
	report := v.validateMarket([]domain.DataSourceResult{
		marketResult("coingecko", 50000, 1e9),
		marketResult("binance", 50000, 1e9),
	})

	if len(report.Findings) != 0 {
		t.Fatalf("expected no findings, got %+v", report.Findings)
	}
	if report.Score != 100 {
		t.Fatalf("expected score 100, got %f", report.Score)
	}
	if report.Halt {
		t.Fatal("expected no halt")
	}
}

func TestMarketDeviationAtWarnThresholdPasses(t *testing.T) {
	v := newTestValidator()
	// 1.5% deviation sits exactly on the threshold and must not warn.
	report := v.validateMarket([]domain.DataSourceResult{
		marketResult("coingecko", 100, 1e9),
		marketResult("binance", 101.5, 1e9),
	})

	if len(report.Findings) != 0 {
		t.Fatalf("expected no findings at threshold, got %+v", report.Findings)
	}
	if report.Score != 100 {
		t.Fatalf("expected score 100, got %f", report.Score)
	}
}

func TestMarketArbitrageSpread(t *testing.T) {
	v := newTestValidator()
	// Exactly 2% spread: a consistency warning plus an informational
	// arbitrage note, never a halt.
	report := v.validateMarket([]domain.DataSourceResult{
		marketResult("coingecko", 100, 1e9),
		marketResult("binance", 102, 1e9),
	})

	if got := countSeverity(report.Findings, domain.SeverityWarning); got != 1 {
		t.Fatalf("expected 1 warning, got %d: %+v", got, report.Findings)
	}
	if got := countSeverity(report.Findings, domain.SeverityInfo); got != 1 {
		t.Fatalf("expected 1 info finding, got %d: %+v", got, report.Findings)
	}
	if report.Score != 85 {
		t.Fatalf("expected score 85, got %f", report.Score)
	}
	if report.Halt {
		t.Fatal("arbitrage spread must not halt the run")
	}
}

func TestMarketFatalDeviationHalts(t *testing.T) {
	v := newTestValidator()
	report := v.validateMarket([]domain.DataSourceResult{
		marketResult("coingecko", 100, 1e9),
		marketResult("binance", 115, 1e9),
	})

	if got := countSeverity(report.Findings, domain.SeverityFatal); got != 1 {
		t.Fatalf("expected 1 fatal finding, got %d: %+v", got, report.Findings)
	}
	if !report.Halt {
		t.Fatal("expected halt on fatal deviation")
	}
	if report.Score != 0 {
		t.Fatalf("expected score 0 on fatal, got %f", report.Score)
	}
	if report.HaltReason == "" {
		t.Fatal("expected a halt reason")
	}
}

func TestMarketVolumeDeviation(t *testing.T) {
	v := newTestValidator()
	report := v.validateMarket([]domain.DataSourceResult{
		marketResult("coingecko", 100, 1000),
		marketResult("binance", 100, 1200),
	})

	if got := countSeverity(report.Findings, domain.SeverityWarning); got != 1 {
		t.Fatalf("expected 1 volume warning, got %d: %+v", got, report.Findings)
	}
	if report.Score != 85 {
		t.Fatalf("expected score 85, got %f", report.Score)
	}
}

func TestMarketZeroVolumeSkipped(t *testing.T) {
	v := newTestValidator()
	report := v.validateMarket([]domain.DataSourceResult{
		marketResult("coingecko", 100, 0),
		marketResult("binance", 100, 1e9),
	})

	if len(report.Findings) != 0 {
		t.Fatalf("zero volume should not be compared, got %+v", report.Findings)
	}
}

func TestMarketSingleSourceCap(t *testing.T) {
	v := newTestValidator()
	report := v.validateMarket([]domain.DataSourceResult{
		marketResult("coingecko", 100, 1e9),
		{Category: domain.StageMarket, ProviderID: "binance", Status: domain.StatusFailed, Err: "503"},
	})

	if got := countSeverity(report.Findings, domain.SeverityWarning); got != 1 {
		t.Fatalf("expected corroboration warning, got %+v", report.Findings)
	}
	if report.Score != 50 {
		t.Fatalf("expected single-source cap 50, got %f", report.Score)
	}
	if report.Halt {
		t.Fatal("single source must not halt")
	}
}

func TestMarketWrongPayloadShapeHalts(t *testing.T) {
	v := newTestValidator()
	report := v.validateMarket([]domain.DataSourceResult{
		marketResult("coingecko", 100, 1e9),
		{
			Category:   domain.StageMarket,
			ProviderID: "broken",
			Status:     domain.StatusOk,
			Payload:    domain.SocialPayload{SentimentScore: 50},
		},
	})

	if !report.Halt {
		t.Fatal("expected halt on non-market payload")
	}
	if report.Score != 0 {
		t.Fatalf("expected score 0, got %f", report.Score)
	}
}

func TestRelativeDeviationPct(t *testing.T) {
	if got := relativeDeviationPct(100, 102); got != 2 {
		t.Fatalf("expected 2, got %f", got)
	}
	if got := relativeDeviationPct(102, 100); got != 2 {
		t.Fatalf("deviation must be symmetric, got %f", got)
	}
	if got := relativeDeviationPct(0, 100); got != 0 {
		t.Fatalf("non-positive base must yield 0, got %f", got)
	}
}
