package synthesis

import (
	"strings"
	"testing"

	"sovereign-veritas/internal/domain"
)

func TestBuildRunPrompt(t *testing.T) {
	res := domain.OrchestrationResult{
		Symbol:    "BTC",
		Completed: []domain.Stage{domain.StageMarket, domain.StageSocial},
		Halted:    true,
		HaltReason: "price deviation 20.00% between coingecko and binance exceeds fatal threshold 10.0%; " +
			"one source is returning garbage or stale data",
		Confidence: domain.ConfidenceScore{
			Overall: 0,
			PerCategory: map[domain.Stage]float64{
				domain.StageMarket: 0,
				domain.StageSocial: 85,
			},
			Findings: []domain.ValidationFinding{
				{
					Category:    domain.StageMarket,
					Severity:    domain.SeverityFatal,
					Description: "price deviation 20.00%",
					Providers:   []string{"coingecko", "binance"},
				},
			},
		},
		Errors: []string{"news:newsapi: 503"},
	}

	prompt := BuildRunPrompt(res)

	for _, want := range []string{
		"Symbol: BTC",
		"Run halted:",
		"market, social",
		"[market/fatal]",
		"coingecko, binance",
		"news:newsapi: 503",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildRunPromptNoFindings(t *testing.T) {
	prompt := BuildRunPrompt(domain.OrchestrationResult{
		Symbol:    "ETH",
		Completed: []domain.Stage{domain.StageMarket, domain.StageSocial, domain.StageOnChain, domain.StageNews},
		Confidence: domain.ConfidenceScore{
			Overall: 100,
		},
	})

	if !strings.Contains(prompt, "Findings: none") {
		t.Fatalf("prompt should note the absence of findings:\n%s", prompt)
	}
}
