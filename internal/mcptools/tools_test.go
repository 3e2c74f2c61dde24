package mcptools

import (
	"context"
	"strings"
	"testing"
	"time"

	"sovereign-veritas/internal/domain"
	"sovereign-veritas/internal/orchestrator"
)

type stubRunner struct {
	result domain.OrchestrationResult
}

func (s *stubRunner) Validate(_ context.Context, symbol string, _ orchestrator.ProgressFunc) (domain.OrchestrationResult, error) {
	res := s.result
	res.Symbol = symbol
	return res, nil
}

func TestValidateSymbolTool(t *testing.T) {
	s := NewServer(&stubRunner{result: domain.OrchestrationResult{
		Success:    true,
		Confidence: domain.ConfidenceScore{Overall: 88},
	}}, time.Second)

	_, out, err := s.validateSymbol(context.Background(), nil, ValidateInput{Symbol: "btc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Symbol != "BTC" {
		t.Fatalf("symbol must be normalized, got %s", out.Symbol)
	}
	if out.OverallScore != 88 {
		t.Fatalf("unexpected score: %f", out.OverallScore)
	}
	if !out.Sufficient {
		t.Fatal("88 with no fatals should be sufficient")
	}
	if out.Findings == nil {
		t.Fatal("findings must serialize as an array, not null")
	}
}

func TestValidateSymbolToolUnsupported(t *testing.T) {
	s := NewServer(&stubRunner{}, time.Second)

	_, _, err := s.validateSymbol(context.Background(), nil, ValidateInput{Symbol: "WAT"})
	if err == nil || !strings.Contains(err.Error(), "unsupported symbol") {
		t.Fatalf("expected unsupported symbol error, got %v", err)
	}
}

func TestDataQualitySummaryTool(t *testing.T) {
	s := NewServer(&stubRunner{result: domain.OrchestrationResult{
		Summary: "Data quality for BTC: overall confidence 92.0/100.",
	}}, time.Second)

	_, out, err := s.dataQualitySummary(context.Background(), nil, SummaryInput{Symbol: "BTC"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Summary, "overall confidence") {
		t.Fatalf("unexpected summary: %s", out.Summary)
	}
}

func TestMCPServerRegistersTools(t *testing.T) {
	s := NewServer(&stubRunner{}, time.Second)
	if srv := s.MCPServer("test"); srv == nil {
		t.Fatal("expected a server")
	}
}
