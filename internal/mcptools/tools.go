package mcptools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sovereign-veritas/internal/domain"
	"sovereign-veritas/internal/orchestrator"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ValidationRunner interface {
	Validate(ctx context.Context, symbol string, onProgress orchestrator.ProgressFunc) (domain.OrchestrationResult, error)
}

// ValidateInput is the argument schema for the validate_symbol tool.
type ValidateInput struct {
	Symbol string `json:"symbol" jsonschema:"asset symbol to validate, e.g. BTC"`
}

// ValidateOutput is the structured result of a validation run exposed to MCP
// clients.
type ValidateOutput struct {
	Symbol       string                     `json:"symbol"`
	Success      bool                       `json:"success"`
	Halted       bool                       `json:"halted"`
	HaltReason   string                     `json:"halt_reason,omitempty"`
	TimedOut     bool                       `json:"timed_out"`
	OverallScore float64                    `json:"overall_score"`
	PerCategory  map[domain.Stage]float64   `json:"per_category"`
	Findings     []domain.ValidationFinding `json:"findings"`
	Sufficient   bool                       `json:"sufficient_for_analysis"`
}

type SummaryInput struct {
	Symbol string `json:"symbol" jsonschema:"asset symbol to summarize, e.g. ETH"`
}

type SummaryOutput struct {
	Symbol  string `json:"symbol"`
	Summary string `json:"summary"`
}

// Server wires the validation pipeline into MCP tools.
type Server struct {
	runner         ValidationRunner
	requestTimeout time.Duration
}

func NewServer(runner ValidationRunner, requestTimeout time.Duration) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 20 * time.Second
	}
	return &Server{runner: runner, requestTimeout: requestTimeout}
}

// MCPServer builds the SDK server with both tools registered.
func (s *Server) MCPServer(version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "sovereign-veritas", Version: version}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "validate_symbol",
		Description: "Run the multi-provider validation pipeline for a crypto symbol and return the confidence-scored result",
	}, s.validateSymbol)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "data_quality_summary",
		Description: "Return a human-readable data quality summary for a crypto symbol",
	}, s.dataQualitySummary)

	return srv
}

func (s *Server) validateSymbol(ctx context.Context, req *mcp.CallToolRequest, input ValidateInput) (*mcp.CallToolResult, ValidateOutput, error) {
	res, err := s.run(ctx, input.Symbol)
	if err != nil {
		return nil, ValidateOutput{}, err
	}

	out := ValidateOutput{
		Symbol:       res.Symbol,
		Success:      res.Success,
		Halted:       res.Halted,
		HaltReason:   res.HaltReason,
		TimedOut:     res.TimedOut,
		OverallScore: res.Confidence.Overall,
		PerCategory:  res.Confidence.PerCategory,
		Findings:     res.Confidence.Findings,
		Sufficient:   orchestrator.IsSufficientForAnalysis(res),
	}
	if out.Findings == nil {
		out.Findings = []domain.ValidationFinding{}
	}
	return nil, out, nil
}

func (s *Server) dataQualitySummary(ctx context.Context, req *mcp.CallToolRequest, input SummaryInput) (*mcp.CallToolResult, SummaryOutput, error) {
	res, err := s.run(ctx, input.Symbol)
	if err != nil {
		return nil, SummaryOutput{}, err
	}
	return nil, SummaryOutput{Symbol: res.Symbol, Summary: res.Summary}, nil
}

func (s *Server) run(ctx context.Context, symbol string) (domain.OrchestrationResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !domain.IsSupportedSymbol(symbol) {
		return domain.OrchestrationResult{}, fmt.Errorf("unsupported symbol %q, supported: %s", symbol, strings.Join(domain.SupportedSymbols, ", "))
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	return s.runner.Validate(ctx, symbol, nil)
}
