package synthesis

import (
	"fmt"
	"strings"

	"sovereign-veritas/internal/domain"
)

const synthesisRole = `You are a data quality analyst for a crypto market data pipeline. You receive the machine-generated report of one cross-validation run and write a short assessment for a human operator.

Rules:
- Lead with a one-sentence verdict: is the data trustworthy enough to analyze?
- Explain the most serious findings in plain language. Name the providers involved.
- Never invent findings, providers, or numbers that are not in the report.
- If the run halted or timed out, say what is missing as a consequence.
- Keep it under 150 words. No markdown headers.`

// BuildRunPrompt renders a validation run into the user message the
// synthesizer sends to the model.
func BuildRunPrompt(res domain.OrchestrationResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Symbol: %s\n", res.Symbol)
	fmt.Fprintf(&sb, "Overall confidence: %.1f/100\n", res.Confidence.Overall)
	fmt.Fprintf(&sb, "Completed stages: %s\n", stageList(res.Completed))
	if res.Halted {
		fmt.Fprintf(&sb, "Run halted: %s\n", res.HaltReason)
	}
	if res.TimedOut {
		sb.WriteString("Run timed out before completion.\n")
	}

	if len(res.Confidence.PerCategory) > 0 {
		sb.WriteString("Per-category scores:\n")
		for _, stage := range domain.StageOrder {
			if score, ok := res.Confidence.PerCategory[stage]; ok {
				fmt.Fprintf(&sb, "  %s: %.1f\n", stage, score)
			}
		}
	}

	if len(res.Confidence.Findings) > 0 {
		sb.WriteString("Findings:\n")
		for _, f := range res.Confidence.Findings {
			fmt.Fprintf(&sb, "  [%s/%s] %s (providers: %s)\n",
				f.Category, f.Severity, f.Description, strings.Join(f.Providers, ", "))
		}
	} else {
		sb.WriteString("Findings: none\n")
	}

	if len(res.Errors) > 0 {
		fmt.Fprintf(&sb, "Provider errors: %s\n", strings.Join(res.Errors, "; "))
	}

	return sb.String()
}

func stageList(stages []domain.Stage) string {
	if len(stages) == 0 {
		return "none"
	}
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
