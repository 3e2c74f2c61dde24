package orchestrator

import (
	"fmt"
	"strings"

	"sovereign-veritas/internal/domain"
)

// minSufficientScore is the overall confidence floor below which a run is
// unfit as input for downstream analysis.
var minSufficientScore = 70.0

// SetSufficiencyFloor overrides the confidence floor at startup. Values
// outside (0,100) are ignored.
func SetSufficiencyFloor(v float64) {
	if v > 0 && v < 100 {
		minSufficientScore = v
	}
}

// IsSufficientForAnalysis reports whether a run produced data trustworthy
// enough to feed analysis. A single fatal finding disqualifies the run no
// matter how the remaining stages scored.
func IsSufficientForAnalysis(res domain.OrchestrationResult) bool {
	if res.Confidence.Overall <= minSufficientScore {
		return false
	}
	for _, f := range res.Confidence.Findings {
		if f.Severity == domain.SeverityFatal {
			return false
		}
	}
	return true
}

// GenerateDataQualitySummary renders a human-readable account of a run:
// overall verdict, per-severity finding groups, and any stages the run never
// reached.
func GenerateDataQualitySummary(res domain.OrchestrationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Data quality for %s: overall confidence %.1f/100", res.Symbol, res.Confidence.Overall)
	switch {
	case res.Halted:
		fmt.Fprintf(&b, " (halted: %s)", res.HaltReason)
	case res.TimedOut:
		b.WriteString(" (timed out before completion)")
	}
	b.WriteString(".\n")

	fatals := findingsBySeverity(res.Confidence.Findings, domain.SeverityFatal)
	warnings := findingsBySeverity(res.Confidence.Findings, domain.SeverityWarning)
	infos := findingsBySeverity(res.Confidence.Findings, domain.SeverityInfo)

	writeFindingGroup(&b, "Fatal", fatals)
	writeFindingGroup(&b, "Warnings", warnings)
	writeFindingGroup(&b, "Info", infos)
	if len(fatals)+len(warnings)+len(infos) == 0 {
		b.WriteString("No validation findings.\n")
	}

	if missing := missingStages(res.Completed); len(missing) > 0 {
		fmt.Fprintf(&b, "Stages not validated: %s.\n", strings.Join(missing, ", "))
	}

	if IsSufficientForAnalysis(res) {
		b.WriteString("Verdict: sufficient for analysis.")
	} else {
		b.WriteString("Verdict: NOT sufficient for analysis.")
	}
	return b.String()
}

func findingsBySeverity(findings []domain.ValidationFinding, sev domain.Severity) []domain.ValidationFinding {
	var out []domain.ValidationFinding
	for _, f := range findings {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}

func writeFindingGroup(b *strings.Builder, label string, findings []domain.ValidationFinding) {
	if len(findings) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d):\n", label, len(findings))
	for _, f := range findings {
		fmt.Fprintf(b, "  - [%s] %s\n", f.Category, f.Description)
	}
}

func missingStages(completed []domain.Stage) []string {
	done := make(map[domain.Stage]bool, len(completed))
	for _, s := range completed {
		done[s] = true
	}
	var missing []string
	for _, s := range domain.StageOrder {
		if !done[s] {
			missing = append(missing, string(s))
		}
	}
	return missing
}
