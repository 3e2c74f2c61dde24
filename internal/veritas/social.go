package veritas

import (
	"fmt"

	"sovereign-veritas/internal/domain"
)

// Numeric sentiment at or above this level counts as bullish for the
// logical-impossibility check.
const bullishSentimentFloor = 60

// Text classification at or below this level counts as overwhelmingly
// negative.
const stronglyNegativeText = -0.4

// validateSocial cross-checks sentiment scores between providers and runs a
// secondary classification pass over raw mention texts. Social data is
// inherently noisy, so nothing here is halt-worthy.
func (v *Validator) validateSocial(results []domain.DataSourceResult) StageReport {
	report := StageReport{Stage: domain.StageSocial}
	ok := okResults(results)

	capped := false
	if len(ok) < 2 {
		capped = true
		report.Findings = append(report.Findings, domain.ValidationFinding{
			Category:    domain.StageSocial,
			Severity:    domain.SeverityWarning,
			Description: fmt.Sprintf("insufficient corroboration: %d of %d social providers succeeded", len(ok), len(results)),
			Providers:   providerIDs(ok),
		})
	}

	type reading struct {
		id      string
		payload domain.SocialPayload
	}
	readings := make([]reading, 0, len(ok))
	for _, r := range ok {
		p, isSocial := r.Payload.(domain.SocialPayload)
		if !isSocial {
			report.Findings = append(report.Findings, domain.ValidationFinding{
				Category:    domain.StageSocial,
				Severity:    domain.SeverityFatal,
				Description: fmt.Sprintf("provider %s returned a non-social payload for the social stage", r.ProviderID),
				Providers:   []string{r.ProviderID},
			})
			report.Score = 0
			report.Halt = true
			report.HaltReason = report.Findings[len(report.Findings)-1].Description
			return report
		}
		readings = append(readings, reading{id: r.ProviderID, payload: p})
	}

	// Sentiment mismatch between scoring providers. Warning only: a wide
	// spread usually means the sources sample different crowds.
	for i := 0; i < len(readings); i++ {
		for j := i + 1; j < len(readings); j++ {
			gap := readings[i].payload.SentimentScore - readings[j].payload.SentimentScore
			if gap < 0 {
				gap = -gap
			}
			if gap > v.thresholds.SentimentMismatch {
				report.Findings = append(report.Findings, domain.ValidationFinding{
					Category: domain.StageSocial,
					Severity: domain.SeverityWarning,
					Description: fmt.Sprintf("sentiment mismatch: %s reports %.0f while %s reports %.0f (gap %.0f exceeds %.0f)",
						readings[i].id, readings[i].payload.SentimentScore,
						readings[j].id, readings[j].payload.SentimentScore,
						gap, v.thresholds.SentimentMismatch),
					Providers: []string{readings[i].id, readings[j].id},
					Metric:    metricPtr(gap),
				})
			}
		}
	}

	// Logical-impossibility pass: a provider whose numeric score says
	// bullish while its own raw texts classify overwhelmingly negative is
	// reporting something that cannot both be true.
	for _, r := range readings {
		if r.payload.SentimentScore < bullishSentimentFloor || len(r.payload.Texts) == 0 {
			continue
		}
		textScore, confidence := v.classifier.ClassifyTexts(r.payload.Texts)
		if textScore <= stronglyNegativeText && confidence >= 0.3 {
			report.Findings = append(report.Findings, domain.ValidationFinding{
				Category: domain.StageSocial,
				Severity: domain.SeverityWarning,
				Description: fmt.Sprintf("logical impossibility: %s reports bullish sentiment %.0f but its raw mentions classify strongly negative (%.2f)",
					r.id, r.payload.SentimentScore, textScore),
				Providers: []string{r.id},
				Metric:    metricPtr(textScore),
			})
		}
	}

	report.Score = v.scoreFromFindings(report.Findings, capped)
	return report
}
