package veritas

import (
	"fmt"
	"time"

	"sovereign-veritas/internal/domain"
)

// Coverage older than this counts as stale.
const newsStaleAfter = 24 * time.Hour

// validateNews checks corroboration, coverage, and staleness across news
// providers.
func (v *Validator) validateNews(results []domain.DataSourceResult) StageReport {
	report := StageReport{Stage: domain.StageNews}
	ok := okResults(results)

	capped := false
	if len(ok) < 2 {
		capped = true
		report.Findings = append(report.Findings, domain.ValidationFinding{
			Category:    domain.StageNews,
			Severity:    domain.SeverityWarning,
			Description: fmt.Sprintf("insufficient corroboration: %d of %d news providers succeeded", len(ok), len(results)),
			Providers:   providerIDs(ok),
		})
	}

	totalItems := 0
	var newest time.Time
	for _, r := range ok {
		p, isNews := r.Payload.(domain.NewsPayload)
		if !isNews {
			report.Findings = append(report.Findings, domain.ValidationFinding{
				Category:    domain.StageNews,
				Severity:    domain.SeverityFatal,
				Description: fmt.Sprintf("provider %s returned a non-news payload for the news stage", r.ProviderID),
				Providers:   []string{r.ProviderID},
			})
			report.Score = 0
			report.Halt = true
			report.HaltReason = report.Findings[len(report.Findings)-1].Description
			return report
		}
		totalItems += len(p.Items)
		for _, item := range p.Items {
			if item.PublishedAt.After(newest) {
				newest = item.PublishedAt
			}
		}
	}

	if len(ok) > 0 && totalItems == 0 {
		report.Findings = append(report.Findings, domain.ValidationFinding{
			Category:    domain.StageNews,
			Severity:    domain.SeverityWarning,
			Description: "news providers responded but returned zero headlines",
			Providers:   providerIDs(ok),
		})
	}

	if totalItems > 0 && !newest.IsZero() {
		if age := time.Since(newest); age > newsStaleAfter {
			hours := age.Hours()
			report.Findings = append(report.Findings, domain.ValidationFinding{
				Category:    domain.StageNews,
				Severity:    domain.SeverityWarning,
				Description: fmt.Sprintf("stale news coverage: newest headline is %.0f hours old", hours),
				Providers:   providerIDs(ok),
				Metric:      metricPtr(hours),
			})
		}
	}

	report.Score = v.scoreFromFindings(report.Findings, capped)
	return report
}
