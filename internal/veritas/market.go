package veritas

import (
	"fmt"

	"sovereign-veritas/internal/domain"
)

// validateMarket cross-checks price and volume across market providers.
// Check order is fixed: corroboration, price consistency, volume
// consistency, arbitrage detection.
func (v *Validator) validateMarket(results []domain.DataSourceResult) StageReport {
	report := StageReport{Stage: domain.StageMarket}
	ok := okResults(results)

	capped := false
	if len(ok) < 2 {
		capped = true
		report.Findings = append(report.Findings, domain.ValidationFinding{
			Category:    domain.StageMarket,
			Severity:    domain.SeverityWarning,
			Description: fmt.Sprintf("insufficient corroboration: %d of %d market providers succeeded", len(ok), len(results)),
			Providers:   providerIDs(ok),
		})
	}

	type quote struct {
		id      string
		payload domain.MarketPayload
	}
	quotes := make([]quote, 0, len(ok))
	for _, r := range ok {
		p, isMarket := r.Payload.(domain.MarketPayload)
		if !isMarket {
			// Malformed payload shape is a programming error, fatal by construction.
			report.Findings = append(report.Findings, domain.ValidationFinding{
				Category:    domain.StageMarket,
				Severity:    domain.SeverityFatal,
				Description: fmt.Sprintf("provider %s returned a non-market payload for the market stage", r.ProviderID),
				Providers:   []string{r.ProviderID},
			})
			report.Score = 0
			report.Halt = true
			report.HaltReason = report.Findings[len(report.Findings)-1].Description
			return report
		}
		quotes = append(quotes, quote{id: r.ProviderID, payload: p})
	}

	// Price consistency.
	for i := 0; i < len(quotes); i++ {
		for j := i + 1; j < len(quotes); j++ {
			dev := relativeDeviationPct(quotes[i].payload.PriceUSD, quotes[j].payload.PriceUSD)
			pair := []string{quotes[i].id, quotes[j].id}
			if dev > v.thresholds.PriceFatalPct {
				report.Findings = append(report.Findings, domain.ValidationFinding{
					Category: domain.StageMarket,
					Severity: domain.SeverityFatal,
					Description: fmt.Sprintf("price deviation %.2f%% between %s and %s exceeds fatal threshold %.1f%%; one source is returning garbage or stale data",
						dev, quotes[i].id, quotes[j].id, v.thresholds.PriceFatalPct),
					Providers: pair,
					Metric:    metricPtr(dev),
				})
				continue
			}
			if dev > v.thresholds.PriceWarnPct {
				report.Findings = append(report.Findings, domain.ValidationFinding{
					Category: domain.StageMarket,
					Severity: domain.SeverityWarning,
					Description: fmt.Sprintf("price deviation %.2f%% between %s and %s exceeds consistency threshold %.1f%%",
						dev, quotes[i].id, quotes[j].id, v.thresholds.PriceWarnPct),
					Providers: pair,
					Metric:    metricPtr(dev),
				})
			}
		}
	}

	// Volume consistency. Volumes are naturally noisier, hence the wider threshold.
	for i := 0; i < len(quotes); i++ {
		for j := i + 1; j < len(quotes); j++ {
			a, b := quotes[i].payload.Volume24h, quotes[j].payload.Volume24h
			if a <= 0 || b <= 0 {
				continue
			}
			dev := relativeDeviationPct(a, b)
			if dev > v.thresholds.VolumeWarnPct {
				report.Findings = append(report.Findings, domain.ValidationFinding{
					Category: domain.StageMarket,
					Severity: domain.SeverityWarning,
					Description: fmt.Sprintf("volume deviation %.1f%% between %s and %s exceeds consistency threshold %.1f%%",
						dev, quotes[i].id, quotes[j].id, v.thresholds.VolumeWarnPct),
					Providers: []string{quotes[i].id, quotes[j].id},
					Metric:    metricPtr(dev),
				})
			}
		}
	}

	// Arbitrage detection: a spread this wide may be a genuine market
	// condition rather than a data error, so it is informational only.
	for i := 0; i < len(quotes); i++ {
		for j := i + 1; j < len(quotes); j++ {
			dev := relativeDeviationPct(quotes[i].payload.PriceUSD, quotes[j].payload.PriceUSD)
			if dev >= v.thresholds.ArbitragePct && dev <= v.thresholds.PriceFatalPct {
				report.Findings = append(report.Findings, domain.ValidationFinding{
					Category: domain.StageMarket,
					Severity: domain.SeverityInfo,
					Description: fmt.Sprintf("possible arbitrage opportunity: %.2f%% price spread between %s and %s",
						dev, quotes[i].id, quotes[j].id),
					Providers: []string{quotes[i].id, quotes[j].id},
					Metric:    metricPtr(dev),
				})
			}
		}
	}

	report.Score = v.scoreFromFindings(report.Findings, capped)
	for _, f := range report.Findings {
		if f.Severity == domain.SeverityFatal {
			report.Halt = true
			report.HaltReason = f.Description
			break
		}
	}
	return report
}

func providerIDs(results []domain.DataSourceResult) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ProviderID)
	}
	return ids
}
