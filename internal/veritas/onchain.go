package veritas

import (
	"fmt"
	"sort"

	"sovereign-veritas/internal/domain"
)

// Market action at or below this 24h change counts as strongly bearish for
// the market-to-chain consistency check.
const stronglyBearishChangePct = -5

// Net outflows larger than this (in native units) count as "large".
const largeOutflowFloor = 10000

// Anomaly scores above this level flag a provider's metric vector.
const anomalyFloor = 0.6

// validateOnChain produces a 0-100 consistency score directly rather than
// from pairwise thresholds: on-chain signals are multi-dimensional, so the
// score comes from directional agreement between providers, with an anomaly
// pass over the raw metric vectors and a market-to-chain cross-check against
// the prior stage.
func (v *Validator) validateOnChain(results []domain.DataSourceResult, prior domain.StageContext) StageReport {
	report := StageReport{Stage: domain.StageOnChain}
	ok := okResults(results)

	capped := false
	if len(ok) < 2 {
		capped = true
		report.Findings = append(report.Findings, domain.ValidationFinding{
			Category:    domain.StageOnChain,
			Severity:    domain.SeverityWarning,
			Description: fmt.Sprintf("insufficient corroboration: %d of %d on-chain providers succeeded", len(ok), len(results)),
			Providers:   providerIDs(ok),
		})
	}

	snapshots := make([]onChainReading, 0, len(ok))
	for _, r := range ok {
		p, isOnChain := r.Payload.(domain.OnChainPayload)
		if !isOnChain {
			report.Findings = append(report.Findings, domain.ValidationFinding{
				Category:    domain.StageOnChain,
				Severity:    domain.SeverityFatal,
				Description: fmt.Sprintf("provider %s returned a non-onchain payload for the onchain stage", r.ProviderID),
				Providers:   []string{r.ProviderID},
			})
			report.Score = 0
			report.Halt = true
			report.HaltReason = report.Findings[len(report.Findings)-1].Description
			return report
		}
		snapshots = append(snapshots, onChainReading{id: r.ProviderID, payload: p})
	}

	if len(snapshots) == 0 {
		report.Score = 0
		return report
	}

	// Market-to-chain consistency: large net exchange outflows are a
	// bullish structural signal and should not coexist with strongly
	// bearish price action unnoticed.
	netFlow := 0.0
	for _, s := range snapshots {
		netFlow += s.payload.NetExchangeFlow
	}
	if market := prior.MarketConsensus(); market != nil {
		if netFlow < -largeOutflowFloor && market.Change24hPct <= stronglyBearishChangePct {
			report.Findings = append(report.Findings, domain.ValidationFinding{
				Category: domain.StageOnChain,
				Severity: domain.SeverityWarning,
				Description: fmt.Sprintf("market-to-chain mismatch: net exchange outflow %.0f alongside %.1f%% 24h price drop",
					-netFlow, market.Change24hPct),
				Providers: providerIDs(ok),
				Metric:    metricPtr(netFlow),
			})
		}
	}

	// Anomaly pass over the raw metric vectors, when a scorer is wired.
	if v.anomaly != nil {
		rows, ids := metricMatrix(snapshots)
		if len(rows) >= 2 {
			scores := v.anomaly.Scores(rows)
			for i, s := range scores {
				if i < len(ids) && s >= anomalyFloor {
					report.Findings = append(report.Findings, domain.ValidationFinding{
						Category:    domain.StageOnChain,
						Severity:    domain.SeverityInfo,
						Description: fmt.Sprintf("on-chain metric vector from %s looks anomalous (score %.2f)", ids[i], s),
						Providers:   []string{ids[i]},
						Metric:      metricPtr(s),
					})
				}
			}
		}
	}

	// Directional agreement: providers' [-1,1] scores spread at most 2
	// apart; a tight cluster is consistent, a wide one is not.
	spread := 0.0
	for i := 0; i < len(snapshots); i++ {
		for j := i + 1; j < len(snapshots); j++ {
			d := snapshots[i].payload.Score - snapshots[j].payload.Score
			if d < 0 {
				d = -d
			}
			if d > spread {
				spread = d
			}
		}
	}
	consistency := clamp(100*(1-spread/2), 0, 100)

	// Findings still cost trust on top of the consistency base.
	penalty := 0.0
	for _, f := range report.Findings {
		if f.Severity == domain.SeverityWarning {
			penalty += v.thresholds.WarningPenalty
		}
	}
	score := clamp(consistency-penalty, 0, 100)
	if capped && score > v.thresholds.SingleSourceCap {
		score = v.thresholds.SingleSourceCap
	}
	report.Score = score
	return report
}

type onChainReading struct {
	id      string
	payload domain.OnChainPayload
}

// metricMatrix flattens every snapshot's metrics onto the union of metric
// keys so rows are comparable. Missing metrics become zero.
func metricMatrix(snapshots []onChainReading) ([][]float64, []string) {
	keySet := make(map[string]struct{})
	for _, s := range snapshots {
		for k := range s.payload.Metrics {
			keySet[k] = struct{}{}
		}
	}
	if len(keySet) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]float64, 0, len(snapshots))
	ids := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		row := make([]float64, len(keys))
		for i, k := range keys {
			row[i] = s.payload.Metrics[k]
		}
		rows = append(rows, row)
		ids = append(ids, s.id)
	}
	return rows, ids
}
