package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sovereign-veritas/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// MempoolProvider reports BTC mempool statistics from mempool.space.
type MempoolProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewMempoolProvider(tracer trace.Tracer, baseURL string) *MempoolProvider {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = "https://mempool.space"
	}
	return &MempoolProvider{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
	}
}

func (p *MempoolProvider) ID() string          { return "mempool_space" }
func (p *MempoolProvider) Stage() domain.Stage { return domain.StageOnChain }

func (p *MempoolProvider) Fetch(ctx context.Context, symbol string, _ domain.StageContext) (domain.Payload, error) {
	_, span := p.tracer.Start(ctx, "onchain.mempool.fetch")
	defer span.End()

	if strings.ToUpper(symbol) != "BTC" {
		return nil, fmt.Errorf("mempool.space covers BTC only, got %s", symbol)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/v1/statistics/24h", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mempool.space error %d: %s", resp.StatusCode, string(body))
	}

	var rows []struct {
		Count           float64 `json:"count"`
		VBytesPerSecond float64 `json:"vbytes_per_second"`
		MinFee          float64 `json:"min_fee"`
		TotalFee        float64 `json:"total_fee"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode mempool.space payload: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("mempool.space payload has no rows")
	}

	r := rows[0]
	countNorm := clampMetric((r.Count-120000.0)/180000.0, -1, 1)
	throughputNorm := clampMetric((r.VBytesPerSecond-1200.0)/2400.0, -1, 1)
	feeLoadNorm := clampMetric((r.MinFee-5.0)/40.0, -1, 1)
	totalFeeNorm := clampMetric((r.TotalFee-2_000_000.0)/8_000_000.0, -1, 1)

	score := clampMetric((0.35*countNorm)+(0.35*throughputNorm)+(0.15*totalFeeNorm)-(0.15*feeLoadNorm), -1, 1)

	return domain.OnChainPayload{
		Score:   score,
		TxCount: r.Count,
		Metrics: map[string]float64{
			"mempool_count":     r.Count,
			"vbytes_per_second": r.VBytesPerSecond,
			"min_fee":           r.MinFee,
			"total_fee":         r.TotalFee,
		},
	}, nil
}
