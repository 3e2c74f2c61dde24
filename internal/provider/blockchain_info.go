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

const blockchainInfoBaseURL = "https://api.blockchain.info"

// BlockchainInfoProvider reports BTC network statistics. Other symbols fail,
// which the collector records as a degraded (not fatal) result.
type BlockchainInfoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewBlockchainInfoProvider(tracer trace.Tracer) *BlockchainInfoProvider {
	return &BlockchainInfoProvider{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: blockchainInfoBaseURL,
		tracer:  tracer,
	}
}

func (p *BlockchainInfoProvider) ID() string          { return "blockchain_info" }
func (p *BlockchainInfoProvider) Stage() domain.Stage { return domain.StageOnChain }

func (p *BlockchainInfoProvider) Fetch(ctx context.Context, symbol string, _ domain.StageContext) (domain.Payload, error) {
	_, span := p.tracer.Start(ctx, "onchain.blockchain-info.fetch")
	defer span.End()

	if strings.ToUpper(symbol) != "BTC" {
		return nil, fmt.Errorf("blockchain.info covers BTC only, got %s", symbol)
	}

	url := strings.TrimRight(p.baseURL, "/") + "/stats?format=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
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
		return nil, fmt.Errorf("blockchain.info error %d: %s", resp.StatusCode, string(body))
	}

	var raw struct {
		NTx              float64 `json:"n_tx"`
		NUniqueAddresses float64 `json:"n_unique_addresses"`
		EstimatedBTCSent float64 `json:"estimated_btc_sent"`
		TradeVolumeBTC   float64 `json:"trade_volume_btc"`
		HashRate         float64 `json:"hash_rate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode blockchain.info payload: %w", err)
	}
	if raw.NTx <= 0 {
		return nil, fmt.Errorf("blockchain.info payload has no transactions")
	}

	// estimated_btc_sent is reported in satoshi.
	sentBTC := raw.EstimatedBTCSent / 1e8

	// Positive flow means coins moving toward exchanges relative to on-chain
	// settlement, a coarse inflow proxy.
	netFlow := raw.TradeVolumeBTC - sentBTC

	activityNorm := clampMetric((raw.NTx-250000.0)/350000.0, -1, 1)
	addressNorm := clampMetric((raw.NUniqueAddresses-400000.0)/600000.0, -1, 1)
	flowNorm := clampMetric(netFlow/50000.0, -1, 1)

	score := clampMetric(0.4*activityNorm+0.35*addressNorm-0.25*flowNorm, -1, 1)

	return domain.OnChainPayload{
		Score:           score,
		NetExchangeFlow: netFlow,
		ActiveAddresses: raw.NUniqueAddresses,
		TxCount:         raw.NTx,
		Metrics: map[string]float64{
			"n_tx":               raw.NTx,
			"n_unique_addresses": raw.NUniqueAddresses,
			"estimated_btc_sent": sentBTC,
			"trade_volume_btc":   raw.TradeVolumeBTC,
			"hash_rate":          raw.HashRate,
		},
	}, nil
}

func clampMetric(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
