package models

import "time"

// AnomalyStats is the per-observation output of the volume detector.
// Derived, never persisted; recomputed on each observation.
type AnomalyStats struct {
	RVOL      float64 `json:"rvol"`
	ZScore    float64 `json:"z_score"`
	IsAnomaly bool    `json:"is_anomaly"`
}

// NeutralAnomalyStats is returned during warm-up and for degenerate history.
func NeutralAnomalyStats() AnomalyStats {
	return AnomalyStats{RVOL: 1.0, ZScore: 0, IsAnomaly: false}
}

// ThresholdConfig holds per-symbol alert thresholds. Symbols without a stored
// row get DefaultThresholds.
type ThresholdConfig struct {
	Symbol             string  `json:"symbol"`
	PriceThresholdPct  float64 `json:"price_threshold"`
	SentimentThreshold float64 `json:"sentiment_threshold"`
}

const (
	DefaultPriceThresholdPct  = 2.0
	DefaultSentimentThreshold = 0.2
)

// DefaultThresholds returns the fallback config for a symbol.
func DefaultThresholds(symbol string) ThresholdConfig {
	return ThresholdConfig{
		Symbol:             symbol,
		PriceThresholdPct:  DefaultPriceThresholdPct,
		SentimentThreshold: DefaultSentimentThreshold,
	}
}

// SeverityHigh is the single alert severity level. Graduated severities are an
// open extension point; the evaluator emits only this.
const SeverityHigh = "HIGH"

// AlertEvent is the composed output of the threshold evaluator. Immutable once
// created, persisted append-only.
type AlertEvent struct {
	Symbol         string    `json:"symbol"`
	Message        string    `json:"message"`
	Severity       string    `json:"severity"`
	RVOL           float64   `json:"rvol"`
	SentimentScore float64   `json:"sentiment_score"`
	PriceChangePct float64   `json:"price_change_pct"`
	Timestamp      time.Time `json:"timestamp"`
}

// CycleMetrics carries one instrument's per-cycle signals into the evaluator.
type CycleMetrics struct {
	PriceChangePct float64
	SentimentScore float64
	RVOL           float64 // quick session-pace estimate
	Anomaly        AnomalyStats
}

// SentimentLabel classifies an aggregate polarity score.
type SentimentLabel string

const (
	SentimentBullish SentimentLabel = "Bullish"
	SentimentBearish SentimentLabel = "Bearish"
	SentimentNeutral SentimentLabel = "Neutral"
)

// ScoredArticle is a news article with its polarity classification, served by
// the news endpoint.
type ScoredArticle struct {
	NewsArticle
	Score      float64        `json:"score"`
	Label      SentimentLabel `json:"label"`
	Confidence int            `json:"confidence"` // 0-100
	Relevance  string         `json:"relevance"`  // Direct | Sector | Market-Wide
}
