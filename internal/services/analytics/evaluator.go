package analytics

import (
	"fmt"
	"math"
	"strings"
	"time"

	"MarketSentry/internal/domain/models"
)

// rvolClauseTrigger is the quick-RVOL level above which the volume clause
// fires. Distinct from the detector's statistical trigger: this one measures
// session pace, the detector measures time-of-day deviation.
const rvolClauseTrigger = 2.0

// Evaluator combines a cycle's price, sentiment, and volume signals against
// per-symbol thresholds and composes at most one alert.
type Evaluator struct {
	now func() time.Time
}

func NewEvaluator() *Evaluator {
	return &Evaluator{now: time.Now}
}

// Evaluate checks each clause independently and folds all that fire into a
// single AlertEvent. Returns nil when no clause fires; an alert is never
// emitted with an empty message.
func (e *Evaluator) Evaluate(symbol string, m models.CycleMetrics, cfg models.ThresholdConfig) *models.AlertEvent {
	var clauses []string

	if m.RVOL > rvolClauseTrigger {
		clauses = append(clauses, fmt.Sprintf("VOLUME ANOMALY: %.1fx normal", m.RVOL))
	}

	if math.Abs(m.PriceChangePct) >= cfg.PriceThresholdPct {
		direction := "up"
		if m.PriceChangePct < 0 {
			direction = "down"
		}
		clauses = append(clauses, fmt.Sprintf("PRICE MOVE: %s %.2f%% (limit %.1f%%)",
			direction, math.Abs(m.PriceChangePct), cfg.PriceThresholdPct))
	}

	if math.Abs(m.SentimentScore) >= cfg.SentimentThreshold {
		tone := "bullish"
		if m.SentimentScore < 0 {
			tone = "bearish"
		}
		clauses = append(clauses, fmt.Sprintf("SENTIMENT SHIFT: %s (%.2f)", tone, m.SentimentScore))
	}

	if len(clauses) == 0 {
		return nil
	}

	return &models.AlertEvent{
		Symbol:         symbol,
		Message:        strings.Join(clauses, "\n"),
		Severity:       models.SeverityHigh,
		RVOL:           m.RVOL,
		SentimentScore: m.SentimentScore,
		PriceChangePct: m.PriceChangePct,
		Timestamp:      e.now().UTC(),
	}
}

// AnomalyScore maps quick RVOL and percent change onto a 0-100 ladder for the
// live scores endpoint.
func AnomalyScore(rvol, changePct float64) int {
	score := 0
	if rvol > 1.5 {
		score += 30
	}
	if rvol > 3.0 {
		score += 30
	}
	if math.Abs(changePct) > 2.0 {
		score += 20
	}
	if math.Abs(changePct) > 5.0 {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return score
}

// QuickRVOL estimates relative volume as session pace: current volume against
// the average daily volume prorated over a 6.5 hour trading session.
func QuickRVOL(volume, avgDailyVolume float64) float64 {
	if avgDailyVolume <= 0 {
		avgDailyVolume = volume
	}
	if avgDailyVolume <= 0 {
		return 0
	}
	return volume / (avgDailyVolume / SessionBuckets)
}

// SessionBuckets models a 6.5-hour equity session when prorating daily volume.
const SessionBuckets = 6.5
