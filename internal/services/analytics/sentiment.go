package analytics

import (
	"context"
	"math"
	"unicode/utf8"

	"MarketSentry/internal/domain/models"
	domsvc "MarketSentry/internal/domain/service"
)

// MaxScoredTextLen bounds the text passed to the polarity scorer so one long
// article cannot blow up scoring latency or cost.
const MaxScoredTextLen = 500

const classifyBand = 0.05

// SentimentAggregator folds per-text polarity scores into one instrument-level
// value in [-1, 1].
type SentimentAggregator struct {
	scorer domsvc.PolarityScorer
}

func NewSentimentAggregator(scorer domsvc.PolarityScorer) *SentimentAggregator {
	return &SentimentAggregator{scorer: scorer}
}

// Aggregate scores each text and returns the mean of the successful scores.
// Failed scores are excluded rather than counted as zero, so a flaky scorer
// does not drag the mean toward neutral. Empty input and all-failed input both
// yield 0: absence of signal is not negative sentiment.
func (a *SentimentAggregator) Aggregate(ctx context.Context, texts []string) float64 {
	var total float64
	var scored int
	for _, t := range texts {
		if len(t) > MaxScoredTextLen {
			t = truncateToRune(t, MaxScoredTextLen)
		}
		s, err := a.scorer.Score(ctx, t)
		if err != nil {
			continue
		}
		total += s
		scored++
	}
	if scored == 0 {
		return 0
	}
	return total / float64(scored)
}

// truncateToRune cuts s to at most max bytes without splitting a multi-byte
// rune, so the scorer never receives invalid UTF-8.
func truncateToRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Classify labels a polarity score with a confidence on a 0-100 scale.
func Classify(score float64) (models.SentimentLabel, int) {
	confidence := int(math.Round(math.Abs(score) * 100))
	if confidence > 100 {
		confidence = 100
	}
	switch {
	case score > classifyBand:
		return models.SentimentBullish, confidence
	case score < -classifyBand:
		return models.SentimentBearish, confidence
	default:
		return models.SentimentNeutral, confidence
	}
}
