package analytics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"MarketSentry/internal/domain/models"
)

type stubScorer struct {
	scores map[string]float64
	failOn map[string]bool
	seen   []string
}

func (s *stubScorer) Score(_ context.Context, text string) (float64, error) {
	s.seen = append(s.seen, text)
	if s.failOn[text] {
		return 0, errors.New("scoring backend unavailable")
	}
	return s.scores[text], nil
}

func TestAggregateEmpty(t *testing.T) {
	agg := NewSentimentAggregator(&stubScorer{})
	if got := agg.Aggregate(context.Background(), nil); got != 0 {
		t.Fatalf("empty input: expected 0, got %v", got)
	}
}

func TestAggregateMean(t *testing.T) {
	sc := &stubScorer{scores: map[string]float64{"a": 0.8, "b": -0.2, "c": 0.3}}
	agg := NewSentimentAggregator(sc)
	got := agg.Aggregate(context.Background(), []string{"a", "b", "c"})
	want := (0.8 - 0.2 + 0.3) / 3
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("mean: got %v want %v", got, want)
	}
	if got < -1 || got > 1 {
		t.Fatalf("aggregate %v outside [-1,1]", got)
	}
}

func TestAggregateExcludesFailures(t *testing.T) {
	sc := &stubScorer{
		scores: map[string]float64{"good": 0.6},
		failOn: map[string]bool{"bad": true},
	}
	agg := NewSentimentAggregator(sc)
	// Failure must be excluded from the mean, not averaged in as zero.
	if got := agg.Aggregate(context.Background(), []string{"good", "bad"}); got != 0.6 {
		t.Fatalf("expected 0.6 with failed item excluded, got %v", got)
	}
}

func TestAggregateAllFailed(t *testing.T) {
	sc := &stubScorer{failOn: map[string]bool{"x": true, "y": true}}
	agg := NewSentimentAggregator(sc)
	if got := agg.Aggregate(context.Background(), []string{"x", "y"}); got != 0 {
		t.Fatalf("all-failed input: expected 0, got %v", got)
	}
}

func TestAggregateTruncatesLongTexts(t *testing.T) {
	sc := &stubScorer{}
	agg := NewSentimentAggregator(sc)
	agg.Aggregate(context.Background(), []string{strings.Repeat("x", 2*MaxScoredTextLen)})
	if len(sc.seen) != 1 {
		t.Fatalf("expected one scoring call, got %d", len(sc.seen))
	}
	if len(sc.seen[0]) != MaxScoredTextLen {
		t.Fatalf("text not truncated: len=%d", len(sc.seen[0]))
	}
}

func TestAggregateTruncatesOnRuneBoundary(t *testing.T) {
	sc := &stubScorer{}
	agg := NewSentimentAggregator(sc)
	// 3-byte runes: the byte cap falls mid-rune, so a byte-boundary slice
	// would hand the scorer invalid UTF-8.
	agg.Aggregate(context.Background(), []string{strings.Repeat("€", MaxScoredTextLen)})
	if len(sc.seen) != 1 {
		t.Fatalf("expected one scoring call, got %d", len(sc.seen))
	}
	got := sc.seen[0]
	if len(got) > MaxScoredTextLen {
		t.Errorf("truncated text too long: len=%d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncation split a rune: trailing bytes %q", got[len(got)-3:])
	}
	if got != strings.Repeat("€", len(got)/3) {
		t.Errorf("truncation mangled content")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		score      float64
		label      models.SentimentLabel
		confidence int
	}{
		{0.8, models.SentimentBullish, 80},
		{0.06, models.SentimentBullish, 6},
		{0.05, models.SentimentNeutral, 5},
		{0, models.SentimentNeutral, 0},
		{-0.05, models.SentimentNeutral, 5},
		{-0.3, models.SentimentBearish, 30},
		{-1, models.SentimentBearish, 100},
	}
	for _, c := range cases {
		label, conf := Classify(c.score)
		if label != c.label || conf != c.confidence {
			t.Errorf("Classify(%v) = (%s, %d), want (%s, %d)", c.score, label, conf, c.label, c.confidence)
		}
	}
}
