package analytics

import (
	"strings"
	"testing"

	"MarketSentry/internal/domain/models"
)

func defaultCfg() models.ThresholdConfig { return models.DefaultThresholds("AAPL") }

func TestEvaluateSilentCycle(t *testing.T) {
	ev := NewEvaluator()
	m := models.CycleMetrics{
		PriceChangePct: 1.0,
		SentimentScore: 0.1,
		RVOL:           1.2,
		Anomaly:        models.NeutralAnomalyStats(),
	}
	if alert := ev.Evaluate("AAPL", m, defaultCfg()); alert != nil {
		t.Fatalf("expected no alert, got %q", alert.Message)
	}
}

func TestEvaluatePriceClause(t *testing.T) {
	ev := NewEvaluator()
	alert := ev.Evaluate("AAPL", models.CycleMetrics{PriceChangePct: 3.0}, defaultCfg())
	if alert == nil {
		t.Fatal("expected alert for 3 percent move against 2 percent threshold")
	}
	if !strings.Contains(alert.Message, "PRICE MOVE") {
		t.Fatalf("message missing price clause: %q", alert.Message)
	}
	if !strings.Contains(alert.Message, "up") {
		t.Fatalf("message missing direction: %q", alert.Message)
	}
	if alert.Severity != models.SeverityHigh {
		t.Fatalf("severity %q, want %q", alert.Severity, models.SeverityHigh)
	}
}

func TestEvaluatePriceClauseDownDirection(t *testing.T) {
	ev := NewEvaluator()
	alert := ev.Evaluate("AAPL", models.CycleMetrics{PriceChangePct: -2.5}, defaultCfg())
	if alert == nil {
		t.Fatal("expected alert")
	}
	if !strings.Contains(alert.Message, "down") {
		t.Fatalf("message missing down direction: %q", alert.Message)
	}
}

func TestEvaluateAllClausesFoldIntoOneAlert(t *testing.T) {
	ev := NewEvaluator()
	m := models.CycleMetrics{
		PriceChangePct: 4.0,
		SentimentScore: -0.5,
		RVOL:           2.7,
	}
	alert := ev.Evaluate("TSLA", m, defaultCfg())
	if alert == nil {
		t.Fatal("expected a single folded alert")
	}
	for _, clause := range []string{"VOLUME ANOMALY", "PRICE MOVE", "SENTIMENT SHIFT"} {
		if !strings.Contains(alert.Message, clause) {
			t.Errorf("message missing %s clause: %q", clause, alert.Message)
		}
	}
	if !strings.Contains(alert.Message, "bearish") {
		t.Errorf("message missing sentiment direction: %q", alert.Message)
	}
}

func TestEvaluateCustomThresholds(t *testing.T) {
	ev := NewEvaluator()
	cfg := models.ThresholdConfig{Symbol: "TCS.NS", PriceThresholdPct: 5.0, SentimentThreshold: 0.5}
	if alert := ev.Evaluate("TCS.NS", models.CycleMetrics{PriceChangePct: 3.0, SentimentScore: 0.3}, cfg); alert != nil {
		t.Fatalf("raised thresholds should suppress alert, got %q", alert.Message)
	}
}

func TestEvaluateVolumeClauseBoundary(t *testing.T) {
	ev := NewEvaluator()
	// Trigger is strict: exactly 2.0 does not fire.
	if alert := ev.Evaluate("A", models.CycleMetrics{RVOL: 2.0}, defaultCfg()); alert != nil {
		t.Fatalf("rvol==2.0 should not fire, got %q", alert.Message)
	}
	if alert := ev.Evaluate("A", models.CycleMetrics{RVOL: 2.01}, defaultCfg()); alert == nil {
		t.Fatal("rvol just above 2.0 should fire")
	}
}

func TestAnomalyScoreLadder(t *testing.T) {
	cases := []struct {
		rvol, chg float64
		want      int
	}{
		{1.0, 0, 0},
		{1.6, 0, 30},
		{3.5, 0, 60},
		{1.6, 2.5, 50},
		{3.5, 6.0, 100},
		{0.5, 6.0, 40},
	}
	for _, c := range cases {
		if got := AnomalyScore(c.rvol, c.chg); got != c.want {
			t.Errorf("AnomalyScore(%v, %v) = %d, want %d", c.rvol, c.chg, got, c.want)
		}
	}
}

func TestQuickRVOL(t *testing.T) {
	// 1M current against 6.5M daily average means exactly session pace.
	if got := QuickRVOL(1_000_000, 6_500_000); got != 1.0 {
		t.Fatalf("expected 1.0, got %v", got)
	}
	// Missing average falls back to current volume.
	if got := QuickRVOL(100, 0); got != SessionBuckets {
		t.Fatalf("expected %v with zero average, got %v", SessionBuckets, got)
	}
}

func TestNewsRelevance(t *testing.T) {
	cases := []struct {
		text, symbol, want string
	}{
		{"AAPL surges on earnings", "AAPL", RelevanceDirect},
		{"tcs wins major contract", "TCS.NS", RelevanceDirect},
		{"Tech sector rallies broadly", "AAPL", RelevanceSector},
		{"Fed holds rates steady", "AAPL", RelevanceMarketWide},
	}
	for _, c := range cases {
		if got := NewsRelevance(c.text, c.symbol); got != c.want {
			t.Errorf("NewsRelevance(%q, %q) = %q, want %q", c.text, c.symbol, got, c.want)
		}
	}
}
