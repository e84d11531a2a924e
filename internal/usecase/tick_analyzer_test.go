package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"MarketSentry/internal/services/analytics"
)

func newTestAnalyzer(t *testing.T, news *fakeNews, alerts *fakeAlerts, samples *fakeSamples, q *fakeQueue, m *fakeMetrics) *TickAnalyzer {
	t.Helper()
	return NewTickAnalyzer(
		"price.samples",
		samples, news, &fakeConfigs{}, alerts,
		analytics.NewVolumeDetector(analytics.DefaultWindow),
		analytics.NewSentimentAggregator(nil),
		analytics.NewEvaluator(),
		q, m, testLogger(t),
	)
}

func tick(symbol string, ts int64, price, volume float64) []byte {
	b, _ := json.Marshal(map[string]interface{}{"symbol": symbol, "t": ts, "c": price, "v": volume})
	return b
}

func TestTickAnalyzerRejectsGarbage(t *testing.T) {
	m := newFakeMetrics()
	h := newTestAnalyzer(t, &fakeNews{}, &fakeAlerts{}, &fakeSamples{}, &fakeQueue{}, m)

	if err := h.Handle(context.Background(), []byte("not json")); err == nil {
		t.Fatal("expected unmarshal error")
	}
	if err := h.Handle(context.Background(), []byte(`{"t":0}`)); err == nil {
		t.Fatal("expected invalid tick error for missing symbol")
	}
	if m.errs["consumer_unmarshal"] != 1 || m.errs["consumer_invalid"] != 1 {
		t.Errorf("error metrics wrong: %v", m.errs)
	}
}

func TestTickAnalyzerStoresQuietTick(t *testing.T) {
	samples := &fakeSamples{}
	alerts := &fakeAlerts{}
	h := newTestAnalyzer(t, &fakeNews{}, alerts, samples, &fakeQueue{}, newFakeMetrics())

	ts := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC).Unix()
	if err := h.Handle(context.Background(), tick("AAPL", ts, 180, 5000)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := len(samples.stored()); got != 1 {
		t.Fatalf("sample not stored: %d", got)
	}
	if len(alerts.events) != 0 {
		t.Fatalf("warm-up tick must not alert, got %d", len(alerts.events))
	}
}

func TestTickAnalyzerNormalizesMilliseconds(t *testing.T) {
	samples := &fakeSamples{}
	h := newTestAnalyzer(t, &fakeNews{}, &fakeAlerts{}, samples, &fakeQueue{}, newFakeMetrics())

	sec := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC).Unix()
	if err := h.Handle(context.Background(), tick("AAPL", sec*1000, 180, 5000)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	stored := samples.stored()
	if len(stored) != 1 || stored[0].Timestamp != sec {
		t.Fatalf("ms timestamp not normalized: %+v", stored)
	}
}

func TestTickAnalyzerEscalatesVolumeSpike(t *testing.T) {
	samples := &fakeSamples{}
	alerts := &fakeAlerts{}
	q := &fakeQueue{}
	h := newTestAnalyzer(t, &fakeNews{}, alerts, samples, q, newFakeMetrics())

	// Same minute-of-day so all ticks land in one detector bucket.
	base := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	ctx := context.Background()
	for day := 0; day < 8; day++ {
		ts := base.AddDate(0, 0, day).Unix()
		if err := h.Handle(ctx, tick("TSLA", ts, 250, 100)); err != nil {
			t.Fatalf("baseline tick %d: %v", day, err)
		}
	}
	if len(alerts.events) != 0 {
		t.Fatalf("baseline ticks must not alert, got %d", len(alerts.events))
	}

	spike := base.AddDate(0, 0, 8).Unix()
	if err := h.Handle(ctx, tick("TSLA", spike, 250, 10000)); err != nil {
		t.Fatalf("spike tick: %v", err)
	}
	if len(alerts.events) != 1 {
		t.Fatalf("spike not escalated: %d alerts", len(alerts.events))
	}
	ev := alerts.events[0]
	if !strings.Contains(ev.Message, "VOLUME ANOMALY") {
		t.Errorf("message missing volume clause: %q", ev.Message)
	}
	if len(q.published) != 1 {
		t.Errorf("escalation not dispatched: %d messages", len(q.published))
	}
	// All ticks, spike included, are persisted.
	if got := len(samples.stored()); got != 9 {
		t.Errorf("stored samples: got %d, want 9", got)
	}
}

func TestTickAnalyzerTopic(t *testing.T) {
	h := newTestAnalyzer(t, &fakeNews{}, &fakeAlerts{}, &fakeSamples{}, &fakeQueue{}, newFakeMetrics())
	if h.Topic() != "price.samples" {
		t.Fatalf("topic: %s", h.Topic())
	}
}
