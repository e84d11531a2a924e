package repository

import (
	"context"
	"testing"

	"MarketSentry/internal/domain/models"
	"MarketSentry/internal/service/cache"
	applogger "MarketSentry/pkg/logger"
)

type countingConfigStore struct {
	gets int
	cfg  *models.ThresholdConfig
	puts []*models.ThresholdConfig
}

func (c *countingConfigStore) Get(ctx context.Context, symbol string) (*models.ThresholdConfig, error) {
	c.gets++
	return c.cfg, nil
}

func (c *countingConfigStore) Put(ctx context.Context, cfg *models.ThresholdConfig) error {
	c.puts = append(c.puts, cfg)
	return nil
}

func newTestCacheLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestCachedConfigStoreHit(t *testing.T) {
	inner := &countingConfigStore{cfg: &models.ThresholdConfig{
		Symbol: "AAPL", PriceThresholdPct: 3.5, SentimentThreshold: 0.4,
	}}
	s := NewCachedConfigStore(inner, cache.NewTTLCache(), newTestCacheLogger(t))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		cfg, err := s.Get(ctx, "AAPL")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if cfg == nil || cfg.PriceThresholdPct != 3.5 {
			t.Fatalf("wrong config returned: %+v", cfg)
		}
	}
	if inner.gets != 1 {
		t.Errorf("inner store hit %d times, want 1", inner.gets)
	}
}

func TestCachedConfigStoreAbsentNotCached(t *testing.T) {
	inner := &countingConfigStore{cfg: nil}
	s := NewCachedConfigStore(inner, cache.NewTTLCache(), newTestCacheLogger(t))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		cfg, err := s.Get(ctx, "TSLA")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if cfg != nil {
			t.Fatalf("expected nil config, got %+v", cfg)
		}
	}
	// Absence is not cached: a later Put must become visible immediately.
	if inner.gets != 2 {
		t.Errorf("inner store hit %d times, want 2", inner.gets)
	}
}

func TestCachedConfigStorePutWritesThrough(t *testing.T) {
	inner := &countingConfigStore{}
	s := NewCachedConfigStore(inner, cache.NewTTLCache(), newTestCacheLogger(t))

	ctx := context.Background()
	cfg := &models.ThresholdConfig{Symbol: "NVDA", PriceThresholdPct: 5, SentimentThreshold: 0.5}
	if err := s.Put(ctx, cfg); err != nil {
		t.Fatalf("put: %v", err)
	}
	if len(inner.puts) != 1 {
		t.Fatalf("write-through missed: %d puts", len(inner.puts))
	}

	got, err := s.Get(ctx, "NVDA")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.PriceThresholdPct != 5 {
		t.Fatalf("put not visible via cache: %+v", got)
	}
	if inner.gets != 0 {
		t.Errorf("get after put should be served from cache, inner hit %d times", inner.gets)
	}
}
