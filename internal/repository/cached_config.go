package repository

import (
	"context"
	"encoding/json"
	"time"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	"MarketSentry/internal/service/cache"
	applogger "MarketSentry/pkg/logger"
)

const configCacheTTL = 60 * time.Second

// CachedConfigStore fronts a ConfigStore with a bytes cache so the per-cycle
// threshold read does not hit ClickHouse for every instrument. Cache failures
// degrade to the inner store, never to an error.
type CachedConfigStore struct {
	inner domrepo.ConfigStore
	cache cache.BytesCache
	l     *applogger.Logger
}

func NewCachedConfigStore(inner domrepo.ConfigStore, c cache.BytesCache, l *applogger.Logger) *CachedConfigStore {
	return &CachedConfigStore{inner: inner, cache: c, l: l}
}

func (s *CachedConfigStore) Get(ctx context.Context, symbol string) (*models.ThresholdConfig, error) {
	key := cacheKey(symbol)
	if b, ok, err := s.cache.GetBytes(key); err == nil && ok {
		var cfg models.ThresholdConfig
		if err := json.Unmarshal(b, &cfg); err == nil {
			return &cfg, nil
		}
	} else if err != nil {
		s.l.Warn("config cache read failed", applogger.String("symbol", symbol), applogger.Error(err))
	}

	cfg, err := s.inner.Get(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		s.cacheSet(key, cfg)
	}
	return cfg, nil
}

func (s *CachedConfigStore) Put(ctx context.Context, cfg *models.ThresholdConfig) error {
	if err := s.inner.Put(ctx, cfg); err != nil {
		return err
	}
	s.cacheSet(cacheKey(cfg.Symbol), cfg)
	return nil
}

func (s *CachedConfigStore) cacheSet(key string, cfg *models.ThresholdConfig) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := s.cache.SetBytes(key, b, configCacheTTL); err != nil {
		s.l.Warn("config cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}

func cacheKey(symbol string) string {
	return "marketsentry:config:" + symbol
}
