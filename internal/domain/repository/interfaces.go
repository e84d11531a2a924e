package repository

import (
	"context"
	"time"

	"MarketSentry/internal/domain/models"
)

// MarketData provides quote snapshots and price history for a symbol.
type MarketData interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetHistoricalCloses(ctx context.Context, symbol string, lookbackDays int) ([]float64, error)
}

// NewsProvider searches recent news for a free-text query.
type NewsProvider interface {
	Search(ctx context.Context, query string, pageSize int) ([]models.NewsArticle, error)
}

// MarketStream delivers live price samples over a push transport.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceSample, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// ConfigStore persists per-symbol thresholds. Get returns (nil, nil) when no
// row exists; callers substitute models.DefaultThresholds.
type ConfigStore interface {
	Get(ctx context.Context, symbol string) (*models.ThresholdConfig, error)
	Put(ctx context.Context, cfg *models.ThresholdConfig) error
}

// AlertStore persists alert events append-only.
type AlertStore interface {
	Append(ctx context.Context, a *models.AlertEvent) error
	Recent(ctx context.Context, symbol string, limit int) ([]*models.AlertEvent, error)
}

// SampleStore persists raw price/volume samples append-only.
type SampleStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, s *models.PriceSample) error
	StoreBatch(ctx context.Context, samples []*models.PriceSample) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.PriceSample, error)
	Health(ctx context.Context) error
	Close() error
}

// SamplePublisher publishes samples to the streaming backend.
type SamplePublisher interface {
	Publish(ctx context.Context, s *models.PriceSample) error
	PublishBatch(ctx context.Context, samples []*models.PriceSample) error
	Close() error
}

// Notifier sends a human-readable alert message. Best effort: errors are
// logged by the caller, never retried.
type Notifier interface {
	Send(ctx context.Context, symbol, message string) error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordCycle(outcome string)
	RecordAlert(symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordMessageSent(backend, symbol string)
}
