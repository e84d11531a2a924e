package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
)

// SampleProcessor routes live samples to the configured backend: either the
// Kafka topic (consumed by the TickAnalyzer) or straight into the store.
type SampleProcessor struct {
	pub     domrepo.SamplePublisher
	store   domrepo.SampleStore
	metrics domrepo.Metrics
	backend string
}

func NewSampleProcessor(
	pub domrepo.SamplePublisher,
	store domrepo.SampleStore,
	metrics domrepo.Metrics,
	backend string,
) *SampleProcessor {
	return &SampleProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Process routes a single sample.
func (p *SampleProcessor) Process(ctx context.Context, s *models.PriceSample) error {
	if s == nil {
		return fmt.Errorf("sample is nil")
	}

	start := time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, s)
	case "clickhouse":
		err = p.store.Store(ctx, s)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process sample: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, s.Symbol)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes multiple samples in one call.
func (p *SampleProcessor) ProcessBatch(ctx context.Context, samples []*models.PriceSample) error {
	if len(samples) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, samples)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, samples)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, s := range samples {
		p.metrics.RecordMessageSent(p.backend, s.Symbol)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *SampleProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
