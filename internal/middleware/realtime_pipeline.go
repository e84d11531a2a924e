package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, s *models.PriceSample) error
}

// RealtimePipeline sits between the market stream and the sample processor.
// It validates, throttles per symbol, and buffers when downstream is
// unavailable.
type RealtimePipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.PriceSample
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-symbol last accepted time
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max samples per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,
		bufSize:  1000,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.PriceSample, p.bufSize)
	return p
}

// Start launches background flushing of buffered samples.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case s := <-p.bufCh:
				if s == nil {
					continue
				}
				if err := p.proc.Process(ctx, s); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- s:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a sample, buffering on downstream
// errors.
func (p *RealtimePipeline) Process(ctx context.Context, s *models.PriceSample) error {
	start := time.Now()
	if err := validateSample(s); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(s.Symbol, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, s); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- s:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateSample(s *models.PriceSample) error {
	if s == nil {
		return fmt.Errorf("sample nil")
	}
	if s.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if s.Timestamp <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	if s.Price < 0 || s.Volume < 0 {
		return fmt.Errorf("negative price/volume")
	}
	return nil
}

func (p *RealtimePipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	minGap := time.Second / time.Duration(p.maxRPS)
	if !last.IsZero() && now.Sub(last) < minGap {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
