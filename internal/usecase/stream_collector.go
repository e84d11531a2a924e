package usecase

import (
	"context"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	mid "MarketSentry/internal/middleware"
)

// StreamCollector pulls live samples off the market stream and pushes them
// through the realtime pipeline.
type StreamCollector struct {
	stream  domrepo.MarketStream
	proc    *SampleProcessor
	metrics domrepo.Metrics
	pipe    *mid.RealtimePipeline
}

func NewStreamCollector(stream domrepo.MarketStream, proc *SampleProcessor, metrics domrepo.Metrics, pipe *mid.RealtimePipeline) *StreamCollector {
	return &StreamCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected reports the stream connection status.
func (c *StreamCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *StreamCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	sampleCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, sampleCh, errCh)
	return nil
}

// consume drains one read session and rolls over to a fresh one after a
// transport error. The stream closes both channels when its read loop exits,
// so a closed error channel with no pending error is terminal.
func (c *StreamCollector) consume(ctx context.Context, sampleCh <-chan *models.PriceSample, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				return
			}
			if err == nil {
				continue
			}
			c.metrics.RecordError("stream")
			if !c.reconnect(ctx) {
				return
			}
			// the broken session's channels are closed; read the new session
			sampleCh, errCh = c.stream.Read(ctx)
		case s, ok := <-sampleCh:
			if !ok {
				// stop selecting on the closed channel; the pending error,
				// if any, still arrives on errCh
				sampleCh = nil
				continue
			}
			if s == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, s)
			} else {
				_ = c.proc.Process(ctx, s)
			}
			c.metrics.RecordLastPrice(s.Symbol, s.Price)
		}
	}
}

// reconnect retries until the stream is back or ctx ends. The stream's own
// Reconnect waits its reconnect delay before dialing, which paces the loop.
func (c *StreamCollector) reconnect(ctx context.Context) bool {
	for {
		if err := c.stream.Reconnect(ctx); err == nil {
			return true
		}
		c.metrics.RecordError("stream_reconnect")
		if ctx.Err() != nil {
			return false
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *StreamCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
