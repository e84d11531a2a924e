package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	applogger "MarketSentry/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	WorkerCount int
	BufferSize  int
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int
	Logger      *applogger.Logger
}

// WithConsumerBrokers sets the broker list.
func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) { c.Brokers = brokers }
}

// WithConsumerGroupID sets the consumer group.
func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) { c.GroupID = groupID }
}

// WithConsumerWorkers sets the worker pool size.
func WithConsumerWorkers(count int) ConsumerOption {
	return func(c *ConsumerConfig) { c.WorkerCount = count }
}

// WithConsumerRetry configures per-message retries and the backoff range.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = max
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithConsumerDLQ sets the dead-letter topic. Empty disables the DLQ, which
// means a poison message blocks its partition until retries are exhausted.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) { c.DLQTopic = topic }
}

// WithConsumerFetch sets fetch min/max bytes.
func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.MinBytes = minBytes
		c.MaxBytes = maxBytes
	}
}

// WithConsumerBufferSize sets the internal channel buffer size.
func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

// WithConsumerLogger sets the structured logger.
func WithConsumerLogger(l *applogger.Logger) ConsumerOption {
	return func(c *ConsumerConfig) { c.Logger = l }
}

// Consumer reads registered topics through a shared worker pool. Per
// (topic, partition) handling is serialized so offsets commit in order.
type Consumer struct {
	cfg      *ConsumerConfig
	l        *applogger.Logger
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	msgChan  chan *envelope
	dlq      *kafka.Writer
	hook     ConsumerHook

	lockMu    sync.Mutex
	partLocks map[string]map[int]*sync.Mutex
}

type envelope struct {
	topic string
	data  []byte
	km    kafka.Message
}

// NewConsumer creates a consumer. Readers are created per topic at Start,
// after handlers are registered.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "default",
		WorkerCount: 1,
		BufferSize:  10,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    10e3,
		MaxBytes:    10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Logger == nil {
		l, err := applogger.New(&applogger.Config{Level: "info", Format: "json", Output: "stderr"})
		if err != nil {
			return nil, err
		}
		cfg.Logger = l
	}

	c := &Consumer{
		cfg:       cfg,
		l:         cfg.Logger,
		readers:   make(map[string]*kafka.Reader),
		handlers:  make(map[string]MessageHandler),
		stopChan:  make(chan struct{}),
		msgChan:   make(chan *envelope, cfg.BufferSize),
		partLocks: make(map[string]map[int]*sync.Mutex),
		hook:      NoopHook{},
	}

	registerConsumerMetrics()

	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}
	return c, nil
}

// WithConsumerHook sets the lifecycle hook. Must be called before Start.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// RegisterHandler registers a handler for its topic. Must be called before
// Start; a duplicate topic keeps the first handler.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.l.Warn("handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// Start creates readers for registered topics and launches the worker pool.
func (c *Consumer) Start() error {
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	for topic, reader := range c.readers {
		c.wg.Add(1)
		go c.readLoop(topic, reader)
	}

	c.l.Info("kafka consumer started",
		applogger.Int("workers", c.cfg.WorkerCount),
		applogger.Int("topics", len(c.readers)),
	)
	return nil
}

// Stop drains workers and closes readers. Bounded by ctx.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error

	c.stopOnce.Do(func() {
		close(c.stopChan)
		close(c.msgChan)
		stopErr = c.waitForWg(ctx)

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				c.l.Warn("reader close error", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.l.Warn("dlq writer close error", applogger.Error(err))
			}
		}
	})
	return stopErr
}

func (c *Consumer) waitForWg(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
	case <-done:
		return nil
	}
}

func (c *Consumer) readLoop(topic string, reader *kafka.Reader) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		msg, err := reader.ReadMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				c.l.Warn("read error", applogger.String("topic", topic), applogger.Error(err))
			}
			continue
		}

		if !c.enqueue(&envelope{topic: topic, data: msg.Value, km: msg}) {
			return
		}
	}
}

// enqueue pushes to the worker channel with backpressure instead of dropping.
// Returns false when the consumer is stopping.
func (c *Consumer) enqueue(e *envelope) bool {
	for {
		select {
		case c.msgChan <- e:
			consumerQueueDepth.WithLabelValues(e.topic).Set(float64(len(c.msgChan)))
			consumerQueueFullness.WithLabelValues(e.topic).Set(float64(len(c.msgChan)) / float64(cap(c.msgChan)))
			return true
		case <-c.stopChan:
			return false
		default:
			full := float64(len(c.msgChan)) / float64(cap(c.msgChan))
			consumerQueueFullness.WithLabelValues(e.topic).Set(full)
			if full > 0.8 {
				time.Sleep(10 * time.Millisecond)
			} else {
				runtime.Gosched()
			}
		}
	}
}

func (c *Consumer) worker() {
	defer c.wg.Done()

	for e := range c.msgChan {
		handler, ok := c.handlers[e.topic]
		if !ok {
			continue
		}
		c.process(handler, e)
	}
}

// process runs the retry loop for one message, panic-safe, serialized per
// (topic, partition).
func (c *Consumer) process(handler MessageHandler, e *envelope) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.l.Error("panic in message handler",
				applogger.String("topic", e.topic),
				applogger.Any("panic", r),
			)
		}
	}()

	pl := c.partitionLock(e.topic, e.km.Partition)
	pl.Lock()
	defer pl.Unlock()

	var err error
	attempts := 0
	for {
		attempts++
		hctx, hmsg, hdata, berr := c.hook.BeforeHandle(context.Background(), e.topic, e.km, e.data)
		if berr != nil {
			err = berr
			break
		}

		err = handler.Handle(hctx, hdata)
		c.hook.AfterHandle(hctx, e.topic, hmsg, hdata, err)
		if err == nil || attempts > c.cfg.RetryMax {
			break
		}
		c.hook.OnError(hctx, e.topic, hmsg, hdata, err)

		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)):
		case <-c.stopChan:
			return
		}
	}

	if err != nil {
		c.hook.OnError(context.Background(), e.topic, e.km, e.data, err)
		c.l.Error("message failed",
			applogger.String("topic", e.topic),
			applogger.Int("attempts", attempts),
			applogger.Error(err),
		)
		c.sendToDLQ(e)
	}

	// Commit on success, or after DLQ so a poison message cannot loop.
	if err == nil || c.dlq != nil {
		if reader := c.readers[e.topic]; reader != nil {
			_ = c.commitWithRetry(reader, e.km, 3)
		}
	}
	consumerHandleLatency.WithLabelValues(e.topic).Observe(time.Since(start).Seconds())
}

func (c *Consumer) sendToDLQ(e *envelope) {
	if c.dlq == nil || c.cfg.DLQTopic == "" {
		return
	}
	dlqErr := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Topic:   c.cfg.DLQTopic,
		Value:   e.data,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(e.topic)}},
	})
	if dlqErr != nil {
		c.l.Error("dlq write error", applogger.String("topic", c.cfg.DLQTopic), applogger.Error(dlqErr))
	}
}

func (c *Consumer) commitWithRetry(reader *kafka.Reader, km kafka.Message, max int) error {
	if max <= 0 {
		max = 1
	}
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.l.Error("commit failed", applogger.Int("attempts", max), applogger.Error(err))
	return err
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()

	m, ok := c.partLocks[topic]
	if !ok {
		m = make(map[int]*sync.Mutex)
		c.partLocks[topic] = m
	}
	l, ok := m[partition]
	if !ok {
		l = &sync.Mutex{}
		m[partition] = l
	}
	return l
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	exp := min * time.Duration(1<<uint(attempt-1))
	if exp > max {
		exp = max
	}
	// jitter up to 50%
	jitter := time.Duration(rand.Int63n(int64(exp) / 2))
	return exp - jitter
}

var (
	consumerMetricsOnce   sync.Once
	consumerQueueDepth    *prometheus.GaugeVec
	consumerQueueFullness *prometheus.GaugeVec
	consumerHandleLatency *prometheus.HistogramVec
)

func registerConsumerMetrics() {
	consumerMetricsOnce.Do(func() {
		consumerQueueDepth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{Name: "marketsentry_kafka_consumer_queue_depth", Help: "Number of messages waiting in consumer queue"},
			[]string{"topic"},
		)
		consumerQueueFullness = promauto.NewGaugeVec(
			prometheus.GaugeOpts{Name: "marketsentry_kafka_consumer_queue_fullness", Help: "Queue utilization ratio (len/cap)"},
			[]string{"topic"},
		)
		consumerHandleLatency = promauto.NewHistogramVec(
			prometheus.HistogramOpts{Name: "marketsentry_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)
	})
}
