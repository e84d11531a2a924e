package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"MarketSentry/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// QueueMode defines which sides of the queue this instance runs.
type QueueMode int

const (
	ModeProducerConsumer QueueMode = iota
	ModeProducerOnly
	ModeConsumerOnly
)

// RedisQueue is a Redis-backed job queue: a list for pending messages, a
// sorted set for delayed retries, and a list for dead letters.
type RedisQueue struct {
	logger    *logger.Logger
	config    *QueueConfig
	client    *redis.Client
	jobs      map[string]Job
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
	stopCh    chan struct{}
	mode      QueueMode
	ctx       context.Context
	cancel    context.CancelFunc
	keyPrefix string
}

// RedisQueueOption configures RedisQueue.
type RedisQueueOption func(*RedisQueue)

// WithKeyPrefix overrides the default key prefix.
func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(r *RedisQueue) {
		r.keyPrefix = prefix
	}
}

// NewRedisQueue creates a queue. The client is shared with the caller and is
// not closed by Stop.
func NewRedisQueue(lgr *logger.Logger, config *QueueConfig, client *redis.Client, mode QueueMode, opts ...RedisQueueOption) *RedisQueue {
	if config == nil {
		config = &QueueConfig{}
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	rq := &RedisQueue{
		logger:    lgr,
		config:    config,
		client:    client,
		jobs:      make(map[string]Job),
		stopCh:    make(chan struct{}),
		mode:      mode,
		ctx:       ctx,
		cancel:    cancel,
		keyPrefix: "marketsentry:queue",
	}
	for _, opt := range opts {
		opt(rq)
	}
	return rq
}

// RegisterJob registers a job for its message type. No-op in producer-only
// mode; duplicate types keep the first job.
func (r *RedisQueue) RegisterJob(job Job) {
	if r.mode == ModeProducerOnly {
		r.logger.Warn("job registration ignored in producer-only mode",
			logger.String("job", job.Name()))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.Type()]; exists {
		r.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	r.jobs[job.Type()] = job
	r.logger.Info("job registered",
		logger.String("job", job.Name()),
		logger.String("type", job.Type()))
}

// Start verifies the connection and launches workers plus the retry mover.
func (r *RedisQueue) Start() error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return fmt.Errorf("queue already running")
	}
	r.isRunning = true
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.mu.Lock()
		r.isRunning = false
		r.mu.Unlock()
		return fmt.Errorf("redis ping: %w", err)
	}

	if r.mode == ModeProducerOnly {
		r.logger.Info("redis publisher started",
			logger.String("addr", r.client.Options().Addr))
		return nil
	}

	for i := 0; i < r.config.Workers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	r.wg.Add(1)
	go r.retryMover()

	r.logger.Info("redis queue started",
		logger.Int("workers", r.config.Workers),
		logger.String("addr", r.client.Options().Addr))
	return nil
}

// Stop drains workers, bounded by ctx.
func (r *RedisQueue) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.cancel()
	if r.mode != ModeProducerOnly {
		close(r.stopCh)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		r.logger.Warn("timeout waiting for queue workers", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-done:
		r.logger.Info("redis queue stopped")
		return nil
	}
}

// PublishMessage enqueues one message (implements QueueService).
func (r *RedisQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.isRunning {
		return fmt.Errorf("queue not running")
	}
	if r.mode != ModeProducerOnly {
		if _, exists := r.jobs[msgType]; !exists {
			return fmt.Errorf("no job registered for type: %s", msgType)
		}
	}

	msg := Message{
		ID:        strconv.FormatInt(time.Now().UnixNano(), 10),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	msgData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := r.client.LPush(ctx, r.queueKey(), msgData).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	return nil
}

func (r *RedisQueue) worker(id int) {
	defer r.wg.Done()

	for {
		select {
		case <-r.stopCh:
			return
		case <-r.ctx.Done():
			return
		default:
			r.popAndProcess()
		}
	}
}

func (r *RedisQueue) popAndProcess() {
	ctx, cancel := context.WithTimeout(r.ctx, time.Second)
	defer cancel()

	result, err := r.client.BRPop(ctx, time.Second, r.queueKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return
		}
		r.logger.Error("brpop error", logger.Error(err))
		time.Sleep(time.Second)
		return
	}
	if len(result) < 2 {
		return
	}

	var msg Message
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		r.logger.Error("unmarshal message", logger.Error(err))
		return
	}
	r.dispatch(msg)
}

func (r *RedisQueue) dispatch(msg Message) {
	r.mu.RLock()
	job, exists := r.jobs[msg.Type]
	r.mu.RUnlock()
	if !exists {
		r.logger.Error("no job found",
			logger.String("type", msg.Type),
			logger.String("id", msg.ID))
		return
	}

	start := time.Now()
	err := job.Handle(r.ctx, normalizePayload(msg.Payload))
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		r.logger.Warn("message cancelled",
			logger.String("id", msg.ID),
			logger.String("job", job.Name()),
			logger.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return
	}
	r.handleFailure(msg, job, err)
}

// normalizePayload turns a decoded-JSON map back into raw JSON so jobs can
// unmarshal into their own types via ParsePayload.
func normalizePayload(payload interface{}) interface{} {
	payloadMap, ok := payload.(map[string]interface{})
	if !ok {
		return payload
	}
	jsonBytes, err := json.Marshal(payloadMap)
	if err != nil {
		return payload
	}
	return json.RawMessage(jsonBytes)
}

func (r *RedisQueue) handleFailure(msg Message, job Job, err error) {
	r.logger.Error("message processing error",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int("attempt", msg.Attempts+1),
		logger.Error(err))

	if msg.Attempts >= r.config.RetryLimit {
		r.logger.Error("max retries reached",
			logger.String("id", msg.ID),
			logger.String("job", job.Name()))
		r.pushDeadLetter(msg)
		return
	}

	msg.Attempts++
	retryAt := time.Now().Add(r.config.RetryDelay)
	msgData, merr := json.Marshal(msg)
	if merr != nil {
		r.logger.Error("marshal retry", logger.Error(merr))
		return
	}
	zerr := r.client.ZAdd(context.Background(), r.retryKey(), redis.Z{
		Score:  float64(retryAt.Unix()),
		Member: msgData,
	}).Err()
	if zerr != nil {
		r.logger.Error("zadd retry", logger.Error(zerr))
		return
	}
	r.logger.Info("scheduled retry",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int("attempt", msg.Attempts),
		logger.String("retry_at", retryAt.Format(time.RFC3339)))
}

func (r *RedisQueue) pushDeadLetter(msg Message) {
	msgData, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("marshal dlq", logger.Error(err))
		return
	}
	if err := r.client.LPush(context.Background(), r.deadLetterKey(), msgData).Err(); err != nil {
		r.logger.Error("lpush dlq", logger.Error(err))
	}
}

// retryMover periodically moves due retries back onto the main queue.
func (r *RedisQueue) retryMover() {
	defer r.wg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.moveDueRetries()
		}
	}
}

func (r *RedisQueue) moveDueRetries() {
	now := float64(time.Now().Unix())

	due, err := r.client.ZRangeByScoreWithScores(r.ctx, r.retryKey(), &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatFloat(now, 'f', 0, 64),
	}).Result()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Error("fetch retry messages", logger.Error(err))
		}
		return
	}

	for _, z := range due {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		msgData := z.Member.(string)
		pipe := r.client.TxPipeline()
		pipe.ZRem(r.ctx, r.retryKey(), msgData)
		pipe.LPush(r.ctx, r.queueKey(), msgData)
		if _, err := pipe.Exec(r.ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			r.logger.Error("move retry to queue", logger.Error(err))
		}
	}
}

func (r *RedisQueue) queueKey() string      { return r.keyPrefix + ":messages" }
func (r *RedisQueue) retryKey() string      { return r.keyPrefix + ":retry" }
func (r *RedisQueue) deadLetterKey() string { return r.keyPrefix + ":dlq" }
