package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketSentry/pkg/logger"
)

// MemoryQueue is an in-process queue with the same job registry contract as
// RedisQueue. Used when Redis is not configured: messages survive neither a
// restart nor a full buffer, which is acceptable for best-effort dispatch.
type MemoryQueue struct {
	logger    *logger.Logger
	config    *QueueConfig
	jobs      map[string]Job
	msgCh     chan Message
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewMemoryQueue creates an in-process queue.
func NewMemoryQueue(lgr *logger.Logger, config *QueueConfig) *MemoryQueue {
	if config == nil {
		config = &QueueConfig{}
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &MemoryQueue{
		logger: lgr,
		config: config,
		jobs:   make(map[string]Job),
		msgCh:  make(chan Message, config.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterJobs registers multiple jobs.
func (m *MemoryQueue) RegisterJobs(jobs []Job) {
	for _, job := range jobs {
		m.RegisterJob(job)
	}
}

// RegisterJob registers a single job.
func (m *MemoryQueue) RegisterJob(job Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[job.Type()]; exists {
		m.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}

	m.jobs[job.Type()] = job
	m.logger.Info("job registered",
		logger.String("job", job.Name()),
		logger.String("type", job.Type()))
}

// Start launches the worker pool.
func (m *MemoryQueue) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("queue already running")
	}
	m.isRunning = true

	for i := 0; i < m.config.Workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	m.logger.Info("memory queue started", logger.Int("workers", m.config.Workers))
	return nil
}

// Stop drains the workers, bounded by ctx.
func (m *MemoryQueue) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return nil
	}
	m.isRunning = false
	m.cancel()
	m.mu.Unlock()

	doneCh := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-doneCh:
		m.logger.Info("memory queue stopped gracefully")
		return nil
	}
}

// PublishMessage enqueues a message (implements QueueService). Never blocks:
// a full buffer rejects the message instead.
func (m *MemoryQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.isRunning {
		return fmt.Errorf("queue not running")
	}
	if _, exists := m.jobs[msgType]; !exists {
		return fmt.Errorf("no job registered for type: %s", msgType)
	}

	msg := Message{
		ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	select {
	case m.msgCh <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("queue buffer full, message dropped")
	}
}

func (m *MemoryQueue) worker(id int) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case msg := <-m.msgCh:
			m.processMessage(msg)
		}
	}
}

func (m *MemoryQueue) processMessage(msg Message) {
	m.mu.RLock()
	job, exists := m.jobs[msg.Type]
	m.mu.RUnlock()
	if !exists {
		m.logger.Error("no job found", logger.String("type", msg.Type), logger.String("id", msg.ID))
		return
	}

	if err := job.Handle(m.ctx, msg.Payload); err != nil {
		if msg.Attempts < m.config.RetryLimit {
			msg.Attempts++
			m.logger.Warn("message failed, retrying",
				logger.String("id", msg.ID),
				logger.String("job", job.Name()),
				logger.Int("attempt", msg.Attempts),
				logger.Error(err))
			go func(retry Message) {
				select {
				case <-m.ctx.Done():
				case <-time.After(m.config.RetryDelay):
					select {
					case m.msgCh <- retry:
					default:
						m.logger.Error("retry dropped, buffer full", logger.String("id", retry.ID))
					}
				}
			}(msg)
			return
		}
		m.logger.Error("message dropped after final attempt",
			logger.String("id", msg.ID),
			logger.String("job", job.Name()),
			logger.Error(err))
	}
}
