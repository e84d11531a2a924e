package kafka

import "time"

// ProducerOption configures Producer.
type ProducerOption func(*ProducerConfig)

// ProducerConfig holds producer configuration.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	BatchSize    int
	BatchBytes   int
	BatchTimeout time.Duration
	Async        bool
	HashByKey    bool
}

// WithBrokers sets the broker list.
func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) { c.Brokers = brokers }
}

// WithCompression sets the compression codec (snappy, gzip, lz4, zstd).
func WithCompression(compression string) ProducerOption {
	return func(c *ProducerConfig) { c.Compression = compression }
}

// WithRequiredAcks sets required acknowledgements (-1 = all).
func WithRequiredAcks(acks int) ProducerOption {
	return func(c *ProducerConfig) { c.RequiredAcks = acks }
}

// WithMaxAttempts sets max write retry attempts.
func WithMaxAttempts(n int) ProducerOption {
	return func(c *ProducerConfig) { c.MaxAttempts = n }
}

// WithBatchSize sets the per-batch message count.
func WithBatchSize(size int) ProducerOption {
	return func(c *ProducerConfig) { c.BatchSize = size }
}

// WithBatchTimeout sets how long a partial batch waits before flushing.
// Ticks are latency-sensitive, so this stays small.
func WithBatchTimeout(timeout time.Duration) ProducerOption {
	return func(c *ProducerConfig) { c.BatchTimeout = timeout }
}

// WithBatchBytes sets the target aggregate batch size in bytes.
func WithBatchBytes(bytes int) ProducerOption {
	return func(c *ProducerConfig) { c.BatchBytes = bytes }
}

// WithTimeouts sets writer write/read timeouts.
func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.WriteTimeout = write
		c.ReadTimeout = read
	}
}

// WithAsync toggles fire-and-forget writes.
func WithAsync(async bool) ProducerOption {
	return func(c *ProducerConfig) { c.Async = async }
}

// WithHashByKey enables the hash balancer so each symbol maps to a fixed
// partition, preserving per-symbol ordering.
func WithHashByKey(hash bool) ProducerOption {
	return func(c *ProducerConfig) { c.HashByKey = hash }
}
