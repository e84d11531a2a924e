package di

import (
	"context"
	"fmt"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	domsvc "MarketSentry/internal/domain/service"
	"MarketSentry/internal/handler/api"
	mid "MarketSentry/internal/middleware"
	internalrepo "MarketSentry/internal/repository"
	icache "MarketSentry/internal/service/cache"
	"MarketSentry/internal/service/marketdata"
	"MarketSentry/internal/service/newsapi"
	"MarketSentry/internal/service/ratelimit"
	"MarketSentry/internal/service/sentiment"
	"MarketSentry/internal/service/stream"
	"MarketSentry/internal/service/telegram"
	"MarketSentry/internal/services/analytics"
	"MarketSentry/internal/usecase"
	pkgch "MarketSentry/pkg/clickhouse"
	"MarketSentry/pkg/config"
	xhttp "MarketSentry/pkg/http"
	pkgkafka "MarketSentry/pkg/kafka"
	applogger "MarketSentry/pkg/logger"
	"MarketSentry/pkg/metrics"
	"MarketSentry/pkg/queue"
	"MarketSentry/pkg/server"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client. Schema init happens in
// App.Run via SampleStore.Init.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSampleStore creates the price sample repository.
func ProvideSampleStore(ch *pkgch.Client, l *applogger.Logger) domrepo.SampleStore {
	return internalrepo.NewSampleStore(ch, l)
}

// ProvideAlertStore creates the alert log repository.
func ProvideAlertStore(ch *pkgch.Client, l *applogger.Logger) domrepo.AlertStore {
	return internalrepo.NewAlertStore(ch, l)
}

// ProvideRedisClient creates a Redis client, or nil when Redis is disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideBytesCache picks Redis when available, in-process TTL cache otherwise.
func ProvideBytesCache(rdb *redis.Client) icache.BytesCache {
	if rdb != nil {
		return icache.NewRedisCacheFromClient(rdb)
	}
	return icache.NewTTLCache()
}

// ProvideConfigStore creates the threshold repository, fronted by the cache.
func ProvideConfigStore(ch *pkgch.Client, c icache.BytesCache, l *applogger.Logger) domrepo.ConfigStore {
	return internalrepo.NewCachedConfigStore(internalrepo.NewConfigStore(ch, l), c, l)
}

// ProvideJobQueue creates the notification dispatch queue: Redis-backed when
// available (durable, retried), in-process otherwise.
func ProvideJobQueue(cfg *config.Config, rdb *redis.Client, l *applogger.Logger) queue.Server {
	qcfg := &queue.QueueConfig{Workers: 2, RetryLimit: 2}
	if rdb != nil {
		return queue.NewRedisQueue(l, qcfg, rdb, queue.ModeProducerConsumer)
	}
	return queue.NewMemoryQueue(l, qcfg)
}

// ProvideQueueService exposes the queue's publish side.
func ProvideQueueService(q queue.Server) queue.QueueService {
	return q
}

// ProvideNotifier creates the Telegram notifier, or a logging noop when
// credentials are absent.
func ProvideNotifier(cfg *config.Config, l *applogger.Logger) domrepo.Notifier {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == "" {
		return telegram.NewNoop(l)
	}
	return telegram.New(cfg.Telegram.Token, cfg.Telegram.ChatID, 0, l)
}

// ProvideNotifyJob creates the alert delivery job.
func ProvideNotifyJob(n domrepo.Notifier, l *applogger.Logger) *usecase.AlertNotifyJob {
	return usecase.NewAlertNotifyJob(n, l)
}

// ProvideRateLimiter creates the shared token-bucket limiter for upstream APIs.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideMarketData creates the REST quote client.
func ProvideMarketData(cfg *config.Config, limiter *ratelimit.Limiter) domrepo.MarketData {
	return marketdata.New(cfg.Market.BaseURL, cfg.Market.APIKey, cfg.Engine.CallTimeout, limiter)
}

// ProvideNewsProvider creates the news search client.
func ProvideNewsProvider(cfg *config.Config, limiter *ratelimit.Limiter) domrepo.NewsProvider {
	return newsapi.New(cfg.News.BaseURL, cfg.News.APIKey, cfg.Engine.CallTimeout, limiter)
}

// ProvidePolarityScorer creates the sentiment sidecar client.
func ProvidePolarityScorer(cfg *config.Config) domsvc.PolarityScorer {
	return sentiment.New(cfg.Sentiment.ServiceURL, cfg.Sentiment.Timeout)
}

// ProvideVolumeDetector creates the per-symbol volume anomaly detector.
func ProvideVolumeDetector(cfg *config.Config) *analytics.VolumeDetector {
	return analytics.NewVolumeDetector(cfg.Engine.VolumeWindow)
}

// ProvideSentimentAggregator creates the sentiment fold.
func ProvideSentimentAggregator(scorer domsvc.PolarityScorer) *analytics.SentimentAggregator {
	return analytics.NewSentimentAggregator(scorer)
}

// ProvideEvaluator creates the threshold evaluator.
func ProvideEvaluator() *analytics.Evaluator {
	return analytics.NewEvaluator()
}

// ProvideScheduler creates the periodic ingestion driver.
func ProvideScheduler(
	cfg *config.Config,
	market domrepo.MarketData,
	news domrepo.NewsProvider,
	configs domrepo.ConfigStore,
	alerts domrepo.AlertStore,
	samples domrepo.SampleStore,
	detector *analytics.VolumeDetector,
	aggregator *analytics.SentimentAggregator,
	evaluator *analytics.Evaluator,
	notifyq queue.QueueService,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.IngestionScheduler {
	instruments := make([]models.Instrument, 0, len(cfg.Market.Symbols))
	for _, s := range cfg.Market.Symbols {
		instruments = append(instruments, models.Instrument{Symbol: s})
	}
	return usecase.NewIngestionScheduler(
		market, news, configs, alerts, samples,
		detector, aggregator, evaluator,
		notifyq, m, l,
		usecase.SchedulerOptions{
			Instruments:  instruments,
			Interval:     cfg.Engine.Interval,
			CallTimeout:  cfg.Engine.CallTimeout,
			NewsPageSize: cfg.Engine.NewsPageSize,
		},
	)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when streaming is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Stream.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideStreamCollector builds the WebSocket-to-Kafka leg, or nil when
// streaming is off.
func ProvideStreamCollector(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	samples domrepo.SampleStore,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.StreamCollector {
	if !cfg.Stream.Enabled || producer == nil {
		return nil
	}
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	proc := usecase.NewSampleProcessor(pub, samples, m, "kafka")
	pipe := mid.NewRealtimePipeline(proc, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	ws := stream.New(
		cfg.Stream.APIKey,
		cfg.Stream.WebSocketURL,
		cfg.Market.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		l,
	)
	return usecase.NewStreamCollector(ws, proc, m, pipe)
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when streaming is off.
func ProvideKafkaConsumer(cfg *config.Config, m domrepo.Metrics, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Stream.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.HookFuncs{
		Err: func(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
			m.RecordError("consumer")
			l.Warn("consumer message failed",
				applogger.String("topic", topic),
				applogger.Int("partition", km.Partition),
				applogger.Error(err),
			)
		},
	})
	return consumer, nil
}

// ProvideTickAnalyzer creates the consumer-side analyzer, or nil when
// streaming is off.
func ProvideTickAnalyzer(
	cfg *config.Config,
	samples domrepo.SampleStore,
	news domrepo.NewsProvider,
	configs domrepo.ConfigStore,
	alerts domrepo.AlertStore,
	detector *analytics.VolumeDetector,
	aggregator *analytics.SentimentAggregator,
	evaluator *analytics.Evaluator,
	notifyq queue.QueueService,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.TickAnalyzer {
	if !cfg.Stream.Enabled {
		return nil
	}
	return usecase.NewTickAnalyzer(
		cfg.Kafka.Topic,
		samples, news, configs, alerts,
		detector, aggregator, evaluator,
		notifyq, m, l,
	)
}

// ProvideHTTPHandler creates the API surface.
func ProvideHTTPHandler(
	l *applogger.Logger,
	alerts domrepo.AlertStore,
	configs domrepo.ConfigStore,
	samples domrepo.SampleStore,
	market domrepo.MarketData,
	news domrepo.NewsProvider,
	aggregator *analytics.SentimentAggregator,
	notifyq queue.QueueService,
	c icache.BytesCache,
	collector *usecase.StreamCollector,
) xhttp.Handler {
	return api.NewAlertsHandler(l, alerts, configs, samples, market, news, aggregator, notifyq, c, collector)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	scheduler *usecase.IngestionScheduler,
	collector *usecase.StreamCollector,
	consumer *pkgkafka.Consumer,
	analyzer *usecase.TickAnalyzer,
	q queue.Server,
	notifyJob *usecase.AlertNotifyJob,
	samples domrepo.SampleStore,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, scheduler, collector, consumer, analyzer, q, notifyJob, samples, chClient, handler)
}
