//go:build wireinject
// +build wireinject

package di

import (
	"MarketSentry/pkg/config"
	"MarketSentry/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideSampleStore,
		ProvideAlertStore,
		ProvideBytesCache,
		ProvideConfigStore,

		// Queue and notification
		ProvideJobQueue,
		ProvideQueueService,
		ProvideNotifier,
		ProvideNotifyJob,

		// External services
		ProvideRateLimiter,
		ProvideMarketData,
		ProvideNewsProvider,
		ProvidePolarityScorer,

		// Analytics
		ProvideVolumeDetector,
		ProvideSentimentAggregator,
		ProvideEvaluator,

		// Use cases
		ProvideScheduler,
		ProvideStreamCollector,
		ProvideTickAnalyzer,

		// HTTP surface
		ProvideHTTPHandler,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
