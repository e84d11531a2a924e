package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	"MarketSentry/internal/services/analytics"
	applogger "MarketSentry/pkg/logger"
	"MarketSentry/pkg/queue"
)

// IngestionScheduler drives the fetch-analyze-evaluate-persist pipeline over
// the tracked universe on a fixed period. Cycles never overlap: a tick that
// fires while the previous cycle is still draining is skipped, not queued.
type IngestionScheduler struct {
	market    domrepo.MarketData
	news      domrepo.NewsProvider
	configs   domrepo.ConfigStore
	alerts    domrepo.AlertStore
	samples   domrepo.SampleStore
	detector  *analytics.VolumeDetector
	sentiment *analytics.SentimentAggregator
	evaluator *analytics.Evaluator
	notifyq   queue.QueueService
	metrics   domrepo.Metrics
	l         *applogger.Logger

	instruments  []models.Instrument
	interval     time.Duration
	callTimeout  time.Duration
	newsPageSize int

	inFlight atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	now      func() time.Time
}

// SchedulerOptions bundles the tunables.
type SchedulerOptions struct {
	Instruments  []models.Instrument
	Interval     time.Duration
	CallTimeout  time.Duration
	NewsPageSize int
}

func NewIngestionScheduler(
	market domrepo.MarketData,
	news domrepo.NewsProvider,
	configs domrepo.ConfigStore,
	alerts domrepo.AlertStore,
	samples domrepo.SampleStore,
	detector *analytics.VolumeDetector,
	sentiment *analytics.SentimentAggregator,
	evaluator *analytics.Evaluator,
	notifyq queue.QueueService,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	opts SchedulerOptions,
) *IngestionScheduler {
	if opts.Interval <= 0 {
		opts.Interval = 60 * time.Second
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 8 * time.Second
	}
	if opts.NewsPageSize <= 0 {
		opts.NewsPageSize = 10
	}
	return &IngestionScheduler{
		market:       market,
		news:         news,
		configs:      configs,
		alerts:       alerts,
		samples:      samples,
		detector:     detector,
		sentiment:    sentiment,
		evaluator:    evaluator,
		notifyq:      notifyq,
		metrics:      metrics,
		l:            l,
		instruments:  opts.Instruments,
		interval:     opts.Interval,
		callTimeout:  opts.CallTimeout,
		newsPageSize: opts.NewsPageSize,
		stopCh:       make(chan struct{}),
		now:          time.Now,
	}
}

// Start launches the periodic driver. Non-blocking.
func (s *IngestionScheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.RunCycle(ctx)
			}
		}
	}()
	s.l.Info("scheduler started",
		applogger.Int("instruments", len(s.instruments)),
		applogger.Duration("interval", s.interval),
	)
}

// Stop halts the timer and waits for an in-flight cycle to drain, bounded by
// the context deadline.
func (s *IngestionScheduler) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunCycle processes every tracked instrument once. Not reentrant: concurrent
// invocations beyond the first are dropped.
func (s *IngestionScheduler) RunCycle(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.metrics.RecordCycle("skipped")
		s.l.Warn("cycle tick skipped, previous cycle still running")
		return
	}
	defer s.inFlight.Store(false)

	start := s.now()
	for _, inst := range s.instruments {
		select {
		case <-ctx.Done():
			s.l.Warn("cycle aborted between instruments", applogger.Error(ctx.Err()))
			return
		case <-s.stopCh:
			s.l.Info("cycle stopped between instruments")
			return
		default:
		}
		s.processInstrument(ctx, inst)
	}
	s.metrics.RecordCycle("completed")
	s.metrics.RecordLatency("cycle", time.Since(start).Seconds())
}

// processInstrument runs one instrument's pipeline. Every failure is local to
// this instrument and this cycle; nothing propagates to the caller.
func (s *IngestionScheduler) processInstrument(ctx context.Context, inst models.Instrument) {
	symbol := inst.Symbol

	cfg := s.loadThresholds(ctx, symbol)

	quote, err := s.fetchQuote(ctx, symbol)
	if err != nil {
		s.metrics.RecordError("quote_fetch")
		s.l.Error("quote fetch failed, instrument skipped this cycle",
			applogger.String("symbol", symbol), applogger.Error(err))
		return
	}
	s.metrics.RecordLastPrice(symbol, quote.Price)

	now := s.now()
	s.persistSample(ctx, &models.PriceSample{
		Symbol:    symbol,
		Timestamp: now.Unix(),
		Price:     quote.Price,
		Volume:    quote.Volume,
	})

	rvol := analytics.QuickRVOL(quote.Volume, quote.AvgDailyVolume)
	anomaly := s.detector.Observe(symbol, quote.Volume, now)

	score := s.fetchSentiment(ctx, inst)

	metrics := models.CycleMetrics{
		PriceChangePct: quote.ChangePercent,
		SentimentScore: score,
		RVOL:           rvol,
		Anomaly:        anomaly,
	}

	alert := s.evaluator.Evaluate(symbol, metrics, cfg)
	if alert == nil {
		return
	}
	s.emitAlert(ctx, alert)
}

func (s *IngestionScheduler) loadThresholds(ctx context.Context, symbol string) models.ThresholdConfig {
	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	cfg, err := s.configs.Get(cctx, symbol)
	if err != nil {
		s.metrics.RecordError("config_read")
		s.l.Warn("config read failed, using defaults",
			applogger.String("symbol", symbol), applogger.Error(err))
		return models.DefaultThresholds(symbol)
	}
	if cfg == nil {
		return models.DefaultThresholds(symbol)
	}
	return *cfg
}

func (s *IngestionScheduler) fetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return s.market.GetQuote(cctx, symbol)
}

func (s *IngestionScheduler) persistSample(ctx context.Context, sample *models.PriceSample) {
	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	start := time.Now()
	if err := s.samples.Store(cctx, sample); err != nil {
		s.metrics.RecordError("sample_store")
		s.l.Error("sample persist failed, cycle continues",
			applogger.String("symbol", sample.Symbol), applogger.Error(err))
		return
	}
	s.metrics.RecordLatency("sample_store", time.Since(start).Seconds())
}

// fetchSentiment pulls recent news and aggregates polarity. Any provider
// failure degrades to neutral 0 rather than aborting the instrument.
func (s *IngestionScheduler) fetchSentiment(ctx context.Context, inst models.Instrument) float64 {
	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	query := inst.SearchTerm
	if query == "" {
		query = analytics.CleanSymbol(inst.Symbol)
	}
	articles, err := s.news.Search(cctx, query, s.newsPageSize)
	if err != nil {
		s.metrics.RecordError("news_fetch")
		s.l.Warn("news fetch failed, sentiment neutral this cycle",
			applogger.String("symbol", inst.Symbol), applogger.Error(err))
		return 0
	}
	texts := make([]string, 0, len(articles))
	for _, a := range articles {
		texts = append(texts, a.Text())
	}
	return s.sentiment.Aggregate(cctx, texts)
}

// emitAlert persists and dispatches one alert. The two side effects are
// independent: a notification failure never discards the stored record and a
// store failure never suppresses the notification.
func (s *IngestionScheduler) emitAlert(ctx context.Context, alert *models.AlertEvent) {
	s.metrics.RecordAlert(alert.Symbol)
	s.l.Info("alert raised",
		applogger.String("symbol", alert.Symbol),
		applogger.Float64("rvol", alert.RVOL),
		applogger.Float64("sentiment", alert.SentimentScore),
		applogger.Float64("price_change_pct", alert.PriceChangePct),
	)

	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	if err := s.alerts.Append(cctx, alert); err != nil {
		s.metrics.RecordError("alert_store")
		s.l.Error("alert persist failed", applogger.String("symbol", alert.Symbol), applogger.Error(err))
	}

	if s.notifyq == nil {
		return
	}
	if err := s.notifyq.PublishMessage(cctx, TypeAlertNotify, alert); err != nil {
		s.metrics.RecordError("notify_enqueue")
		s.l.Error("notification enqueue failed", applogger.String("symbol", alert.Symbol), applogger.Error(err))
	}
}
