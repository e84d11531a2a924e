package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	"MarketSentry/internal/services/analytics"
	pkgkafka "MarketSentry/pkg/kafka"
	applogger "MarketSentry/pkg/logger"
	"MarketSentry/pkg/queue"
)

// TickAnalyzer consumes streamed samples from Kafka, persists them, and runs
// the volume detector on each. Sentiment is fetched lazily, only when the
// detector flags an anomaly, so the news budget is not burned on quiet ticks.
type TickAnalyzer struct {
	topic     string
	samples   domrepo.SampleStore
	news      domrepo.NewsProvider
	configs   domrepo.ConfigStore
	alerts    domrepo.AlertStore
	detector  *analytics.VolumeDetector
	sentiment *analytics.SentimentAggregator
	evaluator *analytics.Evaluator
	notifyq   queue.QueueService
	metrics   domrepo.Metrics
	l         *applogger.Logger

	newsPageSize int
	callTimeout  time.Duration
}

func NewTickAnalyzer(
	topic string,
	samples domrepo.SampleStore,
	news domrepo.NewsProvider,
	configs domrepo.ConfigStore,
	alerts domrepo.AlertStore,
	detector *analytics.VolumeDetector,
	sentiment *analytics.SentimentAggregator,
	evaluator *analytics.Evaluator,
	notifyq queue.QueueService,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *TickAnalyzer {
	return &TickAnalyzer{
		topic:        topic,
		samples:      samples,
		news:         news,
		configs:      configs,
		alerts:       alerts,
		detector:     detector,
		sentiment:    sentiment,
		evaluator:    evaluator,
		notifyq:      notifyq,
		metrics:      metrics,
		l:            l,
		newsPageSize: 10,
		callTimeout:  8 * time.Second,
	}
}

func (h *TickAnalyzer) Topic() string { return h.topic }

// incoming message schema: {symbol, t, c, v} with t in epoch seconds or ms
func (h *TickAnalyzer) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		C      float64 `json:"c"`
		V      float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.Symbol == "" || m.T == 0 {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("invalid tick: %s", string(b))
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	sample := &models.PriceSample{Symbol: m.Symbol, Timestamp: m.T, Price: m.C, Volume: m.V}

	start := time.Now()
	if err := h.samples.Store(ctx, sample); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	h.metrics.RecordMessageSent("clickhouse", m.Symbol)

	stats := h.detector.Observe(m.Symbol, m.V, sample.Time())
	if !stats.IsAnomaly {
		return nil
	}
	h.escalate(ctx, sample, stats)
	return nil
}

// escalate handles a flagged tick: pull news, score sentiment, and evaluate
// the clauses with the detector's RVOL. Escalation failures are logged and
// swallowed; the tick itself was already stored.
func (h *TickAnalyzer) escalate(ctx context.Context, sample *models.PriceSample, stats models.AnomalyStats) {
	cctx, cancel := context.WithTimeout(ctx, h.callTimeout)
	defer cancel()

	h.l.Info("intraday volume anomaly",
		applogger.String("symbol", sample.Symbol),
		applogger.Float64("rvol", stats.RVOL),
		applogger.Float64("z_score", stats.ZScore),
	)

	score := 0.0
	articles, err := h.news.Search(cctx, analytics.CleanSymbol(sample.Symbol), h.newsPageSize)
	if err != nil {
		h.metrics.RecordError("news_fetch")
		h.l.Warn("news fetch failed during escalation",
			applogger.String("symbol", sample.Symbol), applogger.Error(err))
	} else {
		texts := make([]string, 0, len(articles))
		for _, a := range articles {
			texts = append(texts, a.Text())
		}
		score = h.sentiment.Aggregate(cctx, texts)
	}

	cfg, err := h.configs.Get(cctx, sample.Symbol)
	if err != nil || cfg == nil {
		fallback := models.DefaultThresholds(sample.Symbol)
		cfg = &fallback
	}

	alert := h.evaluator.Evaluate(sample.Symbol, models.CycleMetrics{
		SentimentScore: score,
		RVOL:           stats.RVOL,
		Anomaly:        stats,
	}, *cfg)
	if alert == nil {
		return
	}

	h.metrics.RecordAlert(alert.Symbol)
	if err := h.alerts.Append(cctx, alert); err != nil {
		h.metrics.RecordError("alert_store")
		h.l.Error("alert persist failed", applogger.String("symbol", alert.Symbol), applogger.Error(err))
	}
	if h.notifyq != nil {
		if err := h.notifyq.PublishMessage(cctx, TypeAlertNotify, alert); err != nil {
			h.metrics.RecordError("notify_enqueue")
			h.l.Error("notification enqueue failed", applogger.String("symbol", alert.Symbol), applogger.Error(err))
		}
	}
}

var _ pkgkafka.MessageHandler = (*TickAnalyzer)(nil)
