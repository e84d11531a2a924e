package api

import (
	"context"
	"encoding/json"
	"time"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	icache "MarketSentry/internal/service/cache"
	"MarketSentry/internal/services/analytics"
	"MarketSentry/internal/usecase"
	xhttp "MarketSentry/pkg/http"
	xlogger "MarketSentry/pkg/logger"
	"MarketSentry/pkg/queue"
	"MarketSentry/pkg/util"

	"github.com/labstack/echo/v4"
)

const (
	scoresCacheTTL = 30 * time.Second
	rsiLookback    = 90
)

// AlertsHandler exposes the engine surface over Echo.
type AlertsHandler struct {
	logger    *xlogger.Logger
	alerts    domrepo.AlertStore
	configs   domrepo.ConfigStore
	samples   domrepo.SampleStore
	market    domrepo.MarketData
	news      domrepo.NewsProvider
	scorer    *analytics.SentimentAggregator
	notifyq   queue.QueueService
	cache     icache.BytesCache
	collector *usecase.StreamCollector // nil when streaming is disabled
}

func NewAlertsHandler(
	logger *xlogger.Logger,
	alerts domrepo.AlertStore,
	configs domrepo.ConfigStore,
	samples domrepo.SampleStore,
	market domrepo.MarketData,
	news domrepo.NewsProvider,
	scorer *analytics.SentimentAggregator,
	notifyq queue.QueueService,
	cache icache.BytesCache,
	collector *usecase.StreamCollector,
) *AlertsHandler {
	return &AlertsHandler{
		logger:    logger,
		alerts:    alerts,
		configs:   configs,
		samples:   samples,
		market:    market,
		news:      news,
		scorer:    scorer,
		notifyq:   notifyq,
		cache:     cache,
		collector: collector,
	}
}

func (h *AlertsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/alerts", h.Alerts)
	g.GET("/config/:symbol", h.GetConfig)
	g.POST("/config", h.PutConfig)
	g.GET("/scores/:symbol", h.Scores)
	g.GET("/history/:symbol", h.History)
	g.GET("/news", h.News)
	g.GET("/test-alert/:symbol", h.TestAlert)
}

// Health reports storage reachability and stream status.
func (h *AlertsHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := map[string]interface{}{"status": "ok"}
	if err := h.samples.Health(ctx); err != nil {
		h.logger.Error("health: storage unreachable", xlogger.Error(err))
		status["status"] = "degraded"
		status["storage"] = err.Error()
	}
	if h.collector != nil {
		status["stream_connected"] = h.collector.IsConnected()
	}
	return xhttp.SuccessResponse(c, status)
}

// Alerts returns recent alerts, newest first.
func (h *AlertsHandler) Alerts(c echo.Context) error {
	req := &models.AlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	events, err := h.alerts.Recent(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		h.logger.Error("alerts query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, events, int64(len(events)))
}

// GetConfig returns the effective thresholds for a symbol, defaults included.
func (h *AlertsHandler) GetConfig(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol is required")
	}

	cfg, err := h.configs.Get(c.Request().Context(), symbol)
	if err != nil {
		h.logger.Error("config query error", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if cfg == nil {
		fallback := models.DefaultThresholds(symbol)
		cfg = &fallback
	}
	return xhttp.SuccessResponse(c, cfg)
}

// PutConfig stores per-symbol thresholds.
func (h *AlertsHandler) PutConfig(c echo.Context) error {
	req := &models.ConfigPutRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cfg := &models.ThresholdConfig{
		Symbol:             req.Symbol,
		PriceThresholdPct:  req.PriceThresholdPct,
		SentimentThreshold: req.SentimentThreshold,
	}
	if err := h.configs.Put(c.Request().Context(), cfg); err != nil {
		h.logger.Error("config put error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, cfg)
}

// Scores serves the live quick-score card for a symbol. Responses are cached
// briefly so a dashboard polling every few seconds does not hammer upstreams.
func (h *AlertsHandler) Scores(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol is required")
	}
	ctx := c.Request().Context()

	cacheKey := "marketsentry:scores:" + symbol
	if b, ok, err := h.cache.GetBytes(cacheKey); err == nil && ok {
		var cached models.ScoresResponse
		if json.Unmarshal(b, &cached) == nil {
			return xhttp.SuccessResponse(c, &cached)
		}
	}

	quote, err := h.market.GetQuote(ctx, symbol)
	if err != nil {
		h.logger.Error("scores quote error", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UpstreamErrorf("quote provider unavailable for %s", symbol).WithError(err))
	}

	rsi := analytics.NeutralRSI
	if closes, err := h.market.GetHistoricalCloses(ctx, symbol, rsiLookback); err != nil {
		h.logger.Warn("scores history error, rsi neutral",
			xlogger.String("symbol", symbol), xlogger.Error(err))
	} else {
		rsi = analytics.ComputeRSI(closes, analytics.DefaultRSIPeriod)
	}

	sentiment := h.aggregateNews(ctx, symbol)
	label, confidence := analytics.Classify(sentiment)
	rvol := analytics.QuickRVOL(quote.Volume, quote.AvgDailyVolume)

	resp := &models.ScoresResponse{
		Symbol:         symbol,
		Price:          quote.Price,
		PriceChangePct: quote.ChangePercent,
		RSI:            rsi,
		Sentiment:      sentiment,
		Label:          label,
		Confidence:     confidence,
		RVOL:           rvol,
		Anomaly:        analytics.AnomalyScore(rvol, quote.ChangePercent),
	}
	if b, err := json.Marshal(resp); err == nil {
		_ = h.cache.SetBytes(cacheKey, b, scoresCacheTTL)
	}
	return xhttp.SuccessResponse(c, resp)
}

// History returns stored price samples for a symbol over a time range.
// Defaults to the last 24 hours; range ends are aligned to the minute.
func (h *AlertsHandler) History(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol is required")
	}

	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 1000)
	if !from.Before(to) {
		return xhttp.BadRequestResponse(c, "from must be before to")
	}
	from, to = util.AlignRange(from, to, time.Minute)

	samples, err := h.samples.Query(c.Request().Context(), symbol, from, to, limit)
	if err != nil {
		h.logger.Error("history query error", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, samples, int64(len(samples)))
}

// News returns recent articles for a symbol, each scored and classified.
func (h *AlertsHandler) News(c echo.Context) error {
	req := &models.NewsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	articles, err := h.news.Search(ctx, analytics.CleanSymbol(req.Symbol), req.PageSize)
	if err != nil {
		h.logger.Error("news search error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UpstreamErrorf("news provider unavailable for %s", req.Symbol).WithError(err))
	}

	out := make([]models.ScoredArticle, 0, len(articles))
	for _, a := range articles {
		score := h.scorer.Aggregate(ctx, []string{a.Text()})
		label, confidence := analytics.Classify(score)
		out = append(out, models.ScoredArticle{
			NewsArticle: a,
			Score:       score,
			Label:       label,
			Confidence:  confidence,
			Relevance:   analytics.NewsRelevance(a.Text(), req.Symbol),
		})
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

// TestAlert pushes a synthetic alert through the notification path, verifying
// queue and notifier wiring end to end without touching the alert log.
func (h *AlertsHandler) TestAlert(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol is required")
	}

	alert := &models.AlertEvent{
		Symbol:    symbol,
		Message:   "TEST ALERT: notification path check",
		Severity:  models.SeverityHigh,
		Timestamp: time.Now().UTC(),
	}
	if err := h.notifyq.PublishMessage(c.Request().Context(), usecase.TypeAlertNotify, alert); err != nil {
		h.logger.Error("test alert enqueue error", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, alert)
}

func (h *AlertsHandler) aggregateNews(ctx context.Context, symbol string) float64 {
	articles, err := h.news.Search(ctx, analytics.CleanSymbol(symbol), 10)
	if err != nil {
		h.logger.Warn("scores news error, sentiment neutral",
			xlogger.String("symbol", symbol), xlogger.Error(err))
		return 0
	}
	texts := make([]string, 0, len(articles))
	for _, a := range articles {
		texts = append(texts, a.Text())
	}
	return h.scorer.Aggregate(ctx, texts)
}

var _ xhttp.Handler = (*AlertsHandler)(nil)
