package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"MarketSentry/internal/domain/models"
	icache "MarketSentry/internal/service/cache"
	"MarketSentry/internal/services/analytics"
	xhttp "MarketSentry/pkg/http"
	applogger "MarketSentry/pkg/logger"

	"github.com/labstack/echo/v4"
)

type fakeAlertStore struct {
	events    []*models.AlertEvent
	gotSymbol string
	gotLimit  int
}

func (f *fakeAlertStore) Append(ctx context.Context, a *models.AlertEvent) error {
	f.events = append(f.events, a)
	return nil
}

func (f *fakeAlertStore) Recent(ctx context.Context, symbol string, limit int) ([]*models.AlertEvent, error) {
	f.gotSymbol = symbol
	f.gotLimit = limit
	return f.events, nil
}

type fakeConfigStore struct {
	configs map[string]*models.ThresholdConfig
	puts    []*models.ThresholdConfig
}

func (f *fakeConfigStore) Get(ctx context.Context, symbol string) (*models.ThresholdConfig, error) {
	return f.configs[symbol], nil
}

func (f *fakeConfigStore) Put(ctx context.Context, cfg *models.ThresholdConfig) error {
	f.puts = append(f.puts, cfg)
	return nil
}

type sampleQuery struct {
	symbol   string
	from, to time.Time
	limit    int
}

type fakeSampleStore struct {
	samples   []*models.PriceSample
	queries   []sampleQuery
	healthErr error
}

func (f *fakeSampleStore) Init(ctx context.Context) error { return nil }

func (f *fakeSampleStore) Store(ctx context.Context, s *models.PriceSample) error { return nil }

func (f *fakeSampleStore) StoreBatch(ctx context.Context, ss []*models.PriceSample) error {
	return nil
}

func (f *fakeSampleStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.PriceSample, error) {
	f.queries = append(f.queries, sampleQuery{symbol: symbol, from: from, to: to, limit: limit})
	return f.samples, nil
}

func (f *fakeSampleStore) Health(ctx context.Context) error { return f.healthErr }
func (f *fakeSampleStore) Close() error                     { return nil }

type fakeMarketData struct {
	quote  *models.Quote
	closes []float64
	err    error
	calls  int
}

func (f *fakeMarketData) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quote, nil
}

func (f *fakeMarketData) GetHistoricalCloses(ctx context.Context, symbol string, lookbackDays int) ([]float64, error) {
	return f.closes, nil
}

type fakeNewsProvider struct {
	articles []models.NewsArticle
}

func (f *fakeNewsProvider) Search(ctx context.Context, query string, pageSize int) ([]models.NewsArticle, error) {
	return f.articles, nil
}

type fakeQueueService struct {
	types    []string
	payloads []interface{}
}

func (f *fakeQueueService) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	f.types = append(f.types, msgType)
	f.payloads = append(f.payloads, payload)
	return nil
}

type stubScorer struct{ score float64 }

func (s stubScorer) Score(ctx context.Context, text string) (float64, error) { return s.score, nil }

type handlerDeps struct {
	alerts  *fakeAlertStore
	configs *fakeConfigStore
	samples *fakeSampleStore
	market  *fakeMarketData
	news    *fakeNewsProvider
	queue   *fakeQueueService
}

func newTestHandler(t *testing.T, score float64) (*echo.Echo, *handlerDeps) {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	deps := &handlerDeps{
		alerts:  &fakeAlertStore{},
		configs: &fakeConfigStore{configs: map[string]*models.ThresholdConfig{}},
		samples: &fakeSampleStore{},
		market: &fakeMarketData{
			quote: &models.Quote{
				Symbol:         "AAPL",
				Price:          190.5,
				Volume:         40_000_000,
				ChangePercent:  1.2,
				AvgDailyVolume: 65_000_000,
			},
			closes: []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111, 112, 113, 114},
		},
		news: &fakeNewsProvider{articles: []models.NewsArticle{
			{Title: "AAPL beats earnings", Description: "strong quarter"},
			{Title: "AAPL raises guidance"},
		}},
		queue: &fakeQueueService{},
	}

	h := NewAlertsHandler(
		l,
		deps.alerts,
		deps.configs,
		deps.samples,
		deps.market,
		deps.news,
		analytics.NewSentimentAggregator(stubScorer{score: score}),
		deps.queue,
		icache.NewTTLCache(),
		nil,
	)

	e := echo.New()
	h.RegisterRoutes(e)
	return e, deps
}

func doRequest(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, xhttp.APIResponse) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var envelope xhttp.APIResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v body=%s", err, rec.Body.String())
		}
	}
	return rec, envelope
}

func TestHealthOK(t *testing.T) {
	e, _ := newTestHandler(t, 0)
	_, envelope := doRequest(t, e, http.MethodGet, "/healthz", "")
	if envelope.Status != http.StatusOK {
		t.Fatalf("expected 200 status, got %d", envelope.Status)
	}
	data := envelope.Data.(map[string]interface{})
	if data["status"] != "ok" {
		t.Errorf("expected status ok, got %v", data["status"])
	}
}

func TestHealthDegradedWhenStorageDown(t *testing.T) {
	e, deps := newTestHandler(t, 0)
	deps.samples.healthErr = context.DeadlineExceeded

	_, envelope := doRequest(t, e, http.MethodGet, "/healthz", "")
	data := envelope.Data.(map[string]interface{})
	if data["status"] != "degraded" {
		t.Errorf("expected degraded, got %v", data["status"])
	}
}

func TestAlertsReturnsRecent(t *testing.T) {
	e, deps := newTestHandler(t, 0)
	deps.alerts.events = []*models.AlertEvent{
		{Symbol: "AAPL", Message: "PRICE MOVE: +3.1%", Severity: models.SeverityHigh},
		{Symbol: "MSFT", Message: "VOLUME ANOMALY", Severity: models.SeverityHigh},
	}

	_, envelope := doRequest(t, e, http.MethodGet, "/api/alerts?symbol=AAPL&limit=10", "")
	if envelope.Status != http.StatusOK {
		t.Fatalf("expected 200 status, got %d", envelope.Status)
	}
	if deps.alerts.gotSymbol != "AAPL" || deps.alerts.gotLimit != 10 {
		t.Errorf("query not forwarded: symbol=%q limit=%d", deps.alerts.gotSymbol, deps.alerts.gotLimit)
	}
	list := envelope.Data.(map[string]interface{})
	if int(list["total"].(float64)) != 2 {
		t.Errorf("expected total 2, got %v", list["total"])
	}
}

func TestAlertsLimitDefaulted(t *testing.T) {
	e, deps := newTestHandler(t, 0)
	doRequest(t, e, http.MethodGet, "/api/alerts", "")
	if deps.alerts.gotLimit != 50 {
		t.Errorf("expected default limit 50, got %d", deps.alerts.gotLimit)
	}
}

func TestGetConfigFallsBackToDefaults(t *testing.T) {
	e, _ := newTestHandler(t, 0)
	_, envelope := doRequest(t, e, http.MethodGet, "/api/config/TSLA", "")
	cfg := envelope.Data.(map[string]interface{})
	if cfg["price_threshold"].(float64) != models.DefaultPriceThresholdPct {
		t.Errorf("expected default price threshold, got %v", cfg["price_threshold"])
	}
	if cfg["sentiment_threshold"].(float64) != models.DefaultSentimentThreshold {
		t.Errorf("expected default sentiment threshold, got %v", cfg["sentiment_threshold"])
	}
}

func TestPutConfigStores(t *testing.T) {
	e, deps := newTestHandler(t, 0)
	body := `{"symbol":"NVDA","price_threshold":5.5,"sentiment_threshold":0.4}`
	_, envelope := doRequest(t, e, http.MethodPost, "/api/config", body)
	if envelope.Status != http.StatusCreated {
		t.Fatalf("expected 201 status, got %d", envelope.Status)
	}
	if len(deps.configs.puts) != 1 {
		t.Fatalf("expected 1 put, got %d", len(deps.configs.puts))
	}
	got := deps.configs.puts[0]
	if got.Symbol != "NVDA" || got.PriceThresholdPct != 5.5 || got.SentimentThreshold != 0.4 {
		t.Errorf("unexpected stored config: %+v", got)
	}
}

func TestPutConfigRejectsMissingSymbol(t *testing.T) {
	e, deps := newTestHandler(t, 0)
	_, envelope := doRequest(t, e, http.MethodPost, "/api/config", `{"price_threshold":5.5}`)
	if envelope.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 status, got %d", envelope.Status)
	}
	if len(deps.configs.puts) != 0 {
		t.Errorf("invalid config must not be stored")
	}
}

func TestHistoryQueriesAlignedRange(t *testing.T) {
	e, deps := newTestHandler(t, 0)
	deps.samples.samples = []*models.PriceSample{
		{Symbol: "AAPL", Timestamp: time.Now().Unix(), Price: 190, Volume: 1000},
	}

	_, envelope := doRequest(t, e, http.MethodGet, "/api/history/AAPL?limit=5", "")
	if envelope.Status != http.StatusOK {
		t.Fatalf("expected 200 status, got %d", envelope.Status)
	}
	if len(deps.samples.queries) != 1 {
		t.Fatalf("expected 1 query, got %d", len(deps.samples.queries))
	}
	q := deps.samples.queries[0]
	if q.symbol != "AAPL" || q.limit != 5 {
		t.Errorf("unexpected query: %+v", q)
	}
	if q.from.Second() != 0 || q.to.Second() != 0 {
		t.Errorf("range not minute-aligned: from=%v to=%v", q.from, q.to)
	}
	if got := q.to.Sub(q.from); got < 23*time.Hour || got > 24*time.Hour {
		t.Errorf("expected ~24h default window, got %v", got)
	}
}

func TestHistoryRejectsInvertedRange(t *testing.T) {
	e, deps := newTestHandler(t, 0)
	target := "/api/history/AAPL?from=2024-10-10T12:00:00Z&to=2024-10-10T10:00:00Z"
	_, envelope := doRequest(t, e, http.MethodGet, target, "")
	if envelope.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 status, got %d", envelope.Status)
	}
	if len(deps.samples.queries) != 0 {
		t.Errorf("inverted range must not hit storage")
	}
}

func TestScoresComputesCard(t *testing.T) {
	e, _ := newTestHandler(t, 0.4)
	_, envelope := doRequest(t, e, http.MethodGet, "/api/scores/AAPL", "")
	if envelope.Status != http.StatusOK {
		t.Fatalf("expected 200 status, got %d", envelope.Status)
	}
	card := envelope.Data.(map[string]interface{})
	if card["symbol"] != "AAPL" {
		t.Errorf("expected AAPL, got %v", card["symbol"])
	}
	// Monotonically rising closes pin RSI at 100.
	if rsi := card["rsi"].(float64); rsi != 100 {
		t.Errorf("expected RSI 100, got %v", rsi)
	}
	if card["label"] != string(models.SentimentBullish) {
		t.Errorf("expected Bullish, got %v", card["label"])
	}
	if card["sentiment"].(float64) != 0.4 {
		t.Errorf("expected sentiment 0.4, got %v", card["sentiment"])
	}
	if rvol := card["rvol"].(float64); rvol <= 0 {
		t.Errorf("expected positive rvol, got %v", rvol)
	}
}

func TestScoresUpstreamFailureIs502(t *testing.T) {
	e, deps := newTestHandler(t, 0)
	deps.market.err = errors.New("quote provider down")

	_, envelope := doRequest(t, e, http.MethodGet, "/api/scores/AAPL", "")
	if envelope.Status != http.StatusBadGateway {
		t.Fatalf("expected 502 status, got %d", envelope.Status)
	}
}

func TestScoresCachedBetweenCalls(t *testing.T) {
	e, deps := newTestHandler(t, 0.4)
	doRequest(t, e, http.MethodGet, "/api/scores/AAPL", "")
	doRequest(t, e, http.MethodGet, "/api/scores/AAPL", "")
	if deps.market.calls != 1 {
		t.Errorf("expected 1 upstream quote call, got %d", deps.market.calls)
	}
}

func TestNewsScoresArticles(t *testing.T) {
	e, _ := newTestHandler(t, -0.3)
	_, envelope := doRequest(t, e, http.MethodGet, "/api/news?symbol=AAPL", "")
	if envelope.Status != http.StatusOK {
		t.Fatalf("expected 200 status, got %d", envelope.Status)
	}
	list := envelope.Data.(map[string]interface{})
	rows := list["rows"].([]interface{})
	if len(rows) != 2 {
		t.Fatalf("expected 2 scored articles, got %d", len(rows))
	}
	first := rows[0].(map[string]interface{})
	if first["label"] != string(models.SentimentBearish) {
		t.Errorf("expected Bearish, got %v", first["label"])
	}
	if first["relevance"] == "" {
		t.Errorf("expected relevance set")
	}
}

func TestTestAlertEnqueuesOnly(t *testing.T) {
	e, deps := newTestHandler(t, 0)
	_, envelope := doRequest(t, e, http.MethodGet, "/api/test-alert/AAPL", "")
	if envelope.Status != http.StatusOK {
		t.Fatalf("expected 200 status, got %d", envelope.Status)
	}
	if len(deps.queue.types) != 1 || deps.queue.types[0] != "alert.notify" {
		t.Fatalf("expected one alert.notify message, got %v", deps.queue.types)
	}
	alert := deps.queue.payloads[0].(*models.AlertEvent)
	if alert.Symbol != "AAPL" || alert.Severity != models.SeverityHigh {
		t.Errorf("unexpected synthetic alert: %+v", alert)
	}
	if len(deps.alerts.events) != 0 {
		t.Errorf("test alerts must not be persisted")
	}
}
