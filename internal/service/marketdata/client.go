package marketdata

import (
	"context"
	"fmt"
	"time"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	"MarketSentry/internal/service/ratelimit"
	xhttp "MarketSentry/pkg/http"
)

// Quota for the quote provider: 30 requests burst, 5/s sustained.
const (
	limiterKey       = "marketdata"
	limiterCapacity  = 30
	limiterRefillSec = 5
)

// Client implements MarketData against a REST quote provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
}

func New(baseURL, apiKey string, timeout time.Duration, limiter *ratelimit.Limiter) domrepo.MarketData {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter: limiter,
	}
}

type quoteResponse struct {
	Symbol         string  `json:"symbol"`
	Price          float64 `json:"regularMarketPrice"`
	Volume         float64 `json:"regularMarketVolume"`
	ChangePercent  float64 `json:"regularMarketChangePercent"`
	AvgDailyVolume float64 `json:"averageDailyVolume3Month"`
	Currency       string  `json:"currency"`
	Name           string  `json:"shortName"`
}

// GetQuote fetches the current snapshot for one symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if c.limiter != nil && !c.limiter.Allow(limiterKey, limiterCapacity, limiterRefillSec) {
		return nil, fmt.Errorf("marketdata rate limited")
	}

	var qr quoteResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v1/quote",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"token":  {c.apiKey},
		},
	}, &qr)
	if err != nil {
		return nil, fmt.Errorf("get quote %s: %w", symbol, err)
	}
	if qr.Symbol == "" {
		qr.Symbol = symbol
	}
	return &models.Quote{
		Symbol:         qr.Symbol,
		Price:          qr.Price,
		Volume:         qr.Volume,
		ChangePercent:  qr.ChangePercent,
		AvgDailyVolume: qr.AvgDailyVolume,
		Currency:       qr.Currency,
		Name:           qr.Name,
	}, nil
}

type historyResponse struct {
	Closes []float64 `json:"closes"`
}

// GetHistoricalCloses fetches daily closing prices, oldest first.
func (c *Client) GetHistoricalCloses(ctx context.Context, symbol string, lookbackDays int) ([]float64, error) {
	if lookbackDays <= 0 {
		lookbackDays = 90
	}
	if c.limiter != nil && !c.limiter.Allow(limiterKey, limiterCapacity, limiterRefillSec) {
		return nil, fmt.Errorf("marketdata rate limited")
	}

	var hr historyResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v1/history",
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"days":     {fmt.Sprintf("%d", lookbackDays)},
			"interval": {"1d"},
			"token":    {c.apiKey},
		},
	}, &hr)
	if err != nil {
		return nil, fmt.Errorf("get history %s: %w", symbol, err)
	}
	return hr.Closes, nil
}
