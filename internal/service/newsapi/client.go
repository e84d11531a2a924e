package newsapi

import (
	"context"
	"fmt"
	"time"

	"MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	"MarketSentry/internal/service/ratelimit"
	xhttp "MarketSentry/pkg/http"
)

const (
	limiterKey       = "newsapi"
	limiterCapacity  = 10
	limiterRefillSec = 1
)

// Client implements NewsProvider against a NewsAPI-style search endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
}

func New(baseURL, apiKey string, timeout time.Duration, limiter *ratelimit.Limiter) domrepo.NewsProvider {
	if baseURL == "" {
		baseURL = "https://newsapi.org"
	}
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

type searchResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// Search returns recent articles matching the query, newest first.
func (c *Client) Search(ctx context.Context, query string, pageSize int) ([]models.NewsArticle, error) {
	if pageSize <= 0 {
		pageSize = 10
	}
	if c.limiter != nil && !c.limiter.Allow(limiterKey, limiterCapacity, limiterRefillSec) {
		return nil, fmt.Errorf("newsapi rate limited")
	}

	var sr searchResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v2/everything",
		QueryParams: map[string][]string{
			"q":        {query},
			"pageSize": {fmt.Sprintf("%d", pageSize)},
			"sortBy":   {"publishedAt"},
			"language": {"en"},
			"apiKey":   {c.apiKey},
		},
	}, &sr)
	if err != nil {
		return nil, fmt.Errorf("news search %q: %w", query, err)
	}
	if sr.Status != "" && sr.Status != "ok" {
		return nil, fmt.Errorf("news search %q: status %s", query, sr.Status)
	}

	out := make([]models.NewsArticle, 0, len(sr.Articles))
	for _, a := range sr.Articles {
		out = append(out, models.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}
	return out, nil
}
