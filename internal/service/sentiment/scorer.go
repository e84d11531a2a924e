package sentiment

import (
	"context"
	"fmt"
	"time"

	domsvc "MarketSentry/internal/domain/service"
	xhttp "MarketSentry/pkg/http"
)

// Scorer implements PolarityScorer against a sidecar scoring service. The
// sidecar exposes POST /score taking {"text": ...} and returning a polarity in
// [-1, 1].
type Scorer struct {
	baseURL string
	http    *xhttp.Client
}

func New(baseURL string, timeout time.Duration) domsvc.PolarityScorer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Scorer{
		baseURL: baseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type scoreRequest struct {
	Text string `json:"text"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

func (s *Scorer) Score(ctx context.Context, text string) (float64, error) {
	if s.baseURL == "" {
		return 0, fmt.Errorf("sentiment service not configured")
	}
	var resp scoreResponse
	err := s.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     s.baseURL + "/score",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    scoreRequest{Text: text},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("score text: %w", err)
	}
	if resp.Score < -1 || resp.Score > 1 {
		return 0, fmt.Errorf("score out of range: %f", resp.Score)
	}
	return resp.Score, nil
}
