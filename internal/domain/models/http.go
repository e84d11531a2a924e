package models

// Requests for API endpoints. Defined in domain for consistency and reuse.

type AlertsRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type ConfigPutRequest struct {
	Symbol             string  `json:"symbol" validate:"required"`
	PriceThresholdPct  float64 `json:"price_threshold" default:"2.0" validate:"gt=0,lte=100"`
	SentimentThreshold float64 `json:"sentiment_threshold" default:"0.2" validate:"gt=0,lte=1"`
}

type NewsRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	PageSize int    `query:"page_size" json:"page_size" default:"12" validate:"gte=1,lte=50"`
}

// ScoresResponse is the live quick-score payload.
type ScoresResponse struct {
	Symbol         string         `json:"symbol"`
	Price          float64        `json:"price"`
	PriceChangePct float64        `json:"price_change_pct"`
	RSI            float64        `json:"rsi"`
	Sentiment      float64        `json:"sentiment"`
	Label          SentimentLabel `json:"label"`
	Confidence     int            `json:"confidence"`
	RVOL           float64        `json:"rvol"`
	Anomaly        int            `json:"anomaly"` // 0-100 ladder score
}
