package models

import "time"

// Instrument is a tracked symbol. Identity is the symbol string; thresholds
// live in the config store and are resolved per cycle.
type Instrument struct {
	Symbol     string
	SearchTerm string // free-text query used for news lookup, defaults to Symbol
}

// Quote is a point-in-time snapshot from the market data provider. Missing
// upstream fields are substituted with zero values at the boundary so they
// never propagate as NaN into indicator math.
type Quote struct {
	Symbol           string
	Price            float64
	Volume           float64
	ChangePercent    float64
	AvgDailyVolume   float64
	Currency         string
	Name             string
}

// PriceSample is one append-only observation of price and volume.
type PriceSample struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Open      float64
	High      float64
	Low       float64
	Volume    float64
}

// Time returns the sample timestamp as time.Time.
func (s *PriceSample) Time() time.Time { return time.Unix(s.Timestamp, 0) }

// NewsArticle is one item returned by the news provider.
type NewsArticle struct {
	Title       string
	Description string
	URL         string
	PublishedAt time.Time
}

// Text joins title and description for scoring.
func (a NewsArticle) Text() string {
	if a.Description == "" {
		return a.Title
	}
	return a.Title + " " + a.Description
}
