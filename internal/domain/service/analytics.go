package service

import "context"

// PolarityScorer scores one text in [-1, 1]. A per-call error means the text
// is excluded from aggregation, not treated as neutral.
type PolarityScorer interface {
	Score(ctx context.Context, text string) (float64, error)
}
