package analytics

import (
	"fmt"
	"math"
	"sync"
	"time"

	"MarketSentry/internal/domain/models"
)

const (
	// DefaultWindow is the max number of volume observations kept per
	// (symbol, minute-of-day) bucket.
	DefaultWindow = 11

	// WarmupFloor is the minimum sample count before statistics are trusted.
	WarmupFloor = 5

	zScoreTrigger = 3.0
	rvolTrigger   = 3.0
)

// VolumeDetector flags volume spikes against an adaptive, time-of-day-aware
// baseline. History is keyed by (symbol, minute-of-day) so that expected
// intraday surges (open, close) are compared against the same slot on prior
// days rather than the whole session.
//
// State is in-memory only and rebuilds within a window of cycles after a
// restart. One instance is shared by the polling scheduler and the streaming
// path; access is serialized by an internal mutex.
type VolumeDetector struct {
	mu      sync.Mutex
	window  int
	history map[string][]float64
}

// NewVolumeDetector creates a detector with the given rolling window size.
// Window values < 1 fall back to DefaultWindow.
func NewVolumeDetector(window int) *VolumeDetector {
	if window < 1 {
		window = DefaultWindow
	}
	return &VolumeDetector{
		window:  window,
		history: make(map[string][]float64),
	}
}

// Observe appends one volume observation and returns anomaly statistics for
// it. Zero volume is substituted with 1 to keep logarithms finite.
func (d *VolumeDetector) Observe(symbol string, volume float64, ts time.Time) models.AnomalyStats {
	if volume <= 0 {
		volume = 1
	}

	key := bucketKey(symbol, ts)

	d.mu.Lock()
	defer d.mu.Unlock()

	hist := append(d.history[key], volume)
	if len(hist) > d.window {
		hist = hist[len(hist)-d.window:]
	}
	d.history[key] = hist

	if len(hist) < WarmupFloor {
		return models.NeutralAnomalyStats()
	}

	logs := make([]float64, len(hist))
	var sum float64
	for i, v := range hist {
		logs[i] = math.Log(v)
		sum += logs[i]
	}
	mean := sum / float64(len(logs))

	var sq float64
	for _, lv := range logs {
		diff := lv - mean
		sq += diff * diff
	}
	std := math.Sqrt(sq / float64(len(logs)))
	if std == 0 {
		// All-equal history carries no dispersion signal.
		return models.NeutralAnomalyStats()
	}

	z := (math.Log(volume) - mean) / std
	rvol := volume / math.Exp(mean)

	return models.AnomalyStats{
		RVOL:      rvol,
		ZScore:    z,
		IsAnomaly: z > zScoreTrigger || rvol > rvolTrigger,
	}
}

// BucketCount reports how many observations exist for a symbol at the given
// minute-of-day. Intended for health introspection and tests.
func (d *VolumeDetector) BucketCount(symbol string, ts time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.history[bucketKey(symbol, ts)])
}

func bucketKey(symbol string, ts time.Time) string {
	return fmt.Sprintf("%s|%02d:%02d", symbol, ts.Hour(), ts.Minute())
}
