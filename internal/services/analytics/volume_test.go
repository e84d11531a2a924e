package analytics

import (
	"math"
	"testing"
	"time"
)

var tickTime = time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

func TestObserveWarmup(t *testing.T) {
	d := NewVolumeDetector(DefaultWindow)
	for i := 0; i < WarmupFloor-1; i++ {
		stats := d.Observe("AAPL", 1e9, tickTime) // absurd magnitude, still warm-up
		if stats.IsAnomaly {
			t.Fatalf("observation %d flagged during warm-up", i+1)
		}
		if stats.RVOL != 1.0 || stats.ZScore != 0 {
			t.Fatalf("observation %d: expected neutral stats, got %+v", i+1, stats)
		}
	}
}

func TestObserveIdenticalHistory(t *testing.T) {
	d := NewVolumeDetector(DefaultWindow)
	const v = 50000.0
	var stats = d.Observe("TSLA", v, tickTime)
	for i := 0; i < 5; i++ {
		stats = d.Observe("TSLA", v, tickTime)
	}
	if stats.IsAnomaly {
		t.Fatal("identical history must not flag")
	}
	if stats.ZScore != 0 {
		t.Fatalf("expected zScore 0 for zero-variance history, got %v", stats.ZScore)
	}
}

func TestObserveSpikeFlagged(t *testing.T) {
	d := NewVolumeDetector(DefaultWindow)
	base := []float64{100000, 101000, 99000, 100500, 99500, 100200, 100800}
	for _, v := range base {
		d.Observe("MSFT", v, tickTime)
	}
	stats := d.Observe("MSFT", 1000000, tickTime) // 10x baseline
	if !stats.IsAnomaly {
		t.Fatalf("10x spike not flagged: %+v", stats)
	}
	if stats.RVOL < 3.0 {
		t.Errorf("expected rvol above trigger, got %v", stats.RVOL)
	}
}

func TestObserveZeroVolumeSubstitution(t *testing.T) {
	d := NewVolumeDetector(DefaultWindow)
	for i := 0; i < 6; i++ {
		stats := d.Observe("GOOG", 0, tickTime)
		if math.IsInf(stats.ZScore, 0) || math.IsNaN(stats.ZScore) {
			t.Fatal("zero volume produced non-finite stats")
		}
	}
}

func TestObserveWindowEviction(t *testing.T) {
	d := NewVolumeDetector(DefaultWindow)
	for i := 0; i < DefaultWindow+5; i++ {
		d.Observe("AMZN", float64(1000+i), tickTime)
	}
	if got := d.BucketCount("AMZN", tickTime); got != DefaultWindow {
		t.Fatalf("bucket size %d, want %d", got, DefaultWindow)
	}
}

func TestObserveBucketsAreTimeOfDayKeyed(t *testing.T) {
	d := NewVolumeDetector(DefaultWindow)
	open := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	midday := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 8; i++ {
		d.Observe("NVDA", 100000, open)
	}
	// Fresh time slot: same symbol, different minute, still warming up.
	stats := d.Observe("NVDA", 5000000, midday)
	if stats.IsAnomaly {
		t.Fatal("first observation in a new time bucket must not flag")
	}
	if got := d.BucketCount("NVDA", midday); got != 1 {
		t.Fatalf("midday bucket size %d, want 1", got)
	}
}

func TestObserveSymbolsIsolated(t *testing.T) {
	d := NewVolumeDetector(DefaultWindow)
	for i := 0; i < 8; i++ {
		d.Observe("AAPL", 100000, tickTime)
	}
	stats := d.Observe("TSLA", 100000, tickTime)
	if stats.IsAnomaly || stats.RVOL != 1.0 {
		t.Fatalf("cross-symbol history leak: %+v", stats)
	}
}
