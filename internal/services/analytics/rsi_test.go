package analytics

import "testing"

func TestComputeRSIInsufficientHistory(t *testing.T) {
	for _, period := range []int{5, 14, 30} {
		closes := make([]float64, period) // one short of period+1
		for i := range closes {
			closes[i] = 100 + float64(i)
		}
		if got := ComputeRSI(closes, period); got != NeutralRSI {
			t.Fatalf("period=%d: expected neutral %v, got %v", period, NeutralRSI, got)
		}
	}
}

func TestComputeRSIAllGains(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}
	if got := ComputeRSI(closes, 14); got != 100 {
		t.Fatalf("expected 100 for strictly rising series, got %v", got)
	}
}

func TestComputeRSIAllLosses(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 200 - float64(i)*3
	}
	got := ComputeRSI(closes, 14)
	if got != 0 {
		t.Fatalf("expected 0 for strictly falling series, got %v", got)
	}
}

func TestComputeRSIBounded(t *testing.T) {
	series := [][]float64{
		{100, 102, 99, 104, 101, 103, 98, 105, 107, 102, 106, 104, 108, 103, 109, 111},
		{50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50},
		{1, 1000, 2, 999, 3, 998, 4, 997, 5, 996, 6, 995, 7, 994, 8, 993, 9},
	}
	for i, closes := range series {
		got := ComputeRSI(closes, 14)
		if got < 0 || got > 100 {
			t.Errorf("series %d: RSI %v outside [0,100]", i, got)
		}
	}
}

func TestComputeRSIFlatSeriesIsMaximal(t *testing.T) {
	// No losses at all means avgLoss==0, which maps to 100 by definition.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 42
	}
	if got := ComputeRSI(closes, 14); got != 100 {
		t.Fatalf("expected 100 for flat series (no losses), got %v", got)
	}
}

func TestComputeRSIDefaultPeriod(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 10 + float64(i)
	}
	if got, want := ComputeRSI(closes, 0), ComputeRSI(closes, DefaultRSIPeriod); got != want {
		t.Fatalf("period 0 should fall back to default: got %v want %v", got, want)
	}
}
