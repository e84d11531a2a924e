package analytics

// DefaultRSIPeriod is the standard lookback for the relative strength index.
const DefaultRSIPeriod = 14

// NeutralRSI is returned when there is not enough history to compute RSI.
const NeutralRSI = 50.0

// ComputeRSI computes Wilder's RSI over a chronologically ascending close
// series. Returns NeutralRSI when fewer than period+1 closes are available;
// insufficient history is a degraded default, not an error. Output is always
// in [0, 100].
func ComputeRSI(closes []float64, period int) float64 {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	if len(closes) < period+1 {
		return NeutralRSI
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	// Wilder smoothing over the remaining deltas.
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}
