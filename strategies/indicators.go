// Package strategies provides the reference signal generators and the
// indicator math they share. All generators are pure functions of
// (index, history) and recompute their indicators from scratch on every
// bar; that is intentional for correctness on the short windows this
// service backtests.
package strategies

// EMA computes an exponential moving average with k = 2/(period+1),
// seeded with the first value.
func EMA(values []float64, period int) []float64 {
	result := make([]float64, len(values))
	if len(values) == 0 {
		return result
	}
	k := 2.0 / (float64(period) + 1.0)
	result[0] = values[0]
	for i := 1; i < len(values); i++ {
		result[i] = values[i]*k + result[i-1]*(1-k)
	}
	return result
}

// RSI computes a Wilder-smoothed relative strength index: the first
// `period` price changes seed the gain/loss averages, which are then
// exponentially smoothed. Bars before the seed report the neutral
// placeholder 50; an all-gain window reports 100.
func RSI(values []float64, period int) []float64 {
	result := make([]float64, len(values))
	for i := range result {
		result[i] = 50
	}
	if len(values) <= period {
		return result
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	result[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		result[i] = rsiValue(avgGain, avgLoss)
	}
	return result
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
