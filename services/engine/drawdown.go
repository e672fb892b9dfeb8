package engine

import "time"

// calculateDrawdown tracks the running equity peak in a single pass. Each
// excursion below the peak is a drawdown period; it ends the instant
// equity makes a new peak. The deepest point across all periods, recovered
// or not, is the max drawdown.
func calculateDrawdown(equity []EquityPoint) DrawdownStats {
	stats := DrawdownStats{Periods: []DrawdownPeriod{}}
	if len(equity) == 0 {
		return stats
	}

	peak := equity[0].Equity
	peakTime := equity[0].Time

	inDrawdown := false
	var periodStart time.Time
	var periodDepth float64

	for _, p := range equity {
		if p.Equity > peak {
			if inDrawdown {
				stats.Periods = append(stats.Periods, DrawdownPeriod{
					Start: periodStart,
					End:   p.Time,
					Depth: periodDepth,
				})
				inDrawdown = false
				periodDepth = 0
			}
			peak = p.Equity
			peakTime = p.Time
			continue
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - p.Equity) / peak * 100
		if dd == 0 {
			continue
		}
		if !inDrawdown {
			inDrawdown = true
			periodStart = peakTime
			periodDepth = 0
		}
		if dd > periodDepth {
			periodDepth = dd
		}
		if dd > stats.MaxDrawdown {
			stats.MaxDrawdown = dd
			stats.MaxDrawdownStart = peakTime
			stats.MaxDrawdownEnd = p.Time
		}
	}
	return stats
}
