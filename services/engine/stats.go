package engine

import "math"

const (
	tradingDaysPerYear = 252
	riskFreeRate       = 0.02 // annual, for Sharpe excess returns
)

// calculateSummary aggregates the closed ledger and the equity curve.
// Every denominator (trade count, trading days, return std-dev, average
// loss) is guarded independently so a degenerate run yields zeros, never
// NaN.
func calculateSummary(trades []Trade, equity []EquityPoint, initialCapital, finalCapital float64, tradingDays int) SummaryStats {
	s := SummaryStats{FinalCapital: finalCapital}

	var grossProfit, grossLoss float64
	for _, t := range trades {
		s.TotalPnL += t.PnL
		if t.PnL > 0 {
			s.WinningTrades++
			grossProfit += t.PnL
		} else {
			s.LosingTrades++
			grossLoss += -t.PnL
		}
	}
	s.TotalTrades = len(trades)
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
	}
	if s.WinningTrades > 0 {
		s.AvgWin = grossProfit / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = grossLoss / float64(s.LosingTrades)
	}

	switch {
	case s.WinningTrades > 0 && s.LosingTrades == 0:
		s.ProfitFactor = math.Inf(1)
	case s.AvgLoss > 0:
		s.ProfitFactor = s.AvgWin / s.AvgLoss
	}

	if initialCapital > 0 {
		s.TotalReturn = s.TotalPnL / initialCapital * 100
	}
	if tradingDays > 0 {
		// A short squeeze can lose more than the initial capital; a
		// non-positive compounding base has no real fractional power,
		// so clamp to a full loss instead of emitting NaN.
		base := 1 + s.TotalReturn/100
		if base <= 0 {
			s.AnnualizedReturn = -100
		} else {
			s.AnnualizedReturn = (math.Pow(base, tradingDaysPerYear/float64(tradingDays)) - 1) * 100
		}
	}
	s.SharpeRatio = sharpeRatio(equity)
	return s
}

// sharpeRatio annualizes the mean per-bar excess equity return over its
// standard deviation; zero when the curve never moves.
func sharpeRatio(equity []EquityPoint) float64 {
	if len(equity) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev <= 0 {
			// returns against a negative base flip sign
			continue
		}
		returns = append(returns, (equity[i].Equity-prev)/prev)
	}
	if len(returns) == 0 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	excess := mean - riskFreeRate/tradingDaysPerYear
	return excess / std * math.Sqrt(tradingDaysPerYear)
}
