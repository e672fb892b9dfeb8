package strategies

import "stock-dashboard/go-services/services/engine"

// RSIReversion fades extremes: buy when RSI sinks to the oversold
// threshold, sell when it reaches overbought. Between the thresholds it
// holds, so a quiet market never trades.
func RSIReversion(period int, oversold, overbought float64) engine.SignalFunc {
	return func(index int, history []engine.PriceBar) engine.Signal {
		closes := closesUpTo(history, index)
		rsi := RSI(closes, period)
		switch v := rsi[index]; {
		case v <= oversold:
			return engine.SignalBuy
		case v >= overbought:
			return engine.SignalSell
		default:
			return engine.SignalHold
		}
	}
}
