package strategies

import "stock-dashboard/go-services/services/engine"

// GoldenCross signals on EMA crossovers: buy when the fast EMA crosses
// above the slow EMA between the previous and current bar, sell on the
// cross below. Holds until the slow period has enough history.
func GoldenCross(fastPeriod, slowPeriod int) engine.SignalFunc {
	return func(index int, history []engine.PriceBar) engine.Signal {
		if index < slowPeriod {
			return engine.SignalHold
		}
		closes := closesUpTo(history, index)
		fast := EMA(closes, fastPeriod)
		slow := EMA(closes, slowPeriod)

		if fast[index-1] <= slow[index-1] && fast[index] > slow[index] {
			return engine.SignalBuy
		}
		if fast[index-1] >= slow[index-1] && fast[index] < slow[index] {
			return engine.SignalSell
		}
		return engine.SignalHold
	}
}
