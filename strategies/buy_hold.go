package strategies

import "stock-dashboard/go-services/services/engine"

// BuyHold enters at the first tradable bar and never sells. The generator
// keeps signaling buy; the engine's no-pyramiding guard makes everything
// after the first entry a no-op.
func BuyHold() engine.SignalFunc {
	return func(index int, history []engine.PriceBar) engine.Signal {
		return engine.SignalBuy
	}
}
