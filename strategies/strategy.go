package strategies

import (
	"fmt"

	"stock-dashboard/go-services/services/engine"
)

// Params carries user-tunable strategy parameters by name; absent keys
// fall back to each strategy's defaults.
type Params map[string]float64

func (p Params) get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Strategy names accepted by ForName.
const (
	NameBuyHold      = "buy_hold"
	NameGoldenCross  = "golden_cross"
	NameRSIReversion = "rsi_reversion"
)

// ForName resolves a strategy by its wire name, applying defaults for any
// parameter not supplied.
func ForName(name string, params Params) (engine.SignalFunc, error) {
	switch name {
	case NameBuyHold:
		return BuyHold(), nil
	case NameGoldenCross:
		fast := int(params.get("fast", 12))
		slow := int(params.get("slow", 26))
		if fast <= 0 || slow <= 0 || fast >= slow {
			return nil, fmt.Errorf("golden_cross: need 0 < fast < slow, got fast=%d slow=%d", fast, slow)
		}
		return GoldenCross(fast, slow), nil
	case NameRSIReversion:
		period := int(params.get("period", 14))
		oversold := params.get("oversold", 30)
		overbought := params.get("overbought", 70)
		if period <= 0 || oversold >= overbought {
			return nil, fmt.Errorf("rsi_reversion: invalid parameters period=%d oversold=%v overbought=%v", period, oversold, overbought)
		}
		return RSIReversion(period, oversold, overbought), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

func closesUpTo(history []engine.PriceBar, index int) []float64 {
	closes := make([]float64, index+1)
	for i := range closes {
		closes[i] = history[i].Close
	}
	return closes
}
