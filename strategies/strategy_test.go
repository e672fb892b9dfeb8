package strategies

import (
	"testing"
	"time"

	"stock-dashboard/go-services/services/engine"
)

func history(closes ...float64) []engine.PriceBar {
	bars := make([]engine.PriceBar, len(closes))
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		bars[i] = engine.PriceBar{Time: start.AddDate(0, 0, i), Open: open, High: maxf(open, c), Low: minf(open, c), Close: c}
	}
	return bars
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func TestBuyHoldAlwaysBuys(t *testing.T) {
	sig := BuyHold()
	h := history(100, 101, 99)
	for i := 1; i < len(h); i++ {
		if got := sig(i, h); got != engine.SignalBuy {
			t.Errorf("index %d: got %s, want buy", i, got)
		}
	}
}

func TestGoldenCrossHoldsDuringWarmup(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	sig := GoldenCross(5, 20)
	h := history(closes...)
	for i := 1; i < 20; i++ {
		if got := sig(i, h); got != engine.SignalHold {
			t.Errorf("index %d inside warmup: got %s, want hold", i, got)
		}
	}
}

func TestGoldenCrossBuysOnCrossUp(t *testing.T) {
	// Flat tape, then a jump: both EMAs sit at 100 until the fast one
	// pulls ahead on the first up bar.
	closes := make([]float64, 26)
	for i := range closes {
		closes[i] = 100
	}
	closes[25] = 110
	sig := GoldenCross(5, 20)
	h := history(closes...)

	if got := sig(25, h); got != engine.SignalBuy {
		t.Errorf("cross bar: got %s, want buy", got)
	}
	for i := 20; i < 25; i++ {
		if got := sig(i, h); got != engine.SignalHold {
			t.Errorf("flat bar %d: got %s, want hold", i, got)
		}
	}
}

func TestGoldenCrossSellsOnceOnCrossDown(t *testing.T) {
	closes := make([]float64, 60)
	for i := 0; i < 30; i++ {
		closes[i] = 100 + float64(i)
	}
	for i := 30; i < 60; i++ {
		closes[i] = 129 - 3*float64(i-29)
	}
	sig := GoldenCross(5, 20)
	h := history(closes...)

	sells, buys := 0, 0
	for i := 30; i < 60; i++ {
		switch sig(i, h) {
		case engine.SignalSell:
			sells++
		case engine.SignalBuy:
			buys++
		}
	}
	if sells != 1 {
		t.Errorf("decline produced %d sells, want exactly 1 cross", sells)
	}
	if buys != 0 {
		t.Errorf("decline produced %d buys, want 0", buys)
	}
}

func TestRSIReversionThresholds(t *testing.T) {
	crash := make([]float64, 20)
	for i := range crash {
		crash[i] = 200 - 5*float64(i)
	}
	sig := RSIReversion(14, 30, 70)
	if got := sig(16, history(crash...)); got != engine.SignalBuy {
		t.Errorf("relentless selling: got %s, want buy", got)
	}

	meltUp := make([]float64, 20)
	for i := range meltUp {
		meltUp[i] = 100 + 5*float64(i)
	}
	if got := sig(16, history(meltUp...)); got != engine.SignalSell {
		t.Errorf("relentless buying: got %s, want sell", got)
	}

	// Placeholder RSI of 50 before warmup keeps the strategy flat.
	if got := sig(5, history(crash...)); got != engine.SignalHold {
		t.Errorf("inside warmup: got %s, want hold", got)
	}
}

func TestForName(t *testing.T) {
	if _, err := ForName("buy_hold", nil); err != nil {
		t.Errorf("buy_hold: %v", err)
	}
	if _, err := ForName("golden_cross", Params{"fast": 5, "slow": 20}); err != nil {
		t.Errorf("golden_cross: %v", err)
	}
	if _, err := ForName("golden_cross", Params{"fast": 20, "slow": 5}); err == nil {
		t.Error("fast >= slow must be rejected")
	}
	if _, err := ForName("rsi_reversion", Params{"oversold": 80, "overbought": 20}); err == nil {
		t.Error("inverted RSI thresholds must be rejected")
	}
	if _, err := ForName("martingale", nil); err == nil {
		t.Error("unknown strategy must be rejected")
	}
}
