// Package engine replays a price history bar by bar against a signal
// function, simulating order execution with slippage, commission and
// position sizing, and derives performance statistics from the resulting
// trade ledger and equity curve.
package engine

import (
	"math"
	"time"
)

// Engine owns the simulated capital, the current position and the trade
// ledger for one run. State is reset unconditionally at the top of Run, so
// an instance is reusable across calls; separate instances share nothing
// and may run concurrently.
type Engine struct {
	cfg Config

	capital       float64
	position      int64 // signed share count, negative = short
	avgEntryPrice float64
	trades        []Trade
	equity        []EquityPoint
}

// New constructs an engine with the given cost/capital configuration. A
// zero MaxPositionSize means the full capital is deployable per trade.
func New(cfg Config) *Engine {
	if cfg.MaxPositionSize == 0 {
		cfg.MaxPositionSize = 1.0
	}
	return &Engine{cfg: cfg}
}

// Run walks the history once, consulting signal at every bar from index 1.
// Each bar is marked to market before the signal is acted on, so the
// equity point reflects the position carried into the bar. Any position
// still open after the last bar is force-closed at that bar's close.
func (e *Engine) Run(history []PriceBar, signal SignalFunc) (*BacktestResult, error) {
	if len(history) < 2 {
		return nil, &InsufficientDataError{Bars: len(history)}
	}
	e.reset()

	for i := 1; i < len(history); i++ {
		bar := history[i]
		e.equity = append(e.equity, EquityPoint{Time: bar.Time, Equity: e.markEquity(bar.Close)})

		switch signal(i, history) {
		case SignalBuy:
			if e.position <= 0 {
				e.executeOrder(SignalBuy, bar, i)
			}
		case SignalSell:
			if e.position >= 0 {
				e.executeOrder(SignalSell, bar, i)
			}
		}
	}

	last := history[len(history)-1]
	if e.position != 0 {
		e.closePosition(last.Close, last.Time, len(history)-1)
	}

	result := &BacktestResult{
		Trades:          e.trades,
		EquityCurve:     e.equity,
		Summary:         calculateSummary(e.trades, e.equity, e.cfg.InitialCapital, e.capital, len(history)),
		Drawdown:        calculateDrawdown(e.equity),
		BenchmarkReturn: benchmarkReturn(history),
	}
	return result, nil
}

func (e *Engine) reset() {
	e.capital = e.cfg.InitialCapital
	e.position = 0
	e.avgEntryPrice = 0
	e.trades = nil
	e.equity = nil
}

// markEquity values the carried position against the given close.
func (e *Engine) markEquity(close float64) float64 {
	return e.capital + float64(e.position)*(close-e.avgEntryPrice)
}

// executeOrder fills at the bar's open with adverse slippage: buys pay up,
// sells receive less. An opposing position is closed first; only one
// directional position is held at a time. Orders whose floored share count
// is zero are skipped silently.
func (e *Engine) executeOrder(side Signal, bar PriceBar, index int) {
	if side == SignalBuy {
		price := bar.Open + e.cfg.Slippage
		if e.position < 0 {
			e.closePosition(price, bar.Time, index)
		}
		e.openPosition(SignalBuy, price, bar.Time, index)
		return
	}

	price := bar.Open - e.cfg.Slippage
	if e.position > 0 {
		e.closePosition(price, bar.Time, index)
	}
	if !e.cfg.AllowShort {
		return
	}
	e.openPosition(SignalSell, price, bar.Time, index)
}

func (e *Engine) openPosition(side Signal, price float64, ts time.Time, index int) {
	if price <= 0 {
		return
	}
	shares := int64(math.Floor(e.cfg.InitialCapital * e.cfg.MaxPositionSize / price))
	if shares <= 0 {
		return
	}
	commission := float64(shares) * price * e.cfg.CommissionRate
	e.trades = append(e.trades, Trade{
		Type:       side,
		EntryTime:  ts,
		EntryPrice: price,
		Shares:     shares,
		Commission: commission,
		entryIndex: index,
	})
	if side == SignalBuy {
		e.position = shares
	} else {
		e.position = -shares
	}
	e.avgEntryPrice = price
}

// closePosition realizes P&L on the most recent open trade: gross price
// move times shares, minus both commission legs, sign-flipped for shorts.
// Holding days are the bars elapsed since that trade's entry.
func (e *Engine) closePosition(exitPrice float64, ts time.Time, index int) {
	t := e.openTrade()
	if t == nil {
		e.position = 0
		e.avgEntryPrice = 0
		return
	}
	shares := float64(t.Shares)
	exitCommission := shares * exitPrice * e.cfg.CommissionRate

	var gross float64
	if e.position > 0 {
		gross = (exitPrice - t.EntryPrice) * shares
	} else {
		gross = (t.EntryPrice - exitPrice) * shares
	}
	pnl := gross - t.Commission - exitCommission

	t.ExitTime = ts
	t.ExitPrice = exitPrice
	t.PnL = pnl
	t.PnLPercent = pnl / (t.EntryPrice * shares) * 100
	t.HoldingDays = index - t.entryIndex

	e.capital += pnl
	e.position = 0
	e.avgEntryPrice = 0
}

// openTrade returns the most recent ledger entry without an exit leg.
func (e *Engine) openTrade() *Trade {
	for i := len(e.trades) - 1; i >= 0; i-- {
		if !e.trades[i].Closed() {
			return &e.trades[i]
		}
	}
	return nil
}

// benchmarkReturn is buy-and-hold over the full window, independent of the
// strategy under test.
func benchmarkReturn(history []PriceBar) float64 {
	first := history[0].Close
	if first == 0 {
		return 0
	}
	return (history[len(history)-1].Close - first) / first * 100
}
