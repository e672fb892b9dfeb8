package engine

import (
	"encoding/json"
	"math"
	"time"
)

// Signal classifies a single bar from the strategy's point of view.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// SignalFunc is the strategy contract. It is invoked for indices
// 1..len(history)-1 with the full history slice and must only look at
// history[0..index]; the engine does not police lookahead.
type SignalFunc func(index int, history []PriceBar) Signal

// PriceBar is one OHLCV observation. Bars are owned by the caller and
// read-only to the engine.
type PriceBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume,omitempty"`
}

// Config holds the cost and capital model for one engine instance.
type Config struct {
	InitialCapital  float64 `json:"initialCapital" yaml:"initial_capital"`
	CommissionRate  float64 `json:"commissionRate" yaml:"commission_rate"`
	Slippage        float64 `json:"slippage" yaml:"slippage"`
	AllowShort      bool    `json:"allowShort" yaml:"allow_short"`
	MaxPositionSize float64 `json:"maxPositionSize" yaml:"max_position_size"`
}

// DefaultConfig returns the retail defaults: TWSE-style commission and a
// fixed ten-cent slippage per fill.
func DefaultConfig() Config {
	return Config{
		InitialCapital:  1_000_000,
		CommissionRate:  0.001425,
		Slippage:        0.1,
		AllowShort:      false,
		MaxPositionSize: 1.0,
	}
}

// Trade is one ledger entry. It is appended at entry and mutated in place
// when the position closes; Type records the entry side.
type Trade struct {
	Type        Signal    `json:"type"`
	EntryTime   time.Time `json:"entryTime"`
	EntryPrice  float64   `json:"entryPrice"`
	Shares      int64     `json:"shares"`
	Commission  float64   `json:"commission"`
	ExitTime    time.Time `json:"exitTime,omitzero"`
	ExitPrice   float64   `json:"exitPrice"`
	PnL         float64   `json:"pnl"`
	PnLPercent  float64   `json:"pnlPercent"`
	HoldingDays int       `json:"holdingDays"`

	entryIndex int
}

// Closed reports whether the trade has an exit leg.
func (t *Trade) Closed() bool { return !t.ExitTime.IsZero() }

// EquityPoint is a mark-to-market snapshot recorded for every bar
// processed, trade or no trade.
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// SummaryStats aggregates the closed ledger.
type SummaryStats struct {
	TotalTrades      int     `json:"totalTrades"`
	WinningTrades    int     `json:"winningTrades"`
	LosingTrades     int     `json:"losingTrades"`
	WinRate          float64 `json:"winRate"`
	TotalPnL         float64 `json:"totalPnl"`
	TotalReturn      float64 `json:"totalReturn"`
	AnnualizedReturn float64 `json:"annualizedReturn"`
	SharpeRatio      float64 `json:"sharpeRatio"`
	AvgWin           float64 `json:"avgWin"`
	AvgLoss          float64 `json:"avgLoss"`
	ProfitFactor     float64 `json:"profitFactor"`
	FinalCapital     float64 `json:"finalCapital"`
}

// MarshalJSON renders an infinite profit factor (wins, no losses) as null;
// encoding/json cannot represent +Inf.
func (s SummaryStats) MarshalJSON() ([]byte, error) {
	type alias SummaryStats
	out := struct {
		alias
		ProfitFactor any `json:"profitFactor"`
	}{alias: alias(s), ProfitFactor: s.ProfitFactor}
	if math.IsInf(s.ProfitFactor, 0) {
		out.ProfitFactor = nil
	}
	return json.Marshal(out)
}

// DrawdownPeriod is one recovered peak-to-peak excursion. End is the bar
// on which equity made the new peak.
type DrawdownPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Depth float64   `json:"depth"`
}

// DrawdownStats describes the equity curve's worst excursion plus every
// recovered one.
type DrawdownStats struct {
	MaxDrawdown      float64          `json:"maxDrawdown"`
	MaxDrawdownStart time.Time        `json:"maxDrawdownStart,omitzero"`
	MaxDrawdownEnd   time.Time        `json:"maxDrawdownEnd,omitzero"`
	Periods          []DrawdownPeriod `json:"periods"`
}

// BacktestResult is the engine's only output, built once at the end of Run.
type BacktestResult struct {
	Trades          []Trade       `json:"trades"`
	EquityCurve     []EquityPoint `json:"equityCurve"`
	Summary         SummaryStats  `json:"summary"`
	Drawdown        DrawdownStats `json:"drawdown"`
	BenchmarkReturn float64       `json:"benchmarkReturn"`
}
