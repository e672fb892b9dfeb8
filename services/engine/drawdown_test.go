package engine

import (
	"math"
	"testing"
	"time"
)

func equitySeries(values ...float64) []EquityPoint {
	points := make([]EquityPoint, len(values))
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		points[i] = EquityPoint{Time: start.AddDate(0, 0, i), Equity: v}
	}
	return points
}

func TestDrawdownMonotonicCurve(t *testing.T) {
	d := calculateDrawdown(equitySeries(100, 105, 105, 110, 120))
	if d.MaxDrawdown != 0 {
		t.Errorf("max drawdown = %v, want 0 for non-decreasing equity", d.MaxDrawdown)
	}
	if len(d.Periods) != 0 {
		t.Errorf("want no drawdown periods, got %d", len(d.Periods))
	}
}

func TestDrawdownRecoveredPeriod(t *testing.T) {
	points := equitySeries(100, 110, 99, 104, 121, 110)
	d := calculateDrawdown(points)

	// 110 -> 99 is the deepest excursion: 10%.
	if math.Abs(d.MaxDrawdown-10) > 1e-9 {
		t.Errorf("max drawdown = %v, want 10", d.MaxDrawdown)
	}
	if !d.MaxDrawdownStart.Equal(points[1].Time) {
		t.Errorf("max drawdown starts %v, want peak bar %v", d.MaxDrawdownStart, points[1].Time)
	}
	if !d.MaxDrawdownEnd.Equal(points[2].Time) {
		t.Errorf("max drawdown ends %v, want trough bar %v", d.MaxDrawdownEnd, points[2].Time)
	}

	// Only the first excursion recovered (new peak at 121); the final
	// 121 -> 110 slide is still open and must not be listed.
	if len(d.Periods) != 1 {
		t.Fatalf("want 1 recovered period, got %d", len(d.Periods))
	}
	p := d.Periods[0]
	if !p.Start.Equal(points[1].Time) || !p.End.Equal(points[4].Time) {
		t.Errorf("period [%v, %v], want [%v, %v]", p.Start, p.End, points[1].Time, points[4].Time)
	}
	if math.Abs(p.Depth-10) > 1e-9 {
		t.Errorf("period depth = %v, want 10", p.Depth)
	}
}

func TestDrawdownEndsOnNewPeak(t *testing.T) {
	// Recovery back to exactly the old peak does not end the period; a
	// strictly higher equity does.
	points := equitySeries(100, 90, 100, 101)
	d := calculateDrawdown(points)
	if len(d.Periods) != 1 {
		t.Fatalf("want 1 period, got %d", len(d.Periods))
	}
	if !d.Periods[0].End.Equal(points[3].Time) {
		t.Errorf("period end = %v, want first new-peak bar %v", d.Periods[0].End, points[3].Time)
	}
}

func TestDrawdownEmptyCurve(t *testing.T) {
	d := calculateDrawdown(nil)
	if d.MaxDrawdown != 0 || len(d.Periods) != 0 {
		t.Errorf("empty curve should produce zero stats: %+v", d)
	}
}
