package arrowpipeline

import (
	"bytes"
	"testing"
	"time"

	"github.com/apache/arrow/go/v14/arrow/ipc"
	"go.uber.org/zap"

	"stock-dashboard/go-services/services/engine"
)

func TestEquityCurveIPCRoundTrip(t *testing.T) {
	p := NewPipeline(zap.NewNop())
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	points := []engine.EquityPoint{
		{Time: start, Equity: 1_000_000},
		{Time: start.AddDate(0, 0, 1), Equity: 1_010_000},
		{Time: start.AddDate(0, 0, 2), Equity: 995_000},
	}

	raw, err := p.EquityCurveIPC(points)
	if err != nil {
		t.Fatal(err)
	}

	reader, err := ipc.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("reopen stream: %v", err)
	}
	defer reader.Release()

	if !reader.Next() {
		t.Fatal("stream has no record")
	}
	rec := reader.Record()
	if rec.NumRows() != int64(len(points)) {
		t.Errorf("rows = %d, want %d", rec.NumRows(), len(points))
	}
	if rec.NumCols() != 2 {
		t.Errorf("cols = %d, want 2", rec.NumCols())
	}
}

func TestEquityCurveIPCEmpty(t *testing.T) {
	p := NewPipeline(zap.NewNop())
	if _, err := p.EquityCurveIPC(nil); err == nil {
		t.Fatal("empty curve must be rejected")
	}
}

func TestBarsIPC(t *testing.T) {
	p := NewPipeline(zap.NewNop())
	bars := []engine.PriceBar{
		{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1200},
		{Time: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 100.5, High: 103, Low: 100, Close: 102, Volume: 900},
	}
	raw, err := p.BarsIPC("2330.TW", bars)
	if err != nil {
		t.Fatal(err)
	}
	reader, err := ipc.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Release()
	if !reader.Next() {
		t.Fatal("stream has no record")
	}
	if rec := reader.Record(); rec.NumRows() != 2 || rec.NumCols() != 7 {
		t.Errorf("record shape = %dx%d, want 2x7", rec.NumRows(), rec.NumCols())
	}
}
