// Package arrowpipeline serializes bar series and equity curves to Apache
// Arrow IPC streams so chart frontends and notebook users can consume
// results without reparsing JSON.
package arrowpipeline

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"go.uber.org/zap"

	"stock-dashboard/go-services/services/engine"
)

// Pipeline converts engine data to Arrow IPC bytes.
type Pipeline struct {
	alloc  memory.Allocator
	logger *zap.Logger
}

// NewPipeline creates a pipeline with its own Go allocator.
func NewPipeline(logger *zap.Logger) *Pipeline {
	return &Pipeline{alloc: memory.NewGoAllocator(), logger: logger}
}

var equitySchema = arrow.NewSchema([]arrow.Field{
	{Name: "time", Type: arrow.FixedWidthTypes.Timestamp_ms},
	{Name: "equity", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// EquityCurveIPC encodes an equity curve as a single-record IPC stream.
func (p *Pipeline) EquityCurveIPC(points []engine.EquityPoint) ([]byte, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no equity points to convert")
	}

	builder := array.NewRecordBuilder(p.alloc, equitySchema)
	defer builder.Release()

	times := builder.Field(0).(*array.TimestampBuilder)
	equities := builder.Field(1).(*array.Float64Builder)
	for _, pt := range points {
		times.Append(arrow.Timestamp(pt.Time.UnixMilli()))
		equities.Append(pt.Equity)
	}

	record := builder.NewRecord()
	defer record.Release()
	return p.writeIPC(equitySchema, record)
}

var barSchema = arrow.NewSchema([]arrow.Field{
	{Name: "symbol", Type: arrow.BinaryTypes.String},
	{Name: "time", Type: arrow.FixedWidthTypes.Timestamp_ms},
	{Name: "open", Type: arrow.PrimitiveTypes.Float64},
	{Name: "high", Type: arrow.PrimitiveTypes.Float64},
	{Name: "low", Type: arrow.PrimitiveTypes.Float64},
	{Name: "close", Type: arrow.PrimitiveTypes.Float64},
	{Name: "volume", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// BarsIPC encodes a bar series as a single-record IPC stream.
func (p *Pipeline) BarsIPC(symbol string, bars []engine.PriceBar) ([]byte, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars to convert")
	}

	builder := array.NewRecordBuilder(p.alloc, barSchema)
	defer builder.Release()

	symbols := builder.Field(0).(*array.StringBuilder)
	times := builder.Field(1).(*array.TimestampBuilder)
	cols := []*array.Float64Builder{
		builder.Field(2).(*array.Float64Builder),
		builder.Field(3).(*array.Float64Builder),
		builder.Field(4).(*array.Float64Builder),
		builder.Field(5).(*array.Float64Builder),
		builder.Field(6).(*array.Float64Builder),
	}
	for _, b := range bars {
		symbols.Append(symbol)
		times.Append(arrow.Timestamp(b.Time.UnixMilli()))
		for i, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			cols[i].Append(v)
		}
	}

	record := builder.NewRecord()
	defer record.Release()
	return p.writeIPC(barSchema, record)
}

func (p *Pipeline) writeIPC(schema *arrow.Schema, record arrow.Record) ([]byte, error) {
	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(p.alloc))
	if err := writer.Write(record); err != nil {
		writer.Close()
		return nil, fmt.Errorf("write arrow record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close arrow writer: %w", err)
	}

	p.logger.Debug("encoded arrow stream",
		zap.Int64("rows", record.NumRows()),
		zap.Int("bytes", buf.Len()),
	)
	return buf.Bytes(), nil
}
