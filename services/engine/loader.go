package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Accepted time layouts for the first CSV column, tried after a plain
// millisecond epoch.
var csvTimeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// LoadCSV reads OHLCV bars from a CSV file with columns
// timestamp,open,high,low,close[,volume]. A header row is skipped when the
// first field does not parse as a time. Bars must be ascending and unique
// by time with sane OHLC bounds.
func LoadCSV(filename string) ([]PriceBar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return ReadCSV(file)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader) ([]PriceBar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var bars []PriceBar
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read error at line %d: %w", line+1, err)
		}
		line++
		if len(record) < 5 {
			return nil, fmt.Errorf("line %d: expected at least 5 columns, got %d", line, len(record))
		}

		ts, err := parseBarTime(strings.TrimSpace(record[0]))
		if err != nil {
			if line == 1 {
				// header row
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		bar := PriceBar{Time: ts}
		fields := []*float64{&bar.Open, &bar.High, &bar.Low, &bar.Close}
		for i, dst := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+2, err)
			}
			*dst = v
		}
		if len(record) > 5 && strings.TrimSpace(record[5]) != "" {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[5]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d volume: %w", line, err)
			}
			bar.Volume = v
		}

		if err := validateBar(bar); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(bars) > 0 && !bar.Time.After(bars[len(bars)-1].Time) {
			return nil, fmt.Errorf("line %d: bar time %s not after previous bar", line, bar.Time.Format(time.RFC3339))
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseBarTime(field string) (time.Time, error) {
	if ms, err := strconv.ParseInt(field, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	for _, layout := range csvTimeLayouts {
		if ts, err := time.Parse(layout, field); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", field)
}

func validateBar(b PriceBar) error {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("non-positive price in bar at %s", b.Time.Format(time.RFC3339))
	}
	if b.Low > b.Open || b.Low > b.Close || b.High < b.Open || b.High < b.Close {
		return fmt.Errorf("inconsistent OHLC bounds in bar at %s", b.Time.Format(time.RFC3339))
	}
	if b.Volume < 0 {
		return fmt.Errorf("negative volume in bar at %s", b.Time.Format(time.RFC3339))
	}
	return nil
}
