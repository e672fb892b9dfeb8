// Command run_backtest replays a named strategy over a bar history from a
// local CSV file or a ClickHouse HTTP export and prints the summary.
package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"stock-dashboard/go-services/services/arrowpipeline"
	"stock-dashboard/go-services/services/engine"
	"stock-dashboard/go-services/strategies"

	"go.uber.org/zap"
)

func main() {
	// Data source
	csvPath := flag.String("csv", "", "Path to local CSV; if set, skip ClickHouse download")
	chURL := flag.String("ch-url", "http://localhost:8123", "ClickHouse HTTP URL")
	db := flag.String("db", "stocks", "ClickHouse database")
	table := flag.String("table", "bars", "ClickHouse table")
	symbol := flag.String("symbol", "2330.TW", "Ticker symbol")
	interval := flag.String("interval", "1d", "Bar interval")
	from := flag.String("from", "2020-01-01 00:00:00", "Start UTC (YYYY-MM-DD HH:MM:SS)")
	to := flag.String("to", "2025-01-01 00:00:00", "End UTC (YYYY-MM-DD HH:MM:SS)")
	user := flag.String("ch-user", "default", "ClickHouse user")
	pass := flag.String("ch-pass", "", "ClickHouse password")
	tmpCSV := flag.String("tmp", "./bars_export.csv", "Temp CSV path for ClickHouse download")

	// Strategy
	name := flag.String("strategy", strategies.NameGoldenCross, "Strategy: buy_hold, golden_cross, rsi_reversion")
	fast := flag.Float64("fast", 12, "golden_cross fast EMA period")
	slow := flag.Float64("slow", 26, "golden_cross slow EMA period")
	period := flag.Float64("period", 14, "rsi_reversion RSI period")
	oversold := flag.Float64("oversold", 30, "rsi_reversion buy threshold")
	overbought := flag.Float64("overbought", 70, "rsi_reversion sell threshold")

	// Engine
	capital := flag.Float64("capital", 1_000_000, "Initial capital")
	commission := flag.Float64("commission", 0.001425, "Commission rate per side")
	slippage := flag.Float64("slippage", 0.1, "Fixed adverse slippage per share")
	allowShort := flag.Bool("allow-short", false, "Allow opening short positions")
	maxPosition := flag.Float64("max-position", 1.0, "Capital fraction per position (0,1]")

	// Output
	tradesOut := flag.String("out", "", "Write closed trades to this CSV path")
	arrowOut := flag.String("arrow-out", "", "Write the equity curve as Arrow IPC to this path")
	flag.Parse()

	source := *tmpCSV
	if *csvPath != "" {
		cleaned, err := preprocessCSV(*csvPath)
		if err != nil {
			panic(err)
		}
		source = cleaned
	} else {
		if err := exportFromClickHouse(*chURL, *user, *pass, *db, *table, *symbol, *interval, *from, *to, *tmpCSV); err != nil {
			panic(err)
		}
	}

	bars, err := engine.LoadCSV(source)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Loaded bars: %d\n", len(bars))

	signal, err := strategies.ForName(*name, strategies.Params{
		"fast":       *fast,
		"slow":       *slow,
		"period":     *period,
		"oversold":   *oversold,
		"overbought": *overbought,
	})
	if err != nil {
		panic(err)
	}

	result, err := engine.New(engine.Config{
		InitialCapital:  *capital,
		CommissionRate:  *commission,
		Slippage:        *slippage,
		AllowShort:      *allowShort,
		MaxPositionSize: *maxPosition,
	}).Run(bars, signal)
	if err != nil {
		panic(err)
	}

	printSummary(*name, *symbol, result)

	if *tradesOut != "" {
		if err := writeTradesCSV(*tradesOut, result.Trades); err != nil {
			panic(err)
		}
		fmt.Printf("Trades written to %s\n", *tradesOut)
	}
	if *arrowOut != "" {
		raw, err := arrowpipeline.NewPipeline(zap.NewNop()).EquityCurveIPC(result.EquityCurve)
		if err != nil {
			panic(err)
		}
		if err := os.WriteFile(*arrowOut, raw, 0o644); err != nil {
			panic(err)
		}
		fmt.Printf("Equity curve written to %s\n", *arrowOut)
	}
}

// exportFromClickHouse downloads the bar window over the HTTP interface in
// CSV format, matching the layout engine.LoadCSV expects.
func exportFromClickHouse(chURL, user, pass, db, table, symbol, interval, from, to, outCSV string) error {
	q := fmt.Sprintf(`
SELECT
    toUnixTimestamp64Milli(ts),
    toString(open),
    toString(high),
    toString(low),
    toString(close),
    toString(volume)
FROM %s.%s
WHERE symbol = '%s'
  AND interval = '%s'
  AND ts >= toDateTime64('%s',3,'UTC')
  AND ts <  toDateTime64('%s',3,'UTC')
ORDER BY ts
FORMAT CSV
`, db, table, symbol, interval, from, to)

	endpoint := fmt.Sprintf("%s/?%s", strings.TrimRight(chURL, "/"), url.Values{
		"query":    {q},
		"user":     {user},
		"password": {pass},
	}.Encode())

	if err := os.MkdirAll(filepath.Dir(outCSV), 0o755); err != nil {
		return err
	}
	resp, err := http.Get(endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("clickhouse export error %d: %s", resp.StatusCode, string(b))
	}

	outFile, err := os.Create(outCSV)
	if err != nil {
		return err
	}
	defer outFile.Close()
	writer := bufio.NewWriter(outFile)
	writer.WriteString("timestamp,open,high,low,close,volume\n")
	if _, err := io.Copy(writer, resp.Body); err != nil {
		return err
	}
	return writer.Flush()
}

// preprocessCSV rewrites an exported CSV next to the original with quotes
// stripped, decoding UTF-16 when a BOM is present. Broker exports on
// Windows often arrive UTF-16LE.
func preprocessCSV(path string) (string, error) {
	inF, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer inF.Close()

	var reader io.Reader = inF
	br := bufio.NewReader(inF)
	if bom, _ := br.Peek(2); len(bom) >= 2 &&
		((bom[0] == 0xFF && bom[1] == 0xFE) || (bom[0] == 0xFE && bom[1] == 0xFF)) {
		if _, err := inF.Seek(0, io.SeekStart); err != nil {
			return "", err
		}
		reader = transform.NewReader(inF, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	} else {
		reader = br
	}

	cleanPath := path + ".clean.csv"
	outF, err := os.Create(cleanPath)
	if err != nil {
		return "", err
	}
	defer outF.Close()
	w := bufio.NewWriter(outF)

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(line, "\ufeff")
		line = strings.ReplaceAll(line, "\"", "")
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return cleanPath, w.Flush()
}

func printSummary(strategy, symbol string, result *engine.BacktestResult) {
	s := result.Summary
	fmt.Printf("=== %s on %s ===\n", strategy, symbol)
	fmt.Printf("Trades: %d (won %d, lost %d), WinRate: %.2f%%\n",
		s.TotalTrades, s.WinningTrades, s.LosingTrades, s.WinRate)
	fmt.Printf("Total PnL: %.2f, Return: %.2f%%, Annualized: %.2f%%\n",
		s.TotalPnL, s.TotalReturn, s.AnnualizedReturn)
	if math.IsInf(s.ProfitFactor, 1) {
		fmt.Printf("Sharpe: %.3f, ProfitFactor: inf (no losing trades)\n", s.SharpeRatio)
	} else {
		fmt.Printf("Sharpe: %.3f, ProfitFactor: %.3f\n", s.SharpeRatio, s.ProfitFactor)
	}
	fmt.Printf("Max drawdown: %.2f%%, Buy&hold benchmark: %.2f%%\n",
		result.Drawdown.MaxDrawdown, result.BenchmarkReturn)
	fmt.Printf("Final capital: %.2f\n", s.FinalCapital)
}

func writeTradesCSV(path string, trades []engine.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"type", "entry_time", "entry_price", "shares", "commission",
		"exit_time", "exit_price", "pnl", "pnl_percent", "holding_days",
	}); err != nil {
		return err
	}
	for _, t := range trades {
		exitTime := ""
		if t.Closed() {
			exitTime = t.ExitTime.UTC().Format("2006-01-02 15:04:05")
		}
		record := []string{
			string(t.Type),
			t.EntryTime.UTC().Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(t.EntryPrice, 'f', -1, 64),
			strconv.FormatInt(t.Shares, 10),
			strconv.FormatFloat(t.Commission, 'f', -1, 64),
			exitTime,
			strconv.FormatFloat(t.ExitPrice, 'f', -1, 64),
			strconv.FormatFloat(t.PnL, 'f', -1, 64),
			strconv.FormatFloat(t.PnLPercent, 'f', -1, 64),
			strconv.Itoa(t.HoldingDays),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
