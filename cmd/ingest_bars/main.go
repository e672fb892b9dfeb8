// Command ingest_bars loads a daily bar CSV into the ClickHouse bars table
// so the dashboard and the backtest API can serve it.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"stock-dashboard/go-services/services/clickhouse"
	"stock-dashboard/go-services/services/engine"
)

func main() {
	csvPath := flag.String("csv", "", "Path to OHLCV CSV (required)")
	symbol := flag.String("symbol", "", "Ticker symbol (required)")
	interval := flag.String("interval", "1d", "Bar interval")
	addr := flag.String("ch-addr", "localhost:9000", "ClickHouse native address")
	database := flag.String("db", "stocks", "ClickHouse database")
	user := flag.String("ch-user", "default", "ClickHouse user")
	pass := flag.String("ch-pass", "", "ClickHouse password")
	flag.Parse()

	if *csvPath == "" || *symbol == "" {
		log.Fatal("both -csv and -symbol are required")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("initialize logger: %v", err)
	}
	defer logger.Sync()

	bars, err := engine.LoadCSV(*csvPath)
	if err != nil {
		logger.Fatal("load csv", zap.Error(err))
	}
	if len(bars) == 0 {
		logger.Fatal("csv holds no bars", zap.String("path", *csvPath))
	}

	client, err := clickhouse.NewClient(clickhouse.Config{
		Addr:     *addr,
		Database: *database,
		Username: *user,
		Password: *pass,
	}, logger)
	if err != nil {
		logger.Fatal("connect clickhouse", zap.Error(err))
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := client.EnsureSchema(ctx); err != nil {
		logger.Fatal("ensure schema", zap.Error(err))
	}
	if err := client.InsertBars(ctx, *symbol, *interval, bars); err != nil {
		logger.Fatal("insert bars", zap.Error(err))
	}

	logger.Info("ingest complete",
		zap.String("symbol", *symbol),
		zap.String("interval", *interval),
		zap.Int("bars", len(bars)),
		zap.Time("first", bars[0].Time),
		zap.Time("last", bars[len(bars)-1].Time),
	)
}
