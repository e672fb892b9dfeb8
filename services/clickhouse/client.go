// Package clickhouse stores and serves the OHLCV bar history backing the
// dashboard's backtests.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stock-dashboard/go-services/services/engine"
)

// Config holds connection settings for the bar store.
type Config struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Client wraps a native-protocol ClickHouse connection.
type Client struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewClient opens and pings the connection.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}

	logger.Info("connected to clickhouse",
		zap.String("addr", cfg.Addr),
		zap.String("database", cfg.Database),
	)
	return &Client{conn: conn, logger: logger}, nil
}

// EnsureSchema creates the bars table when it does not exist. The version
// column makes re-ingesting a window idempotent under ReplacingMergeTree.
func (c *Client) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS bars (
	symbol String,
	interval LowCardinality(String),
	ts DateTime64(3, 'UTC'),
	open Decimal(18, 8),
	high Decimal(18, 8),
	low Decimal(18, 8),
	close Decimal(18, 8),
	volume Decimal(18, 8),
	ingested_at DateTime64(3) DEFAULT now64(3),
	version UInt64 DEFAULT toUnixTimestamp64Milli(now64(3))
)
ENGINE = ReplacingMergeTree(version)
ORDER BY (symbol, interval, ts)`

	if err := c.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create bars table: %w", err)
	}
	return nil
}

// QueryBars loads the ascending bar series for one symbol and interval.
// Prices are stored as Decimal(18,8) and converted to float64 at this
// boundary; the engine works in floats.
func (c *Client) QueryBars(ctx context.Context, symbol, interval string, from, to time.Time) ([]engine.PriceBar, error) {
	const query = `
SELECT ts, open, high, low, close, volume
FROM bars
WHERE symbol = ? AND interval = ? AND ts >= ? AND ts < ?
ORDER BY ts`

	rows, err := c.conn.Query(ctx, query, symbol, interval, from, to)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var bars []engine.PriceBar
	for rows.Next() {
		var (
			ts                           time.Time
			open, high, low, closeP, vol decimal.Decimal
		)
		if err := rows.Scan(&ts, &open, &high, &low, &closeP, &vol); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		bars = append(bars, engine.PriceBar{
			Time:   ts,
			Open:   open.InexactFloat64(),
			High:   high.InexactFloat64(),
			Low:    low.InexactFloat64(),
			Close:  closeP.InexactFloat64(),
			Volume: vol.InexactFloat64(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read bars: %w", err)
	}

	c.logger.Debug("loaded bars",
		zap.String("symbol", symbol),
		zap.String("interval", interval),
		zap.Int("count", len(bars)),
	)
	return bars, nil
}

// InsertBars writes a batch of bars for one symbol and interval; the table
// is ReplacingMergeTree so re-ingesting a window is idempotent.
func (c *Client) InsertBars(ctx context.Context, symbol, interval string, bars []engine.PriceBar) error {
	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO bars (symbol, interval, ts, open, high, low, close, volume)")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, b := range bars {
		err := batch.Append(
			symbol,
			interval,
			b.Time,
			decimal.NewFromFloat(b.Open),
			decimal.NewFromFloat(b.High),
			decimal.NewFromFloat(b.Low),
			decimal.NewFromFloat(b.Close),
			decimal.NewFromFloat(b.Volume),
		)
		if err != nil {
			return fmt.Errorf("append bar at %s: %w", b.Time.Format(time.RFC3339), err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	c.logger.Info("inserted bars",
		zap.String("symbol", symbol),
		zap.String("interval", interval),
		zap.Int("count", len(bars)),
	)
	return nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }
