package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stock-dashboard/go-services/services/arrowpipeline"
	"stock-dashboard/go-services/services/clickhouse"
	"stock-dashboard/go-services/services/config"
	"stock-dashboard/go-services/services/engine"
	"stock-dashboard/go-services/services/keypool"
	"stock-dashboard/go-services/services/monitoring"
	"stock-dashboard/go-services/strategies"
)

// BacktestService wires the engine behind the dashboard's REST API.
type BacktestService struct {
	cfg        *config.Config
	clickhouse *clickhouse.Client
	arrow      *arrowpipeline.Pipeline
	metrics    *monitoring.Metrics
	keys       *keypool.Pool
	logger     *zap.Logger
}

// NewBacktestService builds the service. The ClickHouse client is optional:
// without an addr the API only accepts inline bar payloads.
func NewBacktestService(cfg *config.Config, logger *zap.Logger) (*BacktestService, error) {
	s := &BacktestService{
		cfg:     cfg,
		arrow:   arrowpipeline.NewPipeline(logger),
		metrics: monitoring.NewMetrics(),
		keys:    keypool.New(cfg.Commentary.Keys, cfg.Commentary.RatePerMinute, cfg.Commentary.Cooldown),
		logger:  logger,
	}

	if cfg.ClickHouse.Addr != "" {
		client, err := clickhouse.NewClient(cfg.ClickHouse, logger)
		if err != nil {
			return nil, err
		}
		s.clickhouse = client
	}
	return s, nil
}

func (s *BacktestService) setupHTTPRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/backtest", s.handleBacktest)
		api.GET("/strategies", s.handleListStrategies)
		api.GET("/health", s.handleHealth)
	}
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

// BacktestRequest is the JSON body of POST /api/v1/backtest. Bars come
// either inline or, when symbol/from/to are set, from ClickHouse.
type BacktestRequest struct {
	Strategy string            `json:"strategy" binding:"required"`
	Params   strategies.Params `json:"params"`

	Bars []engine.PriceBar `json:"bars"`

	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`

	Config *engine.Config `json:"config"`

	// Format selects the equity-curve encoding: "json" (default)
	// returns the full result, "arrow" streams just the equity curve
	// as Arrow IPC.
	Format string `json:"format"`
}

func (s *BacktestService) handleBacktest(c *gin.Context) {
	start := time.Now()
	jobID := uuid.New().String()

	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.BacktestErrors.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "jobId": jobID})
		return
	}

	signal, err := strategies.ForName(req.Strategy, req.Params)
	if err != nil {
		s.metrics.BacktestErrors.WithLabelValues("bad_strategy").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "jobId": jobID})
		return
	}

	bars, err := s.resolveBars(c, &req)
	if err != nil {
		s.metrics.BacktestErrors.WithLabelValues("bars_unavailable").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "jobId": jobID})
		return
	}

	cfg := s.cfg.Engine
	if req.Config != nil {
		cfg = *req.Config
	}

	result, err := engine.New(cfg).Run(bars, signal)
	if err != nil {
		var insufficient *engine.InsufficientDataError
		if errors.As(err, &insufficient) {
			s.metrics.BacktestErrors.WithLabelValues("insufficient_data").Inc()
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "jobId": jobID})
			return
		}
		s.metrics.BacktestErrors.WithLabelValues("engine").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "jobId": jobID})
		return
	}

	s.metrics.ObserveRun(req.Strategy, len(bars), time.Since(start))
	s.logger.Info("backtest completed",
		zap.String("job_id", jobID),
		zap.String("strategy", req.Strategy),
		zap.Int("bars", len(bars)),
		zap.Int("trades", len(result.Trades)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if req.Format == "arrow" {
		raw, err := s.arrow.EquityCurveIPC(result.EquityCurve)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "jobId": jobID})
			return
		}
		c.Header("X-Job-Id", jobID)
		c.Data(http.StatusOK, "application/vnd.apache.arrow.stream", raw)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobId": jobID, "result": result})
}

func (s *BacktestService) resolveBars(c *gin.Context, req *BacktestRequest) ([]engine.PriceBar, error) {
	if len(req.Bars) > 0 {
		return req.Bars, nil
	}
	if req.Symbol == "" {
		return nil, errors.New("request needs inline bars or a symbol")
	}
	if s.clickhouse == nil {
		return nil, errors.New("no bar store configured, send bars inline")
	}
	interval := req.Interval
	if interval == "" {
		interval = "1d"
	}
	return s.clickhouse.QueryBars(c.Request.Context(), req.Symbol, interval, req.From, req.To)
}

func (s *BacktestService) handleListStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"strategies": []gin.H{
			{"name": strategies.NameBuyHold, "params": gin.H{}},
			{"name": strategies.NameGoldenCross, "params": gin.H{"fast": 12, "slow": 26}},
			{"name": strategies.NameRSIReversion, "params": gin.H{"period": 14, "oversold": 30, "overbought": 70}},
		},
	})
}

func (s *BacktestService) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"timestamp":      time.Now().Unix(),
		"environment":    s.cfg.Environment,
		"barStore":       s.clickhouse != nil,
		"commentaryKeys": s.keys.Status(),
	})
}
