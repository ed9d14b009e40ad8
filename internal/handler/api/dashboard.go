package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"EMAScan/internal/domain/models"
	"EMAScan/internal/repository"
	"EMAScan/internal/service/ratelimit"
	"EMAScan/internal/usecase"
	xhttp "EMAScan/pkg/http"
	xlogger "EMAScan/pkg/logger"
	"EMAScan/pkg/util"
)

// Dashboard is the result pipeline as seen by the API.
type Dashboard interface {
	Current() *models.Dashboard
	LoadLatest(ctx context.Context, kind models.SourceKind) (*models.Dashboard, error)
	LoadDemo(ctx context.Context) (*models.Dashboard, error)
}

// ScanTrigger runs streaming scans.
type ScanTrigger interface {
	Run(ctx context.Context, req models.ScanRequest) (*models.Dashboard, error)
	Running() bool
	Partial() []models.CoinResult
}

type PollerView interface {
	Snapshot() usecase.PollerSnapshot
}

type PriceView interface {
	Snapshot() map[string]usecase.LivePrice
	Connected() bool
	Reconnects() int
}

// CacheAdmin inspects and clears the result cache.
type CacheAdmin interface {
	Age(ctx context.Context) (time.Duration, bool)
	TTL() time.Duration
	Clear(ctx context.Context) error
}

// HealthChecker checks the remote analysis service.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// CoinDetailer resolves extended coin details from the database-backed service.
type CoinDetailer interface {
	CoinDetails(ctx context.Context, symbol string) (models.CoinDetails, error)
}

// HistoryReader returns archived alignment rows for a symbol.
type HistoryReader interface {
	History(ctx context.Context, symbol string, limit int) ([]repository.HistoryPoint, error)
}

// DashboardHandler serves the local dashboard API.
type DashboardHandler struct {
	logger  *xlogger.Logger
	results Dashboard
	scans   ScanTrigger
	poller  PollerView
	prices  PriceView
	cache   CacheAdmin
	health  HealthChecker
	details CoinDetailer
	history HistoryReader
	limiter *ratelimit.Limiter
	baseCtx context.Context
	timeout time.Duration
}

// HandlerOption configures optional collaborators.
type HandlerOption func(*DashboardHandler)

func WithCoinDetails(d CoinDetailer) HandlerOption {
	return func(h *DashboardHandler) { h.details = d }
}

func WithHistory(r HistoryReader) HandlerOption {
	return func(h *DashboardHandler) { h.history = r }
}

// WithScanLimiter throttles POST /api/scan per client address.
func WithScanLimiter(l *ratelimit.Limiter) HandlerOption {
	return func(h *DashboardHandler) { h.limiter = l }
}

// WithBaseContext sets the context background scans run under.
func WithBaseContext(ctx context.Context) HandlerOption {
	return func(h *DashboardHandler) { h.baseCtx = ctx }
}

// WithScanTimeout bounds a background streaming scan. Zero means no bound.
func WithScanTimeout(d time.Duration) HandlerOption {
	return func(h *DashboardHandler) { h.timeout = d }
}

func NewDashboardHandler(
	logger *xlogger.Logger,
	results Dashboard,
	scans ScanTrigger,
	poller PollerView,
	prices PriceView,
	cache CacheAdmin,
	health HealthChecker,
	opts ...HandlerOption,
) *DashboardHandler {
	h := &DashboardHandler{
		logger:  logger,
		results: results,
		scans:   scans,
		poller:  poller,
		prices:  prices,
		cache:   cache,
		health:  health,
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/dashboard", h.Dashboard)
	g.GET("/dashboard/buckets", h.Buckets)
	g.GET("/assets/:symbol", h.Asset)
	g.GET("/assets/:symbol/history", h.History)
	g.GET("/prices", h.Prices)
	g.GET("/scan/status", h.ScanStatus)
	g.GET("/scan/partial", h.Partial)
	g.POST("/scan", h.StartScan)
	g.POST("/demo", h.Demo)
	g.POST("/results/reload", h.Reload)
	g.DELETE("/cache", h.ClearCache)
}

func (h *DashboardHandler) current() (*models.Dashboard, error) {
	d := h.results.Current()
	if d == nil {
		return nil, xhttp.NotFoundError("No scan results loaded yet. Run a scan or load the demo.").WithError(models.ErrNoResults)
	}
	return d, nil
}

func (h *DashboardHandler) Dashboard(c echo.Context) error {
	d, err := h.current()
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, d)
}

// BucketsResponse is the strategic view, each list optionally truncated.
type BucketsResponse struct {
	RunID    string                   `json:"run_id"`
	LongTerm []models.ClassifiedAsset `json:"long_term"`
	TradeNow []models.ClassifiedAsset `json:"trade_now"`
	Avoid    []models.ClassifiedAsset `json:"avoid"`
}

func (h *DashboardHandler) Buckets(c echo.Context) error {
	d, err := h.current()
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	limit := util.ParseIntDefault(c.QueryParam("limit"), 0)
	if limit < 0 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("limit must be >= 0, got %d", limit))
	}
	return xhttp.SuccessResponse(c, BucketsResponse{
		RunID:    d.RunID,
		LongTerm: truncate(d.Buckets.LongTerm, limit),
		TradeNow: truncate(d.Buckets.TradeNow, limit),
		Avoid:    truncate(d.Buckets.Avoid, limit),
	})
}

func truncate(assets []models.ClassifiedAsset, limit int) []models.ClassifiedAsset {
	if limit > 0 && len(assets) > limit {
		return assets[:limit]
	}
	return assets
}

// AssetResponse is one classified asset with optional live and extended data.
type AssetResponse struct {
	models.ClassifiedAsset
	Buckets   []string            `json:"buckets"`
	LivePrice *usecase.LivePrice  `json:"live_price,omitempty"`
	Details   *models.CoinDetails `json:"details,omitempty"`
}

func (h *DashboardHandler) Asset(c echo.Context) error {
	d, err := h.current()
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	symbol := strings.ToUpper(c.Param("symbol"))
	asset, ok := d.Lookup(symbol)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("asset %s is not in the current result set", symbol))
	}

	resp := AssetResponse{ClassifiedAsset: asset, Buckets: membership(d.Buckets, symbol)}
	if lp, ok := h.prices.Snapshot()[symbol]; ok {
		resp.LivePrice = &lp
	}
	if h.details != nil {
		details, err := h.details.CoinDetails(c.Request().Context(), symbol)
		if err != nil {
			h.logger.Warn("coin details unavailable", xlogger.String("symbol", symbol), xlogger.Error(err))
		} else {
			resp.Details = &details
		}
	}
	return xhttp.SuccessResponse(c, resp)
}

func membership(b models.Buckets, symbol string) []string {
	out := []string{}
	for _, bucket := range []struct {
		name   string
		assets []models.ClassifiedAsset
	}{
		{"long_term", b.LongTerm},
		{"trade_now", b.TradeNow},
		{"avoid", b.Avoid},
	} {
		for _, a := range bucket.assets {
			if a.Symbol == symbol {
				out = append(out, bucket.name)
				break
			}
		}
	}
	return out
}

func (h *DashboardHandler) History(c echo.Context) error {
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("alignment history is not enabled"))
	}
	symbol := strings.ToUpper(c.Param("symbol"))
	limit := util.ParseIntDefault(c.QueryParam("limit"), 50)
	points, err := h.history.History(c.Request().Context(), symbol, limit)
	if err != nil {
		h.logger.Error("history query failed", xlogger.String("symbol", symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("history query failed").WithError(err))
	}
	return xhttp.ListResponse(c, points, int64(len(points)))
}

// PricesResponse is the live price feed state.
type PricesResponse struct {
	Connected  bool                         `json:"connected"`
	Reconnects int                          `json:"reconnects"`
	Prices     map[string]usecase.LivePrice `json:"prices"`
}

func (h *DashboardHandler) Prices(c echo.Context) error {
	return xhttp.SuccessResponse(c, PricesResponse{
		Connected:  h.prices.Connected(),
		Reconnects: h.prices.Reconnects(),
		Prices:     h.prices.Snapshot(),
	})
}

// ScanStatusResponse combines the poller, streaming and cache state.
type ScanStatusResponse struct {
	State           string         `json:"state"`
	Job             models.ScanJob `json:"job"`
	ResultsLoaded   bool           `json:"results_loaded"`
	LastPoll        *time.Time     `json:"last_poll,omitempty"`
	LastError       string         `json:"last_error,omitempty"`
	Streaming       bool           `json:"streaming"`
	PartialResults  int            `json:"partial_results"`
	CacheAgeMinutes *int           `json:"cache_age_minutes,omitempty"`
	CacheTTLMinutes int            `json:"cache_ttl_minutes"`
}

func (h *DashboardHandler) ScanStatus(c echo.Context) error {
	snap := h.poller.Snapshot()
	resp := ScanStatusResponse{
		State:           snap.State.String(),
		Job:             snap.Job,
		ResultsLoaded:   snap.Loaded,
		Streaming:       h.scans.Running(),
		PartialResults:  len(h.scans.Partial()),
		CacheTTLMinutes: int(h.cache.TTL() / time.Minute),
	}
	if !snap.LastPoll.IsZero() {
		resp.LastPoll = &snap.LastPoll
	}
	if snap.LastErr != nil {
		resp.LastError = snap.LastErr.Error()
	}
	if age, ok := h.cache.Age(c.Request().Context()); ok {
		minutes := int(age / time.Minute)
		resp.CacheAgeMinutes = &minutes
	}
	return xhttp.SuccessResponse(c, resp)
}

// PartialAsset is the live card of a result that arrived on the push stream.
type PartialAsset struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name,omitempty"`
	Rank      int      `json:"rank,omitempty"`
	Timeframe string   `json:"timeframe,omitempty"`
	Pct       *float64 `json:"pct_from_ema50,omitempty"`
	Above     bool     `json:"above_ema50"`
}

func (h *DashboardHandler) Partial(c echo.Context) error {
	partial := h.scans.Partial()
	out := make([]PartialAsset, 0, len(partial))
	for _, r := range partial {
		p := PartialAsset{Symbol: r.SymbolKey(), Name: r.Name, Rank: r.Rank}
		if snap := r.Primary(); snap != nil {
			pct := snap.PctFromEMA50
			p.Pct = &pct
			p.Above = snap.AboveEMA50
			p.Timeframe = snap.Timeframe
			if p.Name == "" {
				p.Name = snap.Name
			}
			if p.Rank == 0 {
				p.Rank = snap.Rank
			}
		}
		out = append(out, p)
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

// scanError maps pipeline and upstream failures onto HTTP errors.
func scanError(err error) error {
	var se *models.ScanError
	switch {
	case errors.Is(err, usecase.ErrScanInProgress):
		return xhttp.ConflictError("A streaming scan is already running.")
	case errors.As(err, &se) && se.Kind == models.KindUnreachable:
		return xhttp.ServiceUnavailableError(se.UserMessage()).WithError(err)
	case errors.As(err, &se):
		return xhttp.BadGatewayError(se.UserMessage()).WithError(err)
	case errors.Is(err, models.ErrNoResults):
		return xhttp.NotFoundError("The scanner returned no results.").WithError(err)
	default:
		return xhttp.BadGatewayError("Scanner request failed.").WithError(err)
	}
}
