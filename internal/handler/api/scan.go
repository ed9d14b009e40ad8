package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"EMAScan/internal/domain/models"
	"EMAScan/internal/usecase"
	xhttp "EMAScan/pkg/http"
	xlogger "EMAScan/pkg/logger"
)

// ScanRequest is the body of POST /api/scan. TopN is clamped to the service bounds.
type ScanRequest struct {
	TopN int `json:"top_n" default:"10" validate:"min=1,max=1000"`
}

// ScanAccepted is returned when a background scan was started.
type ScanAccepted struct {
	TopN    int    `json:"top_n"`
	Message string `json:"message"`
}

func (h *DashboardHandler) StartScan(c echo.Context) error {
	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		h.logger.Warn("scan trigger rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("Too many scan requests, slow down."))
	}

	req := &ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.scans.Running() {
		return xhttp.AppErrorResponse(c, scanError(usecase.ErrScanInProgress))
	}

	scan := models.ScanRequest{TopN: req.TopN}.Clamped()
	go h.runScan(scan)

	return xhttp.AcceptedResponse(c, ScanAccepted{TopN: scan.TopN, Message: "Scan started."})
}

func (h *DashboardHandler) runScan(req models.ScanRequest) {
	ctx := h.baseCtx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	d, err := h.scans.Run(ctx, req)
	switch {
	case errors.Is(err, usecase.ErrScanInProgress):
		h.logger.Info("scan request dropped, another scan is running")
	case err != nil:
		h.logger.Error("background scan failed", xlogger.Error(err))
	default:
		h.logger.Info("background scan finished", xlogger.String("run_id", d.RunID), xlogger.Int("assets", len(d.Assets)))
	}
}

func (h *DashboardHandler) Demo(c echo.Context) error {
	d, err := h.results.LoadDemo(c.Request().Context())
	if err != nil {
		h.logger.Error("demo load failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, scanError(err))
	}
	return xhttp.SuccessResponse(c, d)
}

func (h *DashboardHandler) Reload(c echo.Context) error {
	d, err := h.results.LoadLatest(c.Request().Context(), models.SourcePoll)
	if err != nil {
		h.logger.Error("result reload failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, scanError(err))
	}
	return xhttp.SuccessResponse(c, d)
}

func (h *DashboardHandler) ClearCache(c echo.Context) error {
	if err := h.cache.Clear(c.Request().Context()); err != nil {
		h.logger.Error("cache clear failed", xlogger.Error(err))
		var se *models.ScanError
		if errors.As(err, &se) {
			return xhttp.AppErrorResponse(c, xhttp.InternalError(se.UserMessage()).WithError(err))
		}
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

// HealthResponse reports local and upstream health.
type HealthResponse struct {
	Status    string `json:"status"`
	Upstream  string `json:"upstream"`
	PriceFeed bool   `json:"price_feed_connected"`
	Error     string `json:"error,omitempty"`
}

func (h *DashboardHandler) Health(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Upstream: "up", PriceFeed: h.prices.Connected()}
	if err := h.health.Health(c.Request().Context()); err != nil {
		resp.Status = "degraded"
		resp.Upstream = "down"
		resp.Error = err.Error()
		var se *models.ScanError
		if errors.As(err, &se) {
			resp.Error = se.UserMessage()
		}
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, resp)
	}
	return xhttp.SuccessResponse(c, resp)
}
