package scanner

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"EMAScan/internal/domain/models"
	drepo "EMAScan/internal/domain/repository"
	svcmetrics "EMAScan/internal/service/metrics"
	xhttp "EMAScan/pkg/http"
	"EMAScan/pkg/logger"
)

var (
	_ drepo.ScanService    = (*Client)(nil)
	_ drepo.DatabaseReader = (*Client)(nil)
)

// Client talks to the remote analysis service.
type Client struct {
	api      *xhttp.Client
	stream   *xhttp.Client
	log      *logger.Logger
	upstream *svcmetrics.Upstream
}

type options struct {
	timeout   time.Duration
	transport http.RoundTripper
	log       *logger.Logger
	upstream  *svcmetrics.Upstream
}

// Option configures Client.
type Option func(*options)

// WithTimeout bounds every request except the push stream.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithTransport overrides the HTTP transport.
func WithTransport(rt http.RoundTripper) Option { return func(o *options) { o.transport = rt } }

func WithLogger(l *logger.Logger) Option { return func(o *options) { o.log = l } }

func WithUpstreamMetrics(u *svcmetrics.Upstream) Option { return func(o *options) { o.upstream = u } }

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	o := &options{timeout: 30 * time.Second, log: logger.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return &Client{
		api: xhttp.NewClient(
			xhttp.WithBaseURL(baseURL),
			xhttp.WithTimeout(o.timeout),
			xhttp.WithTransport(o.transport),
		),
		stream: xhttp.NewClient(
			xhttp.WithBaseURL(baseURL),
			xhttp.WithTimeout(0),
			xhttp.WithTransport(o.transport),
		),
		log:      o.log,
		upstream: o.upstream,
	}
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, dest interface{}) (err error) {
	defer func(start time.Time) { c.upstream.Observe(endpoint, start, err) }(time.Now())

	err = c.api.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         path,
		QueryParams: query,
	}, dest)
	if err != nil {
		return fmt.Errorf("scanner %s: %w", endpoint, err)
	}
	return nil
}

// Status returns the current job snapshot.
func (c *Client) Status(ctx context.Context) (models.ScanJob, error) {
	var job models.ScanJob
	err := c.get(ctx, "status", "/api/status", nil, &job)
	return job, err
}

// StartScan asks the service to start a job. The response body is ignored.
func (c *Client) StartScan(ctx context.Context, req models.ScanRequest) (err error) {
	defer func(start time.Time) { c.upstream.Observe("scan", start, err) }(time.Now())

	req = req.Clamped()
	err = c.api.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    "/api/scan",
		Body:   req,
	}, nil)
	if err != nil {
		return fmt.Errorf("scanner scan: %w", err)
	}
	c.log.Debug("scan requested", logger.Int("top_n", req.TopN), logger.Bool("use_cache", req.UseCache))
	return nil
}

// Latest fetches the most recent complete result set.
func (c *Client) Latest(ctx context.Context) (*models.ResultPayload, error) {
	var p models.ResultPayload
	if err := c.get(ctx, "results_latest", "/api/results/latest", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Demo fetches the canned demo result set.
func (c *Client) Demo(ctx context.Context) (*models.ResultPayload, error) {
	var p models.ResultPayload
	if err := c.get(ctx, "demo", "/api/demo", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// OpenStream subscribes to the push stream. The returned stream must be closed by the caller.
func (c *Client) OpenStream(ctx context.Context) (drepo.EventStream, error) {
	start := time.Now()
	resp, err := c.stream.Open(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     "/api/stream",
		Headers: map[string]string{"Accept": "text/event-stream", "Cache-Control": "no-cache"},
	})
	c.upstream.Observe("stream_open", start, err)
	if err != nil {
		return nil, fmt.Errorf("scanner stream: %w", err)
	}
	return newEventStream(resp.Body, c.log), nil
}

// Health calls the liveness endpoint; any 2xx is up.
func (c *Client) Health(ctx context.Context) error {
	if err := c.get(ctx, "health", "/health", nil, nil); err != nil {
		return models.NewScanError(models.KindUnreachable, "scanner.health", err)
	}
	return nil
}

// DatabaseStats returns record counts of the database-backed service.
func (c *Client) DatabaseStats(ctx context.Context) (models.DatabaseStats, error) {
	var s models.DatabaseStats
	err := c.get(ctx, "database_stats", "/api/database-stats", nil, &s)
	return s, err
}

// StrategicSummary returns the service-side bucketing of the stored results.
// Both a bare summary and one nested under "strategic_summary" are accepted.
func (c *Client) StrategicSummary(ctx context.Context) (models.StrategicSummary, error) {
	var wrapped struct {
		models.StrategicSummary
		Nested *models.StrategicSummary `json:"strategic_summary"`
	}
	if err := c.get(ctx, "strategic_summary", "/api/strategic-summary", nil, &wrapped); err != nil {
		return models.StrategicSummary{}, err
	}
	if wrapped.Nested != nil {
		return *wrapped.Nested, nil
	}
	return wrapped.StrategicSummary, nil
}

// EMAAnalysis returns every coin's EMA snapshot on one timeframe.
func (c *Client) EMAAnalysis(ctx context.Context, tf models.Timeframe) (models.EMAAnalysis, error) {
	var a models.EMAAnalysis
	q := url.Values{"timeframe": {string(tf)}}
	if err := c.get(ctx, "ema_analysis", "/api/ema-analysis/all", q, &a); err != nil {
		return a, err
	}
	if a.Timeframe == "" {
		a.Timeframe = string(tf)
	}
	return a, nil
}

// CoinDetails returns the detail record of one coin.
func (c *Client) CoinDetails(ctx context.Context, symbol string) (models.CoinDetails, error) {
	var d models.CoinDetails
	path := "/api/coins/" + url.PathEscape(strings.ToUpper(symbol)) + "/details"
	err := c.get(ctx, "coin_details", path, nil, &d)
	return d, err
}
