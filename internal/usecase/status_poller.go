package usecase

import (
	"context"
	"sync"
	"time"

	"EMAScan/internal/domain/models"
	drepo "EMAScan/internal/domain/repository"
	"EMAScan/pkg/logger"
)

// DefaultPollInterval is the fixed job status polling period.
const DefaultPollInterval = 2 * time.Second

// PollerState is the state of the status poller.
type PollerState int

const (
	PollerIdle PollerState = iota
	PollerPolling
	PollerJobRunning
	PollerJobFinished
)

func (s PollerState) String() string {
	switch s {
	case PollerPolling:
		return "polling"
	case PollerJobRunning:
		return "job_running"
	case PollerJobFinished:
		return "job_finished"
	default:
		return "idle"
	}
}

// StatusSource reports the remote job status.
type StatusSource interface {
	Status(ctx context.Context) (models.ScanJob, error)
}

// PollerSnapshot is a consistent view of the poller.
type PollerSnapshot struct {
	State    PollerState
	Job      models.ScanJob
	Loaded   bool
	LastPoll time.Time
	LastErr  error
}

// StatusPoller polls job status and loads results once per finished job.
type StatusPoller struct {
	src      StatusSource
	loader   ResultLoader
	interval time.Duration
	metrics  drepo.Metrics
	log      *logger.Logger
	now      func() time.Time

	mu       sync.RWMutex
	state    PollerState
	job      models.ScanJob
	loaded   bool
	lastPoll time.Time
	lastErr  error
}

type PollerOption func(*StatusPoller)

func WithPollInterval(d time.Duration) PollerOption {
	return func(p *StatusPoller) { p.interval = d }
}

func WithPollerClock(now func() time.Time) PollerOption {
	return func(p *StatusPoller) { p.now = now }
}

// NewStatusPoller creates an idle poller.
func NewStatusPoller(src StatusSource, loader ResultLoader, metrics drepo.Metrics, log *logger.Logger, opts ...PollerOption) *StatusPoller {
	p := &StatusPoller{
		src:      src,
		loader:   loader,
		interval: DefaultPollInterval,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls immediately and then every interval until ctx is cancelled.
func (p *StatusPoller) Run(ctx context.Context) error {
	p.setState(PollerPolling)
	defer p.setState(PollerIdle)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// MarkLoaded records that results for the current job are already present,
// so a finished job does not trigger another load.
func (p *StatusPoller) MarkLoaded() {
	p.mu.Lock()
	p.loaded = true
	p.mu.Unlock()
}

// Snapshot returns the current state and the last observed job.
func (p *StatusPoller) Snapshot() PollerSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PollerSnapshot{
		State:    p.state,
		Job:      p.job,
		Loaded:   p.loaded,
		LastPoll: p.lastPoll,
		LastErr:  p.lastErr,
	}
}

// State returns the current poller state.
func (p *StatusPoller) State() PollerState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *StatusPoller) setState(s PollerState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *StatusPoller) tick(ctx context.Context) {
	job, err := p.src.Status(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.metrics.RecordStatusPoll("error")
		p.metrics.RecordError(string(models.KindTransient))
		p.log.Warn("status poll failed", logger.Error(err))
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		return
	}
	p.metrics.RecordStatusPoll("ok")

	p.mu.Lock()
	p.job = job
	p.lastPoll = p.now()
	p.lastErr = nil

	switch {
	case job.Running:
		p.state = PollerJobRunning
		p.loaded = false
		p.mu.Unlock()
		return
	case job.Finished() && !p.loaded:
		p.state = PollerJobFinished
	default:
		p.state = PollerPolling
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.log.Info("scan finished, loading results", logger.Int("progress", job.Progress), logger.Int("total", job.Total))
	_, err = p.loader.LoadLatest(ctx, models.SourcePoll)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.lastErr = err
		p.log.Warn("result load failed, retrying on next poll", logger.Error(err))
	} else {
		p.loaded = true
	}
	p.state = PollerPolling
}
