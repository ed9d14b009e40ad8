package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"EMAScan/internal/domain/models"
	"EMAScan/pkg/logger"
)

// ScanRunner runs one streaming scan.
type ScanRunner interface {
	Run(ctx context.Context, req models.ScanRequest) (*models.Dashboard, error)
}

// Scheduler triggers streaming scans on a cron expression. Overlapping runs are skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	runner ScanRunner
	req    models.ScanRequest
	log    *logger.Logger
}

// NewScheduler creates a scheduler for spec (standard five-field cron syntax, or descriptors such as "@hourly").
func NewScheduler(spec string, runner ScanRunner, req models.ScanRequest, log *logger.Logger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)), cron.WithLogger(cl)),
		spec:   spec,
		runner: runner,
		req:    req,
		log:    log,
	}
}

// Start registers the scan job and starts the cron loop. The loop stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("register scheduled scan %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", logger.String("spec", s.spec))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop stops the cron loop and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.log.Info("scheduled scan starting", logger.Int("top_n", s.req.Clamped().TopN))
	if _, err := s.runner.Run(ctx, s.req); err != nil {
		if errors.Is(err, ErrScanInProgress) {
			s.log.Info("scheduled scan skipped, another scan is running")
			return
		}
		s.log.Error("scheduled scan failed", logger.Error(err))
	}
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct{ log *logger.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, logger.Any(key, kv[i+1]))
	}
	return fields
}
