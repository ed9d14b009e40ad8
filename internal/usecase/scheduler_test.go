package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EMAScan/internal/domain/models"
	"EMAScan/pkg/logger"
)

type countingRunner struct {
	runs atomic.Int32
	req  atomic.Value
}

func (r *countingRunner) Run(_ context.Context, req models.ScanRequest) (*models.Dashboard, error) {
	r.runs.Add(1)
	r.req.Store(req)
	return nil, ErrScanInProgress
}

func TestSchedulerRunsScans(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler("@every 1s", runner, models.ScanRequest{TopN: 25}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	require.Eventually(t, func() bool { return runner.runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, 25, runner.req.Load().(models.ScanRequest).TopN)
	s.Stop()
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler("every now and then", &countingRunner{}, models.ScanRequest{}, logger.Nop())
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every now and then")
}
