package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingExpirer struct {
	calls atomic.Int32
}

func (e *countingExpirer) ExpireStale(ctx context.Context) (int64, error) {
	e.calls.Add(1)
	return 0, nil
}

type failingRefresher struct {
	calls atomic.Int32
}

func (r *failingRefresher) Refresh(ctx context.Context) error {
	r.calls.Add(1)
	return errors.New("coingecko unavailable")
}

func TestSchedulerRunsJobs(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	expirer := &countingExpirer{}
	refresher := &failingRefresher{}

	require.NoError(t, s.ScheduleIntentExpiry(expirer, time.Hour))
	require.NoError(t, s.ScheduleMarketRefresh(refresher, time.Hour))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return expirer.calls.Load() >= 1 && refresher.calls.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSchedulerRejectsInvalidInterval(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	assert.Error(t, s.ScheduleIntentExpiry(&countingExpirer{}, 0))
}
