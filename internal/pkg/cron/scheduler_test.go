package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/challan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsImmediatelyAndStops(t *testing.T) {
	s := NewScheduler(context.Background())

	var runs atomic.Int32
	s.AddJob("count", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	s.Start()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()
	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_RunOnceContinuesAfterFailure(t *testing.T) {
	s := NewScheduler(context.Background())

	var second bool
	s.AddJob("fails", time.Hour, func(ctx context.Context) error { return errors.New("boom") })
	s.AddJob("second", time.Hour, func(ctx context.Context) error {
		second = true
		return nil
	})

	s.RunOnce(context.Background())
	assert.True(t, second)
}

type stubChallans struct {
	challan.ChallanService
	at  time.Time
	err error
}

func (s *stubChallans) RefreshOverdue(_ context.Context, now time.Time) (int64, error) {
	s.at = now
	return 2, s.err
}

func TestChallanJobs_MarkOverdue(t *testing.T) {
	now := time.Date(2025, 3, 16, 1, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	svc := &stubChallans{}
	jobs := NewChallanJobs(svc, func() time.Time { return now })

	require.NoError(t, jobs.MarkOverdue(context.Background()))
	assert.Equal(t, time.UTC, svc.at.Location())
	assert.True(t, svc.at.Equal(now))

	svc.err = errors.New("db down")
	assert.Error(t, jobs.MarkOverdue(context.Background()))
}

func TestChallanJobs_Register(t *testing.T) {
	s := NewScheduler(context.Background())
	NewChallanJobs(&stubChallans{}, nil).RegisterJobs(s, time.Minute)

	require.Len(t, s.jobs, 1)
	assert.Equal(t, "mark_overdue_challans", s.jobs[0].Name)
	assert.Equal(t, time.Minute, s.jobs[0].Interval)
}
