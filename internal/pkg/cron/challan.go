package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/challan"
)

// ChallanJobs keeps statutory challan statuses current.
type ChallanJobs struct {
	challanService challan.ChallanService
	now            func() time.Time
}

func NewChallanJobs(challanService challan.ChallanService, now func() time.Time) *ChallanJobs {
	if now == nil {
		now = time.Now
	}
	return &ChallanJobs{challanService: challanService, now: now}
}

func (j *ChallanJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("mark_overdue_challans", interval, j.MarkOverdue)
}

// MarkOverdue flips challans past their due date to overdue.
func (j *ChallanJobs) MarkOverdue(ctx context.Context) error {
	n, err := j.challanService.RefreshOverdue(ctx, j.now().UTC())
	if err != nil {
		return err
	}
	if n > 0 {
		slog.InfoContext(ctx, "statutory challans marked overdue", "count", n)
	}
	return nil
}
