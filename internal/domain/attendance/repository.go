package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// ListByCompanyAndRange returns every record dated within [start, end].
	ListByCompanyAndRange(ctx context.Context, companyID string, start, end time.Time) ([]Attendance, error)
}
