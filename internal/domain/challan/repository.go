package challan

import (
	"context"
	"time"
)

type ChallanRepository interface {
	// Upsert inserts or, for an existing key still in status due, refreshes
	// the amount and pay run. It never creates a second row for a key.
	Upsert(ctx context.Context, c StatutoryChallan) (StatutoryChallan, error)
	// DeleteDue removes the challan for a key while it is still due and
	// reports whether one was removed.
	DeleteDue(ctx context.Context, companyID string, obligation ObligationType, month, year int) (bool, error)
	GetByID(ctx context.Context, id string, companyID string) (StatutoryChallan, error)
	List(ctx context.Context, companyID string, filter ListFilter) ([]StatutoryChallan, error)
	Update(ctx context.Context, c StatutoryChallan) error
	// MarkOverdue flips due challans past their due date, and paid challans
	// paid after it, to overdue. Returns the number of rows changed.
	MarkOverdue(ctx context.Context, today time.Time) (int64, error)
}
