package challan

import (
	"context"
	"time"
)

// Generator turns a finalized pay run into statutory liabilities. It runs
// inside the finalize transaction.
type Generator interface {
	Generate(ctx context.Context, in GenerateInput) ([]StatutoryChallan, error)
}

type ChallanService interface {
	Generator
	List(ctx context.Context, filter ListFilter) ([]ChallanResponse, error)
	MarkPaid(ctx context.Context, id string, req MarkPaidRequest) (ChallanResponse, error)
	RefreshOverdue(ctx context.Context, now time.Time) (int64, error)
}
