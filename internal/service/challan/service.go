package challan

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/challan"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
)

type ChallanServiceImpl struct {
	repo   challan.ChallanRepository
	dueDay int
	now    func() time.Time
}

// NewChallanService creates the challan service. dueDay is the day of the
// month after the period on which a challan falls due.
func NewChallanService(repo challan.ChallanRepository, dueDay int, now func() time.Time) challan.ChallanService {
	if dueDay <= 0 {
		dueDay = 15
	}
	if now == nil {
		now = time.Now
	}
	return &ChallanServiceImpl{repo: repo, dueDay: dueDay, now: now}
}

// Generate upserts one challan per obligation type with a positive total.
// Running it twice for the same month refreshes the amounts of challans
// still due and never creates a second row for a key. A type whose total
// fell to zero loses its due challan.
func (s *ChallanServiceImpl) Generate(ctx context.Context, in challan.GenerateInput) ([]challan.StatutoryChallan, error) {
	totals := in.Totals()
	payRunID := in.PayRunID
	month, year := int(in.PeriodEnd.Month()), in.PeriodEnd.Year()

	var out []challan.StatutoryChallan
	for _, obligation := range challan.ObligationTypes {
		amount := totals[obligation].Round(2)
		if !amount.IsPositive() {
			removed, err := s.repo.DeleteDue(ctx, in.CompanyID, obligation, month, year)
			if err != nil {
				return nil, err
			}
			if removed {
				slog.InfoContext(ctx, "statutory challan cleared",
					"company_id", in.CompanyID,
					"obligation_type", obligation,
					"period_month", month,
					"period_year", year,
				)
			}
			continue
		}

		saved, err := s.repo.Upsert(ctx, challan.StatutoryChallan{
			CompanyID:      in.CompanyID,
			ObligationType: obligation,
			PeriodMonth:    month,
			PeriodYear:     year,
			Amount:         amount,
			DueDate:        challan.DueDateFor(in.PeriodEnd, s.dueDay),
			Status:         challan.StatusDue,
			PayRunID:       &payRunID,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}

	return out, nil
}

func (s *ChallanServiceImpl) List(ctx context.Context, filter challan.ListFilter) ([]challan.ChallanResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	challans, err := s.repo.List(ctx, claims.CompanyID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]challan.ChallanResponse, 0, len(challans))
	for _, c := range challans {
		responses = append(responses, challan.NewChallanResponse(c))
	}
	return responses, nil
}

// MarkPaid records a payment. Paying on or before the due date moves the
// challan to paid; paying later, or paying one already overdue, leaves it
// overdue with the payment recorded.
func (s *ChallanServiceImpl) MarkPaid(ctx context.Context, id string, req challan.MarkPaidRequest) (challan.ChallanResponse, error) {
	if err := req.Validate(); err != nil {
		return challan.ChallanResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return challan.ChallanResponse{}, err
	}

	c, err := s.repo.GetByID(ctx, id, claims.CompanyID)
	if err != nil {
		return challan.ChallanResponse{}, err
	}
	if c.PaidAt != nil {
		return challan.ChallanResponse{}, challan.ErrChallanAlreadyPaid
	}

	now := s.now()
	reference := strings.TrimSpace(req.Reference)
	c.PaidAt = &now
	c.Reference = &reference

	if c.Status == challan.StatusDue {
		next := challan.StatusPaid
		if isLate(now, c.DueDate) {
			next = challan.StatusOverdue
		}
		if !c.Status.CanAdvanceTo(next) {
			return challan.ChallanResponse{}, challan.ErrInvalidStatusAdvance
		}
		c.Status = next
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return challan.ChallanResponse{}, err
	}

	slog.InfoContext(ctx, "statutory challan paid",
		"challan_id", c.ID,
		"company_id", c.CompanyID,
		"status", c.Status,
	)
	return challan.NewChallanResponse(c), nil
}

// RefreshOverdue moves challans whose due date has passed to overdue.
func (s *ChallanServiceImpl) RefreshOverdue(ctx context.Context, now time.Time) (int64, error) {
	y, m, d := now.Date()
	return s.repo.MarkOverdue(ctx, time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// isLate reports whether at falls on a day after due.
func isLate(at, due time.Time) bool {
	y, m, d := at.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return day.After(due)
}
