package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/challan"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type challanRepositoryImpl struct {
	db *database.DB
}

func NewChallanRepository(db *database.DB) challan.ChallanRepository {
	return &challanRepositoryImpl{db: db}
}

const challanColumns = `
	id, company_id, obligation_type, period_month, period_year, amount, due_date,
	status, pay_run_id, reference, paid_at, created_at, updated_at`

func scanChallan(row pgx.Row) (challan.StatutoryChallan, error) {
	var c challan.StatutoryChallan
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.ObligationType, &c.PeriodMonth, &c.PeriodYear, &c.Amount, &c.DueDate,
		&c.Status, &c.PayRunID, &c.Reference, &c.PaidAt, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// Upsert refreshes an existing challan only while it is still due. A paid or
// overdue challan is returned unchanged.
func (r *challanRepositoryImpl) Upsert(ctx context.Context, c challan.StatutoryChallan) (challan.StatutoryChallan, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO statutory_challans (
			id, company_id, obligation_type, period_month, period_year, amount, due_date, status, pay_run_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (company_id, obligation_type, period_month, period_year) DO UPDATE SET
			amount = EXCLUDED.amount,
			pay_run_id = EXCLUDED.pay_run_id,
			updated_at = NOW()
		WHERE statutory_challans.status = 'due'
		RETURNING ` + challanColumns

	saved, err := scanChallan(q.QueryRow(ctx, query,
		newID(), c.CompanyID, c.ObligationType, c.PeriodMonth, c.PeriodYear, c.Amount, c.DueDate, c.Status, c.PayRunID,
	))
	if err == nil {
		return saved, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return challan.StatutoryChallan{}, fmt.Errorf("failed to upsert statutory challan: %w", err)
	}

	// The conflicting row is no longer due, so DO UPDATE skipped it.
	existing, err := scanChallan(q.QueryRow(ctx, `SELECT `+challanColumns+`
		FROM statutory_challans
		WHERE company_id = $1 AND obligation_type = $2 AND period_month = $3 AND period_year = $4`,
		c.CompanyID, c.ObligationType, c.PeriodMonth, c.PeriodYear,
	))
	if err != nil {
		return challan.StatutoryChallan{}, fmt.Errorf("failed to get statutory challan: %w", err)
	}
	return existing, nil
}

func (r *challanRepositoryImpl) DeleteDue(ctx context.Context, companyID string, obligation challan.ObligationType, month, year int) (bool, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		DELETE FROM statutory_challans
		WHERE company_id = $1 AND obligation_type = $2 AND period_month = $3 AND period_year = $4
			AND status = 'due'
	`, companyID, obligation, month, year)
	if err != nil {
		return false, fmt.Errorf("failed to delete statutory challan: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *challanRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (challan.StatutoryChallan, error) {
	q := GetQuerier(ctx, r.db)

	c, err := scanChallan(q.QueryRow(ctx, `SELECT `+challanColumns+` FROM statutory_challans WHERE id = $1 AND company_id = $2`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return challan.StatutoryChallan{}, challan.ErrChallanNotFound
		}
		return challan.StatutoryChallan{}, fmt.Errorf("failed to get statutory challan: %w", err)
	}
	return c, nil
}

func (r *challanRepositoryImpl) List(ctx context.Context, companyID string, filter challan.ListFilter) ([]challan.StatutoryChallan, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + challanColumns + `
		FROM statutory_challans
		WHERE company_id = $1
			AND ($2::int IS NULL OR period_month = $2)
			AND ($3::int IS NULL OR period_year = $3)
		ORDER BY period_year DESC, period_month DESC, obligation_type`

	rows, err := q.Query(ctx, query, companyID, filter.Month, filter.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to list statutory challans: %w", err)
	}
	defer rows.Close()

	var challans []challan.StatutoryChallan
	for rows.Next() {
		c, err := scanChallan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan statutory challan: %w", err)
		}
		challans = append(challans, c)
	}
	return challans, rows.Err()
}

func (r *challanRepositoryImpl) Update(ctx context.Context, c challan.StatutoryChallan) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE statutory_challans
		SET status = $3, reference = $4, paid_at = $5, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`, c.ID, c.CompanyID, c.Status, c.Reference, c.PaidAt)
	if err != nil {
		return fmt.Errorf("failed to update statutory challan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return challan.ErrChallanNotFound
	}
	return nil
}

func (r *challanRepositoryImpl) MarkOverdue(ctx context.Context, today time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE statutory_challans
		SET status = 'overdue', updated_at = NOW()
		WHERE (status = 'due' AND due_date < $1)
			OR (status = 'paid' AND paid_at IS NOT NULL AND paid_at::date > due_date)
	`, today)
	if err != nil {
		return 0, fmt.Errorf("failed to mark statutory challans overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}
