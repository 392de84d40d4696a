package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/jackc/pgx/v5"
)

const payRunColumns = `
	id, company_id, payroll_period_id, status, total_employees,
	created_by, finalized_at, finalized_by, created_at, updated_at`

func scanPayRun(row pgx.Row) (payroll.PayRun, error) {
	var run payroll.PayRun
	err := row.Scan(
		&run.ID, &run.CompanyID, &run.PayrollPeriodID, &run.Status, &run.TotalEmployees,
		&run.CreatedBy, &run.FinalizedAt, &run.FinalizedBy, &run.CreatedAt, &run.UpdatedAt,
	)
	return run, err
}

func (r *PayrollRepository) CreatePayRun(ctx context.Context, run payroll.PayRun) (payroll.PayRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO pay_runs (id, company_id, payroll_period_id, status, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + payRunColumns

	created, err := scanPayRun(q.QueryRow(ctx, query, newID(), run.CompanyID, run.PayrollPeriodID, run.Status, run.CreatedBy))
	if err != nil {
		if isUniqueViolation(err, "uk_pay_run_period") {
			return payroll.PayRun{}, payroll.ErrPayRunExists
		}
		return payroll.PayRun{}, fmt.Errorf("failed to create pay run: %w", err)
	}
	return created, nil
}

func (r *PayrollRepository) GetPayRunByID(ctx context.Context, id string, companyID string) (payroll.PayRun, error) {
	q := GetQuerier(ctx, r.db)

	run, err := scanPayRun(q.QueryRow(ctx, `SELECT `+payRunColumns+` FROM pay_runs WHERE id = $1 AND company_id = $2`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayRun{}, payroll.ErrPayRunNotFound
		}
		return payroll.PayRun{}, fmt.Errorf("failed to get pay run: %w", err)
	}
	return run, nil
}

func (r *PayrollRepository) ListPayRuns(ctx context.Context, companyID string) ([]payroll.PayRun, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+payRunColumns+` FROM pay_runs WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pay runs: %w", err)
	}
	defer rows.Close()

	var runs []payroll.PayRun
	for rows.Next() {
		run, err := scanPayRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pay run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *PayrollRepository) LockPayRun(ctx context.Context, id string, companyID string, mode payroll.LockMode) (payroll.PayRun, error) {
	q := GetQuerier(ctx, r.db)

	clause := "FOR SHARE"
	if mode == payroll.LockForUpdate {
		clause = "FOR UPDATE"
	}

	run, err := scanPayRun(q.QueryRow(ctx, `SELECT `+payRunColumns+` FROM pay_runs WHERE id = $1 AND company_id = $2 `+clause, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayRun{}, payroll.ErrPayRunNotFound
		}
		return payroll.PayRun{}, fmt.Errorf("failed to lock pay run: %w", err)
	}
	return run, nil
}

func (r *PayrollRepository) UpdatePayRun(ctx context.Context, run payroll.PayRun) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE pay_runs
		SET status = $3, total_employees = $4, finalized_at = $5, finalized_by = $6, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`, run.ID, run.CompanyID, run.Status, run.TotalEmployees, run.FinalizedAt, run.FinalizedBy)
	if err != nil {
		return fmt.Errorf("failed to update pay run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayRunNotFound
	}
	return nil
}

// ========== ROLLBACK LOGS & SNAPSHOTS ==========

func (r *PayrollRepository) CreateRollbackLog(ctx context.Context, log payroll.RollbackLog) (payroll.RollbackLog, error) {
	q := GetQuerier(ctx, r.db)

	var created payroll.RollbackLog
	err := q.QueryRow(ctx, `
		INSERT INTO payroll_rollback_logs (id, pay_run_id, rolled_back_by, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, pay_run_id, rolled_back_by, reason, rolled_back_at
	`, newID(), log.PayRunID, log.RolledBackBy, log.Reason).Scan(
		&created.ID, &created.PayRunID, &created.RolledBackBy, &created.Reason, &created.RolledBackAt,
	)
	if err != nil {
		return payroll.RollbackLog{}, fmt.Errorf("failed to create rollback log: %w", err)
	}
	return created, nil
}

func (r *PayrollRepository) ListRollbackLogs(ctx context.Context, payRunID string) ([]payroll.RollbackLog, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, pay_run_id, rolled_back_by, reason, rolled_back_at
		FROM payroll_rollback_logs
		WHERE pay_run_id = $1
		ORDER BY rolled_back_at
	`, payRunID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rollback logs: %w", err)
	}
	defer rows.Close()

	var logs []payroll.RollbackLog
	for rows.Next() {
		var l payroll.RollbackLog
		if err := rows.Scan(&l.ID, &l.PayRunID, &l.RolledBackBy, &l.Reason, &l.RolledBackAt); err != nil {
			return nil, fmt.Errorf("failed to scan rollback log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *PayrollRepository) CreateSnapshot(ctx context.Context, snapshot payroll.RunSnapshot) (payroll.RunSnapshot, error) {
	q := GetQuerier(ctx, r.db)

	var created payroll.RunSnapshot
	err := q.QueryRow(ctx, `
		INSERT INTO payroll_run_snapshots (id, pay_run_id, payload, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, pay_run_id, payload, created_by, created_at
	`, newID(), snapshot.PayRunID, snapshot.Payload, snapshot.CreatedBy).Scan(
		&created.ID, &created.PayRunID, &created.Payload, &created.CreatedBy, &created.CreatedAt,
	)
	if err != nil {
		return payroll.RunSnapshot{}, fmt.Errorf("failed to create pay run snapshot: %w", err)
	}
	return created, nil
}
