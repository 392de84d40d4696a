package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// PayrollRepository stores settings, components, periods, pay runs, payroll
// rows and their logs. It satisfies every repository interface of the
// payroll domain.
type PayrollRepository struct {
	db *database.DB
}

var (
	_ payroll.SettingsRepository  = (*PayrollRepository)(nil)
	_ payroll.ComponentRepository = (*PayrollRepository)(nil)
	_ payroll.PeriodRepository    = (*PayrollRepository)(nil)
	_ payroll.PayRunRepository    = (*PayrollRepository)(nil)
	_ payroll.PayrollRepository   = (*PayrollRepository)(nil)
	_ payroll.AuditRepository     = (*PayrollRepository)(nil)
)

func NewPayrollRepository(db *database.DB) *PayrollRepository {
	return &PayrollRepository{db: db}
}

// ========== SETTINGS ==========

const settingsColumns = `
	id, company_id, housing_allowance_rate, transport_allowance, overtime_multiplier,
	working_days_per_month, standard_hours_per_day, tax_jurisdiction,
	created_at, updated_at`

func scanSettings(row pgx.Row) (payroll.PayrollSettings, error) {
	var s payroll.PayrollSettings
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.HousingAllowanceRate, &s.TransportAllowance, &s.OvertimeMultiplier,
		&s.WorkingDaysPerMonth, &s.StandardHoursPerDay, &s.TaxJurisdiction,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *PayrollRepository) GetSettings(ctx context.Context, companyID string) (payroll.PayrollSettings, error) {
	q := GetQuerier(ctx, r.db)

	s, err := scanSettings(q.QueryRow(ctx, `SELECT `+settingsColumns+` FROM payroll_settings WHERE company_id = $1`, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollSettings{}, payroll.ErrPayrollSettingsNotFound
		}
		return payroll.PayrollSettings{}, fmt.Errorf("failed to get payroll settings: %w", err)
	}
	return s, nil
}

func (r *PayrollRepository) UpsertSettings(ctx context.Context, settings payroll.PayrollSettings) (payroll.PayrollSettings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_settings (
			id, company_id, housing_allowance_rate, transport_allowance, overtime_multiplier,
			working_days_per_month, standard_hours_per_day, tax_jurisdiction
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (company_id) DO UPDATE SET
			housing_allowance_rate = EXCLUDED.housing_allowance_rate,
			transport_allowance = EXCLUDED.transport_allowance,
			overtime_multiplier = EXCLUDED.overtime_multiplier,
			working_days_per_month = EXCLUDED.working_days_per_month,
			standard_hours_per_day = EXCLUDED.standard_hours_per_day,
			tax_jurisdiction = EXCLUDED.tax_jurisdiction,
			updated_at = NOW()
		RETURNING ` + settingsColumns

	s, err := scanSettings(q.QueryRow(ctx, query,
		newID(), settings.CompanyID, settings.HousingAllowanceRate, settings.TransportAllowance, settings.OvertimeMultiplier,
		settings.WorkingDaysPerMonth, settings.StandardHoursPerDay, settings.TaxJurisdiction,
	))
	if err != nil {
		return payroll.PayrollSettings{}, fmt.Errorf("failed to upsert payroll settings: %w", err)
	}
	return s, nil
}

// ========== COMPONENTS ==========

const componentColumns = `
	id, company_id, name, kind, calculation_type, percentage_of, value, is_taxable,
	created_at, updated_at, deleted_at`

func scanComponent(row pgx.Row) (payroll.SalaryComponent, error) {
	var c payroll.SalaryComponent
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.Kind, &c.CalculationType, &c.PercentageOf, &c.Value, &c.IsTaxable,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	return c, err
}

func (r *PayrollRepository) CreateComponent(ctx context.Context, component payroll.SalaryComponent) (payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_components (id, company_id, name, kind, calculation_type, percentage_of, value, is_taxable)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + componentColumns

	c, err := scanComponent(q.QueryRow(ctx, query,
		newID(), component.CompanyID, component.Name, component.Kind, component.CalculationType,
		component.PercentageOf, component.Value, component.IsTaxable,
	))
	if err != nil {
		if isUniqueViolation(err, "uk_salary_component_name") {
			return payroll.SalaryComponent{}, payroll.ErrComponentNameExists
		}
		return payroll.SalaryComponent{}, fmt.Errorf("failed to create salary component: %w", err)
	}
	return c, nil
}

func (r *PayrollRepository) GetComponentByID(ctx context.Context, id string, companyID string) (payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + componentColumns + `
		FROM salary_components
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL`

	c, err := scanComponent(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryComponent{}, payroll.ErrComponentNotFound
		}
		return payroll.SalaryComponent{}, fmt.Errorf("failed to get salary component: %w", err)
	}
	return c, nil
}

func (r *PayrollRepository) ListComponents(ctx context.Context, companyID string) ([]payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + componentColumns + `
		FROM salary_components
		WHERE company_id = $1 AND deleted_at IS NULL
		ORDER BY kind, name`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary components: %w", err)
	}
	defer rows.Close()

	var components []payroll.SalaryComponent
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary component: %w", err)
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

func (r *PayrollRepository) SoftDeleteComponent(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE salary_components
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete salary component: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrComponentNotFound
	}
	return nil
}

// ========== PERIODS ==========

const periodColumns = `id, company_id, name, start_date, end_date, status, created_by, created_at, updated_at`

func scanPeriod(row pgx.Row) (payroll.PayrollPeriod, error) {
	var p payroll.PayrollPeriod
	err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PayrollRepository) CreatePeriod(ctx context.Context, period payroll.PayrollPeriod) (payroll.PayrollPeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_periods (id, company_id, name, start_date, end_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + periodColumns

	p, err := scanPeriod(q.QueryRow(ctx, query,
		newID(), period.CompanyID, period.Name, period.StartDate, period.EndDate, period.Status, period.CreatedBy,
	))
	if err != nil {
		return payroll.PayrollPeriod{}, fmt.Errorf("failed to create payroll period: %w", err)
	}
	return p, nil
}

func (r *PayrollRepository) GetPeriodByID(ctx context.Context, id string, companyID string) (payroll.PayrollPeriod, error) {
	q := GetQuerier(ctx, r.db)

	p, err := scanPeriod(q.QueryRow(ctx, `SELECT `+periodColumns+` FROM payroll_periods WHERE id = $1 AND company_id = $2`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollPeriod{}, payroll.ErrPeriodNotFound
		}
		return payroll.PayrollPeriod{}, fmt.Errorf("failed to get payroll period: %w", err)
	}
	return p, nil
}

func (r *PayrollRepository) ListPeriods(ctx context.Context, companyID string) ([]payroll.PayrollPeriod, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+periodColumns+` FROM payroll_periods WHERE company_id = $1 ORDER BY start_date DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll periods: %w", err)
	}
	defer rows.Close()

	var periods []payroll.PayrollPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *PayrollRepository) UpdatePeriodStatus(ctx context.Context, id string, companyID string, status payroll.PeriodStatus) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE payroll_periods
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`, id, companyID, status)
	if err != nil {
		return fmt.Errorf("failed to update payroll period status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPeriodNotFound
	}
	return nil
}
