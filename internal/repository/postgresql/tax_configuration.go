package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type taxConfigurationRepositoryImpl struct {
	db *database.DB
}

func NewTaxConfigurationRepository(db *database.DB) tax.ConfigurationRepository {
	return &taxConfigurationRepositoryImpl{db: db}
}

const taxConfigurationColumns = `
	id, company_id, jurisdiction, name, is_active, standard_deduction, professional_tax,
	provident_fund_rate, cess_rate, surcharge_threshold, surcharge_rate,
	created_at, updated_at`

func scanTaxConfiguration(row pgx.Row) (tax.Configuration, error) {
	var c tax.Configuration
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.Jurisdiction, &c.Name, &c.IsActive, &c.StandardDeduction, &c.ProfessionalTax,
		&c.ProvidentFundRate, &c.CessRate, &c.SurchargeThreshold, &c.SurchargeRate,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *taxConfigurationRepositoryImpl) loadSlabs(ctx context.Context, cfg *tax.Configuration) error {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT min_income, max_income, rate
		FROM tax_slabs
		WHERE configuration_id = $1
		ORDER BY position
	`, cfg.ID)
	if err != nil {
		return fmt.Errorf("failed to list tax slabs: %w", err)
	}
	defer rows.Close()

	cfg.Slabs = nil
	for rows.Next() {
		var s tax.Slab
		if err := rows.Scan(&s.Min, &s.Max, &s.Rate); err != nil {
			return fmt.Errorf("failed to scan tax slab: %w", err)
		}
		cfg.Slabs = append(cfg.Slabs, s)
	}
	return rows.Err()
}

func (r *taxConfigurationRepositoryImpl) getOne(ctx context.Context, query string, args ...interface{}) (tax.Configuration, error) {
	q := GetQuerier(ctx, r.db)

	cfg, err := scanTaxConfiguration(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tax.Configuration{}, tax.ErrConfigurationNotFound
		}
		return tax.Configuration{}, fmt.Errorf("failed to get tax configuration: %w", err)
	}
	if err := r.loadSlabs(ctx, &cfg); err != nil {
		return tax.Configuration{}, err
	}
	return cfg, nil
}

func (r *taxConfigurationRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (tax.Configuration, error) {
	return r.getOne(ctx, `SELECT `+taxConfigurationColumns+`
		FROM tax_configurations
		WHERE id = $1 AND company_id = $2`, id, companyID)
}

func (r *taxConfigurationRepositoryImpl) GetActive(ctx context.Context, companyID string, jurisdiction string) (tax.Configuration, error) {
	return r.getOne(ctx, `SELECT `+taxConfigurationColumns+`
		FROM tax_configurations
		WHERE company_id = $1 AND jurisdiction = $2 AND is_active`, companyID, jurisdiction)
}

func (r *taxConfigurationRepositoryImpl) LockActive(ctx context.Context, companyID string, jurisdiction string) (tax.Configuration, error) {
	return r.getOne(ctx, `SELECT `+taxConfigurationColumns+`
		FROM tax_configurations
		WHERE company_id = $1 AND jurisdiction = $2 AND is_active
		FOR UPDATE`, companyID, jurisdiction)
}

// List returns the company's configurations, newest first. An empty
// jurisdiction lists all of them.
func (r *taxConfigurationRepositoryImpl) List(ctx context.Context, companyID string, jurisdiction string) ([]tax.Configuration, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + taxConfigurationColumns + `
		FROM tax_configurations
		WHERE company_id = $1 AND ($2 = '' OR jurisdiction = $2)
		ORDER BY created_at DESC`

	rows, err := q.Query(ctx, query, companyID, jurisdiction)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax configurations: %w", err)
	}

	var configs []tax.Configuration
	for rows.Next() {
		cfg, err := scanTaxConfiguration(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan tax configuration: %w", err)
		}
		configs = append(configs, cfg)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tax configurations: %w", err)
	}

	for i := range configs {
		if err := r.loadSlabs(ctx, &configs[i]); err != nil {
			return nil, err
		}
	}
	return configs, nil
}

// Create inserts the configuration and its slabs in the order given.
func (r *taxConfigurationRepositoryImpl) Create(ctx context.Context, cfg tax.Configuration) (tax.Configuration, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO tax_configurations (
			id, company_id, jurisdiction, name, is_active, standard_deduction, professional_tax,
			provident_fund_rate, cess_rate, surcharge_threshold, surcharge_rate
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + taxConfigurationColumns

	created, err := scanTaxConfiguration(q.QueryRow(ctx, query,
		newID(), cfg.CompanyID, cfg.Jurisdiction, cfg.Name, cfg.IsActive, cfg.StandardDeduction, cfg.ProfessionalTax,
		cfg.ProvidentFundRate, cfg.CessRate, cfg.SurchargeThreshold, cfg.SurchargeRate,
	))
	if err != nil {
		if isUniqueViolation(err, "uk_tax_configuration_active") {
			return tax.Configuration{}, &tax.ConfigurationError{
				Jurisdiction: cfg.Jurisdiction,
				Reason:       "another configuration is already active",
			}
		}
		return tax.Configuration{}, fmt.Errorf("failed to create tax configuration: %w", err)
	}

	batch := &pgx.Batch{}
	for i, s := range cfg.Slabs {
		batch.Queue(`
			INSERT INTO tax_slabs (configuration_id, position, min_income, max_income, rate)
			VALUES ($1, $2, $3, $4, $5)
		`, created.ID, i, s.Min, s.Max, s.Rate)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return tax.Configuration{}, fmt.Errorf("failed to create tax slabs: %w", err)
	}

	created.Slabs = cfg.Slabs
	return created, nil
}

func (r *taxConfigurationRepositoryImpl) setActive(ctx context.Context, id string, companyID string, active bool) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE tax_configurations
		SET is_active = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`, id, companyID, active)
	if err != nil {
		if isUniqueViolation(err, "uk_tax_configuration_active") {
			return &tax.ConfigurationError{Reason: "another configuration is already active"}
		}
		return fmt.Errorf("failed to update tax configuration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tax.ErrConfigurationNotFound
	}
	return nil
}

func (r *taxConfigurationRepositoryImpl) Deactivate(ctx context.Context, id string, companyID string) error {
	return r.setActive(ctx, id, companyID, false)
}

func (r *taxConfigurationRepositoryImpl) Activate(ctx context.Context, id string, companyID string) error {
	return r.setActive(ctx, id, companyID, true)
}
