package postgresql_test

import (
	"context"
	"os"
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// newTestDB connects to TEST_DATABASE_URL, applies migrations and empties
// every table. Tests are skipped when the variable is unset.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, database.Migrate(ctx, db))
	truncateAll(t, db)
	return db
}

func truncateAll(t *testing.T, db *database.DB) {
	t.Helper()

	_, err := db.Exec(context.Background(), `
		TRUNCATE TABLE
			statutory_challans,
			payroll_run_snapshots,
			payroll_rollback_logs,
			payroll_audit_logs,
			payrolls,
			pay_runs,
			payroll_periods,
			tax_slabs,
			tax_configurations,
			salary_components,
			payroll_settings,
			benefit_enrollments,
			leave_requests,
			leave_types,
			attendances,
			employees,
			companies
		CASCADE`)
	require.NoError(t, err)
}

func seedCompany(t *testing.T, db *database.DB) string {
	t.Helper()

	var id string
	err := db.QueryRow(context.Background(), `INSERT INTO companies (name) VALUES ('Acme') RETURNING id`).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedEmployee(t *testing.T, db *database.DB, companyID, code string) string {
	t.Helper()

	var id string
	err := db.QueryRow(context.Background(), `
		INSERT INTO employees (company_id, employee_code, full_name, base_salary, bank_name, bank_account_number, bank_routing_code)
		VALUES ($1, $2, $3, 60000, 'Bank', '123456', 'RT0001')
		RETURNING id
	`, companyID, code, "Employee "+code).Scan(&id)
	require.NoError(t, err)
	return id
}
