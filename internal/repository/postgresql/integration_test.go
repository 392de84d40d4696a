package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/challan"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRun(t *testing.T, repo *postgresql.PayrollRepository, companyID string) (payroll.PayrollPeriod, payroll.PayRun) {
	t.Helper()
	ctx := context.Background()

	period, err := repo.CreatePeriod(ctx, payroll.PayrollPeriod{
		CompanyID: companyID,
		Name:      "February 2025",
		StartDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		Status:    payroll.PeriodStatusDraft,
	})
	require.NoError(t, err)

	run, err := repo.CreatePayRun(ctx, payroll.PayRun{
		CompanyID:       companyID,
		PayrollPeriodID: period.ID,
		Status:          payroll.PayRunStatusDraft,
	})
	require.NoError(t, err)
	return period, run
}

func TestPayRun_OnePerPeriod(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewPayrollRepository(db)
	companyID := seedCompany(t, db)

	period, _ := seedRun(t, repo, companyID)

	_, err := repo.CreatePayRun(context.Background(), payroll.PayRun{
		CompanyID:       companyID,
		PayrollPeriodID: period.ID,
		Status:          payroll.PayRunStatusDraft,
	})
	assert.ErrorIs(t, err, payroll.ErrPayRunExists)
}

func TestUpsertPayrolls_KeepsOneRowPerEmployeeAndPeriod(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewPayrollRepository(db)
	ctx := context.Background()
	companyID := seedCompany(t, db)
	employeeID := seedEmployee(t, db, companyID, "E001")
	period, run := seedRun(t, repo, companyID)

	row := payroll.Payroll{
		PayRunID:        run.ID,
		PayrollPeriodID: period.ID,
		CompanyID:       companyID,
		EmployeeID:      employeeID,
		Status:          payroll.PayrollStatusInProgress,
		Figures: payroll.Figures{
			BasicSalary:       decimal.NewFromInt(60000),
			GrossSalary:       decimal.NewFromInt(87200),
			NetSalary:         decimal.NewFromInt(79300),
			EarningsBreakdown: map[string]decimal.Decimal{"Meal": decimal.NewFromInt(1000)},
		},
	}

	first, err := repo.UpsertPayrolls(ctx, []payroll.Payroll{row})
	require.NoError(t, err)
	require.Len(t, first, 1)

	row.NetSalary = decimal.NewFromInt(80000)
	second, err := repo.UpsertPayrolls(ctx, []payroll.Payroll{row})
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)

	rows, err := repo.ListPayrollsByPayRun(ctx, run.ID, companyID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].NetSalary.Equal(decimal.NewFromInt(80000)))
	assert.True(t, rows[0].EarningsBreakdown["Meal"].Equal(decimal.NewFromInt(1000)))
	require.NotNil(t, rows[0].EmployeeCode)
	assert.Equal(t, "E001", *rows[0].EmployeeCode)
}

func TestLockPayRun_InsideTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewPayrollRepository(db)
	tx := postgresql.NewTxManager(db)
	companyID := seedCompany(t, db)
	_, run := seedRun(t, repo, companyID)

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		locked, err := repo.LockPayRun(ctx, run.ID, companyID, payroll.LockForUpdate)
		if err != nil {
			return err
		}
		locked.Status = payroll.PayRunStatusInProgress
		locked.TotalEmployees = 3
		return repo.UpdatePayRun(ctx, locked)
	})
	require.NoError(t, err)

	got, err := repo.GetPayRunByID(context.Background(), run.ID, companyID)
	require.NoError(t, err)
	assert.Equal(t, payroll.PayRunStatusInProgress, got.Status)
	assert.Equal(t, 3, got.TotalEmployees)
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewPayrollRepository(db)
	tx := postgresql.NewTxManager(db)
	companyID := seedCompany(t, db)
	_, run := seedRun(t, repo, companyID)

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		run.Status = payroll.PayRunStatusFinalized
		if err := repo.UpdatePayRun(ctx, run); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	got, err := repo.GetPayRunByID(context.Background(), run.ID, companyID)
	require.NoError(t, err)
	assert.Equal(t, payroll.PayRunStatusDraft, got.Status)
}

func TestChallanUpsert_LeavesPaidChallanAlone(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewChallanRepository(db)
	ctx := context.Background()
	companyID := seedCompany(t, db)

	c := challan.StatutoryChallan{
		CompanyID:      companyID,
		ObligationType: challan.ObligationProvidentFund,
		PeriodMonth:    2,
		PeriodYear:     2025,
		Amount:         decimal.NewFromInt(11040),
		DueDate:        time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Status:         challan.StatusDue,
	}
	saved, err := repo.Upsert(ctx, c)
	require.NoError(t, err)

	paidAt := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	ref := "CIN-1"
	saved.Status = challan.StatusPaid
	saved.PaidAt = &paidAt
	saved.Reference = &ref
	require.NoError(t, repo.Update(ctx, saved))

	c.Amount = decimal.NewFromInt(99999)
	again, err := repo.Upsert(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)
	assert.True(t, again.Amount.Equal(decimal.NewFromInt(11040)))
	assert.Equal(t, challan.StatusPaid, again.Status)
}

func TestListFinalizedPayrollsByMonth(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewPayrollRepository(db)
	ctx := context.Background()
	companyID := seedCompany(t, db)
	employeeID := seedEmployee(t, db, companyID, "E001")

	period, run := seedRun(t, repo, companyID)
	firstHalf, err := repo.CreatePeriod(ctx, payroll.PayrollPeriod{
		CompanyID: companyID,
		Name:      "February 2025 (first half)",
		StartDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		Status:    payroll.PeriodStatusDraft,
	})
	require.NoError(t, err)
	openRun, err := repo.CreatePayRun(ctx, payroll.PayRun{
		CompanyID:       companyID,
		PayrollPeriodID: firstHalf.ID,
		Status:          payroll.PayRunStatusInProgress,
	})
	require.NoError(t, err)

	_, err = repo.UpsertPayrolls(ctx, []payroll.Payroll{
		{
			PayRunID:        run.ID,
			PayrollPeriodID: period.ID,
			CompanyID:       companyID,
			EmployeeID:      employeeID,
			Status:          payroll.PayrollStatusFinalized,
			Figures:         payroll.Figures{ProvidentFund: decimal.NewFromInt(100)},
		},
		{
			PayRunID:        openRun.ID,
			PayrollPeriodID: firstHalf.ID,
			CompanyID:       companyID,
			EmployeeID:      employeeID,
			Status:          payroll.PayrollStatusInProgress,
			Figures:         payroll.Figures{ProvidentFund: decimal.NewFromInt(40)},
		},
	})
	require.NoError(t, err)

	run.Status = payroll.PayRunStatusFinalized
	require.NoError(t, repo.UpdatePayRun(ctx, run))

	rows, err := repo.ListFinalizedPayrollsByMonth(ctx, companyID, 2025, time.February)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, run.ID, rows[0].PayRunID)

	openRun.Status = payroll.PayRunStatusFinalized
	require.NoError(t, repo.UpdatePayRun(ctx, openRun))

	rows, err = repo.ListFinalizedPayrollsByMonth(ctx, companyID, 2025, time.February)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = repo.ListFinalizedPayrollsByMonth(ctx, companyID, 2025, time.March)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestChallanDeleteDue(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewChallanRepository(db)
	ctx := context.Background()
	companyID := seedCompany(t, db)

	due := challan.StatutoryChallan{
		CompanyID:      companyID,
		ObligationType: challan.ObligationIncomeTax,
		PeriodMonth:    2,
		PeriodYear:     2025,
		Amount:         decimal.NewFromInt(500),
		DueDate:        time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Status:         challan.StatusDue,
	}
	_, err := repo.Upsert(ctx, due)
	require.NoError(t, err)

	paid := due
	paid.ObligationType = challan.ObligationProvidentFund
	saved, err := repo.Upsert(ctx, paid)
	require.NoError(t, err)
	paidAt := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	saved.Status = challan.StatusPaid
	saved.PaidAt = &paidAt
	require.NoError(t, repo.Update(ctx, saved))

	removed, err := repo.DeleteDue(ctx, companyID, challan.ObligationIncomeTax, 2, 2025)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteDue(ctx, companyID, challan.ObligationProvidentFund, 2, 2025)
	require.NoError(t, err)
	assert.False(t, removed)

	left, err := repo.List(ctx, companyID, challan.ListFilter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, saved.ID, left[0].ID)
}

func TestTaxConfigurations_ScopedByCompany(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewTaxConfigurationRepository(db)
	ctx := context.Background()
	first := seedCompany(t, db)
	second := seedCompany(t, db)

	bound := decimal.NewFromInt(250000)
	cfg := tax.Configuration{
		CompanyID:    first,
		Jurisdiction: "IN",
		Name:         "FY2025",
		IsActive:     true,
		Slabs: []tax.Slab{
			{Min: decimal.Zero, Max: &bound, Rate: decimal.Zero},
			{Min: bound, Rate: decimal.NewFromInt(10)},
		},
	}
	own, err := repo.Create(ctx, cfg)
	require.NoError(t, err)

	// both companies may hold an active configuration for a jurisdiction
	cfg.CompanyID = second
	theirs, err := repo.Create(ctx, cfg)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, own.ID, second)
	assert.ErrorIs(t, err, tax.ErrConfigurationNotFound)
	assert.Error(t, repo.Deactivate(ctx, own.ID, second))

	active, err := repo.GetActive(ctx, first, "IN")
	require.NoError(t, err)
	assert.Equal(t, own.ID, active.ID)
	assert.Len(t, active.Slabs, 2)

	listed, err := repo.List(ctx, second, "")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, theirs.ID, listed[0].ID)
}
