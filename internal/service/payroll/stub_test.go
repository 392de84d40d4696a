package payroll

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/benefit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/challan"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/metrics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testCompanyID = "company-1"
	testUserID    = "user-1"
	testPeriodID  = "period-1"
	testPayRunID  = "run-1"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func at(day time.Time, hour, minute int) *time.Time {
	t := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return &t
}

func february() payroll.PayrollPeriod {
	return payroll.PayrollPeriod{
		ID:        testPeriodID,
		CompanyID: testCompanyID,
		Name:      "February 2025",
		StartDate: date(2025, 2, 1),
		EndDate:   date(2025, 2, 28),
		Status:    payroll.PeriodStatusDraft,
	}
}

// testEngine: 0-250000 at 0%, 250000-500000 at 5%, above at 20%; PF 12%,
// professional tax 200.
func testEngine(t *testing.T) *tax.Engine {
	t.Helper()
	engine, err := tax.NewEngine(tax.Configuration{
		Jurisdiction:      "IN",
		Name:              "FY2025",
		IsActive:          true,
		ProvidentFundRate: d("12"),
		ProfessionalTax:   d("200"),
		Slabs: []tax.Slab{
			{Min: d("0"), Max: dp("250000"), Rate: d("0")},
			{Min: d("250000"), Max: dp("500000"), Rate: d("5")},
			{Min: d("500000"), Rate: d("20")},
		},
	})
	require.NoError(t, err)
	return engine
}

// ========== IN-MEMORY STORE ==========

// memStore implements every repository the payroll service uses.
type memStore struct {
	seq int

	settings    map[string]payroll.PayrollSettings
	components  map[string]payroll.SalaryComponent
	periods     map[string]payroll.PayrollPeriod
	runs        map[string]payroll.PayRun
	payrolls    map[string]payroll.Payroll
	audit       []payroll.AuditLog
	rollbacks   []payroll.RollbackLog
	snapshots   []payroll.RunSnapshot
	employees   map[string]employee.Employee
	attendance  []attendance.Attendance
	leaves      []leave.ApprovedLeave
	enrollments []benefit.Enrollment

	lockModes []payroll.LockMode
}

func newMemStore() *memStore {
	return &memStore{
		settings:   map[string]payroll.PayrollSettings{},
		components: map[string]payroll.SalaryComponent{},
		periods:    map[string]payroll.PayrollPeriod{},
		runs:       map[string]payroll.PayRun{},
		payrolls:   map[string]payroll.Payroll{},
		employees:  map[string]employee.Employee{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) clone() *memStore {
	c := *m
	c.settings = copyMap(m.settings)
	c.components = copyMap(m.components)
	c.periods = copyMap(m.periods)
	c.runs = copyMap(m.runs)
	c.payrolls = copyMap(m.payrolls)
	c.employees = copyMap(m.employees)
	c.audit = append([]payroll.AuditLog(nil), m.audit...)
	c.rollbacks = append([]payroll.RollbackLog(nil), m.rollbacks...)
	c.snapshots = append([]payroll.RunSnapshot(nil), m.snapshots...)
	return &c
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// memTx restores the store when fn fails, like a rolled back transaction.
type memTx struct {
	store *memStore
}

func (t memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	saved := t.store.clone()
	if err := fn(ctx); err != nil {
		*t.store = *saved
		return err
	}
	return nil
}

// Settings

func (m *memStore) GetSettings(_ context.Context, companyID string) (payroll.PayrollSettings, error) {
	s, ok := m.settings[companyID]
	if !ok {
		return payroll.PayrollSettings{}, payroll.ErrPayrollSettingsNotFound
	}
	return s, nil
}

func (m *memStore) UpsertSettings(_ context.Context, s payroll.PayrollSettings) (payroll.PayrollSettings, error) {
	if s.ID == "" {
		s.ID = m.nextID("settings")
	}
	m.settings[s.CompanyID] = s
	return s, nil
}

// Components

func (m *memStore) CreateComponent(_ context.Context, c payroll.SalaryComponent) (payroll.SalaryComponent, error) {
	for _, existing := range m.components {
		if existing.CompanyID == c.CompanyID && existing.DeletedAt == nil && strings.EqualFold(existing.Name, c.Name) {
			return payroll.SalaryComponent{}, payroll.ErrComponentNameExists
		}
	}
	c.ID = m.nextID("component")
	m.components[c.ID] = c
	return c, nil
}

func (m *memStore) GetComponentByID(_ context.Context, id string, companyID string) (payroll.SalaryComponent, error) {
	c, ok := m.components[id]
	if !ok || c.CompanyID != companyID || c.DeletedAt != nil {
		return payroll.SalaryComponent{}, payroll.ErrComponentNotFound
	}
	return c, nil
}

func (m *memStore) ListComponents(_ context.Context, companyID string) ([]payroll.SalaryComponent, error) {
	var out []payroll.SalaryComponent
	for _, c := range m.components {
		if c.CompanyID == companyID && c.DeletedAt == nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) SoftDeleteComponent(_ context.Context, id string, companyID string) error {
	c, ok := m.components[id]
	if !ok || c.CompanyID != companyID || c.DeletedAt != nil {
		return payroll.ErrComponentNotFound
	}
	now := time.Now()
	c.DeletedAt = &now
	m.components[id] = c
	return nil
}

// Periods

func (m *memStore) CreatePeriod(_ context.Context, p payroll.PayrollPeriod) (payroll.PayrollPeriod, error) {
	p.ID = m.nextID("period")
	m.periods[p.ID] = p
	return p, nil
}

func (m *memStore) GetPeriodByID(_ context.Context, id string, companyID string) (payroll.PayrollPeriod, error) {
	p, ok := m.periods[id]
	if !ok || p.CompanyID != companyID {
		return payroll.PayrollPeriod{}, payroll.ErrPeriodNotFound
	}
	return p, nil
}

func (m *memStore) ListPeriods(_ context.Context, companyID string) ([]payroll.PayrollPeriod, error) {
	var out []payroll.PayrollPeriod
	for _, p := range m.periods {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (m *memStore) UpdatePeriodStatus(_ context.Context, id string, companyID string, status payroll.PeriodStatus) error {
	p, ok := m.periods[id]
	if !ok || p.CompanyID != companyID {
		return payroll.ErrPeriodNotFound
	}
	p.Status = status
	m.periods[id] = p
	return nil
}

// Pay runs

func (m *memStore) CreatePayRun(_ context.Context, r payroll.PayRun) (payroll.PayRun, error) {
	for _, existing := range m.runs {
		if existing.CompanyID == r.CompanyID && existing.PayrollPeriodID == r.PayrollPeriodID {
			return payroll.PayRun{}, payroll.ErrPayRunExists
		}
	}
	r.ID = m.nextID("run")
	m.runs[r.ID] = r
	return r, nil
}

func (m *memStore) GetPayRunByID(_ context.Context, id string, companyID string) (payroll.PayRun, error) {
	r, ok := m.runs[id]
	if !ok || r.CompanyID != companyID {
		return payroll.PayRun{}, payroll.ErrPayRunNotFound
	}
	return r, nil
}

func (m *memStore) ListPayRuns(_ context.Context, companyID string) ([]payroll.PayRun, error) {
	var out []payroll.PayRun
	for _, r := range m.runs {
		if r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) LockPayRun(ctx context.Context, id string, companyID string, mode payroll.LockMode) (payroll.PayRun, error) {
	m.lockModes = append(m.lockModes, mode)
	return m.GetPayRunByID(ctx, id, companyID)
}

func (m *memStore) UpdatePayRun(_ context.Context, r payroll.PayRun) error {
	if _, ok := m.runs[r.ID]; !ok {
		return payroll.ErrPayRunNotFound
	}
	m.runs[r.ID] = r
	return nil
}

func (m *memStore) CreateRollbackLog(_ context.Context, l payroll.RollbackLog) (payroll.RollbackLog, error) {
	l.ID = m.nextID("rollback")
	m.rollbacks = append(m.rollbacks, l)
	return l, nil
}

func (m *memStore) ListRollbackLogs(_ context.Context, payRunID string) ([]payroll.RollbackLog, error) {
	var out []payroll.RollbackLog
	for _, l := range m.rollbacks {
		if l.PayRunID == payRunID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) CreateSnapshot(_ context.Context, s payroll.RunSnapshot) (payroll.RunSnapshot, error) {
	s.ID = m.nextID("snapshot")
	m.snapshots = append(m.snapshots, s)
	return s, nil
}

// Payroll rows

func (m *memStore) UpsertPayrolls(_ context.Context, rows []payroll.Payroll) ([]payroll.Payroll, error) {
	out := make([]payroll.Payroll, 0, len(rows))
	for _, row := range rows {
		row.ID = ""
		for id, existing := range m.payrolls {
			if existing.EmployeeID == row.EmployeeID && existing.PayrollPeriodID == row.PayrollPeriodID {
				row.ID = id
				row.ApprovedBy = existing.ApprovedBy
				row.ApprovedAt = existing.ApprovedAt
				break
			}
		}
		if row.ID == "" {
			row.ID = m.nextID("payroll")
		}
		m.payrolls[row.ID] = row
		out = append(out, row)
	}
	return out, nil
}

func (m *memStore) GetPayrollByID(_ context.Context, id string, companyID string) (payroll.Payroll, error) {
	p, ok := m.payrolls[id]
	if !ok || p.CompanyID != companyID {
		return payroll.Payroll{}, payroll.ErrPayrollNotFound
	}
	return p, nil
}

func (m *memStore) ListPayrollsByPayRun(_ context.Context, payRunID string, companyID string) ([]payroll.Payroll, error) {
	var out []payroll.Payroll
	for _, p := range m.payrolls {
		if p.PayRunID == payRunID && p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (m *memStore) ListFinalizedPayrollsByMonth(_ context.Context, companyID string, year int, month time.Month) ([]payroll.Payroll, error) {
	var out []payroll.Payroll
	for _, p := range m.payrolls {
		run, ok := m.runs[p.PayRunID]
		if !ok || p.CompanyID != companyID || run.Status != payroll.PayRunStatusFinalized {
			continue
		}
		end := m.periods[p.PayrollPeriodID].EndDate
		if end.Year() == year && end.Month() == month {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdatePayroll(_ context.Context, row payroll.Payroll) error {
	if _, ok := m.payrolls[row.ID]; !ok {
		return payroll.ErrPayrollNotFound
	}
	m.payrolls[row.ID] = row
	return nil
}

func (m *memStore) SetPayrollStatusByPayRun(_ context.Context, payRunID string, companyID string, status payroll.PayrollStatus) error {
	for id, p := range m.payrolls {
		if p.PayRunID == payRunID && p.CompanyID == companyID {
			p.Status = status
			m.payrolls[id] = p
		}
	}
	return nil
}

// Audit

func (m *memStore) AppendAuditLogs(_ context.Context, logs []payroll.AuditLog) error {
	for _, l := range logs {
		l.ID = m.nextID("audit")
		m.audit = append(m.audit, l)
	}
	return nil
}

func (m *memStore) ListAuditLogs(_ context.Context, payrollID string) ([]payroll.AuditLog, error) {
	var out []payroll.AuditLog
	for _, l := range m.audit {
		if l.PayrollID == payrollID {
			out = append(out, l)
		}
	}
	return out, nil
}

// Upstream

func (m *memStore) GetByID(_ context.Context, id string, companyID string) (employee.Employee, error) {
	e, ok := m.employees[id]
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (m *memStore) GetActiveByCompanyID(_ context.Context, companyID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range m.employees {
		if e.CompanyID == companyID && e.EmploymentStatus == employee.EmploymentStatusActive && e.DeletedAt == nil {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetByIDs(_ context.Context, companyID string, ids []string) (map[string]employee.Employee, error) {
	out := make(map[string]employee.Employee, len(ids))
	for _, id := range ids {
		if e, ok := m.employees[id]; ok && e.CompanyID == companyID {
			out[id] = e
		}
	}
	return out, nil
}

func (m *memStore) ListByCompanyAndRange(_ context.Context, companyID string, start, end time.Time) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	for _, a := range m.attendance {
		if a.CompanyID == companyID && !a.Date.Before(start) && !a.Date.After(end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) ListApprovedInRange(_ context.Context, _ string, start, end time.Time) ([]leave.ApprovedLeave, error) {
	var out []leave.ApprovedLeave
	for _, l := range m.leaves {
		if !l.EndDate.Before(start) && !l.StartDate.After(end) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) ListByCompanyID(_ context.Context, companyID string) ([]benefit.Enrollment, error) {
	var out []benefit.Enrollment
	for _, e := range m.enrollments {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ========== COLLABORATOR STUBS ==========

type stubTaxService struct {
	tax.TaxService
	engine *tax.Engine
}

func (s *stubTaxService) ActiveEngine(_ context.Context, _ string, jurisdiction string) (*tax.Engine, error) {
	if s.engine == nil {
		return nil, &tax.ConfigurationError{Jurisdiction: jurisdiction, Reason: "no active configuration"}
	}
	return s.engine, nil
}

type stubGenerator struct {
	calls []challan.GenerateInput
	err   error
}

func (g *stubGenerator) Generate(_ context.Context, in challan.GenerateInput) ([]challan.StatutoryChallan, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.calls = append(g.calls, in)

	var out []challan.StatutoryChallan
	totals := in.Totals()
	for _, t := range challan.ObligationTypes {
		if totals[t].IsPositive() {
			out = append(out, challan.StatutoryChallan{
				ID:             string(t),
				CompanyID:      in.CompanyID,
				ObligationType: t,
				PeriodMonth:    int(in.PeriodEnd.Month()),
				PeriodYear:     in.PeriodEnd.Year(),
				Amount:         totals[t],
				DueDate:        challan.DueDateFor(in.PeriodEnd, 15),
				Status:         challan.StatusDue,
			})
		}
	}
	return out, nil
}

// ========== FIXTURE ==========

type fixture struct {
	store *memStore
	taxes *stubTaxService
	gen   *stubGenerator
	svc   payroll.PayrollService
	ctx   context.Context
	now   time.Time
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	locker lock.Locker
}

func withLocker(l lock.Locker) fixtureOption {
	return func(c *fixtureConfig) { c.locker = l }
}

// newFixture seeds one company with the February 2025 period and a draft
// pay run for it.
func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	cfg := fixtureConfig{locker: lock.Noop{}}
	for _, o := range opts {
		o(&cfg)
	}

	store := newMemStore()
	store.periods[testPeriodID] = february()
	store.runs[testPayRunID] = payroll.PayRun{
		ID:              testPayRunID,
		CompanyID:       testCompanyID,
		PayrollPeriodID: testPeriodID,
		Status:          payroll.PayRunStatusDraft,
	}

	f := &fixture{
		store: store,
		taxes: &stubTaxService{engine: testEngine(t)},
		gen:   &stubGenerator{},
		now:   time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC),
	}

	repos := Repositories{
		Settings:   store,
		Components: store,
		Periods:    store,
		PayRuns:    store,
		Payrolls:   store,
		Audit:      store,
		Employees:  store,
		Attendance: store,
		Leave:      store,
		Benefits:   store,
	}
	f.svc = NewPayrollService(memTx{store: store}, repos, f.taxes, f.gen, cfg.locker, metrics.New(), Options{
		Workers:             4,
		DefaultJurisdiction: "IN",
		Now:                 func() time.Time { return f.now },
	})

	ctx, err := jwt.NewContext(context.Background(), jwt.Claims{
		UserID:    testUserID,
		CompanyID: testCompanyID,
		Role:      "admin",
	})
	require.NoError(t, err)
	f.ctx = ctx

	return f
}

// addEmployee registers an active employee with full bank details.
func (f *fixture) addEmployee(id, basic string) employee.Employee {
	holder := "Holder " + id
	e := employee.Employee{
		ID:                    id,
		CompanyID:             testCompanyID,
		EmployeeCode:          strings.ToUpper(id),
		FullName:              "Employee " + id,
		EmploymentStatus:      employee.EmploymentStatusActive,
		BankName:              "State Bank",
		BankAccountHolderName: &holder,
		BankAccountNumber:     "00011122233",
		BankRoutingCode:       "SBIN0000001",
		BaseSalary:            dp(basic),
	}
	f.store.employees[id] = e
	return e
}

// addWorkdays records standard 09:00-17:00 days from the 1st to the nth of
// February.
func (f *fixture) addWorkdays(employeeID string, n int) {
	for i := 1; i <= n; i++ {
		day := date(2025, 2, i)
		f.store.attendance = append(f.store.attendance, attendance.Attendance{
			ID:         fmt.Sprintf("att-%s-%d", employeeID, i),
			CompanyID:  testCompanyID,
			EmployeeID: employeeID,
			Date:       day,
			ClockIn:    at(day, 9, 0),
			ClockOut:   at(day, 17, 0),
		})
	}
}

func (f *fixture) rowFor(t *testing.T, employeeID string) payroll.Payroll {
	t.Helper()
	for _, p := range f.store.payrolls {
		if p.EmployeeID == employeeID {
			return p
		}
	}
	t.Fatalf("no payroll row for employee %s", employeeID)
	return payroll.Payroll{}
}

func (f *fixture) run() payroll.PayRun {
	return f.store.runs[testPayRunID]
}
