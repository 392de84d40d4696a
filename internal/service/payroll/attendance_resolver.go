package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// AttendanceResult is one employee's day and overtime tally for a period.
type AttendanceResult struct {
	CalendarDays    int
	PresentDays     int
	PaidLeaveDays   int
	PayableDays     int
	LOPDays         int
	OvertimeMinutes int
	OvertimeHours   decimal.Decimal
}

// ResolveAttendance derives payable days, loss-of-pay days and overtime for
// one employee. records and leaves must belong to that employee; anything
// dated outside the period is ignored. When an employee has more than one
// record for a date only the first is used.
func ResolveAttendance(period payroll.PayrollPeriod, records []attendance.Attendance, leaves []leave.ApprovedLeave, standardMinutes int) AttendanceResult {
	start, end := dayOf(period.StartDate), dayOf(period.EndDate)
	result := AttendanceResult{CalendarDays: period.CalendarDays()}

	seen := make(map[time.Time]bool, len(records))
	present := make(map[time.Time]bool, len(records))
	for _, r := range records {
		day := dayOf(r.Date)
		if day.Before(start) || day.After(end) || seen[day] {
			continue
		}
		seen[day] = true

		if r.Present() {
			present[day] = true
		}
		// Days missing a punch are skipped, not penalised.
		if worked, ok := r.WorkedMinutes(); ok && worked > standardMinutes {
			result.OvertimeMinutes += worked - standardMinutes
		}
	}
	result.PresentDays = len(present)

	paidLeave := make(map[time.Time]bool)
	for _, l := range leaves {
		if !l.IsPaid {
			continue
		}
		from, to := dayOf(l.StartDate), dayOf(l.EndDate)
		if from.Before(start) {
			from = start
		}
		if to.After(end) {
			to = end
		}
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			if !present[day] {
				paidLeave[day] = true
			}
		}
	}
	result.PaidLeaveDays = len(paidLeave)

	result.PayableDays = result.PresentDays + result.PaidLeaveDays
	if lop := result.CalendarDays - result.PayableDays; lop > 0 {
		result.LOPDays = lop
	}
	result.OvertimeHours = decimal.NewFromInt(int64(result.OvertimeMinutes)).Div(decimal.NewFromInt(60)).Round(2)

	return result
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
