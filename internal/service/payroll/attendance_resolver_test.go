package payroll

import (
	"testing"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/leave"
	"github.com/stretchr/testify/assert"
)

func punch(day int, inH, inM, outH, outM int) attendance.Attendance {
	d := date(2025, 2, day)
	return attendance.Attendance{EmployeeID: "emp-1", Date: d, ClockIn: at(d, inH, inM), ClockOut: at(d, outH, outM)}
}

func TestResolveAttendance(t *testing.T) {
	missingOut := attendance.Attendance{EmployeeID: "emp-1", Date: date(2025, 2, 3), ClockIn: at(date(2025, 2, 3), 9, 0)}

	tests := []struct {
		name    string
		records []attendance.Attendance
		leaves  []leave.ApprovedLeave
		want    AttendanceResult
	}{
		{
			name: "no records",
			want: AttendanceResult{CalendarDays: 28, LOPDays: 28, OvertimeHours: d("0")},
		},
		{
			name: "overtime summed over days with both punches",
			records: []attendance.Attendance{
				punch(1, 9, 0, 18, 0),  // 60 over
				punch(2, 9, 0, 19, 30), // 150 over
				missingOut,
				punch(4, 9, 0, 16, 0), // short day, no negative overtime
			},
			want: AttendanceResult{
				CalendarDays:    28,
				PresentDays:     4,
				PayableDays:     4,
				LOPDays:         24,
				OvertimeMinutes: 210,
				OvertimeHours:   d("3.5"),
			},
		},
		{
			name:    "paid leave adds payable days, unpaid leave does not",
			records: []attendance.Attendance{punch(1, 9, 0, 17, 0)},
			leaves: []leave.ApprovedLeave{
				{EmployeeID: "emp-1", StartDate: date(2025, 2, 1), EndDate: date(2025, 2, 3), IsPaid: true},
				{EmployeeID: "emp-1", StartDate: date(2025, 2, 10), EndDate: date(2025, 2, 11), IsPaid: false},
			},
			want: AttendanceResult{
				CalendarDays:  28,
				PresentDays:   1,
				PaidLeaveDays: 2,
				PayableDays:   3,
				LOPDays:       25,
				OvertimeHours: d("0"),
			},
		},
		{
			name: "leave clipped to the period",
			leaves: []leave.ApprovedLeave{
				{EmployeeID: "emp-1", StartDate: date(2025, 1, 30), EndDate: date(2025, 2, 2), IsPaid: true},
				{EmployeeID: "emp-1", StartDate: date(2025, 2, 27), EndDate: date(2025, 3, 3), IsPaid: true},
			},
			want: AttendanceResult{
				CalendarDays:  28,
				PaidLeaveDays: 4,
				PayableDays:   4,
				LOPDays:       24,
				OvertimeHours: d("0"),
			},
		},
		{
			name: "records outside the period and duplicates ignored",
			records: []attendance.Attendance{
				{EmployeeID: "emp-1", Date: date(2025, 3, 1), ClockIn: at(date(2025, 3, 1), 9, 0), ClockOut: at(date(2025, 3, 1), 22, 0)},
				punch(5, 9, 0, 18, 0),
				punch(5, 9, 0, 23, 0),
			},
			want: AttendanceResult{
				CalendarDays:    28,
				PresentDays:     1,
				PayableDays:     1,
				LOPDays:         27,
				OvertimeMinutes: 60,
				OvertimeHours:   d("1"),
			},
		},
		{
			name:    "overtime hours rounded to two places",
			records: []attendance.Attendance{punch(1, 9, 0, 17, 20)},
			want: AttendanceResult{
				CalendarDays:    28,
				PresentDays:     1,
				PayableDays:     1,
				LOPDays:         27,
				OvertimeMinutes: 20,
				OvertimeHours:   d("0.33"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveAttendance(february(), tt.records, tt.leaves, 480)

			assert.Equal(t, tt.want.CalendarDays, got.CalendarDays)
			assert.Equal(t, tt.want.PresentDays, got.PresentDays)
			assert.Equal(t, tt.want.PaidLeaveDays, got.PaidLeaveDays)
			assert.Equal(t, tt.want.PayableDays, got.PayableDays)
			assert.Equal(t, tt.want.LOPDays, got.LOPDays)
			assert.Equal(t, tt.want.OvertimeMinutes, got.OvertimeMinutes)
			assert.True(t, tt.want.OvertimeHours.Equal(got.OvertimeHours), "overtime hours: want %s, got %s", tt.want.OvertimeHours, got.OvertimeHours)
		})
	}
}

func TestResolveAttendance_PaidLeaveOnPresentDayCountsOnce(t *testing.T) {
	records := []attendance.Attendance{punch(2, 9, 0, 17, 0)}
	leaves := []leave.ApprovedLeave{{EmployeeID: "emp-1", StartDate: date(2025, 2, 2), EndDate: date(2025, 2, 2), IsPaid: true}}

	got := ResolveAttendance(february(), records, leaves, 480)

	assert.Equal(t, 1, got.PresentDays)
	assert.Equal(t, 0, got.PaidLeaveDays)
	assert.Equal(t, 1, got.PayableDays)
}
