package attendance

import (
	"time"
)

// Attendance is one employee's punch record for one calendar day.
type Attendance struct {
	ID         string
	CompanyID  string
	EmployeeID string
	Date       time.Time
	ClockIn    *time.Time
	ClockOut   *time.Time
}

// WorkedMinutes reports the minutes between clock-in and clock-out. ok is
// false when either punch is missing or the punches are inverted.
func (a Attendance) WorkedMinutes() (minutes int, ok bool) {
	if a.ClockIn == nil || a.ClockOut == nil {
		return 0, false
	}
	d := a.ClockOut.Sub(*a.ClockIn)
	if d < 0 {
		return 0, false
	}
	return int(d / time.Minute), true
}

func (a Attendance) Present() bool {
	return a.ClockIn != nil
}
