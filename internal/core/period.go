package core

import (
	"fmt"
	"time"
)

// FinancialPeriod is a one-month accounting window anchored to the salary
// day instead of the calendar month boundary. Start and End are inclusive
// dates at midnight UTC.
type FinancialPeriod struct {
	Start time.Time
	End   time.Time
}

// ComputePeriod returns the financial period containing ref for the given
// salary day. The period starts on the salary day of ref's month when ref
// has reached it, otherwise on the salary day of the previous month, and
// always ends the day before the next period starts.
//
// Salary days that exceed the length of an anchor month (29-31) are clamped
// to that month's last day, so a salary day of 31 anchors to Feb 28/29 for
// the February period.
func ComputePeriod(ref time.Time, salaryDay int) (FinancialPeriod, error) {
	if salaryDay < 1 || salaryDay > 31 {
		return FinancialPeriod{}, fmt.Errorf("salary day %d out of range [1,31]", salaryDay)
	}

	year, month, day := ref.Date()

	anchorYear, anchorMonth := year, month
	if day < clampDay(year, month, salaryDay) {
		// Period started in the previous month.
		anchorMonth--
		if anchorMonth < time.January {
			anchorMonth = time.December
			anchorYear--
		}
	}

	start := time.Date(anchorYear, anchorMonth, clampDay(anchorYear, anchorMonth, salaryDay), 0, 0, 0, 0, time.UTC)

	nextYear, nextMonth := anchorYear, anchorMonth+1
	if nextMonth > time.December {
		nextMonth = time.January
		nextYear++
	}
	end := time.Date(nextYear, nextMonth, clampDay(nextYear, nextMonth, salaryDay), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	return FinancialPeriod{Start: start, End: end}, nil
}

// clampDay limits day to the number of days in the given month.
func clampDay(year int, month time.Month, day int) int {
	last := daysInMonth(year, month)
	if day > last {
		return last
	}
	return day
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
