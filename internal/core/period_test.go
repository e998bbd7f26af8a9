package core

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputePeriod(t *testing.T) {
	cases := []struct {
		name      string
		ref       time.Time
		salaryDay int
		start     time.Time
		end       time.Time
	}{
		{
			name:      "before salary day anchors to previous month",
			ref:       date(2024, time.March, 5),
			salaryDay: 10,
			start:     date(2024, time.February, 10),
			end:       date(2024, time.March, 9),
		},
		{
			name:      "on or after salary day anchors to own month",
			ref:       date(2024, time.March, 15),
			salaryDay: 10,
			start:     date(2024, time.March, 10),
			end:       date(2024, time.April, 9),
		},
		{
			name:      "salary day itself starts the period",
			ref:       date(2024, time.March, 10),
			salaryDay: 10,
			start:     date(2024, time.March, 10),
			end:       date(2024, time.April, 9),
		},
		{
			name:      "december rolls into next year",
			ref:       date(2024, time.December, 20),
			salaryDay: 10,
			start:     date(2024, time.December, 10),
			end:       date(2025, time.January, 9),
		},
		{
			name:      "january rolls back into previous year",
			ref:       date(2025, time.January, 5),
			salaryDay: 10,
			start:     date(2024, time.December, 10),
			end:       date(2025, time.January, 9),
		},
		{
			name:      "salary day 1 spans the calendar month",
			ref:       date(2024, time.June, 17),
			salaryDay: 1,
			start:     date(2024, time.June, 1),
			end:       date(2024, time.June, 30),
		},
		{
			name:      "day 31 clamps to end of february",
			ref:       date(2024, time.February, 29),
			salaryDay: 31,
			start:     date(2024, time.February, 29),
			end:       date(2024, time.March, 30),
		},
		{
			name:      "day 31 in a 30-day month clamps to day 30",
			ref:       date(2023, time.April, 30),
			salaryDay: 31,
			start:     date(2023, time.April, 30),
			end:       date(2023, time.May, 30),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ComputePeriod(tc.ref, tc.salaryDay)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !p.Start.Equal(tc.start) {
				t.Errorf("start = %v, want %v", p.Start, tc.start)
			}
			if !p.End.Equal(tc.end) {
				t.Errorf("end = %v, want %v", p.End, tc.end)
			}
		})
	}
}

func TestComputePeriodRejectsBadSalaryDay(t *testing.T) {
	for _, day := range []int{0, -1, 32, 100} {
		if _, err := ComputePeriod(date(2024, time.March, 5), day); err == nil {
			t.Errorf("salary day %d: expected error", day)
		}
	}
}

func TestComputePeriodInvariants(t *testing.T) {
	// The ref always falls inside its own period, and the period is a
	// contiguous one-month window: the day after End starts the next one.
	for salaryDay := 1; salaryDay <= 31; salaryDay++ {
		ref := date(2024, time.January, 1)
		for ref.Year() < 2026 {
			p, err := ComputePeriod(ref, salaryDay)
			if err != nil {
				t.Fatalf("salary day %d ref %v: %v", salaryDay, ref, err)
			}
			if ref.Before(p.Start) || ref.After(p.End) {
				t.Fatalf("salary day %d: ref %v outside period [%v, %v]", salaryDay, ref, p.Start, p.End)
			}
			next, err := ComputePeriod(p.End.AddDate(0, 0, 1), salaryDay)
			if err != nil {
				t.Fatal(err)
			}
			if !next.Start.Equal(p.End.AddDate(0, 0, 1)) {
				t.Fatalf("salary day %d: period ending %v not contiguous with next start %v", salaryDay, p.End, next.Start)
			}
			ref = ref.AddDate(0, 0, 11)
		}
	}
}
