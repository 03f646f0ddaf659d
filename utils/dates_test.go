package utils

import (
	"testing"
	"time"
)

func TestAddWorkingDaysSkipsWeekends(t *testing.T) {
	// 2015-01-02 is a Friday.
	start := Date(2015, time.January, 2)

	tests := []struct {
		days int
		want time.Time
	}{
		{0, Date(2015, time.January, 2)},
		{1, Date(2015, time.January, 5)},
		{5, Date(2015, time.January, 9)},
		{21, Date(2015, time.February, 2)},
	}
	for _, tt := range tests {
		if got := AddWorkingDays(start, tt.days); !got.Equal(tt.want) {
			t.Fatalf("AddWorkingDays(%d) = %s, want %s", tt.days, got.Format(DateLayout), tt.want.Format(DateLayout))
		}
	}
}

func TestDaysBetween(t *testing.T) {
	a := Date(2015, time.March, 1)
	b := Date(2016, time.March, 1)
	if got := DaysBetween(a, b); got != 366 {
		t.Fatalf("DaysBetween = %d, want 366", got)
	}
	if got := DaysBetween(b, a); got != -366 {
		t.Fatalf("DaysBetween reversed = %d, want -366", got)
	}
}

func TestTruncateDropsClock(t *testing.T) {
	in := time.Date(2016, time.July, 4, 23, 59, 0, 0, time.UTC)
	if got := Truncate(in); !got.Equal(Date(2016, time.July, 4)) {
		t.Fatalf("Truncate = %v", got)
	}
}
