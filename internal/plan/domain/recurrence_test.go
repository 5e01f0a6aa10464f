package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdvance(t *testing.T) {
	cases := []struct {
		name         string
		in           time.Time
		frequency    Frequency
		intervalDays int
		want         time.Time
	}{
		{"weekly adds seven days", date(2024, 3, 1), FrequencyWeekly, 0, date(2024, 3, 8)},
		{"weekly crosses month boundary", date(2024, 1, 29), FrequencyWeekly, 0, date(2024, 2, 5)},
		{"monthly same day", date(2024, 3, 15), FrequencyMonthly, 0, date(2024, 4, 15)},
		{"monthly jan 31 clamps to leap feb 29", date(2024, 1, 31), FrequencyMonthly, 0, date(2024, 2, 29)},
		{"monthly jan 31 clamps to feb 28", date(2023, 1, 31), FrequencyMonthly, 0, date(2023, 2, 28)},
		{"monthly mar 31 clamps to apr 30", date(2024, 3, 31), FrequencyMonthly, 0, date(2024, 4, 30)},
		{"monthly dec rolls year", date(2024, 12, 15), FrequencyMonthly, 0, date(2025, 1, 15)},
		{"custom days", date(2024, 3, 1), FrequencyCustomDays, 13, date(2024, 3, 14)},
		{"custom days floor of one", date(2024, 3, 1), FrequencyCustomDays, 0, date(2024, 3, 2)},
		{"custom days negative treated as one", date(2024, 3, 1), FrequencyCustomDays, -5, date(2024, 3, 2)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Advance(tc.in, tc.frequency, tc.intervalDays)
			if !got.Equal(tc.want) {
				t.Fatalf("Advance(%v, %s, %d) = %v, want %v", tc.in, tc.frequency, tc.intervalDays, got, tc.want)
			}
		})
	}
}

func TestAdvancePreservesTimeOfDay(t *testing.T) {
	in := time.Date(2024, 1, 31, 9, 30, 15, 0, time.UTC)
	got := Advance(in, FrequencyMonthly, 0)
	want := time.Date(2024, 2, 29, 9, 30, 15, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Advance(%v) = %v, want %v", in, got, want)
	}
}
