package domain

import (
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestPlanValidate(t *testing.T) {
	cases := []struct {
		name string
		plan Plan
		want error
	}{
		{"weekly ok", Plan{Amount: 50, Frequency: FrequencyWeekly}, nil},
		{"monthly ok", Plan{Amount: 120, Frequency: FrequencyMonthly}, nil},
		{"custom ok", Plan{Amount: 10, Frequency: FrequencyCustomDays, IntervalDays: intPtr(13)}, nil},
		{"zero amount ok", Plan{Amount: 0, Frequency: FrequencyWeekly}, nil},
		{"negative amount", Plan{Amount: -1, Frequency: FrequencyWeekly}, ErrNegativeAmount},
		{"unknown frequency", Plan{Amount: 10, Frequency: "fortnightly"}, ErrInvalidFrequency},
		{"custom missing interval", Plan{Amount: 10, Frequency: FrequencyCustomDays}, ErrIntervalDaysRequired},
		{"custom zero interval", Plan{Amount: 10, Frequency: FrequencyCustomDays, IntervalDays: intPtr(0)}, ErrIntervalDaysRequired},
		{"weekly with interval", Plan{Amount: 10, Frequency: FrequencyWeekly, IntervalDays: intPtr(7)}, ErrIntervalDaysNotAllowed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.plan.Validate()
			if !errors.Is(got, tc.want) {
				t.Fatalf("Validate() = %v, want %v", got, tc.want)
			}
		})
	}
}
