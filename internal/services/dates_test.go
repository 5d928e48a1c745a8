package services

import (
	"testing"
	"time"

	"clinicpay/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestInstallmentDueDates(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		freq     models.PlanFrequency
		count    int
		expected []time.Time
	}{
		{
			name:  "monthly from the first",
			start: date(2026, time.January, 1),
			freq:  models.PlanFrequencyMonthly,
			count: 3,
			expected: []time.Time{
				date(2026, time.January, 1),
				date(2026, time.February, 1),
				date(2026, time.March, 1),
			},
		},
		{
			name:  "weekly",
			start: date(2026, time.March, 2),
			freq:  models.PlanFrequencyWeekly,
			count: 4,
			expected: []time.Time{
				date(2026, time.March, 2),
				date(2026, time.March, 9),
				date(2026, time.March, 16),
				date(2026, time.March, 23),
			},
		},
		{
			name:  "bi-weekly",
			start: date(2026, time.March, 2),
			freq:  models.PlanFrequencyBiWeekly,
			count: 3,
			expected: []time.Time{
				date(2026, time.March, 2),
				date(2026, time.March, 16),
				date(2026, time.March, 30),
			},
		},
		{
			name:  "weekly across a month boundary",
			start: date(2026, time.January, 26),
			freq:  models.PlanFrequencyWeekly,
			count: 2,
			expected: []time.Time{
				date(2026, time.January, 26),
				date(2026, time.February, 2),
			},
		},
		{
			name:  "unknown frequency falls back to monthly",
			start: date(2026, time.January, 1),
			freq:  models.PlanFrequency("fortnightly-ish"),
			count: 2,
			expected: []time.Time{
				date(2026, time.January, 1),
				date(2026, time.February, 1),
			},
		},
		{
			name:     "zero count",
			start:    date(2026, time.January, 1),
			freq:     models.PlanFrequencyMonthly,
			count:    0,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := InstallmentDueDates(tt.start, tt.freq, tt.count)
			if len(result) != len(tt.expected) {
				t.Fatalf("got %d dates; want %d", len(result), len(tt.expected))
			}
			for i := range result {
				if !result[i].Equal(tt.expected[i]) {
					t.Errorf("date[%d] = %s; want %s",
						i, FormatDate(result[i]), FormatDate(tt.expected[i]))
				}
			}
		})
	}
}

func TestInstallmentDueDatesMonthEnd(t *testing.T) {
	// A monthly schedule anchored on the 31st cannot land on the 31st of
	// every month. The schedule must still produce the requested number of
	// dates, in order, roughly a month apart.
	result := InstallmentDueDates(date(2026, time.January, 31), models.PlanFrequencyMonthly, 4)
	if len(result) != 4 {
		t.Fatalf("got %d dates; want 4", len(result))
	}
	for i := 1; i < len(result); i++ {
		if !result[i].After(result[i-1]) {
			t.Errorf("dates out of order: %s then %s",
				FormatDate(result[i-1]), FormatDate(result[i]))
		}
		gap := result[i].Sub(result[i-1])
		if gap < 28*24*time.Hour || gap > 35*24*time.Hour {
			t.Errorf("gap between %s and %s is %v, not roughly a month",
				FormatDate(result[i-1]), FormatDate(result[i]), gap)
		}
	}
}

func TestDateOnly(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "strips time of day",
			input:    time.Date(2026, time.March, 15, 18, 45, 12, 999, time.UTC),
			expected: date(2026, time.March, 15),
		},
		{
			name:     "keeps the wall-clock date of a zoned time",
			input:    time.Date(2026, time.March, 15, 1, 0, 0, 0, time.FixedZone("AEST", 10*3600)),
			expected: date(2026, time.March, 15),
		},
		{
			name:     "midnight is unchanged",
			input:    date(2026, time.March, 15),
			expected: date(2026, time.March, 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DateOnly(tt.input)
			if !result.Equal(tt.expected) {
				t.Errorf("DateOnly(%v) = %v; want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	parsed, err := ParseDate("2026-03-15")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if got := FormatDate(parsed); got != "2026-03-15" {
		t.Errorf("round trip gave %q; want 2026-03-15", got)
	}

	if _, err := ParseDate("15/03/2026"); err == nil {
		t.Error("expected error for non-ISO date format")
	}
}
