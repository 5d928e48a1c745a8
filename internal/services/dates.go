package services

import (
	"time"

	"github.com/teambition/rrule-go"

	"clinicpay/internal/models"
)

// Installment due dates are calendar dates, not instants. Everything here
// normalizes to midnight UTC so a date never silently shifts a day when
// stored or rendered in another timezone.

// DateOnly truncates a time to its calendar date at midnight UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date at midnight UTC
func Today() time.Time {
	return DateOnly(time.Now().UTC())
}

// FormatDate renders a calendar date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

// frequencyRule builds the recurrence rule for a plan frequency. Unknown
// frequencies fall back to monthly.
func frequencyRule(start time.Time, freq models.PlanFrequency, count int) (*rrule.RRule, error) {
	opt := rrule.ROption{
		Dtstart: DateOnly(start),
		Count:   count,
	}

	switch freq {
	case models.PlanFrequencyWeekly:
		opt.Freq = rrule.WEEKLY
	case models.PlanFrequencyBiWeekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
	case models.PlanFrequencyMonthly:
		opt.Freq = rrule.MONTHLY
	default:
		opt.Freq = rrule.MONTHLY
	}

	return rrule.NewRRule(opt)
}

// consecutiveOccurrences reports whether a monthly schedule advances exactly
// one month per occurrence. Weekly rules cannot skip, so they always pass.
func consecutiveOccurrences(occurrences []time.Time, freq models.PlanFrequency) bool {
	switch freq {
	case models.PlanFrequencyWeekly, models.PlanFrequencyBiWeekly:
		return true
	}
	for i := 1; i < len(occurrences); i++ {
		prev := occurrences[i-1]
		cur := occurrences[i]
		months := (cur.Year()-prev.Year())*12 + int(cur.Month()-prev.Month())
		if months != 1 {
			return false
		}
	}
	return true
}

// InstallmentDueDates computes the due dates for count installments starting
// at start. Each date is an offset from the start date, not chained from the
// previous installment, so rounding never accumulates across the schedule.
func InstallmentDueDates(start time.Time, freq models.PlanFrequency, count int) []time.Time {
	if count <= 0 {
		return nil
	}

	rule, err := frequencyRule(start, freq, count)
	if err == nil {
		occurrences := rule.All()
		if len(occurrences) == count && consecutiveOccurrences(occurrences, freq) {
			dates := make([]time.Time, count)
			for i, occ := range occurrences {
				dates[i] = DateOnly(occ)
			}
			return dates
		}
	}

	// Fallback arithmetic if the rule cannot produce a full schedule. A
	// monthly rule anchored past the 28th skips short months entirely;
	// AddDate rolls the date into the next month instead.
	dates := make([]time.Time, count)
	base := DateOnly(start)
	for i := 0; i < count; i++ {
		switch freq {
		case models.PlanFrequencyWeekly:
			dates[i] = base.AddDate(0, 0, 7*i)
		case models.PlanFrequencyBiWeekly:
			dates[i] = base.AddDate(0, 0, 14*i)
		default:
			dates[i] = base.AddDate(0, i, 0)
		}
	}
	return dates
}
