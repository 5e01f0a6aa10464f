package domain

import "time"

// Advance returns the due date following date for the given frequency.
// Monthly advancement preserves the day of month where possible; when the
// target month is shorter (e.g. Jan 31 -> Feb) the result clamps to the last
// day of that month. Pure function, no I/O.
func Advance(date time.Time, frequency Frequency, intervalDays int) time.Time {
	switch frequency {
	case FrequencyWeekly:
		return date.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return addMonthClamped(date)
	default:
		if intervalDays < 1 {
			intervalDays = 1
		}
		return date.AddDate(0, 0, intervalDays)
	}
}

func addMonthClamped(date time.Time) time.Time {
	year, month, day := date.Date()
	hour, minute, sec := date.Clock()
	if last := daysIn(year, month+1); day > last {
		day = last
	}
	return time.Date(year, month+1, day, hour, minute, sec, date.Nanosecond(), date.Location())
}

// daysIn relies on time.Date normalizing day zero of the following month to
// the last day of month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
