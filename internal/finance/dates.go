package finance

import "time"

// Calendar-month arithmetic for due dates. Day-of-month values of 29-31 are
// clamped to the last day of shorter months rather than rolling into the
// following month, so a rent due "the 31st" lands on Feb 28 instead of Mar 3.

// lastDayOfMonth returns the number of days in the given month.
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dateClamped builds a UTC date with the day clamped into the month.
func dateClamped(year int, month time.Month, day int) time.Time {
	// Normalize month overflow first (e.g. month 13).
	norm := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	if last := lastDayOfMonth(norm.Year(), norm.Month()); day > last {
		day = last
	}
	return time.Date(norm.Year(), norm.Month(), day, 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped advances t by n calendar months, clamping the day of month
// instead of letting it overflow.
func AddMonthsClamped(t time.Time, n int) time.Time {
	return dateClamped(t.Year(), t.Month()+time.Month(n), t.Day())
}

// NextDueDate computes the earliest due date on or after today whose day of
// month is dueDay: this month's occurrence if it has not passed yet,
// otherwise next month's.
func NextDueDate(dueDay int, today time.Time) time.Time {
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	candidate := dateClamped(today.Year(), today.Month(), dueDay)
	if candidate.Before(midnight) {
		candidate = dateClamped(today.Year(), today.Month()+1, dueDay)
	}
	return candidate
}

// AdvanceDueDate moves a due date forward by exactly one calendar month,
// independent of today. The stored dueDay re-anchors the day so that a clamp
// in a short month does not permanently drift the date (Jan 31 -> Feb 28 ->
// Mar 31, not Mar 28).
func AdvanceDueDate(next time.Time, dueDay int) time.Time {
	if dueDay < 1 || dueDay > 31 {
		dueDay = next.Day()
	}
	return dateClamped(next.Year(), next.Month()+1, dueDay)
}
