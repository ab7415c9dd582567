package engine

// calendar.go — the simulated market calendar. Valid trading windows are
// weekday 09:30–11:30 and 13:00–15:00 local time; everything else
// (nights, lunch break, weekends) is skipped, never simulated.

import "time"

const (
	morningOpenMin    = 9*60 + 30  // 09:30
	morningCloseMin   = 11*60 + 30 // 11:30
	afternoonOpenMin  = 13 * 60    // 13:00
	afternoonCloseMin = 15 * 60    // 15:00

	// maxCalendarSteps bounds the forward search; 10 days of hourly
	// steps covers any weekend/holiday gap this calendar can produce.
	maxCalendarSteps = 240
)

// InTradingWindow reports whether t falls inside a valid trading window.
func InTradingWindow(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	m := t.Hour()*60 + t.Minute()
	return (m >= morningOpenMin && m < morningCloseMin) ||
		(m >= afternoonOpenMin && m < afternoonCloseMin)
}

// SnapToTradingWindow returns t unchanged when it is already tradable,
// otherwise the opening of the next valid window. A Saturday timestamp
// snaps to Monday 09:30. ok is false if the bounded search gives up.
func SnapToTradingWindow(t time.Time) (time.Time, bool) {
	for i := 0; i < maxCalendarSteps; i++ {
		if InTradingWindow(t) {
			return t, true
		}

		switch t.Weekday() {
		case time.Saturday, time.Sunday:
			t = openAt(t.AddDate(0, 0, 1), morningOpenMin)
			continue
		}

		m := t.Hour()*60 + t.Minute()
		switch {
		case m < morningOpenMin:
			t = openAt(t, morningOpenMin)
		case m < afternoonOpenMin:
			t = openAt(t, afternoonOpenMin)
		default: // past the close — first window of the next day
			t = openAt(t.AddDate(0, 0, 1), morningOpenMin)
		}
	}
	return time.Time{}, false
}

// NextTradingTime advances t by step and snaps the result into the next
// valid trading window.
func NextTradingTime(t time.Time, step time.Duration) (time.Time, bool) {
	return SnapToTradingWindow(t.Add(step))
}

func openAt(day time.Time, minuteOfDay int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(),
		minuteOfDay/60, minuteOfDay%60, 0, 0, day.Location())
}
