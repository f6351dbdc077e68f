package timeutil

import "time"

// MonthBounds returns the first and last day of the month.
func MonthBounds(year, month int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// ISOWeekBounds returns the Monday and Sunday of the ISO 8601 week. January 4
// always falls in week 1 of its year.
func ISOWeekBounds(year, week int) (time.Time, time.Time) {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := jan4.AddDate(0, 0, -(weekday-1)+(week-1)*7)
	return monday, monday.AddDate(0, 0, 6)
}

// SameMonth reports whether the date falls in the given month.
func SameMonth(value time.Time, year, month int) bool {
	return value.Year() == year && int(value.Month()) == month
}

// DateOnly truncates a timestamp to its calendar date.
func DateOnly(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}
