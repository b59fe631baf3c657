package service

import (
	"time"
)

// DayWindow returns the half-open interval [start, end) covering the calendar
// day of date in the given location
func DayWindow(date time.Time, loc *time.Location) (time.Time, time.Time) {
	d := date.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
