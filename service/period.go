package service

import (
	"time"
)

// DayStart truncates a timestamp to the start of its UTC day
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayEnd returns the last instant of a timestamp's UTC day
func DayEnd(t time.Time) time.Time {
	return DayStart(t).Add(24*time.Hour - time.Nanosecond)
}

// DaysInclusive counts the whole days between two dates, counting both
// endpoints. Returns 0 when end precedes start.
func DaysInclusive(start, end time.Time) int {
	start, end = DayStart(start), DayStart(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// OverlapDays returns the inclusive day-overlap of two date ranges, plus the
// overlapping interval itself. Zero days means no overlap.
func OverlapDays(aStart, aEnd, bStart, bEnd time.Time) (int, time.Time, time.Time) {
	start := DayStart(aStart)
	if bs := DayStart(bStart); bs.After(start) {
		start = bs
	}
	end := DayStart(aEnd)
	if be := DayStart(bEnd); be.Before(end) {
		end = be
	}
	if end.Before(start) {
		return 0, time.Time{}, time.Time{}
	}
	return DaysInclusive(start, end), start, end
}
