// Package civil provides shop-calendar day arithmetic. The shop runs on a
// fixed UTC+7 calendar with no daylight saving, so "today" is always a plain
// offset conversion regardless of the server's locale.
package civil

import "time"

// Zone is the shop's fixed civil time zone.
var Zone = time.FixedZone("UTC+7", 7*60*60)

// StartOfDay returns midnight of t's civil day in the shop zone.
func StartOfDay(t time.Time) time.Time {
	local := t.In(Zone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Zone)
}

// EndOfDay returns midnight of the civil day after t's.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}

// SameDay reports whether a and b fall on the same civil day.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// OnDay reports whether t falls on the civil day containing day.
func OnDay(t, day time.Time) bool {
	start := StartOfDay(day)
	return !t.Before(start) && t.Before(start.AddDate(0, 0, 1))
}
