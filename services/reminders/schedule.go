package reminders

import "time"

const (
	// ReminderHour is the local hour, in the reference timezone, reminders go out.
	ReminderHour = 9
	// StaleWindow is how far in the past a newly discovered upcoming reminder may be and
	// still be sent. Older ones are dropped, not caught up.
	StaleWindow = time.Hour
	// OverdueDelay is the lead time for an overdue milestone once today's anchor has passed.
	OverdueDelay = time.Minute
)

// UpcomingFireTime is ReminderHour on the day daysBefore days ahead of due, in loc.
func UpcomingFireTime(due time.Time, daysBefore int, loc *time.Location) time.Time {
	d := due.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day()-daysBefore, ReminderHour, 0, 0, 0, loc)
}

// OverdueFireTime is today's ReminderHour anchor if it is still ahead, otherwise
// OverdueDelay from now.
func OverdueFireTime(now time.Time, loc *time.Location) time.Time {
	n := now.In(loc)
	anchor := time.Date(n.Year(), n.Month(), n.Day(), ReminderHour, 0, 0, 0, loc)
	if anchor.After(now) {
		return anchor
	}
	return now.Add(OverdueDelay)
}

// DaysPastDue counts whole days elapsed since due.
func DaysPastDue(due, now time.Time) int {
	if !now.After(due) {
		return 0
	}
	return int(now.Sub(due) / (24 * time.Hour))
}

// isStale reports whether fireAt is too far in the past to be worth sending.
func isStale(fireAt, now time.Time) bool {
	return fireAt.Before(now.Add(-StaleWindow))
}
