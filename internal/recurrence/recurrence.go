// Package recurrence computes the due date of the next occurrence of a
// recurring task. It is pure date arithmetic; materializing the successor
// record is the service's job.
package recurrence

import (
	"fmt"
	"time"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
)

// NextDueDate returns the due date of the occurrence that follows base.
//
//   - daily: base + 1 day. day must be 0.
//   - weekly: the first date strictly after base whose ISO weekday (Mon=1 ..
//     Sun=7) equals day. When base already falls on that weekday, or day is 0,
//     this is base + 7 days.
//   - monthly: day-of-month day (base's own day when 0) in the following
//     month, clamped to that month's last day, so a Jan 31 monthly task lands
//     on Feb 28 in a non-leap year.
func NextDueDate(base models.Date, r models.Recurrence, day int) (models.Date, error) {
	switch r {
	case models.RecurrenceDaily:
		return base.AddDays(1), nil

	case models.RecurrenceWeekly:
		if day == 0 || base.ISOWeekday() == day {
			return base.AddDays(7), nil
		}
		if day < 1 || day > 7 {
			return models.Date{}, fmt.Errorf("invalid weekly recurrence day %d", day)
		}
		delta := (day - base.ISOWeekday() + 7) % 7
		return base.AddDays(delta), nil

	case models.RecurrenceMonthly:
		if day == 0 {
			day = base.Day
		}
		if day < 1 || day > 31 {
			return models.Date{}, fmt.Errorf("invalid monthly recurrence day %d", day)
		}
		next := models.Date{Year: base.Year, Month: base.Month + 1, Day: 1}
		if next.Month > time.December {
			next = models.Date{Year: base.Year + 1, Month: time.January, Day: 1}
		}
		if limit := next.DaysInMonth(); day > limit {
			day = limit
		}
		next.Day = day
		return next, nil

	default:
		return models.Date{}, fmt.Errorf("task has no recurrence pattern")
	}
}
