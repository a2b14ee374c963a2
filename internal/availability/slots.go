// Package availability computes bookable time slots by reconciling the
// business-hours template with busy intervals from the upstream calendar.
package availability

import (
	"fmt"
	"time"

	"github.com/timfee/scheduler-sub001/pkg/model"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// ComputeSlots returns the ordered wall-clock start times ("HH:MM") bookable
// on the given date for an appointment of durationMin minutes.
//
// Business-hour windows are wall-clock values in hours.TimeZone; candidates
// are generated by stepping each window in durationMin increments, dropping
// any candidate whose end would spill past the window. A candidate survives
// iff it overlaps no busy interval under the half-open rule, so a slot ending
// exactly when a busy interval starts stays bookable.
//
// Conversion to instants goes through the timezone database. Never replace
// this with fixed-offset arithmetic: the wall-clock anchoring is what keeps
// slot boundaries correct across DST transitions.
func ComputeSlots(date string, durationMin int, hours model.BusinessHours, busy []model.BusyInterval) ([]string, error) {
	if durationMin <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", durationMin)
	}

	loc, err := time.LoadLocation(hours.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", hours.TimeZone, err)
	}

	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}

	tmpl := hours.ForWeekday(day.Weekday())
	if !tmpl.Enabled || len(tmpl.Slots) == 0 {
		return nil, nil
	}

	duration := time.Duration(durationMin) * time.Minute
	var slots []string

	for _, window := range tmpl.Slots {
		windowStart, err := anchorWallClock(day, window.Start, loc)
		if err != nil {
			return nil, err
		}
		windowEnd, err := anchorWallClock(day, window.End, loc)
		if err != nil {
			return nil, err
		}

		for cur := windowStart; !cur.Add(duration).After(windowEnd); cur = cur.Add(duration) {
			if conflicts(cur, cur.Add(duration), busy) {
				continue
			}
			slots = append(slots, cur.In(loc).Format(timeLayout))
		}
	}

	return slots, nil
}

// Contains reports whether the computed slot list includes the wall-clock
// start time. Used by the booking-time re-check.
func Contains(slots []string, start string) bool {
	for _, s := range slots {
		if s == start {
			return true
		}
	}
	return false
}

// DayRange resolves a calendar date to the [midnight, midnight+24h) instant
// pair in the given timezone, the fetch window for busy intervals. The end
// anchors at the next day's midnight rather than adding 24 hours, so DST
// days keep their true length.
func DayRange(date, timeZone string) (time.Time, time.Time, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("load location %q: %w", timeZone, err)
	}
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return day, day.AddDate(0, 0, 1), nil
}

// anchorWallClock resolves "HH:MM" on the given day to an instant in loc.
func anchorWallClock(day time.Time, hm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(timeLayout, hm)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", hm, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

func conflicts(start, end time.Time, busy []model.BusyInterval) bool {
	for _, b := range busy {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}
