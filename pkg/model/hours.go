package model

import (
	"strings"
	"time"
)

// HourRange is one bookable window within a day, wall-clock "HH:MM" values.
// Start must sort before End; ranges within a day are not checked for overlap
// (left to the editor, matching the admin UI contract).
type HourRange struct {
	Start string `json:"start" bson:"start" validate:"required,datetime=15:04"`
	End   string `json:"end" bson:"end" validate:"required,datetime=15:04"`
}

// DayTemplate is the per-weekday entry of the business-hours blob.
type DayTemplate struct {
	Enabled bool        `json:"enabled" bson:"enabled"`
	Slots   []HourRange `json:"slots" bson:"slots" validate:"omitempty,dive"`
}

// BusinessHours maps lowercase weekday names to their template. Persisted as
// a single document and read once per availability computation.
type BusinessHours struct {
	TimeZone string                 `json:"time_zone" bson:"time_zone" validate:"required,timezone"`
	Days     map[string]DayTemplate `json:"days" bson:"days" validate:"required,dive"`
}

// WeekdayKeys are the seven fixed keys of the Days map.
var WeekdayKeys = []string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

// ForWeekday returns the template for a time.Weekday, treating a missing
// entry as a disabled day.
func (h BusinessHours) ForWeekday(d time.Weekday) DayTemplate {
	return h.Days[strings.ToLower(d.String())]
}

// BusyInterval is one opaque busy block from the upstream calendar, always
// expressed in UTC. Ephemeral; never persisted beyond the cache TTL.
type BusyInterval struct {
	Start time.Time `json:"start_utc"`
	End   time.Time `json:"end_utc"`
}

// Overlaps reports strict half-open interval overlap: an interval ending
// exactly when another starts does not conflict, so back-to-back bookings
// are allowed.
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && b.End.After(start)
}
