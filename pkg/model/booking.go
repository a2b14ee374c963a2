package model

import "time"

// BookingRequest is the form a visitor submits to book a slot. Date and Time
// are wall-clock values in the business-hours timezone.
type BookingRequest struct {
	TypeID string `json:"type" validate:"required"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Time   string `json:"time" validate:"required,datetime=15:04"`
	Name   string `json:"name" validate:"required,min=1,max=100"`
	Email  string `json:"email" validate:"required,email,max=254"`
}

// SlotKey identifies the target slot for locking purposes. A single booking
// calendar means date+time is sufficient.
func (r BookingRequest) SlotKey() string {
	return r.Date + ":" + r.Time
}

// Booking is the confirmed result returned to the caller.
type Booking struct {
	Reference string    `json:"reference"`
	TypeID    string    `json:"type"`
	StartUTC  time.Time `json:"start_utc"`
	EndUTC    time.Time `json:"end_utc"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
