package model

import "time"

// AppointmentType is an admin-owned service offering. Only active types are
// bookable; duration is bounded so slot stepping always terminates.
type AppointmentType struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name            string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	DurationMinutes int       `json:"duration_minutes" bson:"duration_minutes" validate:"required,min=1,max=480"`
	Active          bool      `json:"active" bson:"active"`
	CreatedAt       time.Time `json:"created_at,omitempty" bson:"created_at"`
}
