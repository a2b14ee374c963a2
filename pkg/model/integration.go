package model

import "time"

// IntegrationConfig holds the connection details for one CalDAV calendar.
// Credential encryption at rest happens in the store layer, outside this
// engine's scope.
type IntegrationConfig struct {
	ServerURL   string `json:"server_url" bson:"server_url"`
	CalendarURL string `json:"calendar_url" bson:"calendar_url"`
	Username    string `json:"username" bson:"username"`
	Password    string `json:"-" bson:"password"`
}

// Integration is one connected calendar account. At most one integration is
// flagged as the booking target; busy reads use the first match.
type Integration struct {
	ID        string            `json:"id,omitempty" bson:"_id,omitempty"`
	Provider  string            `json:"provider" bson:"provider"`
	Booking   bool              `json:"booking" bson:"booking"`
	Config    IntegrationConfig `json:"config" bson:"config"`
	CreatedAt time.Time         `json:"created_at,omitempty" bson:"created_at"`
}
