// Package calendar defines the capability interface the booking engine needs
// from a calendar provider, and a CalDAV-backed implementation of it. The
// engine itself never touches the wire protocol.
package calendar

import (
	"context"
	"time"

	"github.com/timfee/scheduler-sub001/pkg/model"
)

// CreateRequest describes the event to place on the booking calendar. Start
// and End are UTC instants; OwnerTimeZone travels along so the provider can
// render the event in the owner's local time.
type CreateRequest struct {
	Title         string
	Description   string
	Location      string
	Start         time.Time
	End           time.Time
	OwnerTimeZone string
}

// Event is the provider's handle for a created appointment.
type Event struct {
	UID  string
	Path string
	ETag string
}

// Client is the capability interface over the upstream calendar.
type Client interface {
	// ListBusyTimes returns every busy interval intersecting [from, to),
	// in UTC, in no guaranteed order.
	ListBusyTimes(ctx context.Context, from, to time.Time) ([]model.BusyInterval, error)

	// CreateAppointment writes one event to the calendar identified by the
	// integration config.
	CreateAppointment(ctx context.Context, req CreateRequest) (*Event, error)
}
