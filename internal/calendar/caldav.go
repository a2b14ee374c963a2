package calendar

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"

	"github.com/timfee/scheduler-sub001/pkg/logger"
	"github.com/timfee/scheduler-sub001/pkg/model"
)

const productID = "-//scheduler//bookingd//EN"

// CalDAVClient implements Client against any RFC 4791 server (iCloud,
// Fastmail, Nextcloud, generic). Authentication is HTTP basic; provider
// specifics live entirely in the integration config.
type CalDAVClient struct {
	client      *caldav.Client
	calendarURL string
	log         *logger.Logger
}

func NewCalDAVClient(integration *model.Integration, log *logger.Logger) (*CalDAVClient, error) {
	cfg := integration.Config
	httpClient := webdav.HTTPClientWithBasicAuth(http.DefaultClient, cfg.Username, cfg.Password)

	client, err := caldav.NewClient(httpClient, cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("caldav client for %s: %w", cfg.ServerURL, err)
	}

	return &CalDAVClient{
		client:      client,
		calendarURL: cfg.CalendarURL,
		log:         log,
	}, nil
}

func (c *CalDAVClient) ListBusyTimes(ctx context.Context, from, to time.Time) ([]model.BusyInterval, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{Name: ical.CompEvent, AllProps: true}},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: from.UTC(),
				End:   to.UTC(),
			}},
		},
	}

	objects, err := c.client.QueryCalendar(ctx, c.calendarURL, query)
	if err != nil {
		return nil, fmt.Errorf("calendar query %s: %w", c.calendarURL, err)
	}

	var busy []model.BusyInterval
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, event := range obj.Data.Events() {
			start, err := event.DateTimeStart(time.UTC)
			if err != nil {
				c.log.Warn("Skipping event without parsable start", "path", obj.Path, "error", err)
				continue
			}
			end, err := event.DateTimeEnd(time.UTC)
			if err != nil || !end.After(start) {
				continue
			}
			busy = append(busy, model.BusyInterval{
				Start: start.UTC(),
				End:   end.UTC(),
			})
		}
	}

	return busy, nil
}

func (c *CalDAVClient) CreateAppointment(ctx context.Context, req CreateRequest) (*Event, error) {
	uid := uuid.NewString()

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uid)
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, req.Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, req.End.UTC())
	event.Props.SetText(ical.PropSummary, req.Title)
	if req.Description != "" {
		event.Props.SetText(ical.PropDescription, req.Description)
	}
	if req.Location != "" {
		event.Props.SetText(ical.PropLocation, req.Location)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Children = append(cal.Children, event.Component)

	path := objectPath(c.calendarURL, uid)
	obj, err := c.client.PutCalendarObject(ctx, path, cal)
	if err != nil {
		return nil, fmt.Errorf("put calendar object %s: %w", path, err)
	}

	created := &Event{UID: uid, Path: path}
	if obj != nil {
		created.ETag = obj.ETag
	}
	return created, nil
}

// objectPath joins the calendar collection URL and the object name, tolerant
// of a configured URL with or without a trailing slash.
func objectPath(calendarURL, uid string) string {
	return strings.TrimSuffix(calendarURL, "/") + "/" + uid + ".ics"
}
