// Package service resolves the booking calendar integration into a usable
// calendar client.
package service

import (
	"context"
	"sync"

	"github.com/timfee/scheduler-sub001/internal/calendar"
	"github.com/timfee/scheduler-sub001/internal/integrations/repository"
	"github.com/timfee/scheduler-sub001/pkg/logger"
	"github.com/timfee/scheduler-sub001/pkg/model"
)

// CalendarProvider builds a CalDAV client for the configured booking
// integration, reusing the client while the integration is unchanged.
type CalendarProvider struct {
	store repository.Store
	log   *logger.Logger

	mu     sync.Mutex
	client calendar.Client
	forID  string
}

func NewCalendarProvider(store repository.Store, log *logger.Logger) *CalendarProvider {
	return &CalendarProvider{store: store, log: log}
}

// BookingClient returns the client for the booking calendar, or (nil, nil,
// nil) when no integration is configured.
func (p *CalendarProvider) BookingClient(ctx context.Context) (calendar.Client, *model.Integration, error) {
	integration, err := p.store.GetBookingIntegration(ctx)
	if err != nil {
		return nil, nil, err
	}
	if integration == nil {
		return nil, nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil || p.forID != integration.ID {
		client, err := calendar.NewCalDAVClient(integration, p.log)
		if err != nil {
			return nil, nil, err
		}
		p.client = client
		p.forID = integration.ID
	}

	return p.client, integration, nil
}
