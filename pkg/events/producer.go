// Package events publishes booking lifecycle messages to Kafka. Publishing
// is best-effort: a broker failure is logged and never fails the booking.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/timfee/scheduler-sub001/pkg/logger"
	"github.com/timfee/scheduler-sub001/pkg/model"
)

const EventBookingCreated = "booking.created"

type BookingEvent struct {
	Type      string    `json:"type"`
	SlotKey   string    `json:"slot_key"`
	Reference string    `json:"reference"`
	TypeID    string    `json:"appointment_type"`
	StartUTC  time.Time `json:"start_utc"`
	EndUTC    time.Time `json:"end_utc"`
	EmittedAt time.Time `json:"emitted_at"`
}

type Publisher struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewPublisher returns nil when no brokers are configured; all Publisher
// methods are safe on a nil receiver.
func NewPublisher(brokers []string, topic string, log *logger.Logger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // key by slot for per-slot ordering
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}

	log.Info("Booking event publisher enabled", "topic", topic, "brokers", len(brokers))
	return &Publisher{writer: writer, log: log}
}

// BookingCreated emits a booking.created message keyed by slot, detached
// from the request context so a slow broker cannot delay the response.
func (p *Publisher) BookingCreated(ctx context.Context, slotKey string, booking *model.Booking) {
	if p == nil {
		return
	}

	event := BookingEvent{
		Type:      EventBookingCreated,
		SlotKey:   slotKey,
		Reference: booking.Reference,
		TypeID:    booking.TypeID,
		StartUTC:  booking.StartUTC,
		EndUTC:    booking.EndUTC,
		EmittedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal booking event", "reference", booking.Reference, "error", err)
		return
	}

	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := p.writer.WriteMessages(writeCtx, kafka.Message{
			Key:   []byte(slotKey),
			Value: payload,
		})
		if err != nil {
			p.log.Error("Failed to publish booking event", "reference", booking.Reference, "error", err)
		}
	}()
}

// Stop flushes and closes the underlying writer.
func (p *Publisher) Stop() {
	if p == nil {
		return
	}
	if err := p.writer.Close(); err != nil {
		p.log.Error("Failed to close event publisher", "error", err)
	}
}
