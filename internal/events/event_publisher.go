package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, event interface{}) error
}

// BookedLine describes one ticket line inside a booking event payload.
type BookedLine struct {
	TicketCode string `json:"ticketCode"`
	TicketName string `json:"ticketName"`
	Quantity   int    `json:"quantity"`
}

// Booking domain events
type TicketBookedEvent struct {
	BookingID  uuid.UUID    `json:"bookingId"`
	Lines      []BookedLine `json:"lines"`
	TotalPrice string       `json:"totalPrice"`
	OccurredAt time.Time    `json:"occurredAt"`
}

type BookingEditedEvent struct {
	BookingID   uuid.UUID `json:"bookingId"`
	TicketCode  string    `json:"ticketCode"`
	NewQuantity int       `json:"newQuantity"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type BookingRevokedEvent struct {
	BookingID    uuid.UUID `json:"bookingId"`
	TicketCode   string    `json:"ticketCode"`
	Quantity     int       `json:"quantity"`
	RemainingQty int       `json:"remainingQuantity"`
	LineRemoved  bool      `json:"lineRemoved"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// InMemoryEventPublisher records events locally when no broker is reachable.
// It is shared across handler goroutines, so the slice is mutex-guarded.
type InMemoryEventPublisher struct {
	logger *zap.Logger
	mu     sync.Mutex
	events []interface{}
}

func NewEventPublisher(logger *zap.Logger) *InMemoryEventPublisher {
	return &InMemoryEventPublisher{
		logger: logger,
		events: make([]interface{}, 0),
	}
}

func (p *InMemoryEventPublisher) Publish(ctx context.Context, event interface{}) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()

	p.logger.Info("Event published (in-memory)", zap.Any("event", event))
	return nil
}

// Events returns a copy of everything published so far.
func (p *InMemoryEventPublisher) Events() []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]interface{}, len(p.events))
	copy(out, p.events)
	return out
}
