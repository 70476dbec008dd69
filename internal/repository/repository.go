package repository

import (
	"context"
	"time"

	"github.com/ElmWill/acceloka/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingEngine is the reservation engine: every call runs inside a single
// database transaction and either commits fully or leaves no trace.
type BookingEngine interface {
	// Reserve creates one new booking covering every requested item,
	// decrementing each ticket's quota atomically.
	Reserve(ctx context.Context, items []domain.OrderItem) (*domain.BookingReceipt, error)

	// Adjust changes the quantity of one existing line to newQuantity,
	// pulling additional quota from or returning surplus quota to the ticket.
	Adjust(ctx context.Context, bookingID uuid.UUID, code string, newQuantity int) (*domain.LineResult, error)

	// Release returns quantity units of one line to the ticket's quota,
	// deleting the line when it empties and the booking when no active
	// lines remain.
	Release(ctx context.Context, bookingID uuid.UUID, code string, quantity int) (*domain.LineResult, error)

	// GetBooking returns the category-grouped projection of a booking.
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*domain.BookingView, error)
}

// TicketFilter narrows and orders the available-ticket listing.
type TicketFilter struct {
	CategoryName string
	TicketCode   string
	TicketName   string
	MaxPrice     *decimal.Decimal
	MinEventDate *time.Time
	MaxEventDate *time.Time
	OrderBy      string // code (default), ticketname, categoryname, price, eventdate
	OrderState   string // asc (default), desc
	Page         int    // 1-indexed
}

// PagedTickets is one page of the available-ticket listing.
type PagedTickets struct {
	Tickets      []domain.Ticket
	TotalTickets int
	CurrentPage  int
	TotalPages   int
	OrderedBy    string
	OrderState   string
}

// CatalogRepository is the read-only catalog view. It never observes
// uncommitted reservation state.
type CatalogRepository interface {
	ListAvailable(ctx context.Context, filter TicketFilter) (*PagedTickets, error)
}
