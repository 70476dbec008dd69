package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventDateLayout is the naive local date-time format used for event dates.
// Event dates carry no timezone; they are interpreted in the venue's local time.
const EventDateLayout = "2006-01-02T15:04:05"

// EventDateDisplayLayout is the format event dates are rendered with in responses.
const EventDateDisplayLayout = "02-01-2006 15:04"

// Category groups tickets. Read-only from the booking engine's perspective.
type Category struct {
	ID   uuid.UUID
	Name string
}

// Ticket is a sellable inventory item with a mutable remaining quota.
// Quota only changes inside a Reserve/Adjust/Release transaction.
type Ticket struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
	Code       string
	Name       string
	EventDate  time.Time
	Price      decimal.Decimal
	Quota      int

	Category Category
}

// EventPassed reports whether the ticket's event has already occurred
// relative to the given booking time.
func (t *Ticket) EventPassed(at time.Time) bool {
	return !t.EventDate.After(at)
}
