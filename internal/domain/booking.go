package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking is a customer's reservation, grouping one or more lines.
// A booking with no active lines must not survive past the end of the
// transaction that emptied it.
type Booking struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Lines     []BookingLine
}

// BookingLine is the quantity of one specific ticket within one booking.
// There is exactly one line per (booking, ticket) pair.
type BookingLine struct {
	ID        uuid.UUID
	BookingID uuid.UUID
	TicketID  uuid.UUID
	Quantity  int

	Ticket Ticket
}

// LineByCode finds the line for the given ticket code, or nil.
func (b *Booking) LineByCode(code string) *BookingLine {
	for i := range b.Lines {
		if b.Lines[i].Ticket.Code == code {
			return &b.Lines[i]
		}
	}
	return nil
}

// HasActiveLines reports whether any line other than the excluded one still
// holds a positive quantity. Used to decide whether an emptied booking
// should be deleted.
func (b *Booking) HasActiveLines(exclude uuid.UUID) bool {
	for i := range b.Lines {
		if b.Lines[i].ID == exclude {
			continue
		}
		if b.Lines[i].Quantity > 0 {
			return true
		}
	}
	return false
}

// TotalQuantity sums the quantities of all lines.
func (b *Booking) TotalQuantity() int {
	total := 0
	for i := range b.Lines {
		total += b.Lines[i].Quantity
	}
	return total
}

// OrderItem is one requested (ticket code, quantity) pair in a Reserve call.
type OrderItem struct {
	Code     string
	Quantity int
}

// MergeOrderItems collapses duplicate ticket codes into a single item,
// preserving first-seen order, so a booking never ends up with two lines
// for the same ticket.
func MergeOrderItems(items []OrderItem) []OrderItem {
	merged := make([]OrderItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if i, ok := index[it.Code]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		index[it.Code] = len(merged)
		merged = append(merged, it)
	}
	return merged
}

// BookedItem is one line of a booking receipt.
type BookedItem struct {
	TicketCode   string
	TicketName   string
	CategoryName string
	Price        decimal.Decimal
	Quantity     int
}

// CategoryTotal is the price total of a receipt's lines within one category.
type CategoryTotal struct {
	CategoryName string
	TotalPrice   decimal.Decimal
}

// BookingReceipt is the result of a successful Reserve call.
type BookingReceipt struct {
	BookingID          uuid.UUID
	Items              []BookedItem
	TotalPerCategories []CategoryTotal
	TotalPrice         decimal.Decimal
}

// SummarizeReceipt computes per-category totals and the grand total for a
// set of booked items. Categories appear in first-seen order.
func SummarizeReceipt(items []BookedItem) ([]CategoryTotal, decimal.Decimal) {
	totals := make([]CategoryTotal, 0)
	index := make(map[string]int)
	grand := decimal.Zero

	for _, it := range items {
		lineTotal := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		grand = grand.Add(lineTotal)

		if i, ok := index[it.CategoryName]; ok {
			totals[i].TotalPrice = totals[i].TotalPrice.Add(lineTotal)
			continue
		}
		index[it.CategoryName] = len(totals)
		totals = append(totals, CategoryTotal{CategoryName: it.CategoryName, TotalPrice: lineTotal})
	}
	return totals, grand
}

// LineResult is the result of an Adjust or Release call: the affected line
// after the mutation. Quantity is 0 when the line was deleted.
type LineResult struct {
	TicketCode   string
	TicketName   string
	CategoryName string
	Quantity     int
}

// BookedLineView is one line of a booking projection.
type BookedLineView struct {
	TicketCode string
	TicketName string
	EventDate  time.Time
	Quantity   int
}

// CategoryGroup groups a booking's lines by category with a quantity total.
type CategoryGroup struct {
	CategoryName             string
	TotalQuantityPerCategory int
	Tickets                  []BookedLineView
}

// BookingView is the read-only projection returned by GetBooking.
type BookingView struct {
	BookingID     uuid.UUID
	Categories    []CategoryGroup
	TotalQuantity int
}

// GroupByCategory builds the category-grouped projection of a booking.
func (b *Booking) GroupByCategory() []CategoryGroup {
	groups := make([]CategoryGroup, 0)
	index := make(map[string]int)

	for i := range b.Lines {
		line := &b.Lines[i]
		name := line.Ticket.Category.Name
		view := BookedLineView{
			TicketCode: line.Ticket.Code,
			TicketName: line.Ticket.Name,
			EventDate:  line.Ticket.EventDate,
			Quantity:   line.Quantity,
		}

		if gi, ok := index[name]; ok {
			groups[gi].Tickets = append(groups[gi].Tickets, view)
			groups[gi].TotalQuantityPerCategory += line.Quantity
			continue
		}
		index[name] = len(groups)
		groups = append(groups, CategoryGroup{
			CategoryName:             name,
			TotalQuantityPerCategory: line.Quantity,
			Tickets:                  []BookedLineView{view},
		})
	}
	return groups
}
