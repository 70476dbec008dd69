package handlers

import (
	"github.com/ElmWill/acceloka/internal/domain"
	"github.com/ElmWill/acceloka/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices render as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// BookTicketRequest is the body of POST /api/v1/book-ticket
type BookTicketRequest struct {
	Tickets []BookTicketItem `json:"tickets" binding:"required"`
}

type BookTicketItem struct {
	TicketCode string `json:"ticketCode" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
}

// BookTicketResponse echoes the booked lines with price totals
type BookTicketResponse struct {
	BookedTicketID     string               `json:"bookedTicketId"`
	Items              []BookedTicketResult `json:"items"`
	TotalPerCategories []TotalPerCategory   `json:"totalPerCategories"`
	TotalPrice         decimal.Decimal      `json:"totalPrice"`
}

type BookedTicketResult struct {
	TicketCode   string          `json:"ticketCode"`
	TicketName   string          `json:"ticketName"`
	CategoryName string          `json:"categoryName"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
}

type TotalPerCategory struct {
	CategoryName string          `json:"categoryName"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
}

// EditBookedTicketRequest is the body of PUT /api/v1/edit-booked-ticket
type EditBookedTicketRequest struct {
	BookedTicketID uuid.UUID `json:"bookedTicketId" binding:"required"`
	TicketCode     string    `json:"ticketCode" binding:"required"`
	Quantity       int       `json:"quantity" binding:"required"`
}

type EditBookedTicketResponse struct {
	TicketCode   string `json:"ticketCode"`
	TicketName   string `json:"ticketName"`
	CategoryName string `json:"categoryName"`
	NewQuantity  int    `json:"newQuantity"`
}

type RevokeBookedTicketResponse struct {
	TicketCode        string `json:"ticketCode"`
	TicketName        string `json:"ticketName"`
	CategoryName      string `json:"categoryName"`
	RemainingQuantity int    `json:"remainingQuantity"`
}

// GetBookedTicketResponse is the category-grouped projection of one booking
type GetBookedTicketResponse struct {
	BookedTicketID string                  `json:"bookedTicketId"`
	TotalQuantity  int                     `json:"totalQuantity"`
	Categories     []CategoryGroupResponse `json:"categories"`
}

type CategoryGroupResponse struct {
	CategoryName             string                 `json:"categoryName"`
	TotalQuantityPerCategory int                    `json:"totalQuantityPerCategory"`
	Tickets                  []TicketDetailResponse `json:"tickets"`
}

type TicketDetailResponse struct {
	TicketCode string `json:"ticketCode"`
	TicketName string `json:"ticketName"`
	EventDate  string `json:"eventDate"`
	Quantity   int    `json:"quantity"`
}

// TicketDto is one row of the available-ticket listing
type TicketDto struct {
	EventDate    string          `json:"eventDate"`
	Quota        int             `json:"quota"`
	TicketCode   string          `json:"ticketCode"`
	TicketName   string          `json:"ticketName"`
	CategoryName string          `json:"categoryName"`
	Price        decimal.Decimal `json:"price"`
}

// PagedTicketsResponse is the paginated available-ticket listing
type PagedTicketsResponse struct {
	Tickets      []TicketDto `json:"tickets"`
	TotalTickets int         `json:"totalTickets"`
	CurrentPage  int         `json:"currentPage"`
	TotalPages   int         `json:"totalPages"`
	OrderedBy    string      `json:"orderedBy"`
	OrderState   string      `json:"orderState"`
}

func toBookTicketResponse(receipt *domain.BookingReceipt) BookTicketResponse {
	items := make([]BookedTicketResult, len(receipt.Items))
	for i, item := range receipt.Items {
		items[i] = BookedTicketResult{
			TicketCode:   item.TicketCode,
			TicketName:   item.TicketName,
			CategoryName: item.CategoryName,
			Price:        item.Price,
			Quantity:     item.Quantity,
		}
	}

	totals := make([]TotalPerCategory, len(receipt.TotalPerCategories))
	for i, total := range receipt.TotalPerCategories {
		totals[i] = TotalPerCategory{
			CategoryName: total.CategoryName,
			TotalPrice:   total.TotalPrice,
		}
	}

	return BookTicketResponse{
		BookedTicketID:     receipt.BookingID.String(),
		Items:              items,
		TotalPerCategories: totals,
		TotalPrice:         receipt.TotalPrice,
	}
}

func toGetBookedTicketResponse(view *domain.BookingView) GetBookedTicketResponse {
	categories := make([]CategoryGroupResponse, len(view.Categories))
	for i, group := range view.Categories {
		tickets := make([]TicketDetailResponse, len(group.Tickets))
		for j, line := range group.Tickets {
			tickets[j] = TicketDetailResponse{
				TicketCode: line.TicketCode,
				TicketName: line.TicketName,
				EventDate:  line.EventDate.Format(domain.EventDateDisplayLayout),
				Quantity:   line.Quantity,
			}
		}
		categories[i] = CategoryGroupResponse{
			CategoryName:             group.CategoryName,
			TotalQuantityPerCategory: group.TotalQuantityPerCategory,
			Tickets:                  tickets,
		}
	}

	return GetBookedTicketResponse{
		BookedTicketID: view.BookingID.String(),
		TotalQuantity:  view.TotalQuantity,
		Categories:     categories,
	}
}

func toPagedTicketsResponse(paged *repository.PagedTickets) PagedTicketsResponse {
	tickets := make([]TicketDto, len(paged.Tickets))
	for i, t := range paged.Tickets {
		tickets[i] = TicketDto{
			EventDate:    t.EventDate.Format(domain.EventDateDisplayLayout),
			Quota:        t.Quota,
			TicketCode:   t.Code,
			TicketName:   t.Name,
			CategoryName: t.Category.Name,
			Price:        t.Price,
		}
	}

	return PagedTicketsResponse{
		Tickets:      tickets,
		TotalTickets: paged.TotalTickets,
		CurrentPage:  paged.CurrentPage,
		TotalPages:   paged.TotalPages,
		OrderedBy:    paged.OrderedBy,
		OrderState:   paged.OrderState,
	}
}
