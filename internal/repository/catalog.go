package repository

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ElmWill/acceloka/internal/domain"
)

// catalogPageSize is the fixed page size of the available-ticket listing.
const catalogPageSize = 10

// ListAvailable lists tickets with remaining quota, filtered, ordered and
// paginated. Read-only; runs outside the reservation transaction boundary.
func (s *Store) ListAvailable(ctx context.Context, filter TicketFilter) (*PagedTickets, error) {
	where := []string{"t.quota > 0"}
	args := []interface{}{}

	if filter.CategoryName != "" {
		where = append(where, "c.name LIKE ?")
		args = append(args, "%"+filter.CategoryName+"%")
	}
	if filter.TicketCode != "" {
		where = append(where, "t.code LIKE ?")
		args = append(args, "%"+filter.TicketCode+"%")
	}
	if filter.TicketName != "" {
		where = append(where, "t.name LIKE ?")
		args = append(args, "%"+filter.TicketName+"%")
	}
	if filter.MaxPrice != nil {
		// Prices are integer cents; flooring the bound keeps the
		// comparison exact for sub-cent query values.
		where = append(where, "t.price <= ?")
		args = append(args, filter.MaxPrice.Shift(2).IntPart())
	}
	if filter.MinEventDate != nil {
		where = append(where, "t.event_date >= ?")
		args = append(args, filter.MinEventDate.Format(domain.EventDateLayout))
	}
	if filter.MaxEventDate != nil {
		where = append(where, "t.event_date <= ?")
		args = append(args, filter.MaxEventDate.Format(domain.EventDateLayout))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM tickets t
		JOIN categories c ON c.id = t.category_id
		WHERE %s`, whereClause)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}

	orderBy, orderState := normalizeOrdering(filter.OrderBy, filter.OrderState)

	orderColumn := map[string]string{
		"code":         "t.code",
		"ticketname":   "t.name",
		"categoryname": "c.name",
		"price":        "t.price",
		"eventdate":    "t.event_date",
	}[orderBy]

	direction := "ASC"
	if orderState == "desc" {
		direction = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * catalogPageSize

	query := fmt.Sprintf(`
		SELECT t.id, t.category_id, t.code, t.name, t.event_date, t.price, t.quota, c.name
		FROM tickets t
		JOIN categories c ON c.id = t.category_id
		WHERE %s
		ORDER BY %s %s
		LIMIT ? OFFSET ?`, whereClause, orderColumn, direction)

	rows, err := s.db.QueryContext(ctx, query, append(args, catalogPageSize, offset)...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}

	return &PagedTickets{
		Tickets:      tickets,
		TotalTickets: total,
		CurrentPage:  page,
		TotalPages:   int(math.Ceil(float64(total) / float64(catalogPageSize))),
		OrderedBy:    orderBy,
		OrderState:   orderState,
	}, nil
}

// normalizeOrdering folds unknown sort keys and directions to the defaults.
func normalizeOrdering(orderBy, orderState string) (string, string) {
	orderBy = strings.ToLower(orderBy)
	switch orderBy {
	case "ticketname", "categoryname", "price", "eventdate", "code":
	default:
		orderBy = "code"
	}

	orderState = strings.ToLower(orderState)
	if orderState != "desc" {
		orderState = "asc"
	}
	return orderBy, orderState
}
