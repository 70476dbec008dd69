package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ElmWill/acceloka/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reserve creates one booking covering every requested item inside a single
// transaction. The quota check and decrement are one conditional UPDATE, so
// two concurrent reservations for the last units cannot both succeed.
func (s *Store) Reserve(ctx context.Context, items []domain.OrderItem) (*domain.BookingReceipt, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
	}
	items = domain.MergeOrderItems(items)

	bookingID := uuid.New()
	bookingDate := time.Now()

	s.logger.Info("Booking started",
		zap.String("booking_id", bookingID.String()),
		zap.Int("tickets_count", len(items)),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (id, created_at) VALUES (?, ?)`,
		bookingID.String(), bookingDate.Format(domain.EventDateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	receiptItems := make([]domain.BookedItem, 0, len(items))

	for _, item := range items {
		result, err := tx.ExecContext(ctx, `
			UPDATE tickets
			SET quota = quota - ?
			WHERE code = ? AND quota >= ?`,
			item.Quantity, item.Code, item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("decrement quota: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("decrement quota rows: %w", err)
		}
		if rows == 0 {
			// Zero rows means the ticket is missing or short on quota;
			// an existence lookup tells the two apart.
			var exists int
			err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM tickets WHERE code = ?`, item.Code).Scan(&exists)
			if err != nil {
				return nil, fmt.Errorf("check ticket existence: %w", err)
			}
			if exists == 0 {
				s.logger.Warn("Ticket not found",
					zap.String("ticket_code", item.Code),
					zap.String("booking_id", bookingID.String()),
				)
				return nil, domain.ErrTicketNotFound
			}
			s.logger.Warn("Not enough quota",
				zap.String("ticket_code", item.Code),
				zap.Int("quantity", item.Quantity),
				zap.String("booking_id", bookingID.String()),
			)
			return nil, domain.ErrInsufficientQuota
		}

		// Re-read the row: the raw UPDATE bypassed any in-memory copy.
		ticket, err := s.findTicketByCodeTx(ctx, tx, item.Code)
		if err != nil {
			return nil, err
		}

		if ticket.EventPassed(bookingDate) {
			s.logger.Warn("Event date passed",
				zap.String("ticket_code", item.Code),
				zap.Time("event_date", ticket.EventDate),
			)
			return nil, domain.ErrEventExpired
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO booking_lines (id, booking_id, ticket_id, quantity)
			VALUES (?, ?, ?, ?)`,
			uuid.New().String(), bookingID.String(), ticket.ID.String(), item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("insert booking line: %w", err)
		}

		receiptItems = append(receiptItems, domain.BookedItem{
			TicketCode:   ticket.Code,
			TicketName:   ticket.Name,
			CategoryName: ticket.Category.Name,
			Price:        ticket.Price,
			Quantity:     item.Quantity,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit booking: %w", err)
	}

	totals, grand := domain.SummarizeReceipt(receiptItems)

	s.logger.Info("Booking completed",
		zap.String("booking_id", bookingID.String()),
		zap.Int("total_items", len(receiptItems)),
	)

	return &domain.BookingReceipt{
		BookingID:          bookingID,
		Items:              receiptItems,
		TotalPerCategories: totals,
		TotalPrice:         grand,
	}, nil
}

// Adjust sets one line's quantity, pulling the difference from or returning
// it to the ticket's quota. Setting the current quantity is a no-op.
func (s *Store) Adjust(ctx context.Context, bookingID uuid.UUID, code string, newQuantity int) (*domain.LineResult, error) {
	if newQuantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	s.logger.Info("Adjust started",
		zap.String("booking_id", bookingID.String()),
		zap.String("ticket_code", code),
		zap.Int("new_quantity", newQuantity),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	booking, err := s.loadBookingTx(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}

	line := booking.LineByCode(code)
	if line == nil {
		return nil, domain.ErrLineNotFound
	}

	if line.Quantity == newQuantity {
		// Nothing to change; commit the empty transaction and echo state.
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit adjust: %w", err)
		}
		return &domain.LineResult{
			TicketCode:   line.Ticket.Code,
			TicketName:   line.Ticket.Name,
			CategoryName: line.Ticket.Category.Name,
			Quantity:     newQuantity,
		}, nil
	}

	diff := newQuantity - line.Quantity

	if diff > 0 {
		result, err := tx.ExecContext(ctx, `
			UPDATE tickets
			SET quota = quota - ?
			WHERE id = ? AND quota >= ?`,
			diff, line.TicketID.String(), diff,
		)
		if err != nil {
			return nil, fmt.Errorf("decrement quota: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("decrement quota rows: %w", err)
		}
		if rows == 0 {
			s.logger.Warn("Not enough quota",
				zap.String("ticket_code", code),
				zap.Int("requested_diff", diff),
			)
			return nil, domain.ErrInsufficientQuota
		}
	} else {
		_, err := tx.ExecContext(ctx, `
			UPDATE tickets
			SET quota = quota + ?
			WHERE id = ?`,
			-diff, line.TicketID.String(),
		)
		if err != nil {
			return nil, fmt.Errorf("increment quota: %w", err)
		}
	}

	quota, err := s.readQuotaTx(ctx, tx, line.TicketID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE booking_lines SET quantity = ? WHERE id = ?`,
		newQuantity, line.ID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("update booking line: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit adjust: %w", err)
	}

	s.logger.Info("Adjust succeeded",
		zap.String("ticket_code", code),
		zap.Int("new_quantity", newQuantity),
		zap.Int("remaining_quota", quota),
	)

	return &domain.LineResult{
		TicketCode:   line.Ticket.Code,
		TicketName:   line.Ticket.Name,
		CategoryName: line.Ticket.Category.Name,
		Quantity:     newQuantity,
	}, nil
}

// Release returns quantity units of one line to the ticket's quota.
// The line is deleted when it reaches zero, and the booking is deleted when
// no line with a positive quantity remains - an explicit check, not an FK
// cascade, so the rule holds in any storage engine.
func (s *Store) Release(ctx context.Context, bookingID uuid.UUID, code string, quantity int) (*domain.LineResult, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	s.logger.Info("Release started",
		zap.String("booking_id", bookingID.String()),
		zap.String("ticket_code", code),
		zap.Int("quantity", quantity),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	booking, err := s.loadBookingTx(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}

	line := booking.LineByCode(code)
	if line == nil {
		return nil, domain.ErrLineNotFound
	}

	if quantity > line.Quantity {
		return nil, domain.ErrExceedsBooked
	}

	// Returning inventory is never blocked.
	_, err = tx.ExecContext(ctx, `
		UPDATE tickets
		SET quota = quota + ?
		WHERE id = ?`,
		quantity, line.TicketID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("increment quota: %w", err)
	}

	quota, err := s.readQuotaTx(ctx, tx, line.TicketID)
	if err != nil {
		return nil, err
	}

	remaining := line.Quantity - quantity

	if remaining == 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM booking_lines WHERE id = ?`, line.ID.String())
		if err != nil {
			return nil, fmt.Errorf("delete booking line: %w", err)
		}
		s.logger.Info("Booking line removed",
			zap.String("ticket_code", code),
			zap.String("booking_id", bookingID.String()),
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE booking_lines SET quantity = ? WHERE id = ?`,
			remaining, line.ID.String())
		if err != nil {
			return nil, fmt.Errorf("update booking line: %w", err)
		}
	}

	if remaining == 0 && !booking.HasActiveLines(line.ID) {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM bookings WHERE id = ?`, bookingID.String())
		if err != nil {
			return nil, fmt.Errorf("delete booking: %w", err)
		}
		s.logger.Info("Booking removed, no remaining lines",
			zap.String("booking_id", bookingID.String()),
		)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit release: %w", err)
	}

	s.logger.Info("Release succeeded",
		zap.String("ticket_code", code),
		zap.Int("remaining_quantity", remaining),
		zap.Int("remaining_quota", quota),
	)

	return &domain.LineResult{
		TicketCode:   line.Ticket.Code,
		TicketName:   line.Ticket.Name,
		CategoryName: line.Ticket.Category.Name,
		Quantity:     remaining,
	}, nil
}

// GetBooking returns the category-grouped projection of one booking.
func (s *Store) GetBooking(ctx context.Context, bookingID uuid.UUID) (*domain.BookingView, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	booking, err := s.loadBookingTx(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}

	view := &domain.BookingView{
		BookingID:     booking.ID,
		Categories:    booking.GroupByCategory(),
		TotalQuantity: booking.TotalQuantity(),
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit read: %w", err)
	}
	return view, nil
}

// findTicketByCodeTx loads a ticket with its category inside a transaction.
func (s *Store) findTicketByCodeTx(ctx context.Context, tx *sql.Tx, code string) (*domain.Ticket, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT t.id, t.category_id, t.code, t.name, t.event_date, t.price, t.quota, c.name
		FROM tickets t
		JOIN categories c ON c.id = t.category_id
		WHERE t.code = ?`, code)

	ticket, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query ticket: %w", err)
	}
	return ticket, nil
}

// readQuotaTx re-reads a ticket's quota after a raw UPDATE mutated it.
func (s *Store) readQuotaTx(ctx context.Context, tx *sql.Tx, ticketID uuid.UUID) (int, error) {
	var quota int
	err := tx.QueryRowContext(ctx,
		`SELECT quota FROM tickets WHERE id = ?`, ticketID.String()).Scan(&quota)
	if err != nil {
		return 0, fmt.Errorf("read quota: %w", err)
	}
	return quota, nil
}

// loadBookingTx eagerly loads a booking with its lines, tickets and
// categories.
func (s *Store) loadBookingTx(ctx context.Context, tx *sql.Tx, bookingID uuid.UUID) (*domain.Booking, error) {
	var createdAtStr string
	err := tx.QueryRowContext(ctx,
		`SELECT created_at FROM bookings WHERE id = ?`, bookingID.String()).Scan(&createdAtStr)
	if err == sql.ErrNoRows {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query booking: %w", err)
	}

	booking := &domain.Booking{ID: bookingID}
	createdAt, err := time.ParseInLocation(domain.EventDateLayout, createdAtStr, time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse booking created_at %q: %w", createdAtStr, err)
	}
	booking.CreatedAt = createdAt

	rows, err := tx.QueryContext(ctx, `
		SELECT l.id, l.ticket_id, l.quantity,
		       t.id, t.category_id, t.code, t.name, t.event_date, t.price, t.quota, c.name
		FROM booking_lines l
		JOIN tickets t ON t.id = l.ticket_id
		JOIN categories c ON c.id = t.category_id
		WHERE l.booking_id = ?
		ORDER BY l.rowid`, bookingID.String())
	if err != nil {
		return nil, fmt.Errorf("query booking lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			lineIDStr, ticketIDStr        string
			quantity                      int
			tIDStr, tCatIDStr, code, name string
			eventDateStr                  string
			priceCents                    int64
			quota                         int
			categoryName                  string
		)
		err := rows.Scan(&lineIDStr, &ticketIDStr, &quantity,
			&tIDStr, &tCatIDStr, &code, &name, &eventDateStr, &priceCents, &quota, &categoryName)
		if err != nil {
			return nil, fmt.Errorf("scan booking line: %w", err)
		}

		ticket, err := buildTicket(tIDStr, tCatIDStr, code, name, eventDateStr, priceCents, quota, categoryName)
		if err != nil {
			return nil, err
		}

		lineID, err := uuid.Parse(lineIDStr)
		if err != nil {
			return nil, fmt.Errorf("parse booking line id %q: %w", lineIDStr, err)
		}
		ticketID, err := uuid.Parse(ticketIDStr)
		if err != nil {
			return nil, fmt.Errorf("parse line ticket id %q: %w", ticketIDStr, err)
		}

		booking.Lines = append(booking.Lines, domain.BookingLine{
			ID:        lineID,
			BookingID: bookingID,
			TicketID:  ticketID,
			Quantity:  quantity,
			Ticket:    *ticket,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking lines: %w", err)
	}

	return booking, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		idStr, catIDStr, code, name string
		eventDateStr                string
		priceCents                  int64
		quota                       int
		categoryName                string
	)
	err := row.Scan(&idStr, &catIDStr, &code, &name, &eventDateStr, &priceCents, &quota, &categoryName)
	if err != nil {
		return nil, err
	}
	return buildTicket(idStr, catIDStr, code, name, eventDateStr, priceCents, quota, categoryName)
}

func buildTicket(idStr, catIDStr, code, name, eventDateStr string, priceCents int64, quota int, categoryName string) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		Code:  code,
		Name:  name,
		Quota: quota,
		Price: decimal.New(priceCents, -2),
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse ticket id %q: %w", idStr, err)
	}
	ticket.ID = id

	catID, err := uuid.Parse(catIDStr)
	if err != nil {
		return nil, fmt.Errorf("parse category id %q: %w", catIDStr, err)
	}
	ticket.CategoryID = catID
	ticket.Category.ID = catID
	ticket.Category.Name = categoryName

	eventDate, err := time.ParseInLocation(domain.EventDateLayout, eventDateStr, time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse event date %q: %w", eventDateStr, err)
	}
	ticket.EventDate = eventDate

	return ticket, nil
}
