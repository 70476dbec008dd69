package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ElmWill/acceloka/internal/cache"
	"github.com/ElmWill/acceloka/internal/domain"
	"github.com/ElmWill/acceloka/internal/events"
	"github.com/ElmWill/acceloka/internal/repository"
	apperrors "github.com/ElmWill/acceloka/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingHandler struct {
	logger   *zap.Logger
	engine   repository.BookingEngine
	eventBus events.EventPublisher
	cache    cache.Cache
}

func NewBookingHandler(logger *zap.Logger, engine repository.BookingEngine, eventBus events.EventPublisher, cacheClient cache.Cache) *BookingHandler {
	return &BookingHandler{
		logger:   logger,
		engine:   engine,
		eventBus: eventBus,
		cache:    cacheClient,
	}
}

// BookTicket handles POST /api/v1/book-ticket
func (h *BookingHandler) BookTicket(c *gin.Context) {
	var req BookTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid book request", zap.Error(err))
		c.Error(apperrors.NewInvalidRequest("invalid request body", err.Error()))
		return
	}

	if len(req.Tickets) == 0 {
		c.Error(apperrors.NewValidationError("at least one ticket is required", "tickets"))
		return
	}

	items := make([]domain.OrderItem, len(req.Tickets))
	for i, t := range req.Tickets {
		if t.Quantity < 1 {
			c.Error(apperrors.NewValidationError("quantity must be at least 1", "tickets["+strconv.Itoa(i)+"].quantity"))
			return
		}
		items[i] = domain.OrderItem{Code: t.TicketCode, Quantity: t.Quantity}
	}

	receipt, err := h.engine.Reserve(c.Request.Context(), items)
	if err != nil {
		c.Error(h.mapEngineError(err, "", "", 0))
		return
	}

	h.invalidateCatalogCache(c.Request.Context())
	h.publishBooked(c.Request.Context(), receipt)

	c.JSON(http.StatusCreated, toBookTicketResponse(receipt))
}

// GetBookedTicket handles GET /api/v1/get-booked-ticket/:bookedTicketId
func (h *BookingHandler) GetBookedTicket(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("bookedTicketId"))
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("invalid booked ticket id", err.Error()))
		return
	}

	view, err := h.engine.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		c.Error(h.mapEngineError(err, bookingID.String(), "", 0))
		return
	}

	c.JSON(http.StatusOK, toGetBookedTicketResponse(view))
}

// EditBookedTicket handles PUT /api/v1/edit-booked-ticket
func (h *BookingHandler) EditBookedTicket(c *gin.Context) {
	var req EditBookedTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid edit request", zap.Error(err))
		c.Error(apperrors.NewInvalidRequest("invalid request body", err.Error()))
		return
	}

	if req.Quantity < 1 {
		c.Error(apperrors.NewValidationError("quantity must be at least 1", "quantity"))
		return
	}

	result, err := h.engine.Adjust(c.Request.Context(), req.BookedTicketID, req.TicketCode, req.Quantity)
	if err != nil {
		c.Error(h.mapEngineError(err, req.BookedTicketID.String(), req.TicketCode, req.Quantity))
		return
	}

	h.invalidateCatalogCache(c.Request.Context())
	h.publish(c.Request.Context(), events.BookingEditedEvent{
		BookingID:   req.BookedTicketID,
		TicketCode:  result.TicketCode,
		NewQuantity: result.Quantity,
		OccurredAt:  time.Now().UTC(),
	})

	c.JSON(http.StatusOK, EditBookedTicketResponse{
		TicketCode:   result.TicketCode,
		TicketName:   result.TicketName,
		CategoryName: result.CategoryName,
		NewQuantity:  result.Quantity,
	})
}

// RevokeTicket handles DELETE /api/v1/revoke-ticket/:bookedTicketId/:ticketCode/:qty
func (h *BookingHandler) RevokeTicket(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("bookedTicketId"))
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("invalid booked ticket id", err.Error()))
		return
	}

	ticketCode := c.Param("ticketCode")

	quantity, err := strconv.Atoi(c.Param("qty"))
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("invalid quantity", err.Error()))
		return
	}
	if quantity < 1 {
		c.Error(apperrors.NewValidationError("quantity must be at least 1", "qty"))
		return
	}

	result, err := h.engine.Release(c.Request.Context(), bookingID, ticketCode, quantity)
	if err != nil {
		c.Error(h.mapEngineError(err, bookingID.String(), ticketCode, quantity))
		return
	}

	h.invalidateCatalogCache(c.Request.Context())
	h.publish(c.Request.Context(), events.BookingRevokedEvent{
		BookingID:    bookingID,
		TicketCode:   ticketCode,
		Quantity:     quantity,
		RemainingQty: result.Quantity,
		LineRemoved:  result.Quantity == 0,
		OccurredAt:   time.Now().UTC(),
	})

	c.JSON(http.StatusOK, RevokeBookedTicketResponse{
		TicketCode:        result.TicketCode,
		TicketName:        result.TicketName,
		CategoryName:      result.CategoryName,
		RemainingQuantity: result.Quantity,
	})
}

// HealthCheck handles GET /health
func (h *BookingHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "booking-api",
	})
}

func (h *BookingHandler) mapEngineError(err error, bookingID, ticketCode string, requested int) *apperrors.StandardError {
	switch {
	case errors.Is(err, domain.ErrTicketNotFound):
		return apperrors.NewTicketNotFound(ticketCode)
	case errors.Is(err, domain.ErrBookingNotFound):
		return apperrors.NewBookingNotFound(bookingID)
	case errors.Is(err, domain.ErrLineNotFound):
		return apperrors.NewTicketNotInBooking(ticketCode, bookingID)
	case errors.Is(err, domain.ErrInsufficientQuota):
		return apperrors.NewInsufficientQuota(ticketCode, requested)
	case errors.Is(err, domain.ErrEventExpired):
		return apperrors.NewEventExpired(ticketCode)
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrExceedsBooked):
		return apperrors.NewValidationError(err.Error(), "")
	default:
		return apperrors.NewDatabaseError("booking", err)
	}
}

// invalidateCatalogCache drops cached listing pages after a mutation.
func (h *BookingHandler) invalidateCatalogCache(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.DeleteByPattern(ctx, catalogCachePrefix+"*"); err != nil {
		h.logger.Warn("Failed to invalidate catalog cache", zap.Error(err))
	}
}

func (h *BookingHandler) publishBooked(ctx context.Context, receipt *domain.BookingReceipt) {
	lines := make([]events.BookedLine, len(receipt.Items))
	for i, item := range receipt.Items {
		lines[i] = events.BookedLine{
			TicketCode: item.TicketCode,
			TicketName: item.TicketName,
			Quantity:   item.Quantity,
		}
	}
	h.publish(ctx, events.TicketBookedEvent{
		BookingID:  receipt.BookingID,
		Lines:      lines,
		TotalPrice: receipt.TotalPrice.StringFixed(2),
		OccurredAt: time.Now().UTC(),
	})
}

// publish sends an event after a committed mutation and never fails the request.
func (h *BookingHandler) publish(ctx context.Context, event interface{}) {
	if h.eventBus == nil {
		return
	}
	if err := h.eventBus.Publish(ctx, event); err != nil {
		h.logger.Warn("Failed to publish event", zap.Error(err))
	}
}
