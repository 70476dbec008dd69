package errors

import (
	"fmt"
	"net/http"
)

// StandardError represents a standardized error response
type StandardError struct {
	Code    string `json:"error"`   // Error code/type (e.g., "InvalidRequest", "TicketNotFound")
	Message string `json:"message"` // Human-readable error message
	Details string `json:"details"` // Additional details (field name, quantities, etc.)
}

// Error implements the error interface
func (e *StandardError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case "InvalidRequest", "ValidationError":
		return http.StatusBadRequest
	case "TicketNotFound", "BookingNotFound", "TicketNotInBooking":
		return http.StatusNotFound
	case "InsufficientQuota", "EventExpired":
		return http.StatusBadRequest
	case "BrokerConnectionError", "ServiceUnavailable":
		return http.StatusServiceUnavailable
	case "SerializationError", "DatabaseError", "InternalError":
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewStandardError creates a new StandardError
func NewStandardError(errorCode, message, details string) *StandardError {
	return &StandardError{
		Code:    errorCode,
		Message: message,
		Details: details,
	}
}

// Common error constructors
func NewInvalidRequest(message, details string) *StandardError {
	return NewStandardError("InvalidRequest", message, details)
}

func NewValidationError(message, field string) *StandardError {
	return NewStandardError("ValidationError", message, fmt.Sprintf("Field: %s", field))
}

func NewTicketNotFound(code string) *StandardError {
	return NewStandardError("TicketNotFound", "ticket not found", fmt.Sprintf("Ticket code: %s", code))
}

func NewBookingNotFound(bookingID string) *StandardError {
	return NewStandardError("BookingNotFound", "booking not found", fmt.Sprintf("Booking ID: %s", bookingID))
}

func NewTicketNotInBooking(code, bookingID string) *StandardError {
	return NewStandardError("TicketNotInBooking", "ticket is not listed on this booking",
		fmt.Sprintf("Ticket code: %s, Booking ID: %s", code, bookingID))
}

func NewInsufficientQuota(code string, requested int) *StandardError {
	return NewStandardError("InsufficientQuota", "not enough quota",
		fmt.Sprintf("Ticket code: %s, Requested: %d", code, requested))
}

func NewEventExpired(code string) *StandardError {
	return NewStandardError("EventExpired", "event date has passed", fmt.Sprintf("Ticket code: %s", code))
}

func NewSerializationError(err error) *StandardError {
	return NewStandardError("SerializationError", "failed to serialize data", err.Error())
}

func NewDatabaseError(operation string, err error) *StandardError {
	return NewStandardError("DatabaseError", fmt.Sprintf("database operation failed: %s", operation), err.Error())
}

func NewBrokerConnectionError(err error) *StandardError {
	return NewStandardError("BrokerConnectionError", "failed to connect to event broker", err.Error())
}

func NewInternalError(message string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return NewStandardError("InternalError", message, details)
}
