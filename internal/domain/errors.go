package domain

// Domain errors
var (
	ErrTicketNotFound    = &DomainError{Message: "ticket not found"}
	ErrBookingNotFound   = &DomainError{Message: "booking not found"}
	ErrLineNotFound      = &DomainError{Message: "ticket is not listed on this booking"}
	ErrInsufficientQuota = &DomainError{Message: "not enough quota"}
	ErrEventExpired      = &DomainError{Message: "event date has passed"}
	ErrInvalidQuantity   = &DomainError{Message: "quantity must be at least 1"}
	ErrEmptyOrder        = &DomainError{Message: "order must contain at least one ticket"}
	ErrExceedsBooked     = &DomainError{Message: "quantity exceeds booked quantity"}
)

// DomainError represents a domain-level error
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}
