package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventType_AllTypes(t *testing.T) {
	testCases := []struct {
		name        string
		event       interface{}
		expected    string
		expectError bool
	}{
		{"TicketBooked", TicketBookedEvent{}, "TicketBooked", false},
		{"BookingEdited", BookingEditedEvent{}, "BookingEdited", false},
		{"BookingRevoked", BookingRevokedEvent{}, "BookingRevoked", false},
		{"Unknown", "unknown", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			eventType, err := EventType(tc.event)
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, eventType)
			}
		})
	}
}

func TestPartitionKey_IsBookingID(t *testing.T) {
	bookingID := uuid.New()

	testCases := []struct {
		name  string
		event interface{}
	}{
		{"TicketBooked", TicketBookedEvent{BookingID: bookingID}},
		{"BookingEdited", BookingEditedEvent{BookingID: bookingID}},
		{"BookingRevoked", BookingRevokedEvent{BookingID: bookingID}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, bookingID.String(), partitionKey(tc.event))
		})
	}
}

func TestPartitionKey_UnknownEvent(t *testing.T) {
	assert.Equal(t, "", partitionKey("unknown"))
}

func TestInMemoryEventPublisher_ConcurrentPublish(t *testing.T) {
	publisher := NewEventPublisher(zap.NewNop())

	const goroutines = 8
	const perGoroutine = 100

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				err := publisher.Publish(context.Background(), BookingEditedEvent{
					BookingID:   uuid.New(),
					TicketCode:  "CON-01",
					NewQuantity: i,
					OccurredAt:  time.Now(),
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, publisher.Events(), goroutines*perGoroutine)
}

func TestInMemoryEventPublisher_Publish(t *testing.T) {
	publisher := NewEventPublisher(zap.NewNop())

	event := TicketBookedEvent{
		BookingID: uuid.New(),
		Lines: []BookedLine{
			{TicketCode: "CON-01", TicketName: "Rock Night", Quantity: 2},
		},
		TotalPrice: "250.00",
		OccurredAt: time.Now(),
	}

	err := publisher.Publish(context.Background(), event)
	require.NoError(t, err)

	recorded := publisher.Events()
	require.Len(t, recorded, 1)
	assert.Equal(t, event, recorded[0])
}
