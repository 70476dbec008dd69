package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ElmWill/acceloka/internal/domain"
	"github.com/ElmWill/acceloka/internal/repository"
	"github.com/ElmWill/acceloka/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockEngine is a mock implementation of repository.BookingEngine
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Reserve(ctx context.Context, items []domain.OrderItem) (*domain.BookingReceipt, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingReceipt), args.Error(1)
}

func (m *MockEngine) Adjust(ctx context.Context, bookingID uuid.UUID, code string, newQuantity int) (*domain.LineResult, error) {
	args := m.Called(ctx, bookingID, code, newQuantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LineResult), args.Error(1)
}

func (m *MockEngine) Release(ctx context.Context, bookingID uuid.UUID, code string, quantity int) (*domain.LineResult, error) {
	args := m.Called(ctx, bookingID, code, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LineResult), args.Error(1)
}

func (m *MockEngine) GetBooking(ctx context.Context, bookingID uuid.UUID) (*domain.BookingView, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingView), args.Error(1)
}

// MockPublisher is a mock implementation of events.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event interface{}) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockCache is a mock implementation of cache.Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) DeleteByPattern(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

func setupBookingRouter(engine repository.BookingEngine, publisher *MockPublisher, cacheClient *MockCache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	handler := NewBookingHandler(logger, engine, publisher, cacheClient)

	router := gin.New()
	router.Use(middleware.ErrorHandler(logger))

	v1 := router.Group("/api/v1")
	v1.POST("/book-ticket", handler.BookTicket)
	v1.GET("/get-booked-ticket/:bookedTicketId", handler.GetBookedTicket)
	v1.PUT("/edit-booked-ticket", handler.EditBookedTicket)
	v1.DELETE("/revoke-ticket/:bookedTicketId/:ticketCode/:qty", handler.RevokeTicket)
	router.GET("/health", handler.HealthCheck)

	return router
}

func TestBookTicket_Success(t *testing.T) {
	mockEngine := new(MockEngine)
	mockPublisher := new(MockPublisher)
	mockCache := new(MockCache)

	bookingID := uuid.New()
	receipt := &domain.BookingReceipt{
		BookingID: bookingID,
		Items: []domain.BookedItem{
			{TicketCode: "CON-01", TicketName: "Rock Night", CategoryName: "Concert",
				Price: decimal.NewFromInt(125), Quantity: 2},
		},
		TotalPerCategories: []domain.CategoryTotal{
			{CategoryName: "Concert", TotalPrice: decimal.NewFromInt(250)},
		},
		TotalPrice: decimal.NewFromInt(250),
	}

	mockEngine.On("Reserve", mock.Anything, []domain.OrderItem{{Code: "CON-01", Quantity: 2}}).
		Return(receipt, nil)
	mockCache.On("DeleteByPattern", mock.Anything, catalogCachePrefix+"*").Return(nil)
	mockPublisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	router := setupBookingRouter(mockEngine, mockPublisher, mockCache)

	body, _ := json.Marshal(BookTicketRequest{
		Tickets: []BookTicketItem{{TicketCode: "CON-01", Quantity: 2}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/book-ticket", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp BookTicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, bookingID.String(), resp.BookedTicketID)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "CON-01", resp.Items[0].TicketCode)
	assert.True(t, resp.TotalPrice.Equal(decimal.NewFromInt(250)))

	mockEngine.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestBookTicket_EmptyTickets(t *testing.T) {
	router := setupBookingRouter(new(MockEngine), new(MockPublisher), new(MockCache))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/book-ticket",
		bytes.NewReader([]byte(`{"tickets":[]}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookTicket_InvalidQuantity(t *testing.T) {
	router := setupBookingRouter(new(MockEngine), new(MockPublisher), new(MockCache))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/book-ticket",
		bytes.NewReader([]byte(`{"tickets":[{"ticketCode":"CON-01","quantity":-1}]}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookTicket_TicketNotFound(t *testing.T) {
	mockEngine := new(MockEngine)
	mockEngine.On("Reserve", mock.Anything, mock.Anything).
		Return(nil, domain.ErrTicketNotFound)

	router := setupBookingRouter(mockEngine, new(MockPublisher), new(MockCache))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/book-ticket",
		bytes.NewReader([]byte(`{"tickets":[{"ticketCode":"NOPE","quantity":1}]}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookTicket_InsufficientQuota(t *testing.T) {
	mockEngine := new(MockEngine)
	mockEngine.On("Reserve", mock.Anything, mock.Anything).
		Return(nil, domain.ErrInsufficientQuota)

	router := setupBookingRouter(mockEngine, new(MockPublisher), new(MockCache))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/book-ticket",
		bytes.NewReader([]byte(`{"tickets":[{"ticketCode":"CON-01","quantity":999}]}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBookedTicket_Success(t *testing.T) {
	mockEngine := new(MockEngine)

	bookingID := uuid.New()
	eventDate := time.Date(2027, 6, 15, 20, 0, 0, 0, time.Local)
	view := &domain.BookingView{
		BookingID: bookingID,
		Categories: []domain.CategoryGroup{
			{
				CategoryName:             "Concert",
				TotalQuantityPerCategory: 2,
				Tickets: []domain.BookedLineView{
					{TicketCode: "CON-01", TicketName: "Rock Night", EventDate: eventDate, Quantity: 2},
				},
			},
		},
		TotalQuantity: 2,
	}
	mockEngine.On("GetBooking", mock.Anything, bookingID).Return(view, nil)

	router := setupBookingRouter(mockEngine, new(MockPublisher), new(MockCache))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/get-booked-ticket/"+bookingID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp GetBookedTicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, bookingID.String(), resp.BookedTicketID)
	assert.Equal(t, 2, resp.TotalQuantity)
	require.Len(t, resp.Categories, 1)
	assert.Equal(t, "15-06-2027 20:00", resp.Categories[0].Tickets[0].EventDate)
}

func TestGetBookedTicket_InvalidID(t *testing.T) {
	router := setupBookingRouter(new(MockEngine), new(MockPublisher), new(MockCache))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/get-booked-ticket/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBookedTicket_NotFound(t *testing.T) {
	mockEngine := new(MockEngine)
	bookingID := uuid.New()
	mockEngine.On("GetBooking", mock.Anything, bookingID).
		Return(nil, domain.ErrBookingNotFound)

	router := setupBookingRouter(mockEngine, new(MockPublisher), new(MockCache))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/get-booked-ticket/"+bookingID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEditBookedTicket_Success(t *testing.T) {
	mockEngine := new(MockEngine)
	mockPublisher := new(MockPublisher)
	mockCache := new(MockCache)

	bookingID := uuid.New()
	result := &domain.LineResult{
		TicketCode: "CON-01", TicketName: "Rock Night", CategoryName: "Concert", Quantity: 5,
	}
	mockEngine.On("Adjust", mock.Anything, bookingID, "CON-01", 5).Return(result, nil)
	mockCache.On("DeleteByPattern", mock.Anything, catalogCachePrefix+"*").Return(nil)
	mockPublisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	router := setupBookingRouter(mockEngine, mockPublisher, mockCache)

	body, _ := json.Marshal(EditBookedTicketRequest{
		BookedTicketID: bookingID,
		TicketCode:     "CON-01",
		Quantity:       5,
	})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/edit-booked-ticket", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp EditBookedTicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CON-01", resp.TicketCode)
	assert.Equal(t, 5, resp.NewQuantity)

	mockEngine.AssertExpectations(t)
}

func TestEditBookedTicket_TicketNotInBooking(t *testing.T) {
	mockEngine := new(MockEngine)
	mockEngine.On("Adjust", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrLineNotFound)

	router := setupBookingRouter(mockEngine, new(MockPublisher), new(MockCache))

	body, _ := json.Marshal(EditBookedTicketRequest{
		BookedTicketID: uuid.New(),
		TicketCode:     "OTHER",
		Quantity:       3,
	})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/edit-booked-ticket", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRevokeTicket_Success(t *testing.T) {
	mockEngine := new(MockEngine)
	mockPublisher := new(MockPublisher)
	mockCache := new(MockCache)

	bookingID := uuid.New()
	result := &domain.LineResult{
		TicketCode: "CON-01", TicketName: "Rock Night", CategoryName: "Concert", Quantity: 1,
	}
	mockEngine.On("Release", mock.Anything, bookingID, "CON-01", 1).Return(result, nil)
	mockCache.On("DeleteByPattern", mock.Anything, catalogCachePrefix+"*").Return(nil)
	mockPublisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	router := setupBookingRouter(mockEngine, mockPublisher, mockCache)

	req := httptest.NewRequest(http.MethodDelete,
		"/api/v1/revoke-ticket/"+bookingID.String()+"/CON-01/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp RevokeBookedTicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CON-01", resp.TicketCode)
	assert.Equal(t, 1, resp.RemainingQuantity)

	mockEngine.AssertExpectations(t)
}

func TestRevokeTicket_InvalidQuantity(t *testing.T) {
	router := setupBookingRouter(new(MockEngine), new(MockPublisher), new(MockCache))

	req := httptest.NewRequest(http.MethodDelete,
		"/api/v1/revoke-ticket/"+uuid.New().String()+"/CON-01/0", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRevokeTicket_ExceedsBooked(t *testing.T) {
	mockEngine := new(MockEngine)
	mockEngine.On("Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrExceedsBooked)

	router := setupBookingRouter(mockEngine, new(MockPublisher), new(MockCache))

	req := httptest.NewRequest(http.MethodDelete,
		"/api/v1/revoke-ticket/"+uuid.New().String()+"/CON-01/99", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	router := setupBookingRouter(new(MockEngine), new(MockPublisher), new(MockCache))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
