package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ElmWill/acceloka/internal/cache"
	"github.com/ElmWill/acceloka/internal/repository"
	apperrors "github.com/ElmWill/acceloka/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const catalogCachePrefix = "catalog:tickets:"

// Query datetimes accept the same formats the booking API has always taken.
var queryDateLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006 15:04:05",
}

type TicketHandler struct {
	logger   *zap.Logger
	catalog  repository.CatalogRepository
	cache    cache.Cache
	cacheTTL int
}

func NewTicketHandler(logger *zap.Logger, catalog repository.CatalogRepository, cacheClient cache.Cache, cacheTTL int) *TicketHandler {
	return &TicketHandler{
		logger:   logger,
		catalog:  catalog,
		cache:    cacheClient,
		cacheTTL: cacheTTL,
	}
}

// GetAvailableTickets handles GET /api/v1/get-available-ticket
func (h *TicketHandler) GetAvailableTickets(c *gin.Context) {
	filter, stdErr := h.parseFilter(c)
	if stdErr != nil {
		c.Error(stdErr)
		return
	}

	// Cache-first: listing pages are hot and tolerate short staleness.
	cacheKey := catalogCacheKey(filter)
	if h.cache != nil {
		var cached PagedTicketsResponse
		if err := cache.GetJSON(c.Request.Context(), h.cache, cacheKey, &cached); err == nil {
			h.logger.Debug("Catalog cache hit", zap.String("key", cacheKey))
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	paged, err := h.catalog.ListAvailable(c.Request.Context(), *filter)
	if err != nil {
		h.logger.Error("Failed to list available tickets", zap.Error(err))
		c.Error(apperrors.NewDatabaseError("list available tickets", err))
		return
	}

	response := toPagedTicketsResponse(paged)

	if h.cache != nil {
		if err := cache.SetJSON(c.Request.Context(), h.cache, cacheKey, response, cache.TTL(h.cacheTTL)); err != nil {
			h.logger.Warn("Failed to cache catalog page", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, response)
}

func (h *TicketHandler) parseFilter(c *gin.Context) (*repository.TicketFilter, *apperrors.StandardError) {
	filter := repository.TicketFilter{
		CategoryName: c.Query("categoryName"),
		TicketCode:   c.Query("ticketCode"),
		TicketName:   c.Query("ticketName"),
		OrderBy:      c.Query("orderBy"),
		OrderState:   c.Query("orderState"),
		Page:         1,
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return nil, apperrors.NewValidationError("page must be greater than 0", "page")
		}
		filter.Page = page
	}

	if raw := c.Query("price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil || price.IsNegative() {
			return nil, apperrors.NewValidationError("price must be a non-negative number", "price")
		}
		filter.MaxPrice = &price
	}

	if raw := c.Query("minEventDate"); raw != "" {
		min, err := parseQueryDate(raw)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), "minEventDate")
		}
		filter.MinEventDate = &min
	}

	if raw := c.Query("maxEventDate"); raw != "" {
		max, err := parseQueryDate(raw)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), "maxEventDate")
		}
		filter.MaxEventDate = &max
	}

	if filter.MinEventDate != nil && filter.MaxEventDate != nil &&
		filter.MinEventDate.After(*filter.MaxEventDate) {
		return nil, apperrors.NewValidationError("minEventDate must not be after maxEventDate", "minEventDate")
	}

	if state := strings.ToLower(filter.OrderState); state != "" && state != "asc" && state != "desc" {
		return nil, apperrors.NewValidationError("orderState must be asc or desc", "orderState")
	}

	return &filter, nil
}

func parseQueryDate(value string) (time.Time, error) {
	for _, layout := range queryDateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format, use yyyy-MM-dd HH:mm")
}

// catalogCacheKey folds every filter knob into the key so distinct queries
// never collide.
func catalogCacheKey(filter *repository.TicketFilter) string {
	price := ""
	if filter.MaxPrice != nil {
		price = filter.MaxPrice.String()
	}
	minDate, maxDate := "", ""
	if filter.MinEventDate != nil {
		minDate = filter.MinEventDate.Format("200601021504")
	}
	if filter.MaxEventDate != nil {
		maxDate = filter.MaxEventDate.Format("200601021504")
	}
	return fmt.Sprintf("%s%s|%s|%s|%s|%s|%s|%s|%s|%d",
		catalogCachePrefix,
		strings.ToLower(filter.CategoryName),
		strings.ToLower(filter.TicketCode),
		strings.ToLower(filter.TicketName),
		price, minDate, maxDate,
		strings.ToLower(filter.OrderBy),
		strings.ToLower(filter.OrderState),
		filter.Page,
	)
}
