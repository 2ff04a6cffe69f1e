package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shipping-charge-service/internal/carriers"
	"shipping-charge-service/internal/models"
	"shipping-charge-service/internal/services"
)

// CityLookup searches a carrier's city catalog
type CityLookup interface {
	Lookup(ctx context.Context, method *models.ShippingMethod, query services.LookupQuery) (*models.LookupResponse, error)
}

// LookupHandler serves the city picker of the extra forms
type LookupHandler struct {
	lookup  CityLookup
	methods methodFinder
}

// NewLookupHandler creates a new lookup handler
func NewLookupHandler(lookup CityLookup, methods methodFinder) *LookupHandler {
	return &LookupHandler{lookup: lookup, methods: methods}
}

// CityLookup handles GET /api/city-lookup/:code?initial=&q=&page=&page_limit=.
// The body is the bare {results, more} shape the picker widget reads.
func (h *LookupHandler) CityLookup(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid page", Message: err.Error()})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("page_limit", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid page_limit", Message: err.Error()})
		return
	}

	method, ok := loadMethod(c, h.methods)
	if !ok {
		return
	}

	response, err := h.lookup.Lookup(c.Request.Context(), method, services.LookupQuery{
		Initial:   c.Query("initial"),
		Q:         c.Query("q"),
		Page:      page,
		PageLimit: limit,
	})
	if err != nil {
		var offline *carriers.ApiOfflineError
		switch {
		case errors.As(err, &offline):
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:   "Carrier API is offline",
				Message: err.Error(),
			})
		case errors.Is(err, carriers.ErrNotSupported), errors.Is(err, carriers.ErrUnsupportedCarrier):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "City lookup not supported",
				Message: err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "City lookup failed",
				Message: err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, response)
}
