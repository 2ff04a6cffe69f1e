package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"shipping-charge-service/internal/models"
)

// ChargeCalculator computes shipping charges
type ChargeCalculator interface {
	Calculate(ctx context.Context, method *models.ShippingMethod, basket models.Basket, dest *models.Destination, confirm *models.Confirmation) (*models.ChargeResult, error)
	Details(ctx context.Context, method *models.ShippingMethod, basket models.Basket, from, to string, options models.ChargeOptions) (*models.ChargeResult, error)
}

// AvailableMethodLister lists the methods usable for a destination
type AvailableMethodLister interface {
	methodFinder
	AvailableMethods(ctx context.Context, tenantID string, dest *models.Destination) ([]models.AvailableMethod, error)
}

// ChargeHandler handles the checkout facing charge endpoints
type ChargeHandler struct {
	charges ChargeCalculator
	methods AvailableMethodLister
}

// NewChargeHandler creates a new charge handler
func NewChargeHandler(charges ChargeCalculator, methods AvailableMethodLister) *ChargeHandler {
	return &ChargeHandler{charges: charges, methods: methods}
}

// CalculateCharge handles POST /api/charges/:code
func (h *ChargeHandler) CalculateCharge(c *gin.Context) {
	var request models.ChargeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	method, ok := loadMethod(c, h.methods)
	if !ok {
		return
	}

	result, err := h.charges.Calculate(c.Request.Context(), method, request.Basket, request.Destination, request.Confirmation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to calculate shipping charge",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
	})
}

// Details handles GET|POST /api/details/:code?from=&to=. Query parameters
// other than from and to are passed on as charge options.
func (h *ChargeHandler) Details(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if to == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Destination required",
			Message: "The to query parameter must carry a destination code",
		})
		return
	}

	var request models.DetailsRequest
	if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid request body",
				Message: err.Error(),
			})
			return
		}
	}

	options := models.ChargeOptions{}
	for key, values := range c.Request.URL.Query() {
		if key == "from" || key == "to" || len(values) == 0 {
			continue
		}
		options[key] = values[0]
	}
	for key, value := range request.Options {
		options[key] = value
	}

	method, ok := loadMethod(c, h.methods)
	if !ok {
		return
	}

	result, err := h.charges.Details(c.Request.Context(), method, request.Basket, from, to, options)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to calculate shipping charge",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
	})
}

// AvailableMethods handles POST /api/methods/available
func (h *ChargeHandler) AvailableMethods(c *gin.Context) {
	var request models.AvailableMethodsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	methods, err := h.methods.AvailableMethods(c.Request.Context(), getTenantID(c), request.Destination)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list shipping methods",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success: true,
		Data:    methods,
		Total:   len(methods),
	})
}
