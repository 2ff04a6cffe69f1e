package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shipping-charge-service/internal/models"
	"shipping-charge-service/internal/repository"
	"shipping-charge-service/internal/services"
)

// MethodManager manages the shipping methods of a tenant
type MethodManager interface {
	List(ctx context.Context, tenantID string) ([]models.ShippingMethod, error)
	Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.ShippingMethod, error)
	Create(ctx context.Context, tenantID string, req models.MethodRequest) (*models.ShippingMethod, error)
	Update(ctx context.Context, tenantID string, id uuid.UUID, req models.MethodRequest) (*models.ShippingMethod, error)
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
}

// MethodHandler handles the shipping method admin endpoints
type MethodHandler struct {
	methods MethodManager
}

// NewMethodHandler creates a new method handler
func NewMethodHandler(methods MethodManager) *MethodHandler {
	return &MethodHandler{methods: methods}
}

// ListMethods handles GET /api/shipping-methods
func (h *MethodHandler) ListMethods(c *gin.Context) {
	methods, err := h.methods.List(c.Request.Context(), getTenantID(c))
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

// GetMethod handles GET /api/shipping-methods/:id
func (h *MethodHandler) GetMethod(c *gin.Context) {
	id, ok := parseID(c, "Shipping method")
	if !ok {
		return
	}

	method, err := h.methods.Get(c.Request.Context(), getTenantID(c), id)
	if err != nil {
		writeMethodError(c, "Failed to get shipping method", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    method,
	})
}

// CreateMethod handles POST /api/shipping-methods
func (h *MethodHandler) CreateMethod(c *gin.Context) {
	var req models.MethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	method, err := h.methods.Create(c.Request.Context(), getTenantID(c), req)
	if err != nil {
		writeMethodError(c, "Failed to create shipping method", err)
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    method,
		Message: stringPtr("Shipping method created successfully"),
	})
}

// UpdateMethod handles PUT /api/shipping-methods/:id
func (h *MethodHandler) UpdateMethod(c *gin.Context) {
	id, ok := parseID(c, "Shipping method")
	if !ok {
		return
	}

	var req models.MethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	method, err := h.methods.Update(c.Request.Context(), getTenantID(c), id, req)
	if err != nil {
		writeMethodError(c, "Failed to update shipping method", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    method,
		Message: stringPtr("Shipping method updated successfully"),
	})
}

// DeleteMethod handles DELETE /api/shipping-methods/:id
func (h *MethodHandler) DeleteMethod(c *gin.Context) {
	id, ok := parseID(c, "Shipping method")
	if !ok {
		return
	}

	if err := h.methods.Delete(c.Request.Context(), getTenantID(c), id); err != nil {
		writeMethodError(c, "Failed to delete shipping method", err)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Shipping method deleted successfully"),
	})
}

func writeMethodError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidMethod):
		status = http.StatusBadRequest
	}
	c.JSON(status, models.ErrorResponse{
		Error:   message,
		Message: err.Error(),
	})
}
