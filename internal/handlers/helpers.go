package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shipping-charge-service/internal/models"
	"shipping-charge-service/internal/repository"
)

// methodFinder loads the method named in a checkout URL
type methodFinder interface {
	GetByCode(ctx context.Context, tenantID, code string) (*models.ShippingMethod, error)
}

// loadMethod loads a usable method by the :code path parameter and writes
// the error response when there is none
func loadMethod(c *gin.Context, finder methodFinder) (*models.ShippingMethod, bool) {
	code := c.Param("code")
	method, err := finder.GetByCode(c.Request.Context(), getTenantID(c), code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "Shipping method not found",
				Message: "No shipping method with code " + code,
			})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to load shipping method",
			Message: err.Error(),
		})
		return nil, false
	}

	if !method.IsUsable() {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Shipping method not available",
			Message: "Shipping method " + code + " is not active",
		})
		return nil, false
	}
	return method, true
}

func parseID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid " + what + " ID",
			Message: what + " ID must be a valid UUID",
		})
		return uuid.Nil, false
	}
	return id, true
}

func getTenantID(c *gin.Context) string {
	// Try lowercase first (set by IstioAuth middleware from x-jwt-claim-tenant-id)
	tenantID := c.GetString("tenant_id")

	// Fall back to camelCase (set by TenantMiddleware)
	if tenantID == "" {
		tenantID = c.GetString("tenantID")
	}

	// Fall back to header
	if tenantID == "" {
		tenantID = c.GetHeader("X-Tenant-ID")
	}

	return tenantID
}

func stringPtr(s string) *string {
	return &s
}

// HealthCheck handles GET /health
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shipping-charge-service",
	})
}
