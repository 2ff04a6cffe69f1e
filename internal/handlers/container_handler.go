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

// ContainerManager manages the container catalog
type ContainerManager interface {
	List(ctx context.Context, tenantID string) ([]models.ShippingContainer, error)
	Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.ShippingContainer, error)
	Create(ctx context.Context, tenantID string, req models.ContainerRequest) (*models.ShippingContainer, error)
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
}

// ContainerHandler handles the container catalog endpoints
type ContainerHandler struct {
	containers ContainerManager
}

// NewContainerHandler creates a new container handler
func NewContainerHandler(containers ContainerManager) *ContainerHandler {
	return &ContainerHandler{containers: containers}
}

// ListContainers handles GET /api/containers
func (h *ContainerHandler) ListContainers(c *gin.Context) {
	containers, err := h.containers.List(c.Request.Context(), getTenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to list containers",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success: true,
		Data:    containers,
		Total:   len(containers),
	})
}

// GetContainer handles GET /api/containers/:id
func (h *ContainerHandler) GetContainer(c *gin.Context) {
	id, ok := parseID(c, "Container")
	if !ok {
		return
	}

	container, err := h.containers.Get(c.Request.Context(), getTenantID(c), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, models.ErrorResponse{
			Error:   "Failed to get container",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    container,
	})
}

// CreateContainer handles POST /api/containers
func (h *ContainerHandler) CreateContainer(c *gin.Context) {
	var req models.ContainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	container, err := h.containers.Create(c.Request.Context(), getTenantID(c), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Failed to create container",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    container,
		Message: stringPtr("Container created successfully"),
	})
}

// DeleteContainer handles DELETE /api/containers/:id
func (h *ContainerHandler) DeleteContainer(c *gin.Context) {
	id, ok := parseID(c, "Container")
	if !ok {
		return
	}

	if err := h.containers.Delete(c.Request.Context(), getTenantID(c), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, models.ErrorResponse{
			Error:   "Failed to delete container",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Container deleted successfully"),
	})
}
