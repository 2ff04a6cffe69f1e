package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"shipping-charge-service/internal/models"
	"shipping-charge-service/internal/repository"
)

// ContainerService manages the container catalog the packer chooses from
type ContainerService struct {
	repo repository.ContainerRepository
}

// NewContainerService creates a container service
func NewContainerService(repo repository.ContainerRepository) *ContainerService {
	return &ContainerService{repo: repo}
}

// List lists the tenant's containers and the shared catalog
func (s *ContainerService) List(ctx context.Context, tenantID string) ([]models.ShippingContainer, error) {
	return s.repo.List(ctx, tenantID)
}

// Get gets a container
func (s *ContainerService) Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.ShippingContainer, error) {
	return s.repo.Get(ctx, tenantID, id)
}

// Create adds a tenant container
func (s *ContainerService) Create(ctx context.Context, tenantID string, req models.ContainerRequest) (*models.ShippingContainer, error) {
	container := &models.ShippingContainer{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Height:      req.Height,
		Width:       req.Width,
		Length:      req.Length,
		MaxLoad:     req.MaxLoad,
	}
	if container.Name == "" {
		return nil, fmt.Errorf("container name is required")
	}
	if err := s.repo.Create(ctx, container); err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	return container, nil
}

// Delete removes a tenant container
func (s *ContainerService) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	return s.repo.Delete(ctx, tenantID, id)
}
