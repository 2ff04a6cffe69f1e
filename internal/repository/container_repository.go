package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shipping-charge-service/internal/models"
)

// ContainerRepository defines persistence for the container catalog
type ContainerRepository interface {
	// List returns the tenant's containers together with the shared catalog
	List(ctx context.Context, tenantID string) ([]models.ShippingContainer, error)
	Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.ShippingContainer, error)
	Create(ctx context.Context, container *models.ShippingContainer) error
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
}

type containerRepository struct {
	db *gorm.DB
}

// NewContainerRepository creates a new container repository
func NewContainerRepository(db *gorm.DB) ContainerRepository {
	return &containerRepository{db: db}
}

func (r *containerRepository) List(ctx context.Context, tenantID string) ([]models.ShippingContainer, error) {
	var containers []models.ShippingContainer
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? OR tenant_id = ''", tenantID).
		Order("name ASC").
		Find(&containers).Error
	if err != nil {
		return nil, err
	}
	return containers, nil
}

func (r *containerRepository) Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.ShippingContainer, error) {
	var container models.ShippingContainer
	err := r.db.WithContext(ctx).
		Where("id = ? AND (tenant_id = ? OR tenant_id = '')", id, tenantID).
		First(&container).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &container, nil
}

func (r *containerRepository) Create(ctx context.Context, container *models.ShippingContainer) error {
	return r.db.WithContext(ctx).Create(container).Error
}

// Delete removes a tenant owned container. Shared catalog entries cannot be
// deleted through a tenant.
func (r *containerRepository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM shipping_method_containers WHERE shipping_container_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.ShippingContainer{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
