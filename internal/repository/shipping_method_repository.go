package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shipping-charge-service/internal/models"
)

// ErrNotFound is returned when a record does not exist for the tenant
var ErrNotFound = errors.New("record not found")

// ShippingMethodRepository defines persistence for shipping methods
type ShippingMethodRepository interface {
	Create(ctx context.Context, method *models.ShippingMethod) error
	Update(ctx context.Context, method *models.ShippingMethod) error
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ShippingMethod, error)
	GetByCode(ctx context.Context, tenantID, code string) (*models.ShippingMethod, error)
	List(ctx context.Context, tenantID string, activeOnly bool) ([]models.ShippingMethod, error)
	SetContainers(ctx context.Context, method *models.ShippingMethod, containerIDs []uuid.UUID) error
}

type shippingMethodRepository struct {
	db *gorm.DB
}

// NewShippingMethodRepository creates a new shipping method repository
func NewShippingMethodRepository(db *gorm.DB) ShippingMethodRepository {
	return &shippingMethodRepository{db: db}
}

// Create creates a new shipping method
func (r *shippingMethodRepository) Create(ctx context.Context, method *models.ShippingMethod) error {
	return r.db.WithContext(ctx).Omit("Containers").Create(method).Error
}

// Update saves every field of a shipping method
func (r *shippingMethodRepository) Update(ctx context.Context, method *models.ShippingMethod) error {
	result := r.db.WithContext(ctx).
		Omit("Containers", "CreatedAt").
		Where("tenant_id = ?", method.TenantID).
		Save(method)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a shipping method and its container links
func (r *shippingMethodRepository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		method := models.ShippingMethod{ID: id, TenantID: tenantID}
		if err := tx.Model(&method).Association("Containers").Clear(); err != nil {
			return fmt.Errorf("failed to unlink containers: %w", err)
		}
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.ShippingMethod{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetByID gets a shipping method by ID
func (r *shippingMethodRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ShippingMethod, error) {
	var method models.ShippingMethod
	err := r.db.WithContext(ctx).
		Preload("Containers").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&method).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &method, nil
}

// GetByCode gets a shipping method by its checkout code
func (r *shippingMethodRepository) GetByCode(ctx context.Context, tenantID, code string) (*models.ShippingMethod, error) {
	var method models.ShippingMethod
	err := r.db.WithContext(ctx).
		Preload("Containers").
		Where("tenant_id = ? AND code = ?", tenantID, code).
		First(&method).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &method, nil
}

// List lists the shipping methods of a tenant by priority
func (r *shippingMethodRepository) List(ctx context.Context, tenantID string, activeOnly bool) ([]models.ShippingMethod, error) {
	var methods []models.ShippingMethod
	query := r.db.WithContext(ctx).
		Preload("Containers").
		Where("tenant_id = ?", tenantID)
	if activeOnly {
		query = query.Where("is_active = true AND status <> ?", models.MethodStatusDisabled)
	}
	err := query.Order("priority DESC, code ASC").Find(&methods).Error
	if err != nil {
		return nil, err
	}
	return methods, nil
}

// SetContainers replaces the containers a method packs into
func (r *shippingMethodRepository) SetContainers(ctx context.Context, method *models.ShippingMethod, containerIDs []uuid.UUID) error {
	var containers []models.ShippingContainer
	if len(containerIDs) > 0 {
		err := r.db.WithContext(ctx).
			Where("id IN ? AND (tenant_id = ? OR tenant_id = '')", containerIDs, method.TenantID).
			Find(&containers).Error
		if err != nil {
			return err
		}
		if len(containers) != len(containerIDs) {
			return fmt.Errorf("%w: unknown container in %v", ErrNotFound, containerIDs)
		}
	}

	if err := r.db.WithContext(ctx).Model(method).Association("Containers").Replace(containers); err != nil {
		return fmt.Errorf("failed to link containers: %w", err)
	}
	method.Containers = containers
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
