package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingContainer is a box the packer can put a basket in. Dimensions are meters, load is kg.
// Containers with an empty TenantID belong to the shared catalog.
type ShippingContainer struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string    `json:"tenantId" gorm:"type:varchar(255);not null;default:'';uniqueIndex:idx_container_tenant_name"`
	Name        string    `json:"name" gorm:"type:varchar(64);not null;uniqueIndex:idx_container_tenant_name"`
	Description string    `json:"description" gorm:"type:text"`
	ImageURL    string    `json:"imageUrl,omitempty" gorm:"type:varchar(500)"`
	Height      float64   `json:"height" gorm:"type:decimal(10,3);not null"`
	Width       float64   `json:"width" gorm:"type:decimal(10,3);not null"`
	Length      float64   `json:"length" gorm:"type:decimal(10,3);not null"`
	MaxLoad     float64   `json:"maxLoad" gorm:"type:decimal(10,3);not null"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for ShippingContainer
func (ShippingContainer) TableName() string {
	return "shipping_containers"
}

// Volume returns height*width*length rounded to precision places
func (c ShippingContainer) Volume(precision int32) decimal.Decimal {
	return decimal.NewFromFloat(c.Height).
		Mul(decimal.NewFromFloat(c.Width)).
		Mul(decimal.NewFromFloat(c.Length)).
		Round(precision)
}

// Pack is one shippable unit produced by the packer
type Pack struct {
	Weight    decimal.Decimal   `json:"weight"`
	Container ShippingContainer `json:"container"`
}

// Volume returns the container volume of the pack
func (p Pack) Volume(precision int32) decimal.Decimal {
	return p.Container.Volume(precision)
}
