package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// APIType identifies the carrier API a shipping method is backed by
type APIType string

const (
	// APISelfPickup marks a free method that never calls a carrier
	APISelfPickup APIType = ""
	APIPecom      APIType = "pecom"
	APIEmspost    APIType = "emspost"
)

// MethodStatus represents the operational status of a carrier-backed method
type MethodStatus string

const (
	MethodStatusOnline   MethodStatus = "online"
	MethodStatusOffline  MethodStatus = "offline"
	MethodStatusDisabled MethodStatus = "disabled"
)

// PaymentType tells when the shipping charge is paid
type PaymentType string

const (
	PaymentPrepaid  PaymentType = "prepaid"
	PaymentPostpaid PaymentType = "postpaid"
)

// ShippingMethod is a configured, carrier-backed shipping option offered at checkout
type ShippingMethod struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string    `json:"tenantId" gorm:"type:varchar(255);not null;uniqueIndex:idx_method_tenant_code"`
	Code        string    `json:"code" gorm:"type:varchar(128);not null;uniqueIndex:idx_method_tenant_code"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`

	// Carrier API
	APIType APIType      `json:"apiType" gorm:"type:varchar(32)"`
	APIUser string       `json:"apiUser" gorm:"type:varchar(255)"`
	APIKey  string       `json:"-" gorm:"type:varchar(255)"`
	Status  MethodStatus `json:"status" gorm:"type:varchar(20);not null;default:'online'"`

	// Origin city name, resolved to a carrier code on first use
	Origin string `json:"origin" gorm:"type:varchar(255)"`

	// Destination filters hold carrier codes joined by the configured list separator
	DestinationWhitelist string `json:"destinationWhitelist" gorm:"type:text"`
	DestinationBlacklist string `json:"destinationBlacklist" gorm:"type:text"`

	PaymentType PaymentType `json:"paymentType" gorm:"type:varchar(20);not null;default:'prepaid'"`
	IsActive    bool        `json:"isActive" gorm:"default:true"`
	Priority    int         `json:"priority" gorm:"default:0"`

	Containers []ShippingContainer `json:"containers,omitempty" gorm:"many2many:shipping_method_containers;"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for ShippingMethod
func (ShippingMethod) TableName() string {
	return "shipping_methods"
}

// IsFree reports whether the method is a free self-pickup that needs no carrier
func (m *ShippingMethod) IsFree() bool {
	return m.APIType == APISelfPickup
}

// IsUsable reports whether the method may be offered at all
func (m *ShippingMethod) IsUsable() bool {
	return m.IsActive && m.Status != MethodStatusDisabled
}

// Whitelist returns the destination whitelist codes
func (m *ShippingMethod) Whitelist(separator string) []string {
	return SplitList(m.DestinationWhitelist, separator)
}

// Blacklist returns the destination blacklist codes
func (m *ShippingMethod) Blacklist(separator string) []string {
	return SplitList(m.DestinationBlacklist, separator)
}

// SplitList splits a separator-joined list, trimming blanks and dropping empty items
func SplitList(raw, separator string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if separator == "" {
		return []string{strings.TrimSpace(raw)}
	}
	parts := strings.Split(raw, separator)
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}

// Destination is the part of a shipping address the resolver needs
type Destination struct {
	// City is the locality line, possibly carrying a settlement prefix ("г. Москва")
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Country  string `json:"country,omitempty"`
	// Code is an already resolved carrier code, posted back after disambiguation
	Code string `json:"code,omitempty"`
}

// Confirmation carries the buyer's choice from a disambiguation form
type Confirmation struct {
	Origin      string        `json:"origin"`
	Destination string        `json:"destination" binding:"required"`
	Options     ChargeOptions `json:"options,omitempty"`
}

// ChargeOptions are carrier specific calculation options, such as the transporting type
type ChargeOptions map[string]string

// Product is the slice of a catalog product the packer reads
type Product struct {
	ID         string             `json:"id"`
	Title      string             `json:"title,omitempty"`
	Attributes map[string]float64 `json:"attributes,omitempty"`
}

// Attribute returns a numeric product attribute
func (p Product) Attribute(code string) (float64, bool) {
	if p.Attributes == nil || code == "" {
		return 0, false
	}
	v, ok := p.Attributes[code]
	return v, ok
}

// BasketLine is one product line of a basket
type BasketLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity" binding:"min=0"`
}

// Basket is the read-only content of a checkout
type Basket struct {
	Currency string       `json:"currency"`
	Lines    []BasketLine `json:"lines" binding:"dive"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message *string     `json:"message,omitempty"`
}

// ListResponse represents a list of records for a tenant
type ListResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
}
