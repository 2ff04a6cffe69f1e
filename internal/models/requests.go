package models

import "github.com/google/uuid"

// ChargeRequest asks for the shipping charge of a basket. Confirmation is set
// when the buyer posts back a disambiguation form.
type ChargeRequest struct {
	Basket       Basket        `json:"basket"`
	Destination  *Destination  `json:"destination,omitempty"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
}

// DetailsRequest carries the basket for the details endpoint; the codes come from the query string
type DetailsRequest struct {
	Basket  Basket        `json:"basket"`
	Options ChargeOptions `json:"options,omitempty"`
}

// AvailableMethodsRequest lists the methods usable for a destination
type AvailableMethodsRequest struct {
	Destination *Destination `json:"destination,omitempty"`
}

// MethodRequest creates or updates a shipping method
type MethodRequest struct {
	Code                 string       `json:"code" binding:"required"`
	Name                 string       `json:"name" binding:"required"`
	Description          string       `json:"description"`
	APIType              APIType      `json:"apiType"`
	APIUser              string       `json:"apiUser"`
	APIKey               *string      `json:"apiKey,omitempty"`
	Status               MethodStatus `json:"status"`
	Origin               string       `json:"origin"`
	DestinationWhitelist string       `json:"destinationWhitelist"`
	DestinationBlacklist string       `json:"destinationBlacklist"`
	PaymentType          PaymentType  `json:"paymentType"`
	IsActive             *bool        `json:"isActive,omitempty"`
	Priority             int          `json:"priority"`
	ContainerIDs         []uuid.UUID  `json:"containerIds,omitempty"`
}

// ContainerRequest creates a tenant container
type ContainerRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
	Height      float64 `json:"height" binding:"required,gt=0"`
	Width       float64 `json:"width" binding:"required,gt=0"`
	Length      float64 `json:"length" binding:"required,gt=0"`
	MaxLoad     float64 `json:"maxLoad" binding:"gte=0"`
}
