package models

import (
	"github.com/shopspring/decimal"
)

// CodeEntry is one match returned by a carrier's find-by-title call
type CodeEntry struct {
	Code  string `json:"code"`
	Title string `json:"title"`
	Type  string `json:"type,omitempty"`
}

// Branch is one entry of a carrier's location catalog. Cities are the
// settlements served by the branch, when the carrier groups them that way.
type Branch struct {
	Code   string      `json:"code"`
	Title  string      `json:"title"`
	Type   string      `json:"type,omitempty"`
	Cities []CodeEntry `json:"cities,omitempty"`
}

// ServiceCharge is one line of a carrier price breakdown
type ServiceCharge struct {
	ServiceType string          `json:"serviceType"`
	SenderCity  string          `json:"senderCity,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
	Info        string          `json:"info,omitempty"`
}

// PricedOption is a transport option returned by a charge call
type PricedOption struct {
	Code     string          `json:"code"`
	Title    string          `json:"title"`
	Cost     decimal.Decimal `json:"cost"`
	Term     string          `json:"term,omitempty"`
	Services []ServiceCharge `json:"services,omitempty"`
}

// Price is a shipping charge. Tax is always zero.
type Price struct {
	Currency string          `json:"currency"`
	ExclTax  decimal.Decimal `json:"exclTax"`
	InclTax  decimal.Decimal `json:"inclTax"`
	Tax      decimal.Decimal `json:"tax"`
}

// NewPrice builds a tax free price
func NewPrice(currency string, amount decimal.Decimal) Price {
	return Price{
		Currency: currency,
		ExclTax:  amount,
		InclTax:  amount,
		Tax:      decimal.Zero,
	}
}

// CalculationState is the phase a charge calculation ended in
type CalculationState string

const (
	StateStart                CalculationState = "start"
	StateResolved             CalculationState = "resolved"
	StateNeedsDisambiguation  CalculationState = "needs_disambiguation"
	StateNeedsDestinationCode CalculationState = "needs_destination_code"
	StateConfirmed            CalculationState = "confirmed"
	StateFailed               CalculationState = "failed"
)

// ChargeResult is the outcome of one charge calculation. The method it was
// computed for is never modified.
type ChargeResult struct {
	Method          string           `json:"method"`
	Carrier         APIType          `json:"carrier"`
	State           CalculationState `json:"state"`
	Charge          Price            `json:"charge"`
	Weight          decimal.Decimal  `json:"weight"`
	Packs           []Pack           `json:"packs"`
	OriginCode      string           `json:"originCode,omitempty"`
	DestinationCode string           `json:"destinationCode,omitempty"`
	Messages        []string         `json:"messages,omitempty"`
	Errors          []string         `json:"errors,omitempty"`
	Candidates      []CodeEntry      `json:"candidates,omitempty"`
	Options         []PricedOption   `json:"options,omitempty"`
	ExtraForm       *ExtraForm       `json:"extraForm,omitempty"`
}

// HasErrors reports whether the calculation recorded any error
func (r *ChargeResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Availability is the tri-state answer of the destination filter
type Availability string

const (
	AvailabilityAllow        Availability = "allow"
	AvailabilityDeny         Availability = "deny"
	AvailabilityUndetermined Availability = "undetermined"
)

// AvailableMethod pairs a method with its availability for a destination
type AvailableMethod struct {
	Method       *ShippingMethod `json:"method"`
	Availability Availability    `json:"availability"`
}
