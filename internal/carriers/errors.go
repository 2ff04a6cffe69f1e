package carriers

import (
	"errors"
	"fmt"

	"shipping-charge-service/internal/models"
)

var (
	// ErrImproperlyConfigured marks a method whose settings can never produce a charge
	ErrImproperlyConfigured = errors.New("shipping method is improperly configured")
	// ErrNotSupported is returned for operations a carrier does not offer
	ErrNotSupported = errors.New("operation not supported by carrier")
	// ErrUnsupportedCarrier is returned for unknown or disabled carrier API types
	ErrUnsupportedCarrier = errors.New("unsupported carrier api")
)

// ApiOfflineError means the carrier API could not be reached or answered garbage
type ApiOfflineError struct {
	Carrier models.APIType
	Err     error
}

func (e *ApiOfflineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s api is offline", e.Carrier)
	}
	return fmt.Sprintf("%s api is offline: %v", e.Carrier, e.Err)
}

func (e *ApiOfflineError) Unwrap() error {
	return e.Err
}

// CityNotFoundError means the destination resolved to no carrier code.
// OriginCode is set when the origin was resolved before the failure.
type CityNotFoundError struct {
	Title      string
	OriginCode string
}

func (e *CityNotFoundError) Error() string {
	return fmt.Sprintf("city not found: %q", e.Title)
}

// TooManyFoundError means the destination matched several carrier codes
type TooManyFoundError struct {
	Title      string
	OriginCode string
	Candidates []models.CodeEntry
}

func (e *TooManyFoundError) Error() string {
	return fmt.Sprintf("too many cities found for %q: %d candidates", e.Title, len(e.Candidates))
}

// OriginCityNotFoundError means the configured origin could not be resolved.
// It matches ErrImproperlyConfigured with errors.Is.
type OriginCityNotFoundError struct {
	Carrier models.APIType
	Title   string
	Err     error
}

func (e *OriginCityNotFoundError) Error() string {
	msg := fmt.Sprintf("origin point %q could not be validated for method %q", e.Title, e.Carrier)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OriginCityNotFoundError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrImproperlyConfigured}
	}
	return []error{ErrImproperlyConfigured, e.Err}
}

// CalculationError carries a carrier side refusal to price a shipment
type CalculationError struct {
	Carrier models.APIType
	Detail  string
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("%s calculation error: %s", e.Carrier, e.Detail)
}
