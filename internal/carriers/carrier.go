package carriers

import (
	"context"

	"github.com/shopspring/decimal"

	"shipping-charge-service/internal/forms"
	"shipping-charge-service/internal/models"
)

// Facade defines the interface that every carrier API adapter implements
type Facade interface {
	// Name returns the carrier API type
	Name() models.APIType

	// ValidateCode returns the normalized code if raw is already a valid carrier code
	ValidateCode(raw string) (string, bool)

	// GetByCode returns the title of a carrier location code
	GetByCode(ctx context.Context, code string) (string, bool)

	// GetCachedOriginCode resolves the origin name, memoizing the first match per process
	GetCachedOriginCode(ctx context.Context, origin string) (string, error)

	// GetCachedCodes resolves a city name through the shared code cache
	GetCachedCodes(ctx context.Context, city string) CodeLookup

	// GetAllBranches returns the carrier location catalog
	GetAllBranches(ctx context.Context) ([]models.Branch, error)

	// GetCityCodes resolves origin and destination to carrier codes
	GetCityCodes(ctx context.Context, origin string, dest *models.Destination) (string, string, error)

	// GetCharge prices packs between two resolved codes. Carrier side refusals
	// are reported inside the result, only transport failures are errors.
	GetCharge(ctx context.Context, originCode, destCode string, packs []models.Pack, opts models.ChargeOptions) (*RawResult, error)

	// GetCharges resolves codes and prices the packs
	GetCharges(ctx context.Context, weight decimal.Decimal, packs []models.Pack, origin string, dest *models.Destination) (*RawResult, error)

	// ParseResults turns a raw result into a charge, diagnostics and, when
	// the buyer must choose, an extra form
	ParseResults(raw *RawResult, pc ParseContext) ParsedCharge

	// GetExtraForm describes a disambiguation form, or nil when no form builder is configured
	GetExtraForm(fc forms.Context) *models.ExtraForm

	// GetQueryset returns the normalized lookup catalog
	GetQueryset(ctx context.Context) ([]models.LookupRecord, error)

	// FormatObjects groups lookup records for the city picker
	FormatObjects(records []models.LookupRecord) []models.LookupGroup
}

// RawResult is what a carrier answered to a charge request
type RawResult struct {
	Carrier         models.APIType
	OriginCode      string
	DestinationCode string
	Options         []models.PricedOption
	// ProviderError is a carrier side refusal, such as an unserved route
	ProviderError string
}

// ParseContext is the calculation context a raw result is interpreted in
type ParseContext struct {
	Method      string
	Currency    string
	Origin      string
	Destination string
	Weight      decimal.Decimal
	Packs       []models.Pack
}

// ParsedCharge is an interpreted charge response
type ParsedCharge struct {
	Charge   decimal.Decimal
	Messages []string
	Errors   []string
	Options  []models.PricedOption
	Form     *models.ExtraForm
	// Err is a *CalculationError when the carrier refused to price the shipment
	Err error
}

// LookupStatus tags the outcome of a code lookup
type LookupStatus int

const (
	LookupResolved LookupStatus = iota
	LookupAmbiguous
	LookupNotFound
	LookupTransportError
)

func (s LookupStatus) String() string {
	switch s {
	case LookupResolved:
		return "resolved"
	case LookupAmbiguous:
		return "ambiguous"
	case LookupNotFound:
		return "not_found"
	case LookupTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// CodeLookup is the tagged result of resolving a city name to carrier codes
type CodeLookup struct {
	Status     LookupStatus
	Code       string
	Candidates []models.CodeEntry
	Err        error
}

// Codes returns every code the lookup produced
func (l CodeLookup) Codes() []string {
	switch l.Status {
	case LookupResolved:
		return []string{l.Code}
	case LookupAmbiguous:
		codes := make([]string, 0, len(l.Candidates))
		for _, c := range l.Candidates {
			codes = append(codes, c.Code)
		}
		return codes
	default:
		return nil
	}
}

func lookupFromEntries(entries []models.CodeEntry) CodeLookup {
	switch len(entries) {
	case 0:
		return CodeLookup{Status: LookupNotFound}
	case 1:
		return CodeLookup{Status: LookupResolved, Code: entries[0].Code}
	default:
		return CodeLookup{Status: LookupAmbiguous, Candidates: entries}
	}
}
