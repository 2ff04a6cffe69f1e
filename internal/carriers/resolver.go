package carriers

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"shipping-charge-service/internal/cache"
	"shipping-charge-service/internal/forms"
	"shipping-charge-service/internal/models"
)

// codeFinder is the carrier specific half of code resolution
type codeFinder interface {
	ValidateCode(raw string) (string, bool)
	FindByTitle(ctx context.Context, title string) ([]models.CodeEntry, error)
}

// resolver implements the code resolution shared by all facades. Facades
// embed it and plug in their own finder.
type resolver struct {
	carrier         models.APIType
	finder          codeFinder
	memo            *cache.OriginMemo
	store           cache.Store
	ttl             time.Duration
	prefixSeparator string
	logger          *logrus.Entry
}

func newResolver(carrier models.APIType, deps Dependencies) *resolver {
	return &resolver{
		carrier:         carrier,
		memo:            deps.Memo,
		store:           deps.Store,
		ttl:             deps.Settings.CodeCacheTTL,
		prefixSeparator: deps.Settings.CityPrefixSeparator,
		logger:          deps.Logger.WithField("carrier", string(carrier)),
	}
}

// GetCachedOriginCode resolves an origin name. The first match is memoized
// for the life of the process and never re-validated.
func (r *resolver) GetCachedOriginCode(ctx context.Context, origin string) (string, error) {
	key := fmt.Sprintf("%s:%s", r.carrier, origin)
	if code, ok := r.memo.Get(key); ok {
		return code, nil
	}

	entries, err := r.finder.FindByTitle(ctx, origin)
	if err != nil {
		return "", &OriginCityNotFoundError{Carrier: r.carrier, Title: origin, Err: err}
	}
	if len(entries) == 0 {
		return "", &OriginCityNotFoundError{Carrier: r.carrier, Title: origin}
	}

	// Only the first match is used as origin
	return r.memo.Remember(key, entries[0].Code), nil
}

// formOrigin swaps a free text origin for its code. An origin that does
// not resolve is dropped so the hidden sender field never carries raw text.
func (r *resolver) formOrigin(fc forms.Context) forms.Context {
	if fc.OriginCode != "" || fc.Origin == "" {
		return fc
	}
	code, err := r.GetCachedOriginCode(context.Background(), fc.Origin)
	if err != nil {
		r.logger.WithError(err).WithField("origin", fc.Origin).Warn("Origin left out of extra form")
		fc.Origin = ""
		return fc
	}
	fc.OriginCode = code
	return fc
}

// GetCachedCodes resolves a city through the shared cache. Successful lookups
// are cached, empty ones included; transport failures never are.
func (r *resolver) GetCachedCodes(ctx context.Context, city string) CodeLookup {
	key := fmt.Sprintf("%s:%s", r.carrier, city)

	var entries []models.CodeEntry
	found, err := r.store.Get(ctx, key, &entries)
	if err != nil {
		r.logger.WithError(err).WithField("city", city).Warn("Code cache read failed, asking carrier")
	}
	if found {
		return lookupFromEntries(entries)
	}

	entries, err = r.finder.FindByTitle(ctx, city)
	if err != nil {
		r.logger.WithError(err).WithField("city", city).Warn("Find by title failed")
		return CodeLookup{Status: LookupTransportError, Err: err}
	}
	if entries == nil {
		entries = []models.CodeEntry{}
	}
	if err := r.store.Set(ctx, key, entries, r.ttl); err != nil {
		r.logger.WithError(err).WithField("city", city).Warn("Code cache write failed")
	}

	return lookupFromEntries(entries)
}

// GetCityCodes resolves origin and destination codes for a charge call
func (r *resolver) GetCityCodes(ctx context.Context, origin string, dest *models.Destination) (string, string, error) {
	originCode, ok := r.finder.ValidateCode(origin)
	if !ok {
		var err error
		if originCode, err = r.GetCachedOriginCode(ctx, origin); err != nil {
			return "", "", err
		}
	}

	if dest == nil {
		return originCode, "", &CityNotFoundError{Title: "city_not_set", OriginCode: originCode}
	}
	if code, ok := r.finder.ValidateCode(dest.Code); ok {
		return originCode, code, nil
	}
	if dest.City == "" {
		return originCode, "", &CityNotFoundError{Title: "city_not_set", OriginCode: originCode}
	}
	if code, ok := r.finder.ValidateCode(dest.City); ok {
		return originCode, code, nil
	}

	city := CleanCityName(dest.City, r.prefixSeparator)
	lookup := r.GetCachedCodes(ctx, city)

	r.logger.WithFields(logrus.Fields{
		"city":   city,
		"status": lookup.Status.String(),
	}).Debug("Resolved destination city")

	switch lookup.Status {
	case LookupResolved:
		return originCode, lookup.Code, nil
	case LookupAmbiguous:
		return originCode, "", &TooManyFoundError{Title: city, OriginCode: originCode, Candidates: lookup.Candidates}
	case LookupNotFound:
		return originCode, "", &CityNotFoundError{Title: city, OriginCode: originCode}
	default:
		return originCode, "", &ApiOfflineError{Carrier: r.carrier, Err: lookup.Err}
	}
}

// cachedBranches returns the carrier catalog, loading it on a cache miss
func (r *resolver) cachedBranches(ctx context.Context, load func(context.Context) ([]models.Branch, error)) ([]models.Branch, error) {
	key := fmt.Sprintf("%s_branches", r.carrier)

	var branches []models.Branch
	found, err := r.store.Get(ctx, key, &branches)
	if err != nil {
		r.logger.WithError(err).Warn("Branch cache read failed, asking carrier")
	}
	if found {
		return branches, nil
	}

	branches, err = load(ctx)
	if err != nil {
		return nil, &ApiOfflineError{Carrier: r.carrier, Err: err}
	}
	if err := r.store.Set(ctx, key, branches, r.ttl); err != nil {
		r.logger.WithError(err).Warn("Branch cache write failed")
	}
	return branches, nil
}

// getCharges resolves codes through f and prices the packs
func getCharges(ctx context.Context, f Facade, packs []models.Pack, origin string, dest *models.Destination) (*RawResult, error) {
	originCode, destCode, err := f.GetCityCodes(ctx, origin, dest)
	if err != nil {
		return nil, err
	}
	return f.GetCharge(ctx, originCode, destCode, packs, nil)
}

// parseOptions interprets a raw result: one option is a charge, several need
// the buyer to choose, none is a calculation error
func parseOptions(f Facade, raw *RawResult, pc ParseContext) ParsedCharge {
	if raw == nil {
		err := &CalculationError{Carrier: f.Name(), Detail: "empty carrier response"}
		return ParsedCharge{Charge: decimal.Zero, Errors: []string{err.Detail}, Err: err}
	}
	if raw.ProviderError != "" {
		err := &CalculationError{Carrier: f.Name(), Detail: raw.ProviderError}
		return ParsedCharge{Charge: decimal.Zero, Errors: []string{raw.ProviderError}, Err: err}
	}

	switch len(raw.Options) {
	case 0:
		err := &CalculationError{Carrier: f.Name(), Detail: "no transport options available for this route"}
		return ParsedCharge{Charge: decimal.Zero, Errors: []string{err.Detail}, Err: err}
	case 1:
		option := raw.Options[0]
		return ParsedCharge{
			Charge: option.Cost,
			Messages: []string{
				describe(pc),
				forms.OptionSummary(option, pc.Currency),
			},
			Options: raw.Options,
		}
	default:
		form := f.GetExtraForm(forms.Context{
			Method:          pc.Method,
			Currency:        pc.Currency,
			OriginCode:      raw.OriginCode,
			DestinationCode: raw.DestinationCode,
			Options:         raw.Options,
		})
		return ParsedCharge{
			Charge:   decimal.Zero,
			Messages: []string{describe(pc), "Several transport options are available, please choose one"},
			Options:  raw.Options,
			Form:     form,
		}
	}
}

func describe(pc ParseContext) string {
	return fmt.Sprintf("Approximated shipping price for %s kg from %s to %s",
		pc.Weight.StringFixed(3), pc.Origin, pc.Destination)
}
