package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"shipping-charge-service/internal/carriers"
	"shipping-charge-service/internal/config"
	"shipping-charge-service/internal/forms"
	"shipping-charge-service/internal/metrics"
	"shipping-charge-service/internal/models"
	"shipping-charge-service/internal/packer"
	"shipping-charge-service/internal/repository"
)

// FacadeProvider returns the carrier facade serving a method
type FacadeProvider interface {
	FacadeFor(method *models.ShippingMethod) (carriers.Facade, error)
}

// EventPublisher publishes charge outcomes
type EventPublisher interface {
	PublishChargeCalculated(ctx context.Context, method *models.ShippingMethod, result *models.ChargeResult) error
}

// ChargeService computes shipping charges through the carrier facades
type ChargeService struct {
	facades    FacadeProvider
	containers repository.ContainerRepository
	scale      packer.Scale
	settings   config.ShippingSettings
	publisher  EventPublisher
	logger     *logrus.Entry
}

// NewChargeService creates a charge service. containers and publisher may be nil.
func NewChargeService(
	facades FacadeProvider,
	containers repository.ContainerRepository,
	settings config.ShippingSettings,
	publisher EventPublisher,
	logger *logrus.Entry,
) *ChargeService {
	return &ChargeService{
		facades:    facades,
		containers: containers,
		scale:      packer.NewAttributeScale(settings.WeightAttribute, settings.DefaultWeight, settings.WeightPrecision),
		settings:   settings,
		publisher:  publisher,
		logger:     logger.WithField("component", "charge-service"),
	}
}

// Calculate prices a basket for a method. Without a confirmation the
// destination is resolved by name; with one, the posted codes and options
// are priced directly. Carrier trouble ends up in the result, only contract
// violations are returned as errors.
func (s *ChargeService) Calculate(
	ctx context.Context,
	method *models.ShippingMethod,
	basket models.Basket,
	dest *models.Destination,
	confirm *models.Confirmation,
) (*models.ChargeResult, error) {
	if method == nil {
		return nil, fmt.Errorf("shipping method is required")
	}

	result, err := s.calculate(ctx, method, basket, dest, confirm)
	if err != nil {
		return nil, err
	}

	metrics.ChargeCalculations.WithLabelValues(carrierLabel(method.APIType), string(result.State)).Inc()
	s.logger.WithFields(logrus.Fields{
		"tenant_id": method.TenantID,
		"method":    method.Code,
		"state":     result.State,
		"charge":    result.Charge.InclTax.String(),
	}).Info("Shipping charge calculated")

	if s.publisher != nil {
		if err := s.publisher.PublishChargeCalculated(ctx, method, result); err != nil {
			s.logger.WithError(err).Warn("Failed to publish charge event")
		}
	}
	return result, nil
}

// Details prices a basket between two carrier codes posted by the city
// picker, as the confirmed phase of a calculation
func (s *ChargeService) Details(
	ctx context.Context,
	method *models.ShippingMethod,
	basket models.Basket,
	from, to string,
	options models.ChargeOptions,
) (*models.ChargeResult, error) {
	return s.Calculate(ctx, method, basket, nil, &models.Confirmation{
		Origin:      from,
		Destination: to,
		Options:     options,
	})
}

func (s *ChargeService) calculate(
	ctx context.Context,
	method *models.ShippingMethod,
	basket models.Basket,
	dest *models.Destination,
	confirm *models.Confirmation,
) (*models.ChargeResult, error) {
	result := &models.ChargeResult{
		Method:  method.Code,
		Carrier: method.APIType,
		State:   models.StateStart,
		Charge:  models.NewPrice(basket.Currency, decimal.Zero),
		Weight:  s.scale.WeighBasket(basket),
		Packs:   s.pack(ctx, method, basket),
	}

	if method.IsFree() {
		result.State = models.StateResolved
		result.Messages = append(result.Messages, "Self pickup is free of charge")
		return result, nil
	}

	if dest == nil && confirm == nil {
		return s.fail(result, "no shipping address given"), nil
	}

	if method.Status == models.MethodStatusOffline {
		return s.fail(result, offlineMessage(method)), nil
	}

	facade, err := s.facades.FacadeFor(method)
	if err != nil {
		if errors.Is(err, carriers.ErrImproperlyConfigured) ||
			errors.Is(err, carriers.ErrUnsupportedCarrier) ||
			errors.Is(err, carriers.ErrNotSupported) {
			s.logger.WithError(err).WithField("method", method.Code).Error("Shipping method is misconfigured")
			return s.fail(result, "shipping method is not configured properly, please choose another one"), nil
		}
		return nil, fmt.Errorf("failed to get carrier facade: %w", err)
	}

	if confirm != nil {
		return s.confirmed(ctx, facade, method, basket.Currency, confirm, result)
	}
	return s.resolve(ctx, facade, method, basket.Currency, dest, result)
}

// resolve runs the first phase: codes are looked up by name, then priced
func (s *ChargeService) resolve(
	ctx context.Context,
	facade carriers.Facade,
	method *models.ShippingMethod,
	currency string,
	dest *models.Destination,
	result *models.ChargeResult,
) (*models.ChargeResult, error) {
	origin := s.origin(method)

	raw, err := facade.GetCharges(ctx, result.Weight, result.Packs, origin, dest)
	if err != nil {
		return s.resolutionFailed(facade, method, currency, origin, err, result)
	}

	result.OriginCode = raw.OriginCode
	result.DestinationCode = raw.DestinationCode
	parsed := facade.ParseResults(raw, carriers.ParseContext{
		Method:      method.Code,
		Currency:    currency,
		Origin:      origin,
		Destination: destinationTitle(ctx, facade, dest.City, raw.DestinationCode),
		Weight:      result.Weight,
		Packs:       result.Packs,
	})
	s.applyParsed(result, parsed, models.StateResolved)

	if parsed.Err != nil && s.settings.ChangeDestination {
		result.ExtraForm = facade.GetExtraForm(forms.Context{
			Method:     method.Code,
			Currency:   currency,
			OriginCode: raw.OriginCode,
		})
	}
	return result, nil
}

// confirmed runs the second phase: the buyer posted resolved codes and options
func (s *ChargeService) confirmed(
	ctx context.Context,
	facade carriers.Facade,
	method *models.ShippingMethod,
	currency string,
	confirm *models.Confirmation,
	result *models.ChargeResult,
) (*models.ChargeResult, error) {
	origin := confirm.Origin
	if origin == "" {
		origin = s.origin(method)
	}

	originCode, ok := facade.ValidateCode(origin)
	if !ok {
		var err error
		if originCode, err = facade.GetCachedOriginCode(ctx, origin); err != nil {
			return s.resolutionFailed(facade, method, currency, origin, err, result)
		}
	}
	result.OriginCode = originCode

	destCode, ok := facade.ValidateCode(confirm.Destination)
	if !ok {
		return s.fail(result, fmt.Sprintf("%q is not a valid destination code", confirm.Destination)), nil
	}
	result.DestinationCode = destCode

	raw, err := facade.GetCharge(ctx, originCode, destCode, result.Packs, confirm.Options)
	if err != nil {
		return s.resolutionFailed(facade, method, currency, origin, err, result)
	}

	parsed := facade.ParseResults(raw, carriers.ParseContext{
		Method:      method.Code,
		Currency:    currency,
		Origin:      origin,
		Destination: destinationTitle(ctx, facade, "", destCode),
		Weight:      result.Weight,
		Packs:       result.Packs,
	})
	s.applyParsed(result, parsed, models.StateConfirmed)
	return result, nil
}

// destinationTitle names the destination for charge messages: the posted
// city, else the carrier's title for code, else the code itself
func destinationTitle(ctx context.Context, facade carriers.Facade, city, code string) string {
	if city != "" {
		return city
	}
	if title, ok := facade.GetByCode(ctx, code); ok {
		return title
	}
	return code
}

// resolutionFailed maps a facade error to a result state and, where the
// buyer can fix it, an extra form
func (s *ChargeService) resolutionFailed(
	facade carriers.Facade,
	method *models.ShippingMethod,
	currency, origin string,
	err error,
	result *models.ChargeResult,
) (*models.ChargeResult, error) {
	log := s.logger.WithError(err).WithFields(logrus.Fields{
		"tenant_id": method.TenantID,
		"method":    method.Code,
	})

	var (
		offline   *carriers.ApiOfflineError
		originErr *carriers.OriginCityNotFoundError
		notFound  *carriers.CityNotFoundError
		tooMany   *carriers.TooManyFoundError
		calcErr   *carriers.CalculationError
	)

	switch {
	case errors.As(err, &offline):
		log.Warn("Carrier API is offline")
		return s.fail(result, offlineMessage(method)), nil

	case errors.As(err, &originErr):
		log.Error("Origin city could not be resolved")
		return s.fail(result, fmt.Sprintf("shipping method is not configured properly: origin %q is unknown to the carrier", originErr.Title)), nil

	case errors.As(err, &notFound):
		result.OriginCode = notFound.OriginCode
		result.Messages = append(result.Messages, cityNotFoundMessage(notFound.Title))
		if !s.settings.ChangeDestination {
			result.State = models.StateFailed
			result.Errors = append(result.Errors, cityNotFoundMessage(notFound.Title))
			return result, nil
		}
		result.State = models.StateNeedsDestinationCode
		result.ExtraForm = facade.GetExtraForm(forms.Context{
			Method:     method.Code,
			Currency:   currency,
			OriginCode: notFound.OriginCode,
			Origin:     origin,
		})
		return result, nil

	case errors.As(err, &tooMany):
		result.OriginCode = tooMany.OriginCode
		result.Candidates = tooMany.Candidates
		result.State = models.StateNeedsDisambiguation
		result.Messages = append(result.Messages,
			fmt.Sprintf("Too many cities found for %q, please choose one", tooMany.Title))
		result.ExtraForm = facade.GetExtraForm(forms.Context{
			Method:     method.Code,
			Currency:   currency,
			OriginCode: tooMany.OriginCode,
			Origin:     origin,
			Candidates: tooMany.Candidates,
		})
		return result, nil

	case errors.As(err, &calcErr):
		log.Warn("Carrier refused to calculate the charge")
		result.ExtraForm = facade.GetExtraForm(forms.Context{
			Method:     method.Code,
			Currency:   currency,
			OriginCode: result.OriginCode,
			Origin:     origin,
		})
		return s.fail(result, calcErr.Detail), nil
	}

	return nil, fmt.Errorf("failed to calculate %s charge: %w", method.Code, err)
}

// applyParsed merges a parsed charge into the result. A parse with a form
// asks the buyer to choose, a parse with an error fails.
func (s *ChargeService) applyParsed(result *models.ChargeResult, parsed carriers.ParsedCharge, success models.CalculationState) {
	result.Charge = models.NewPrice(result.Charge.Currency, parsed.Charge)
	result.Messages = append(result.Messages, parsed.Messages...)
	result.Errors = append(result.Errors, parsed.Errors...)
	result.Options = parsed.Options
	result.ExtraForm = parsed.Form

	switch {
	case parsed.Err != nil:
		result.State = models.StateFailed
	case parsed.Form != nil:
		result.State = models.StateNeedsDisambiguation
	default:
		result.State = success
	}
}

// pack packs the basket into the method's containers, or into the tenant
// catalog when the method names none
func (s *ChargeService) pack(ctx context.Context, method *models.ShippingMethod, basket models.Basket) []models.Pack {
	containers := method.Containers
	if len(containers) == 0 && s.containers != nil {
		var err error
		if containers, err = s.containers.List(ctx, method.TenantID); err != nil {
			s.logger.WithError(err).Warn("Failed to load container catalog, packing into a virtual box")
		}
	}
	return packer.New(containers, s.scale, packer.OptionsFromSettings(s.settings)).PackBasket(basket)
}

func (s *ChargeService) origin(method *models.ShippingMethod) string {
	if method.Origin != "" {
		return method.Origin
	}
	return s.settings.DefaultOrigin
}

func (s *ChargeService) fail(result *models.ChargeResult, message string) *models.ChargeResult {
	result.State = models.StateFailed
	result.Charge = models.NewPrice(result.Charge.Currency, decimal.Zero)
	result.Errors = append(result.Errors, message)
	return result
}

func offlineMessage(method *models.ShippingMethod) string {
	return fmt.Sprintf("%s is offline at the moment, please choose another shipping method",
		carriers.GetCarrierDisplayName(method.APIType))
}

func cityNotFoundMessage(city string) string {
	if city == "city_not_set" {
		return "Destination city is not set"
	}
	return fmt.Sprintf("City %q was not found, please choose the destination", city)
}

func carrierLabel(apiType models.APIType) string {
	if apiType == models.APISelfPickup {
		return "self_pickup"
	}
	return string(apiType)
}
