package services

import (
	"context"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"shipping-charge-service/internal/carriers"
	"shipping-charge-service/internal/config"
	"shipping-charge-service/internal/models"
)

// AvailabilityService applies the destination white and black lists of a method
type AvailabilityService struct {
	facades  FacadeProvider
	settings config.ShippingSettings
	logger   *logrus.Entry
}

// NewAvailabilityService creates an availability service
func NewAvailabilityService(facades FacadeProvider, settings config.ShippingSettings, logger *logrus.Entry) *AvailabilityService {
	return &AvailabilityService{
		facades:  facades,
		settings: settings,
		logger:   logger.WithField("component", "availability-service"),
	}
}

// DestinationAllowed tells whether a method may ship to dest. A destination
// resolving to no code gets the configured default visibility. The whitelist
// wins over the blacklist. A destination matching several codes that are
// only partly whitelisted is undetermined.
func (s *AvailabilityService) DestinationAllowed(ctx context.Context, method *models.ShippingMethod, dest *models.Destination) models.Availability {
	if method == nil || !method.IsUsable() {
		return models.AvailabilityDeny
	}
	if method.IsFree() {
		return models.AvailabilityAllow
	}

	codes := s.destinationCodes(ctx, method, dest)
	if len(codes) == 0 {
		if s.settings.IfNotFound {
			return models.AvailabilityAllow
		}
		return models.AvailabilityDeny
	}

	return FilterCodes(codes, method.Whitelist(s.settings.ListSeparator), method.Blacklist(s.settings.ListSeparator))
}

// FilterCodes applies white and black lists to the codes a destination resolved to
func FilterCodes(codes, whitelist, blacklist []string) models.Availability {
	if len(whitelist) > 0 {
		switch {
		case lo.Every(whitelist, codes):
			return models.AvailabilityAllow
		case !lo.Some(whitelist, codes):
			return models.AvailabilityDeny
		default:
			return models.AvailabilityUndetermined
		}
	}
	if len(blacklist) > 0 && lo.Every(blacklist, codes) {
		return models.AvailabilityDeny
	}
	return models.AvailabilityAllow
}

func (s *AvailabilityService) destinationCodes(ctx context.Context, method *models.ShippingMethod, dest *models.Destination) []string {
	if dest == nil {
		return nil
	}

	facade, err := s.facades.FacadeFor(method)
	if err != nil {
		s.logger.WithError(err).WithField("method", method.Code).Warn("No facade for method, destination filter skipped")
		return nil
	}

	if code, ok := facade.ValidateCode(dest.Code); ok {
		return []string{code}
	}
	if dest.City == "" {
		return nil
	}

	lookup := facade.GetCachedCodes(ctx, carriers.CleanCityName(dest.City, s.settings.CityPrefixSeparator))
	if lookup.Status == carriers.LookupTransportError {
		s.logger.WithError(lookup.Err).WithField("city", dest.City).Warn("Destination lookup failed")
	}
	return lookup.Codes()
}
