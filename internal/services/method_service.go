package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"shipping-charge-service/internal/config"
	"shipping-charge-service/internal/models"
	"shipping-charge-service/internal/repository"
)

// ErrInvalidMethod is returned for shipping method input that fails validation
var ErrInvalidMethod = errors.New("invalid shipping method")

// FacadeInvalidator drops cached facades of an edited method
type FacadeInvalidator interface {
	Invalidate(method *models.ShippingMethod)
}

// MethodService manages shipping methods and lists the ones usable at checkout
type MethodService struct {
	repo         repository.ShippingMethodRepository
	availability *AvailabilityService
	invalidator  FacadeInvalidator
	settings     config.ShippingSettings
	logger       *logrus.Entry
}

// NewMethodService creates a method service
func NewMethodService(
	repo repository.ShippingMethodRepository,
	availability *AvailabilityService,
	invalidator FacadeInvalidator,
	settings config.ShippingSettings,
	logger *logrus.Entry,
) *MethodService {
	return &MethodService{
		repo:         repo,
		availability: availability,
		invalidator:  invalidator,
		settings:     settings,
		logger:       logger.WithField("component", "method-service"),
	}
}

// AvailableMethods lists the active methods of a tenant that may ship to
// dest. Undetermined methods are kept.
func (s *MethodService) AvailableMethods(ctx context.Context, tenantID string, dest *models.Destination) ([]models.AvailableMethod, error) {
	methods, err := s.repo.List(ctx, tenantID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipping methods: %w", err)
	}

	available := make([]models.AvailableMethod, 0, len(methods))
	for i := range methods {
		method := &methods[i]
		availability := s.availability.DestinationAllowed(ctx, method, dest)
		if availability == models.AvailabilityDeny {
			continue
		}
		available = append(available, models.AvailableMethod{Method: method, Availability: availability})
	}
	return available, nil
}

// List lists every method of a tenant
func (s *MethodService) List(ctx context.Context, tenantID string) ([]models.ShippingMethod, error) {
	return s.repo.List(ctx, tenantID, false)
}

// Get gets a method by ID
func (s *MethodService) Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.ShippingMethod, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

// GetByCode gets a method by its checkout code
func (s *MethodService) GetByCode(ctx context.Context, tenantID, code string) (*models.ShippingMethod, error) {
	return s.repo.GetByCode(ctx, tenantID, code)
}

// Create validates and stores a new method
func (s *MethodService) Create(ctx context.Context, tenantID string, req models.MethodRequest) (*models.ShippingMethod, error) {
	method := &models.ShippingMethod{
		ID:       uuid.New(),
		TenantID: tenantID,
		IsActive: true,
	}
	s.apply(method, req)
	if err := s.validate(method); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, method); err != nil {
		return nil, fmt.Errorf("failed to create shipping method: %w", err)
	}
	if req.ContainerIDs != nil {
		if err := s.repo.SetContainers(ctx, method, req.ContainerIDs); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"method":    method.Code,
		"api_type":  method.APIType,
	}).Info("Shipping method created")
	return method, nil
}

// Update validates and stores changes to a method. An omitted API key keeps the stored one.
func (s *MethodService) Update(ctx context.Context, tenantID string, id uuid.UUID, req models.MethodRequest) (*models.ShippingMethod, error) {
	method, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	previous := *method

	s.apply(method, req)
	if err := s.validate(method); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, method); err != nil {
		return nil, fmt.Errorf("failed to update shipping method: %w", err)
	}
	if req.ContainerIDs != nil {
		if err := s.repo.SetContainers(ctx, method, req.ContainerIDs); err != nil {
			return nil, err
		}
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(&previous)
	}
	return method, nil
}

// Delete removes a method
func (s *MethodService) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	method, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(method)
	}
	return nil
}

func (s *MethodService) apply(method *models.ShippingMethod, req models.MethodRequest) {
	method.Code = strings.TrimSpace(req.Code)
	method.Name = strings.TrimSpace(req.Name)
	method.Description = req.Description
	method.APIType = req.APIType
	method.APIUser = req.APIUser
	if req.APIKey != nil {
		method.APIKey = *req.APIKey
	}
	method.Status = lo.Ternary(req.Status == "", models.MethodStatusOnline, req.Status)
	method.Origin = strings.TrimSpace(req.Origin)
	method.DestinationWhitelist = req.DestinationWhitelist
	method.DestinationBlacklist = req.DestinationBlacklist
	method.PaymentType = lo.Ternary(req.PaymentType == "", models.PaymentPrepaid, req.PaymentType)
	if req.IsActive != nil {
		method.IsActive = *req.IsActive
	}
	method.Priority = req.Priority
}

func (s *MethodService) validate(method *models.ShippingMethod) error {
	if method.Code == "" || method.Name == "" {
		return fmt.Errorf("%w: code and name are required", ErrInvalidMethod)
	}
	if !method.IsFree() && !s.settings.IsAPIEnabled(string(method.APIType)) {
		return fmt.Errorf("%w: api type %q is not enabled", ErrInvalidMethod, method.APIType)
	}
	if !lo.Contains([]models.MethodStatus{models.MethodStatusOnline, models.MethodStatusOffline, models.MethodStatusDisabled}, method.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidMethod, method.Status)
	}
	if !lo.Contains([]models.PaymentType{models.PaymentPrepaid, models.PaymentPostpaid}, method.PaymentType) {
		return fmt.Errorf("%w: unknown payment type %q", ErrInvalidMethod, method.PaymentType)
	}
	if method.APIType == models.APIPecom && (method.APIUser == "" || method.APIKey == "") {
		return fmt.Errorf("%w: %s requires api user and key", ErrInvalidMethod, method.APIType)
	}
	return nil
}
