package services

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"shipping-charge-service/internal/carriers"
	"shipping-charge-service/internal/forms"
	"shipping-charge-service/internal/models"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// MockFacade is a mock implementation of carriers.Facade
type MockFacade struct {
	mock.Mock
}

func (m *MockFacade) Name() models.APIType {
	return models.APIPecom
}

func (m *MockFacade) ValidateCode(raw string) (string, bool) {
	args := m.Called(raw)
	return args.String(0), args.Bool(1)
}

func (m *MockFacade) GetByCode(ctx context.Context, code string) (string, bool) {
	args := m.Called(ctx, code)
	return args.String(0), args.Bool(1)
}

func (m *MockFacade) GetCachedOriginCode(ctx context.Context, origin string) (string, error) {
	args := m.Called(ctx, origin)
	return args.String(0), args.Error(1)
}

func (m *MockFacade) GetCachedCodes(ctx context.Context, city string) carriers.CodeLookup {
	args := m.Called(ctx, city)
	return args.Get(0).(carriers.CodeLookup)
}

func (m *MockFacade) GetAllBranches(ctx context.Context) ([]models.Branch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Branch), args.Error(1)
}

func (m *MockFacade) GetCityCodes(ctx context.Context, origin string, dest *models.Destination) (string, string, error) {
	args := m.Called(ctx, origin, dest)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockFacade) GetCharge(ctx context.Context, originCode, destCode string, packs []models.Pack, opts models.ChargeOptions) (*carriers.RawResult, error) {
	args := m.Called(ctx, originCode, destCode, packs, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carriers.RawResult), args.Error(1)
}

func (m *MockFacade) GetCharges(ctx context.Context, weight decimal.Decimal, packs []models.Pack, origin string, dest *models.Destination) (*carriers.RawResult, error) {
	args := m.Called(ctx, weight, packs, origin, dest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carriers.RawResult), args.Error(1)
}

func (m *MockFacade) ParseResults(raw *carriers.RawResult, pc carriers.ParseContext) carriers.ParsedCharge {
	args := m.Called(raw, pc)
	return args.Get(0).(carriers.ParsedCharge)
}

func (m *MockFacade) GetExtraForm(fc forms.Context) *models.ExtraForm {
	args := m.Called(fc)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.ExtraForm)
}

func (m *MockFacade) GetQueryset(ctx context.Context) ([]models.LookupRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LookupRecord), args.Error(1)
}

// FormatObjects puts every record in a single group
func (m *MockFacade) FormatObjects(records []models.LookupRecord) []models.LookupGroup {
	group := models.LookupGroup{Text: "all", Children: []models.LookupItem{}}
	for _, r := range records {
		group.Children = append(group.Children, models.LookupItem{ID: r.ID, Text: r.Text})
	}
	return []models.LookupGroup{group}
}

// MockFacadeProvider is a mock implementation of FacadeProvider
type MockFacadeProvider struct {
	mock.Mock
}

func (m *MockFacadeProvider) FacadeFor(method *models.ShippingMethod) (carriers.Facade, error) {
	args := m.Called(method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(carriers.Facade), args.Error(1)
}

func (m *MockFacadeProvider) Invalidate(method *models.ShippingMethod) {
	m.Called(method)
}

// MockMethodRepository is a mock implementation of repository.ShippingMethodRepository
type MockMethodRepository struct {
	mock.Mock
}

func (m *MockMethodRepository) Create(ctx context.Context, method *models.ShippingMethod) error {
	args := m.Called(ctx, method)
	return args.Error(0)
}

func (m *MockMethodRepository) Update(ctx context.Context, method *models.ShippingMethod) error {
	args := m.Called(ctx, method)
	return args.Error(0)
}

func (m *MockMethodRepository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockMethodRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ShippingMethod, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShippingMethod), args.Error(1)
}

func (m *MockMethodRepository) GetByCode(ctx context.Context, tenantID, code string) (*models.ShippingMethod, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShippingMethod), args.Error(1)
}

func (m *MockMethodRepository) List(ctx context.Context, tenantID string, activeOnly bool) ([]models.ShippingMethod, error) {
	args := m.Called(ctx, tenantID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ShippingMethod), args.Error(1)
}

func (m *MockMethodRepository) SetContainers(ctx context.Context, method *models.ShippingMethod, containerIDs []uuid.UUID) error {
	args := m.Called(ctx, method, containerIDs)
	return args.Error(0)
}

// MockContainerRepository is a mock implementation of repository.ContainerRepository
type MockContainerRepository struct {
	mock.Mock
}

func (m *MockContainerRepository) List(ctx context.Context, tenantID string) ([]models.ShippingContainer, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ShippingContainer), args.Error(1)
}

func (m *MockContainerRepository) Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.ShippingContainer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShippingContainer), args.Error(1)
}

func (m *MockContainerRepository) Create(ctx context.Context, container *models.ShippingContainer) error {
	args := m.Called(ctx, container)
	return args.Error(0)
}

func (m *MockContainerRepository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockPublisher is a mock implementation of EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishChargeCalculated(ctx context.Context, method *models.ShippingMethod, result *models.ChargeResult) error {
	args := m.Called(ctx, method, result)
	return args.Error(0)
}
