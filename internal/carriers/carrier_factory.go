package carriers

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"shipping-charge-service/internal/cache"
	"shipping-charge-service/internal/config"
	"shipping-charge-service/internal/forms"
	"shipping-charge-service/internal/models"
)

// Dependencies are the process wide collaborators shared by every facade
type Dependencies struct {
	Settings  config.ShippingSettings
	Endpoints config.CarriersConfig
	Store     cache.Store
	Memo      *cache.OriginMemo
	// Forms may be nil, facades then return no extra forms
	Forms  *forms.Builder
	Logger *logrus.Entry
}

// Constructor builds a facade for a shipping method
type Constructor func(deps Dependencies, method *models.ShippingMethod) (Facade, error)

// Registry selects facades by carrier API type and caches built instances
type Registry struct {
	deps Dependencies

	mu           sync.RWMutex
	constructors map[models.APIType]Constructor
	facades      map[string]Facade // cache of facade instances
}

// NewRegistry creates a registry with the PEC and EMS facades registered
func NewRegistry(deps Dependencies) *Registry {
	if deps.Memo == nil {
		deps.Memo = cache.NewOriginMemo()
	}
	if deps.Store == nil {
		deps.Store = cache.NewMemoryStore()
	}
	if deps.Logger == nil {
		deps.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	r := &Registry{
		deps:         deps,
		constructors: make(map[models.APIType]Constructor),
		facades:      make(map[string]Facade),
	}
	r.Register(models.APIPecom, func(d Dependencies, m *models.ShippingMethod) (Facade, error) {
		f, err := NewPecomFacade(d, m)
		if err != nil {
			return nil, err
		}
		return f, nil
	})
	r.Register(models.APIEmspost, func(d Dependencies, m *models.ShippingMethod) (Facade, error) {
		f, err := NewEmspostFacade(d, m)
		if err != nil {
			return nil, err
		}
		return f, nil
	})
	return r
}

// Register adds or replaces the constructor for an API type
func (r *Registry) Register(apiType models.APIType, constructor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[apiType] = constructor
}

// FacadeFor returns the facade serving a method
func (r *Registry) FacadeFor(method *models.ShippingMethod) (Facade, error) {
	if method == nil {
		return nil, fmt.Errorf("shipping method is required")
	}
	if method.IsFree() {
		return nil, fmt.Errorf("%w: method %q does not use a carrier api", ErrNotSupported, method.Code)
	}
	if !r.deps.Settings.IsAPIEnabled(string(method.APIType)) {
		return nil, fmt.Errorf("%w: %s is not enabled", ErrUnsupportedCarrier, method.APIType)
	}

	cacheKey := facadeCacheKey(method)

	// Check cache first
	r.mu.RLock()
	if facade, exists := r.facades[cacheKey]; exists {
		r.mu.RUnlock()
		return facade, nil
	}
	constructor, ok := r.constructors[method.APIType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCarrier, method.APIType)
	}

	facade, err := constructor(r.deps, method)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s facade: %w", method.APIType, err)
	}

	r.mu.Lock()
	if existing, exists := r.facades[cacheKey]; exists {
		facade = existing
	} else {
		r.facades[cacheKey] = facade
	}
	r.mu.Unlock()

	return facade, nil
}

// Invalidate drops the cached facade of a method
func (r *Registry) Invalidate(method *models.ShippingMethod) {
	prefix := fmt.Sprintf("%s_%s_", method.TenantID, method.Code)
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.facades {
		if strings.HasPrefix(key, prefix) {
			delete(r.facades, key)
		}
	}
}

// SupportedTypes returns the registered API types that are enabled
func (r *Registry) SupportedTypes() []models.APIType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var types []models.APIType
	for t := range r.constructors {
		if r.deps.Settings.IsAPIEnabled(string(t)) {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// facadeCacheKey changes whenever the method is updated, so edited
// credentials never reach a stale facade
func facadeCacheKey(method *models.ShippingMethod) string {
	return fmt.Sprintf("%s_%s_%s_%d", method.TenantID, method.Code, method.APIType, method.UpdatedAt.UnixNano())
}

// GetCarrierDisplayName returns the display name for a carrier API type
func GetCarrierDisplayName(apiType models.APIType) string {
	names := map[models.APIType]string{
		models.APIPecom:      "PEC API ver. 1.0",
		models.APIEmspost:    "EMS Russian Post REST API",
		models.APISelfPickup: "Self pickup",
	}

	if name, ok := names[apiType]; ok {
		return name
	}
	return string(apiType)
}
