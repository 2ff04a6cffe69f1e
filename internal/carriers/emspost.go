package carriers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"shipping-charge-service/internal/forms"
	"shipping-charge-service/internal/models"
)

var emsCodePattern = regexp.MustCompile(`^(city|region)--[a-z0-9-]+$`)

var emsFormFields = forms.Fields{
	Sender:   "sender",
	Receiver: "receiver",
}

// emsResponse is the envelope of every EMS REST answer
type emsResponse struct {
	Rsp struct {
		Stat      string `json:"stat"`
		Locations []struct {
			Value string `json:"value"`
			Name  string `json:"name"`
			Type  string `json:"type"`
		} `json:"locations"`
		Price decimal.Decimal `json:"price"`
		Term  struct {
			Min interface{} `json:"min"`
			Max interface{} `json:"max"`
		} `json:"term"`
		Err struct {
			Code string `json:"code"`
			Msg  string `json:"msg"`
		} `json:"err"`
	} `json:"rsp"`
}

func (r *emsResponse) failed() bool {
	return r.Rsp.Stat != "ok"
}

// EmspostFacade implements Facade for the EMS Russian Post REST API. It
// prices one tariff only, so it never offers transport options.
type EmspostFacade struct {
	*resolver
	client *apiClient
	forms  *forms.Builder
}

// NewEmspostFacade creates an EMS facade. The public API needs no credentials.
func NewEmspostFacade(deps Dependencies, method *models.ShippingMethod) (*EmspostFacade, error) {
	r := newResolver(models.APIEmspost, deps)
	f := &EmspostFacade{
		resolver: r,
		client:   newAPIClient(models.APIEmspost, deps.Endpoints.Emspost, r.logger),
		forms:    deps.Forms,
	}
	r.finder = f
	return f, nil
}

// Name returns the carrier API type
func (f *EmspostFacade) Name() models.APIType {
	return models.APIEmspost
}

// ValidateCode accepts EMS location codes such as "city--sankt-peterburg"
func (f *EmspostFacade) ValidateCode(raw string) (string, bool) {
	code := strings.ToLower(strings.TrimSpace(raw))
	if !emsCodePattern.MatchString(code) {
		return "", false
	}
	return code, true
}

// GetByCode returns the title of a location code
func (f *EmspostFacade) GetByCode(ctx context.Context, code string) (string, bool) {
	branches, err := f.GetAllBranches(ctx)
	if err != nil {
		return "", false
	}
	return findTitle(branches, code)
}

// FindByTitle matches the title against the location catalog, ignoring case.
// EMS offers no search call.
func (f *EmspostFacade) FindByTitle(ctx context.Context, title string) ([]models.CodeEntry, error) {
	branches, err := f.GetAllBranches(ctx)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	var entries []models.CodeEntry
	for _, b := range branches {
		if strings.EqualFold(b.Title, title) {
			entries = append(entries, models.CodeEntry{Code: b.Code, Title: b.Title, Type: b.Type})
		}
	}
	return entries, nil
}

// GetAllBranches returns every EMS location: cities and regions
func (f *EmspostFacade) GetAllBranches(ctx context.Context) ([]models.Branch, error) {
	return f.cachedBranches(ctx, f.loadLocations)
}

func (f *EmspostFacade) loadLocations(ctx context.Context) ([]models.Branch, error) {
	params := url.Values{}
	params.Set("method", "ems.get.locations")
	params.Set("type", "russia")
	params.Set("plain", "true")

	body, err := f.client.do(ctx, "locations", http.MethodGet, "/", params, nil, true)
	if err != nil {
		return nil, err
	}

	var response emsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse locations response: %w", err)
	}
	if response.failed() {
		return nil, fmt.Errorf("locations request failed: %s", response.Rsp.Err.Msg)
	}

	branches := make([]models.Branch, 0, len(response.Rsp.Locations))
	for _, l := range response.Rsp.Locations {
		branches = append(branches, models.Branch{Code: l.Value, Title: l.Name, Type: l.Type})
	}
	return branches, nil
}

// GetCharge prices the total pack weight with ems.calculate. Options are ignored.
func (f *EmspostFacade) GetCharge(ctx context.Context, originCode, destCode string, packs []models.Pack, _ models.ChargeOptions) (*RawResult, error) {
	result := &RawResult{Carrier: models.APIEmspost, OriginCode: originCode, DestinationCode: destCode}

	weight := decimal.Zero
	for _, p := range packs {
		weight = weight.Add(p.Weight)
	}

	params := url.Values{}
	params.Set("method", "ems.calculate")
	params.Set("from", originCode)
	params.Set("to", destCode)
	params.Set("weight", weight.StringFixed(3))

	// Charge requests are never retried
	body, err := f.client.do(ctx, "calculate", http.MethodGet, "/", params, nil, false)
	if err != nil {
		return nil, &ApiOfflineError{Carrier: models.APIEmspost, Err: err}
	}

	var response emsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &ApiOfflineError{Carrier: models.APIEmspost, Err: fmt.Errorf("failed to parse calculate response: %w", err)}
	}
	if response.failed() {
		result.ProviderError = response.Rsp.Err.Msg
		if result.ProviderError == "" {
			result.ProviderError = response.Rsp.Err.Code
		}
		return result, nil
	}

	option := models.PricedOption{Code: "ems", Title: "EMS", Cost: response.Rsp.Price}
	if response.Rsp.Term.Min != nil && response.Rsp.Term.Max != nil {
		option.Term = fmt.Sprintf("%v-%v days", response.Rsp.Term.Min, response.Rsp.Term.Max)
	}
	result.Options = []models.PricedOption{option}
	return result, nil
}

// GetCharges resolves codes and prices the packs
func (f *EmspostFacade) GetCharges(ctx context.Context, weight decimal.Decimal, packs []models.Pack, origin string, dest *models.Destination) (*RawResult, error) {
	return getCharges(ctx, f, packs, origin, dest)
}

// ParseResults interprets an EMS answer
func (f *EmspostFacade) ParseResults(raw *RawResult, pc ParseContext) ParsedCharge {
	return parseOptions(f, raw, pc)
}

// GetExtraForm describes the EMS destination picker. EMS has no transport
// options, so the form never carries an option choice.
func (f *EmspostFacade) GetExtraForm(fc forms.Context) *models.ExtraForm {
	if f.forms == nil {
		return nil
	}
	fc = f.formOrigin(fc)
	fc.Carrier = models.APIEmspost
	fc.Fields = emsFormFields
	fc.Options = nil
	return f.forms.Build(fc)
}

// GetQueryset lists every location as a lookup record grouped by type
func (f *EmspostFacade) GetQueryset(ctx context.Context) ([]models.LookupRecord, error) {
	branches, err := f.GetAllBranches(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]models.LookupRecord, 0, len(branches))
	for _, b := range branches {
		records = append(records, models.LookupRecord{ID: b.Code, Text: b.Title, Group: b.Type})
	}
	return records, nil
}

// FormatObjects groups lookup records by location type
func (f *EmspostFacade) FormatObjects(records []models.LookupRecord) []models.LookupGroup {
	return groupRecords(records, "")
}
