package carriers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"shipping-charge-service/internal/forms"
	"shipping-charge-service/internal/models"
)

// OptionTransportingType is the charge option naming the PEC transporting type
const OptionTransportingType = "transportingType"

var pecomFormFields = forms.Fields{
	Sender:   "senderCityId",
	Receiver: "receiverCityId",
	Option:   OptionTransportingType,
}

var pecomTransportingTypes = map[int]string{
	1: "Auto",
	2: "Avia",
	3: "Easy way",
}

// PecomFacade implements Facade for the PEC freight carrier API. Location
// codes are positive integers ("bitrixId").
type PecomFacade struct {
	*resolver
	client *apiClient
	forms  *forms.Builder
	now    func() time.Time

	volumePrecision int32
}

// NewPecomFacade creates a PEC facade for a method. API credentials are required.
func NewPecomFacade(deps Dependencies, method *models.ShippingMethod) (*PecomFacade, error) {
	if method.APIUser == "" || method.APIKey == "" {
		return nil, fmt.Errorf("%w: no api credentials specified for the shipping method %q", ErrImproperlyConfigured, models.APIPecom)
	}

	r := newResolver(models.APIPecom, deps)
	client := newAPIClient(models.APIPecom, deps.Endpoints.Pecom, r.logger)
	client.username = method.APIUser
	client.password = method.APIKey

	f := &PecomFacade{
		resolver: r,
		client:   client,
		forms:    deps.Forms,
		now:      time.Now,

		volumePrecision: deps.Settings.VolumePrecision,
	}
	r.finder = f
	return f, nil
}

// Name returns the carrier API type
func (f *PecomFacade) Name() models.APIType {
	return models.APIPecom
}

// ValidateCode accepts positive integer codes
func (f *PecomFacade) ValidateCode(raw string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return "", false
	}
	return strconv.Itoa(n), true
}

// GetByCode returns the title of a branch or city code
func (f *PecomFacade) GetByCode(ctx context.Context, code string) (string, bool) {
	branches, err := f.GetAllBranches(ctx)
	if err != nil {
		return "", false
	}
	return findTitle(branches, code)
}

// FindByTitle searches PEC cities by title
func (f *PecomFacade) FindByTitle(ctx context.Context, title string) ([]models.CodeEntry, error) {
	body, err := f.client.do(ctx, "findbytitle", http.MethodPost, "/branches/findbytitle/", nil,
		map[string]string{"title": title}, true)
	if err != nil {
		return nil, err
	}

	var response struct {
		Success bool `json:"success"`
		Items   []struct {
			CityID      json.Number `json:"cityId"`
			CityTitle   string      `json:"cityTitle"`
			BranchID    json.Number `json:"branchId"`
			BranchTitle string      `json:"branchTitle"`
		} `json:"items"`
		Error *struct {
			Title   string `json:"title"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse findbytitle response: %w", err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("findbytitle failed: %s", response.Error.Message)
	}

	entries := make([]models.CodeEntry, 0, len(response.Items))
	for _, item := range response.Items {
		entries = append(entries, models.CodeEntry{
			Code:  item.CityID.String(),
			Title: item.CityTitle,
			Type:  item.BranchTitle,
		})
	}
	return entries, nil
}

// GetAllBranches returns the PEC branch catalog with the cities each branch serves
func (f *PecomFacade) GetAllBranches(ctx context.Context) ([]models.Branch, error) {
	return f.cachedBranches(ctx, f.loadBranches)
}

func (f *PecomFacade) loadBranches(ctx context.Context) ([]models.Branch, error) {
	body, err := f.client.do(ctx, "branches", http.MethodPost, "/branches/all/", nil, struct{}{}, true)
	if err != nil {
		return nil, err
	}

	var response struct {
		Branches []struct {
			BitrixID json.Number `json:"bitrixId"`
			Title    string      `json:"title"`
			Cities   []struct {
				BitrixID json.Number `json:"bitrixId"`
				Title    string      `json:"title"`
			} `json:"cities"`
		} `json:"branches"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse branches response: %w", err)
	}

	branches := make([]models.Branch, 0, len(response.Branches))
	for _, b := range response.Branches {
		branch := models.Branch{Code: b.BitrixID.String(), Title: b.Title, Type: "branch"}
		for _, c := range b.Cities {
			if c.BitrixID == "" {
				continue
			}
			branch.Cities = append(branch.Cities, models.CodeEntry{Code: c.BitrixID.String(), Title: c.Title, Type: "city"})
		}
		branches = append(branches, branch)
	}
	return branches, nil
}

type pecomCargo struct {
	Length                float64 `json:"length"`
	Width                 float64 `json:"width"`
	Height                float64 `json:"height"`
	Volume                float64 `json:"volume"`
	MaxSize               float64 `json:"maxSize"`
	IsHP                  bool    `json:"isHP"`
	SealingPositionsCount int     `json:"sealingPositionsCount"`
	Weight                float64 `json:"weight"`
	OverSize              bool    `json:"overSize"`
}

type pecomCalcRequest struct {
	SenderCityID    int          `json:"senderCityId"`
	ReceiverCityID  int          `json:"receiverCityId"`
	IsOpenCarSender bool         `json:"isOpenCarSender"`
	IsHyperMarket   bool         `json:"isHyperMarket"`
	CalcDate        string       `json:"calcDate"`
	IsInsurance     bool         `json:"isInsurance"`
	IsPickUp        bool         `json:"isPickUp"`
	IsDelivery      bool         `json:"isDelivery"`
	Cargos          []pecomCargo `json:"Cargos"`
}

// GetCharge prices packs with the PEC calculator. A transporting type in
// opts narrows the answer to that option.
func (f *PecomFacade) GetCharge(ctx context.Context, originCode, destCode string, packs []models.Pack, opts models.ChargeOptions) (*RawResult, error) {
	result := &RawResult{Carrier: models.APIPecom, OriginCode: originCode, DestinationCode: destCode}

	sender, okSender := f.ValidateCode(originCode)
	receiver, okReceiver := f.ValidateCode(destCode)
	if !okSender || !okReceiver {
		result.ProviderError = fmt.Sprintf("invalid city codes %q -> %q", originCode, destCode)
		return result, nil
	}
	senderID, _ := strconv.Atoi(sender)
	receiverID, _ := strconv.Atoi(receiver)

	request := pecomCalcRequest{
		SenderCityID:   senderID,
		ReceiverCityID: receiverID,
		CalcDate:       f.now().Format("2006-01-02"),
		Cargos:         make([]pecomCargo, 0, len(packs)),
	}
	for _, p := range packs {
		weight, _ := p.Weight.Float64()
		volume, _ := p.Volume(f.volumePrecision).Float64()
		c := p.Container
		request.Cargos = append(request.Cargos, pecomCargo{
			Length:  c.Length,
			Width:   c.Width,
			Height:  c.Height,
			Volume:  volume,
			MaxSize: maxFloat(c.Length, c.Width, c.Height),
			Weight:  weight,
		})
	}

	// Charge requests are never retried
	body, err := f.client.do(ctx, "calculateprice", http.MethodPost, "/calculator/calculateprice/", nil, request, false)
	if err != nil {
		return nil, &ApiOfflineError{Carrier: models.APIPecom, Err: err}
	}

	var response struct {
		HasError     bool   `json:"hasError"`
		ErrorMessage string `json:"errorMessage"`
		Transfers    []struct {
			TransportingType int             `json:"transportingType"`
			HasError         bool            `json:"hasError"`
			ErrorMessage     string          `json:"errorMessage"`
			CostTotal        decimal.Decimal `json:"costTotal"`
			Services         []struct {
				ServiceType string          `json:"serviceType"`
				SenderCity  string          `json:"senderCity"`
				Cost        decimal.Decimal `json:"cost"`
				Info        string          `json:"info"`
			} `json:"services"`
		} `json:"transfers"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &ApiOfflineError{Carrier: models.APIPecom, Err: fmt.Errorf("failed to parse calculator response: %w", err)}
	}
	if response.HasError {
		result.ProviderError = response.ErrorMessage
		return result, nil
	}

	wanted := ""
	if opts != nil {
		wanted = opts[OptionTransportingType]
	}

	var refusals []string
	for _, t := range response.Transfers {
		code := strconv.Itoa(t.TransportingType)
		if wanted != "" && code != wanted {
			continue
		}
		if t.HasError {
			refusals = append(refusals, t.ErrorMessage)
			continue
		}
		option := models.PricedOption{Code: code, Title: transportingTypeTitle(t.TransportingType), Cost: t.CostTotal}
		for _, s := range t.Services {
			option.Services = append(option.Services, models.ServiceCharge{
				ServiceType: s.ServiceType,
				SenderCity:  s.SenderCity,
				Cost:        s.Cost,
				Info:        s.Info,
			})
		}
		result.Options = append(result.Options, option)
	}

	if len(result.Options) == 0 {
		switch {
		case len(refusals) > 0:
			result.ProviderError = strings.Join(refusals, "; ")
		case wanted != "":
			result.ProviderError = fmt.Sprintf("transporting type %s is not available for this route", wanted)
		}
	}

	f.logger.WithFields(logrus.Fields{
		"origin":      originCode,
		"destination": destCode,
		"options":     len(result.Options),
	}).Debug("PEC charge calculated")

	return result, nil
}

// GetCharges resolves codes and prices the packs
func (f *PecomFacade) GetCharges(ctx context.Context, weight decimal.Decimal, packs []models.Pack, origin string, dest *models.Destination) (*RawResult, error) {
	return getCharges(ctx, f, packs, origin, dest)
}

// ParseResults interprets a PEC calculator answer
func (f *PecomFacade) ParseResults(raw *RawResult, pc ParseContext) ParsedCharge {
	return parseOptions(f, raw, pc)
}

// GetExtraForm describes the PEC city and transporting type picker
func (f *PecomFacade) GetExtraForm(fc forms.Context) *models.ExtraForm {
	if f.forms == nil {
		return nil
	}
	fc = f.formOrigin(fc)
	fc.Carrier = models.APIPecom
	fc.Fields = pecomFormFields
	return f.forms.Build(fc)
}

// GetQueryset lists every branch and the cities it serves as lookup records
func (f *PecomFacade) GetQueryset(ctx context.Context) ([]models.LookupRecord, error) {
	branches, err := f.GetAllBranches(ctx)
	if err != nil {
		return nil, err
	}

	var records []models.LookupRecord
	for _, b := range branches {
		records = append(records, models.LookupRecord{ID: b.Code, Text: b.Title, Group: b.Title})
		for _, c := range b.Cities {
			records = append(records, models.LookupRecord{ID: c.Code, Text: c.Title, Group: b.Title})
		}
	}
	return records, nil
}

// FormatObjects groups lookup records by branch
func (f *PecomFacade) FormatObjects(records []models.LookupRecord) []models.LookupGroup {
	return groupRecords(records, "branch: %s")
}

func transportingTypeTitle(t int) string {
	if title, ok := pecomTransportingTypes[t]; ok {
		return title
	}
	return fmt.Sprintf("Transporting type %d", t)
}

func maxFloat(values ...float64) float64 {
	var m float64
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}
