package carriers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipping-charge-service/internal/cache"
	"shipping-charge-service/internal/config"
	"shipping-charge-service/internal/forms"
	"shipping-charge-service/internal/models"
)

// fakePecom is a scripted PEC API
type fakePecom struct {
	mu        sync.Mutex
	calls     map[string]int
	titles    []string
	items     map[string][]map[string]interface{}
	status    map[string]int
	calc      map[string]interface{}
	calcBody  pecomCalcRequest
	branches  []map[string]interface{}
	basicUser string
}

func newFakePecom() *fakePecom {
	return &fakePecom{
		calls:  make(map[string]int),
		items:  make(map[string][]map[string]interface{}),
		status: make(map[string]int),
	}
}

func (p *fakePecom) count(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[path]
}

func (p *fakePecom) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls[r.URL.Path]++
	p.basicUser, _, _ = r.BasicAuth()
	if code := p.status[r.URL.Path]; code != 0 {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"error":"unavailable"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/branches/findbytitle/":
		var body struct {
			Title string `json:"title"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		p.titles = append(p.titles, body.Title)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "items": p.items[body.Title]})
	case "/branches/all/":
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"branches": p.branches})
	case "/calculator/calculateprice/":
		_ = json.NewDecoder(r.Body).Decode(&p.calcBody)
		_ = json.NewEncoder(w).Encode(p.calc)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func city(id int, title, branch string) map[string]interface{} {
	return map[string]interface{}{"cityId": id, "cityTitle": title, "branchId": 1, "branchTitle": branch}
}

func testDeps(endpoints config.CarriersConfig) Dependencies {
	return Dependencies{
		Settings: config.ShippingSettings{
			APIEnabled:          []string{"pecom", "emspost"},
			CityPrefixSeparator: ". ",
			ListSeparator:       ";",
			CodeCacheTTL:        time.Hour,
			VolumePrecision:     3,
		},
		Endpoints: endpoints,
		Store:     cache.NewMemoryStore(),
		Memo:      cache.NewOriginMemo(),
		Forms:     forms.NewBuilder("/api/city-lookup/%s", "/api/details/%s"),
		Logger:    logrus.NewEntry(logrus.New()),
	}
}

func newTestPecom(t *testing.T, fake *fakePecom, retries uint64) (*PecomFacade, Dependencies) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	deps := testDeps(config.CarriersConfig{Pecom: config.CarrierEndpoint{BaseURL: srv.URL, MaxRetries: retries}})
	f, err := NewPecomFacade(deps, &models.ShippingMethod{Code: "pec", APIType: models.APIPecom, APIUser: "user", APIKey: "key"})
	require.NoError(t, err)
	f.client.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return f, deps
}

func testPacks() []models.Pack {
	return []models.Pack{{
		Weight:    decimal.NewFromFloat(2.5),
		Container: models.ShippingContainer{Name: "box", Height: 0.2, Width: 0.3, Length: 0.4},
	}}
}

func TestNewPecomFacade_RequiresCredentials(t *testing.T) {
	_, err := NewPecomFacade(testDeps(config.CarriersConfig{}), &models.ShippingMethod{APIType: models.APIPecom})
	assert.ErrorIs(t, err, ErrImproperlyConfigured)
}

func TestPecom_ValidateCode(t *testing.T) {
	f, _ := newTestPecom(t, newFakePecom(), 0)

	code, ok := f.ValidateCode(" 0463 ")
	assert.True(t, ok)
	assert.Equal(t, "463", code)

	for _, raw := range []string{"", "Москва", "-1", "0", "12a"} {
		_, ok := f.ValidateCode(raw)
		assert.False(t, ok, raw)
	}
}

func TestPecom_GetCachedCodes_CallsCarrierOnce(t *testing.T) {
	fake := newFakePecom()
	fake.items["Тверь"] = []map[string]interface{}{city(64883, "Тверь", "Тверь")}
	f, _ := newTestPecom(t, fake, 0)
	ctx := context.Background()

	first := f.GetCachedCodes(ctx, "Тверь")
	second := f.GetCachedCodes(ctx, "Тверь")

	assert.Equal(t, LookupResolved, first.Status)
	assert.Equal(t, "64883", first.Code)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fake.count("/branches/findbytitle/"))
	assert.Equal(t, "user", fake.basicUser)
}

func TestPecom_GetCachedCodes_Ambiguous(t *testing.T) {
	fake := newFakePecom()
	fake.items["Александров"] = []map[string]interface{}{
		city(1, "Александров", "Владимир"),
		city(2, "Александров", "Москва"),
	}
	f, _ := newTestPecom(t, fake, 0)

	lookup := f.GetCachedCodes(context.Background(), "Александров")
	assert.Equal(t, LookupAmbiguous, lookup.Status)
	require.Len(t, lookup.Candidates, 2)
	assert.Equal(t, []string{"1", "2"}, lookup.Codes())
	assert.Equal(t, "Владимир", lookup.Candidates[0].Type)
}

func TestPecom_GetCachedCodes_NotFoundIsCached(t *testing.T) {
	fake := newFakePecom()
	f, _ := newTestPecom(t, fake, 0)
	ctx := context.Background()

	assert.Equal(t, LookupNotFound, f.GetCachedCodes(ctx, "Атлантида").Status)
	assert.Equal(t, LookupNotFound, f.GetCachedCodes(ctx, "Атлантида").Status)
	assert.Equal(t, 1, fake.count("/branches/findbytitle/"))
}

func TestPecom_GetCachedCodes_TransportErrorNotCached(t *testing.T) {
	fake := newFakePecom()
	fake.status["/branches/findbytitle/"] = http.StatusBadGateway
	f, deps := newTestPecom(t, fake, 2)
	ctx := context.Background()

	lookup := f.GetCachedCodes(ctx, "Тверь")
	assert.Equal(t, LookupTransportError, lookup.Status)
	assert.Error(t, lookup.Err)
	// one call and two retries
	assert.Equal(t, 3, fake.count("/branches/findbytitle/"))
	assert.Equal(t, 0, deps.Store.(*cache.MemoryStore).Len())
}

func TestPecom_GetCachedOriginCode_Memoized(t *testing.T) {
	fake := newFakePecom()
	fake.items["Санкт-Петербург"] = []map[string]interface{}{
		city(463, "Санкт-Петербург", "Санкт-Петербург"),
		city(464, "Санкт-Петербург", "Пулково"),
	}
	f, _ := newTestPecom(t, fake, 0)
	ctx := context.Background()

	code, err := f.GetCachedOriginCode(ctx, "Санкт-Петербург")
	require.NoError(t, err)
	assert.Equal(t, "463", code)

	// the catalog changing afterwards does not change the memoized origin
	fake.mu.Lock()
	fake.items["Санкт-Петербург"] = []map[string]interface{}{city(999, "Санкт-Петербург", "x")}
	fake.mu.Unlock()

	code, err = f.GetCachedOriginCode(ctx, "Санкт-Петербург")
	require.NoError(t, err)
	assert.Equal(t, "463", code)
	assert.Equal(t, 1, fake.count("/branches/findbytitle/"))
}

func TestPecom_GetCachedOriginCode_NotFound(t *testing.T) {
	f, _ := newTestPecom(t, newFakePecom(), 0)

	_, err := f.GetCachedOriginCode(context.Background(), "Нигде")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImproperlyConfigured)

	var originErr *OriginCityNotFoundError
	require.True(t, errors.As(err, &originErr))
	assert.Equal(t, "Нигде", originErr.Title)
}

func TestPecom_GetCityCodes(t *testing.T) {
	fake := newFakePecom()
	fake.items["Санкт-Петербург"] = []map[string]interface{}{city(463, "Санкт-Петербург", "СПб")}
	fake.items["Москва"] = []map[string]interface{}{city(1, "Москва", "Москва")}
	fake.items["city of Moscow"] = []map[string]interface{}{city(1, "Москва", "Москва")}
	fake.items["Александров"] = []map[string]interface{}{city(5, "Александров", "a"), city(6, "Александров", "b")}
	f, _ := newTestPecom(t, fake, 0)
	ctx := context.Background()

	t.Run("prefix is stripped", func(t *testing.T) {
		origin, dest, err := f.GetCityCodes(ctx, "Санкт-Петербург", &models.Destination{City: "г. Москва"})
		require.NoError(t, err)
		assert.Equal(t, "463", origin)
		assert.Equal(t, "1", dest)
	})

	t.Run("no separator leaves the name unchanged", func(t *testing.T) {
		_, dest, err := f.GetCityCodes(ctx, "Санкт-Петербург", &models.Destination{City: "city of Moscow"})
		require.NoError(t, err)
		assert.Equal(t, "1", dest)
		assert.Contains(t, fake.titles, "city of Moscow")
	})

	t.Run("resolved code skips lookup", func(t *testing.T) {
		before := fake.count("/branches/findbytitle/")
		origin, dest, err := f.GetCityCodes(ctx, "463", &models.Destination{City: "whatever", Code: "777"})
		require.NoError(t, err)
		assert.Equal(t, "463", origin)
		assert.Equal(t, "777", dest)
		assert.Equal(t, before, fake.count("/branches/findbytitle/"))
	})

	t.Run("empty city", func(t *testing.T) {
		_, _, err := f.GetCityCodes(ctx, "Санкт-Петербург", &models.Destination{})
		var notFound *CityNotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, "city_not_set", notFound.Title)
		assert.Equal(t, "463", notFound.OriginCode)
	})

	t.Run("ambiguous", func(t *testing.T) {
		_, _, err := f.GetCityCodes(ctx, "Санкт-Петербург", &models.Destination{City: "Александров"})
		var tooMany *TooManyFoundError
		require.True(t, errors.As(err, &tooMany))
		assert.Len(t, tooMany.Candidates, 2)
	})

	t.Run("unknown city", func(t *testing.T) {
		_, _, err := f.GetCityCodes(ctx, "Санкт-Петербург", &models.Destination{City: "Атлантида"})
		var notFound *CityNotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, "Атлантида", notFound.Title)
	})
}

func twoTransfers() map[string]interface{} {
	return map[string]interface{}{
		"hasError": false,
		"transfers": []map[string]interface{}{
			{"transportingType": 1, "hasError": false, "costTotal": 1200.5, "services": []map[string]interface{}{
				{"serviceType": "Transport", "cost": 1000.5}, {"serviceType": "Pickup", "cost": 200},
			}},
			{"transportingType": 2, "hasError": false, "costTotal": 4800},
			{"transportingType": 3, "hasError": true, "errorMessage": "route not served"},
		},
	}
}

func TestPecom_ParseResults_SeveralOptionsNeedChoice(t *testing.T) {
	fake := newFakePecom()
	fake.calc = twoTransfers()
	f, _ := newTestPecom(t, fake, 0)

	raw, err := f.GetCharge(context.Background(), "463", "64883", testPacks(), nil)
	require.NoError(t, err)
	require.Len(t, raw.Options, 2)
	assert.Equal(t, 463, fake.calcBody.SenderCityID)
	require.Len(t, fake.calcBody.Cargos, 1)
	assert.Equal(t, 2.5, fake.calcBody.Cargos[0].Weight)
	assert.Equal(t, 0.4, fake.calcBody.Cargos[0].MaxSize)

	parsed := f.ParseResults(raw, ParseContext{Method: "pec", Weight: decimal.NewFromFloat(2.5), Origin: "Санкт-Петербург", Destination: "Тверь"})
	assert.NoError(t, parsed.Err)
	assert.True(t, parsed.Charge.IsZero())
	require.NotNil(t, parsed.Form)

	option, ok := parsed.Form.Field("transportingType")
	require.True(t, ok)
	require.Len(t, option.Choices, 2)
	assert.Equal(t, "1", option.Choices[0].Value)
	assert.Equal(t, "2", option.Choices[1].Value)

	receiver, _ := parsed.Form.Field("receiverCityId")
	assert.Equal(t, "64883", receiver.Initial)
}

func TestPecom_GetCharge_VolumePrecision(t *testing.T) {
	fake := newFakePecom()
	fake.calc = twoTransfers()
	f, _ := newTestPecom(t, fake, 0)

	_, err := f.GetCharge(context.Background(), "463", "64883", testPacks(), nil)
	require.NoError(t, err)
	require.Len(t, fake.calcBody.Cargos, 1)
	assert.Equal(t, 0.024, fake.calcBody.Cargos[0].Volume)

	f.volumePrecision = 4
	small := []models.Pack{{
		Weight:    decimal.NewFromInt(1),
		Container: models.ShippingContainer{Name: "virtual volume (0.0013)", Height: 0.13, Width: 0.1, Length: 0.1},
	}}
	_, err = f.GetCharge(context.Background(), "463", "64883", small, nil)
	require.NoError(t, err)
	require.Len(t, fake.calcBody.Cargos, 1)
	assert.Equal(t, 0.0013, fake.calcBody.Cargos[0].Volume)
}

func TestPecom_GetCharge_ChosenOption(t *testing.T) {
	fake := newFakePecom()
	fake.calc = twoTransfers()
	f, _ := newTestPecom(t, fake, 0)

	raw, err := f.GetCharge(context.Background(), "463", "64883", testPacks(), models.ChargeOptions{OptionTransportingType: "2"})
	require.NoError(t, err)

	parsed := f.ParseResults(raw, ParseContext{Weight: decimal.NewFromFloat(2.5), Origin: "Санкт-Петербург", Destination: "Тверь"})
	assert.NoError(t, parsed.Err)
	assert.Nil(t, parsed.Form)
	assert.Equal(t, "4800", parsed.Charge.String())
	assert.Equal(t, "Approximated shipping price for 2.500 kg from Санкт-Петербург to Тверь", parsed.Messages[0])
}

func TestPecom_GetCharge_RefusedOption(t *testing.T) {
	fake := newFakePecom()
	fake.calc = twoTransfers()
	f, _ := newTestPecom(t, fake, 0)

	raw, err := f.GetCharge(context.Background(), "463", "64883", testPacks(), models.ChargeOptions{OptionTransportingType: "3"})
	require.NoError(t, err)
	assert.Equal(t, "route not served", raw.ProviderError)

	parsed := f.ParseResults(raw, ParseContext{})
	var calcErr *CalculationError
	require.True(t, errors.As(parsed.Err, &calcErr))
	assert.Equal(t, []string{"route not served"}, parsed.Errors)
	assert.True(t, parsed.Charge.IsZero())
}

func TestPecom_GetCharge_ProviderError(t *testing.T) {
	fake := newFakePecom()
	fake.calc = map[string]interface{}{"hasError": true, "errorMessage": "weight exceeds limit"}
	f, _ := newTestPecom(t, fake, 0)

	raw, err := f.GetCharge(context.Background(), "463", "64883", testPacks(), nil)
	require.NoError(t, err)
	assert.Equal(t, "weight exceeds limit", raw.ProviderError)
}

func TestPecom_GetCharge_NeverRetried(t *testing.T) {
	fake := newFakePecom()
	fake.status["/calculator/calculateprice/"] = http.StatusServiceUnavailable
	f, _ := newTestPecom(t, fake, 3)

	_, err := f.GetCharge(context.Background(), "463", "64883", testPacks(), nil)
	var offline *ApiOfflineError
	require.True(t, errors.As(err, &offline))
	assert.Equal(t, models.APIPecom, offline.Carrier)
	assert.Equal(t, 1, fake.count("/calculator/calculateprice/"))
}

func TestPecom_GetCharges_WrapsResolutionErrors(t *testing.T) {
	fake := newFakePecom()
	fake.items["Санкт-Петербург"] = []map[string]interface{}{city(463, "Санкт-Петербург", "СПб")}
	f, _ := newTestPecom(t, fake, 0)
	ctx := context.Background()

	_, err := f.GetCharges(ctx, decimal.NewFromInt(1), testPacks(), "Санкт-Петербург", &models.Destination{City: "Атлантида"})
	var notFound *CityNotFoundError
	assert.True(t, errors.As(err, &notFound))

	fake.mu.Lock()
	fake.status["/branches/findbytitle/"] = http.StatusInternalServerError
	fake.mu.Unlock()

	_, err = f.GetCharges(ctx, decimal.NewFromInt(1), testPacks(), "Санкт-Петербург", &models.Destination{City: "Тверь"})
	var offline *ApiOfflineError
	assert.True(t, errors.As(err, &offline))
}

func TestPecom_QuerysetAndFormat(t *testing.T) {
	fake := newFakePecom()
	fake.branches = []map[string]interface{}{
		{"bitrixId": 20, "title": "Тверь", "cities": []map[string]interface{}{
			{"bitrixId": 21, "title": "Конаково"},
			{"title": "Без кода"},
		}},
		{"bitrixId": 10, "title": "Москва", "cities": []map[string]interface{}{
			{"bitrixId": 11, "title": "Химки"},
		}},
	}
	f, _ := newTestPecom(t, fake, 0)
	ctx := context.Background()

	records, err := f.GetQueryset(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 4)

	groups := f.FormatObjects(records)
	require.Len(t, groups, 2)
	assert.Equal(t, "branch: Москва", groups[0].Text)
	assert.Equal(t, []models.LookupItem{{ID: "10", Text: "Москва"}, {ID: "11", Text: "Химки"}}, groups[0].Children)
	assert.Equal(t, "branch: Тверь", groups[1].Text)

	title, ok := f.GetByCode(ctx, "21")
	assert.True(t, ok)
	assert.Equal(t, "Конаково", title)

	_, err = f.GetQueryset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.count("/branches/all/"))
}

func TestPecom_GetExtraForm_WithoutBuilder(t *testing.T) {
	f, _ := newTestPecom(t, newFakePecom(), 0)
	f.forms = nil
	assert.Nil(t, f.GetExtraForm(forms.Context{OriginCode: "463"}))
}
