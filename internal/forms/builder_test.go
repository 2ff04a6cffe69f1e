package forms

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipping-charge-service/internal/models"
)

var pecomFields = Fields{Sender: "senderCityId", Receiver: "receiverCityId", Option: "transportingType"}

func TestBuild_DestinationPicker(t *testing.T) {
	b := NewBuilder("/api/city-lookup/%s", "/api/details/%s")

	form := b.Build(Context{
		Carrier:    models.APIPecom,
		Method:     "pec",
		Fields:     pecomFields,
		OriginCode: "463",
	})

	assert.Equal(t, "/api/city-lookup/pec", form.LookupURL)
	assert.Equal(t, "/api/details/pec", form.DetailsURL)
	require.Len(t, form.Fields, 2)

	sender, ok := form.Field("senderCityId")
	require.True(t, ok)
	assert.Equal(t, "463", sender.Initial)
	assert.Equal(t, models.FieldHidden, sender.Type)

	receiver, ok := form.Field("receiverCityId")
	require.True(t, ok)
	assert.Equal(t, models.FieldLookup, receiver.Type)
	assert.Empty(t, receiver.Choices)
}

func TestBuild_Candidates(t *testing.T) {
	form := NewBuilder("", "").Build(Context{
		Carrier:    models.APIPecom,
		Fields:     pecomFields,
		OriginCode: "463",
		Candidates: []models.CodeEntry{
			{Code: "1", Title: "Александров", Type: "Владимирская обл."},
			{Code: "2", Title: "Александров"},
		},
	})

	receiver, ok := form.Field("receiverCityId")
	require.True(t, ok)
	assert.Equal(t, models.FieldSelect, receiver.Type)
	assert.Equal(t, []models.FormChoice{
		{Value: "1", Label: "Александров (Владимирская обл.)"},
		{Value: "2", Label: "Александров"},
	}, receiver.Choices)
	assert.Empty(t, form.LookupURL)
}

func TestBuild_Options(t *testing.T) {
	form := NewBuilder("", "").Build(Context{
		Carrier:         models.APIPecom,
		Fields:          pecomFields,
		OriginCode:      "463",
		DestinationCode: "64883",
		Options: []models.PricedOption{
			{Code: "1", Title: "Auto", Cost: decimal.NewFromInt(1200)},
			{Code: "2", Title: "Avia", Cost: decimal.NewFromInt(4800)},
		},
	})

	require.Len(t, form.Fields, 3)
	receiver, _ := form.Field("receiverCityId")
	assert.Equal(t, models.FieldHidden, receiver.Type)
	assert.Equal(t, "64883", receiver.Initial)

	option, ok := form.Field("transportingType")
	require.True(t, ok)
	assert.Equal(t, models.FieldRadio, option.Type)
	assert.Equal(t, "Auto: 1200.00 RUR", option.Choices[0].Label)
}

func TestBuild_NoOptionFieldForCarrierWithoutOptions(t *testing.T) {
	form := NewBuilder("", "").Build(Context{
		Carrier: models.APIEmspost,
		Fields:  Fields{Sender: "sender", Receiver: "receiver"},
		Origin:  "Санкт-Петербург",
		Options: []models.PricedOption{{Code: "ems", Cost: decimal.NewFromInt(1)}},
	})

	assert.Len(t, form.Fields, 2)
	sender, _ := form.Field("sender")
	assert.Empty(t, sender.Initial)
}

func TestOptionSummary(t *testing.T) {
	o := models.PricedOption{
		Title: "Auto",
		Cost:  decimal.RequireFromString("1530.5"),
		Term:  "2-4 days",
		Services: []models.ServiceCharge{
			{ServiceType: "Pickup", Cost: decimal.NewFromInt(300)},
			{ServiceType: "Transport", Cost: decimal.RequireFromString("1230.5"), Info: "to terminal"},
		},
	}
	assert.Equal(t,
		"Auto: 1530.50 RUB (2-4 days). Including: Pickup 300.00, Transport 1230.50 to terminal",
		OptionSummary(o, "RUB"))
}
