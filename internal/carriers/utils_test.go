package carriers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shipping-charge-service/internal/models"
)

func TestCleanCityName(t *testing.T) {
	tests := []struct {
		name      string
		city      string
		separator string
		want      string
	}{
		{"prefix stripped", "г. Москва", ". ", "Москва"},
		{"no separator", "city of Moscow", ". ", "city of Moscow"},
		{"split once", "пос. Ст. Оскол", ". ", "Ст. Оскол"},
		{"empty separator", "г. Москва", "", "г. Москва"},
		{"trimmed", "  Тверь ", ". ", "Тверь"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanCityName(tt.city, tt.separator))
		})
	}
}

func TestGroupRecords(t *testing.T) {
	records := []models.LookupRecord{
		{ID: "2", Text: "b", Group: "y"},
		{ID: "1", Text: "a", Group: "x"},
		{ID: "3", Text: "c", Group: "y"},
		{ID: "4", Text: "d", Group: "x"},
	}

	groups := groupRecords(records, "group %s")
	assert.Equal(t, []models.LookupGroup{
		{Text: "group x", Children: []models.LookupItem{{ID: "1", Text: "a"}, {ID: "4", Text: "d"}}},
		{Text: "group y", Children: []models.LookupItem{{ID: "2", Text: "b"}, {ID: "3", Text: "c"}}},
	}, groups)

	assert.Empty(t, groupRecords(nil, ""))
}

func TestCodeLookup(t *testing.T) {
	assert.Equal(t, LookupNotFound, lookupFromEntries(nil).Status)

	resolved := lookupFromEntries([]models.CodeEntry{{Code: "1"}})
	assert.Equal(t, LookupResolved, resolved.Status)
	assert.Equal(t, "1", resolved.Code)

	ambiguous := lookupFromEntries([]models.CodeEntry{{Code: "1"}, {Code: "2"}})
	assert.Equal(t, LookupAmbiguous, ambiguous.Status)
	assert.Empty(t, ambiguous.Code)
	assert.Equal(t, "ambiguous", ambiguous.Status.String())
}
