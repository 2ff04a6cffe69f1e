package services

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shipping-charge-service/internal/models"
)

func lookupRecords(n int) []models.LookupRecord {
	records := make([]models.LookupRecord, 0, n)
	for i := 1; i <= n; i++ {
		records = append(records, models.LookupRecord{ID: fmt.Sprint(i), Text: fmt.Sprintf("City %d", i), Group: "branch"})
	}
	return records
}

func newLookupService(records []models.LookupRecord) *LookupService {
	facade := new(MockFacade)
	facade.On("GetQueryset", mock.Anything).Return(records, nil)
	provider := new(MockFacadeProvider)
	provider.On("FacadeFor", mock.Anything).Return(facade, nil)
	return NewLookupService(provider)
}

func TestLookup_Pagination(t *testing.T) {
	svc := newLookupService(lookupRecords(45))

	first, err := svc.Lookup(context.Background(), testMethod(), LookupQuery{Page: 1, PageLimit: 20})
	require.NoError(t, err)
	assert.True(t, first.More)
	assert.Len(t, first.Results[0].Children, 20)

	last, err := svc.Lookup(context.Background(), testMethod(), LookupQuery{Page: 3, PageLimit: 20})
	require.NoError(t, err)
	assert.False(t, last.More)
	assert.Len(t, last.Results[0].Children, 5)
	assert.Equal(t, "41", last.Results[0].Children[0].ID)

	beyond, err := svc.Lookup(context.Background(), testMethod(), LookupQuery{Page: 9, PageLimit: 20})
	require.NoError(t, err)
	assert.False(t, beyond.More)
	assert.Empty(t, beyond.Results[0].Children)
}

func TestLookup_Defaults(t *testing.T) {
	svc := newLookupService(lookupRecords(21))

	resp, err := svc.Lookup(context.Background(), testMethod(), LookupQuery{})
	require.NoError(t, err)
	assert.True(t, resp.More)
	assert.Len(t, resp.Results[0].Children, 20)
}

func TestLookup_Search(t *testing.T) {
	svc := newLookupService([]models.LookupRecord{
		{ID: "1", Text: "Москва"},
		{ID: "2", Text: "Тверь"},
		{ID: "3", Text: "Московский"},
	})

	resp, err := svc.Lookup(context.Background(), testMethod(), LookupQuery{Q: "МОСК"})
	require.NoError(t, err)
	assert.False(t, resp.More)
	assert.Equal(t, []models.LookupItem{{ID: "1", Text: "Москва"}, {ID: "3", Text: "Московский"}}, resp.Results[0].Children)
}

func TestLookup_Initial(t *testing.T) {
	svc := newLookupService(lookupRecords(45))

	resp, err := svc.Lookup(context.Background(), testMethod(), LookupQuery{Initial: "3,44", Q: "ignored", Page: 2})
	require.NoError(t, err)
	assert.False(t, resp.More)
	assert.Equal(t, []models.LookupItem{{ID: "3", Text: "City 3"}, {ID: "44", Text: "City 44"}}, resp.Results[0].Children)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page, more := Paginate(items, 2, 2)
	assert.Equal(t, []int{3, 4}, page)
	assert.True(t, more)

	page, more = Paginate(items, 3, 2)
	assert.Equal(t, []int{5}, page)
	assert.False(t, more)

	page, more = Paginate(items, 1, 5)
	assert.Len(t, page, 5)
	assert.False(t, more)

	page, more = Paginate(items, 4, 2)
	assert.Empty(t, page)
	assert.False(t, more)
}

func TestPaginate_HugeValues(t *testing.T) {
	items := []int{1, 2, 3}

	page, more := Paginate(items, 2, math.MaxInt)
	assert.Empty(t, page)
	assert.False(t, more)

	page, more = Paginate(items, 1, math.MaxInt)
	assert.Equal(t, []int{1, 2, 3}, page)
	assert.False(t, more)

	page, more = Paginate(items, math.MaxInt, 2)
	assert.Empty(t, page)
	assert.False(t, more)
}

func TestPaginate_LimitCapped(t *testing.T) {
	items := make([]int, 250)

	page, more := Paginate(items, 1, 1000)
	assert.Len(t, page, maxLookupLimit)
	assert.True(t, more)
}
