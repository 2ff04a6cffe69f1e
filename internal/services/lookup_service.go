package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"shipping-charge-service/internal/models"
)

const (
	defaultLookupPage  = 1
	defaultLookupLimit = 20
	maxLookupLimit     = 100
)

// LookupQuery is the city picker query. Initial is a comma separated list
// of ids to show as the current selection.
type LookupQuery struct {
	Initial   string
	Q         string
	Page      int
	PageLimit int
}

// LookupService serves the city picker of the extra forms
type LookupService struct {
	facades FacadeProvider
}

// NewLookupService creates a lookup service
func NewLookupService(facades FacadeProvider) *LookupService {
	return &LookupService{facades: facades}
}

// Lookup returns one page of the carrier catalog grouped for display
func (s *LookupService) Lookup(ctx context.Context, method *models.ShippingMethod, query LookupQuery) (*models.LookupResponse, error) {
	facade, err := s.facades.FacadeFor(method)
	if err != nil {
		return nil, err
	}

	records, err := facade.GetQueryset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load city catalog: %w", err)
	}

	if query.Initial != "" {
		ids := strings.Split(query.Initial, ",")
		records = lo.Filter(records, func(r models.LookupRecord, _ int) bool {
			return lo.Contains(ids, r.ID)
		})
		return &models.LookupResponse{Results: facade.FormatObjects(records), More: false}, nil
	}

	if term := strings.ToLower(strings.TrimSpace(query.Q)); term != "" {
		records = lo.Filter(records, func(r models.LookupRecord, _ int) bool {
			return strings.Contains(strings.ToLower(r.Text), term)
		})
	}

	page, more := Paginate(records, query.Page, query.PageLimit)
	return &models.LookupResponse{Results: facade.FormatObjects(page), More: more}, nil
}

// Paginate returns page number page of limit records and whether more follow.
// Out of range pages are empty and limit is capped at maxLookupLimit.
func Paginate[T any](records []T, page, limit int) ([]T, bool) {
	if page < 1 {
		page = defaultLookupPage
	}
	if limit < 1 {
		limit = defaultLookupLimit
	}
	limit = lo.Min([]int{limit, maxLookupLimit})

	total := len(records)
	pages := (total + limit - 1) / limit
	if page-1 >= pages {
		return records[:0], false
	}
	start := (page - 1) * limit
	stop := lo.Min([]int{start + limit, total})
	return records[start:stop], stop < total
}
