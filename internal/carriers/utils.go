package carriers

import (
	"fmt"
	"sort"
	"strings"

	"shipping-charge-service/internal/models"
)

// CleanCityName strips a settlement prefix such as "г. " from a city name.
// The name is split once on separator and the remainder kept; names without
// the separator, or an empty separator, are returned unchanged.
func CleanCityName(city, separator string) string {
	city = strings.TrimSpace(city)
	if separator == "" {
		return city
	}
	if _, rest, found := strings.Cut(city, separator); found {
		return strings.TrimSpace(rest)
	}
	return city
}

// groupRecords groups records by their Group key after a stable sort, so equal
// keys end up contiguous in one group
func groupRecords(records []models.LookupRecord, label string) []models.LookupGroup {
	sorted := make([]models.LookupRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Group < sorted[j].Group
	})

	groups := make([]models.LookupGroup, 0)
	for i, rec := range sorted {
		if i == 0 || rec.Group != sorted[i-1].Group {
			text := rec.Group
			if label != "" {
				text = fmt.Sprintf(label, rec.Group)
			}
			groups = append(groups, models.LookupGroup{Text: text})
		}
		last := &groups[len(groups)-1]
		last.Children = append(last.Children, models.LookupItem{ID: rec.ID, Text: rec.Text})
	}
	return groups
}

func findTitle(branches []models.Branch, code string) (string, bool) {
	for _, b := range branches {
		if b.Code == code {
			return b.Title, true
		}
		for _, c := range b.Cities {
			if c.Code == code {
				return c.Title, true
			}
		}
	}
	return "", false
}
