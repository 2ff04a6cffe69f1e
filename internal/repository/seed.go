package repository

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shipping-charge-service/internal/models"
)

//go:embed containers.yaml
var defaultContainers []byte

type containerSeed struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	Length      float64 `yaml:"length"`
	MaxLoad     float64 `yaml:"max_load"`
}

// ParseContainerSeeds decodes a YAML container catalog into shared containers
func ParseContainerSeeds(data []byte) ([]models.ShippingContainer, error) {
	var doc struct {
		Containers []containerSeed `yaml:"containers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse container catalog: %w", err)
	}

	containers := make([]models.ShippingContainer, 0, len(doc.Containers))
	for i, s := range doc.Containers {
		if s.Name == "" {
			return nil, fmt.Errorf("container %d has no name", i)
		}
		if s.Width <= 0 || s.Height <= 0 || s.Length <= 0 {
			return nil, fmt.Errorf("container %q must have positive dimensions", s.Name)
		}
		containers = append(containers, models.ShippingContainer{
			Name:        s.Name,
			Description: s.Description,
			Width:       s.Width,
			Height:      s.Height,
			Length:      s.Length,
			MaxLoad:     s.MaxLoad,
		})
	}
	return containers, nil
}

// SeedContainers seeds the shared container catalog.
// This is idempotent - it uses upsert to avoid duplicates
func SeedContainers(db *gorm.DB) error {
	containers, err := ParseContainerSeeds(defaultContainers)
	if err != nil {
		return err
	}
	if len(containers) == 0 {
		return nil
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "width", "height", "length", "max_load", "updated_at"}),
	}).Create(&containers).Error
}
