package packer

import (
	"github.com/shopspring/decimal"

	"shipping-charge-service/internal/models"
)

// Scale weighs products and baskets
type Scale interface {
	WeighProduct(product models.Product) decimal.Decimal
	WeighBasket(basket models.Basket) decimal.Decimal
}

// AttributeScale reads the weight from a product attribute and falls back
// to a default weight when the product has none
type AttributeScale struct {
	attribute     string
	defaultWeight decimal.Decimal
	precision     int32
}

// NewAttributeScale creates a scale reading the given attribute code
func NewAttributeScale(attribute string, defaultWeight float64, precision int32) *AttributeScale {
	return &AttributeScale{
		attribute:     attribute,
		defaultWeight: decimal.NewFromFloat(defaultWeight),
		precision:     precision,
	}
}

// WeighProduct returns the weight of a single product
func (s *AttributeScale) WeighProduct(product models.Product) decimal.Decimal {
	if w, ok := product.Attribute(s.attribute); ok && w >= 0 {
		return decimal.NewFromFloat(w)
	}
	return s.defaultWeight
}

// WeighBasket returns the total weight of a basket rounded to the scale precision
func (s *AttributeScale) WeighBasket(basket models.Basket) decimal.Decimal {
	total := decimal.Zero
	for _, line := range basket.Lines {
		if line.Quantity <= 0 {
			continue
		}
		total = total.Add(s.WeighProduct(line.Product).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total.Round(s.precision)
}
