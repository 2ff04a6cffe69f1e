package packer

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"shipping-charge-service/internal/config"
	"shipping-charge-service/internal/models"
)

// Options configures the packing heuristic
type Options struct {
	DefaultBox      config.Box
	VolumeRatio     float64
	WeightPrecision int32
	VolumePrecision int32
	WidthAttribute  string
	HeightAttribute string
	LengthAttribute string
}

// OptionsFromSettings builds packer options from the shipping settings
func OptionsFromSettings(s config.ShippingSettings) Options {
	return Options{
		DefaultBox:      s.DefaultBox,
		VolumeRatio:     s.VolumeRatio,
		WeightPrecision: s.WeightPrecision,
		VolumePrecision: s.VolumePrecision,
		WidthAttribute:  s.WidthAttribute,
		HeightAttribute: s.HeightAttribute,
		LengthAttribute: s.LengthAttribute,
	}
}

// Packer turns a basket into packs. It is not a bin packer: the whole basket
// goes into the smallest container whose volume fits the estimate, or into a
// virtual cube when none does.
type Packer struct {
	containers []models.ShippingContainer
	scale      Scale
	opts       Options
}

// New creates a packer over the given container catalog
func New(containers []models.ShippingContainer, scale Scale, opts Options) *Packer {
	sorted := make([]models.ShippingContainer, len(containers))
	copy(sorted, containers)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, vj := sorted[i].Volume(opts.VolumePrecision), sorted[j].Volume(opts.VolumePrecision)
		if !vi.Equal(vj) {
			return vi.LessThan(vj)
		}
		return sorted[i].Name < sorted[j].Name
	})
	return &Packer{containers: sorted, scale: scale, opts: opts}
}

// PackBasket packs the basket into exactly one pack. Product box volumes are
// rounded to the volume precision, the ratio-scaled estimate is not.
func (p *Packer) PackBasket(basket models.Basket) []models.Pack {
	weight := decimal.Zero
	volume := decimal.Zero

	for _, line := range basket.Lines {
		if line.Quantity <= 0 {
			continue
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		weight = weight.Add(p.scale.WeighProduct(line.Product).Mul(qty))
		volume = volume.Add(p.productVolume(line.Product).Mul(qty))
	}

	estimate := volume.Mul(decimal.NewFromFloat(p.opts.VolumeRatio))

	return []models.Pack{{
		Weight:    weight.Round(p.opts.WeightPrecision),
		Container: p.ContainerFor(estimate),
	}}
}

// ContainerFor returns the smallest catalog container holding volume, or a
// virtual cube of that volume when no container is big enough
func (p *Packer) ContainerFor(volume decimal.Decimal) models.ShippingContainer {
	for _, c := range p.containers {
		if c.Volume(p.opts.VolumePrecision).GreaterThanOrEqual(volume) {
			return c
		}
	}
	return p.virtualContainer(volume)
}

func (p *Packer) virtualContainer(volume decimal.Decimal) models.ShippingContainer {
	v, _ := volume.Float64()
	side := math.Cbrt(v)
	return models.ShippingContainer{
		Name:   fmt.Sprintf("virtual volume (%s)", volume.String()),
		Height: side,
		Width:  side,
		Length: side,
	}
}

func (p *Packer) productVolume(product models.Product) decimal.Decimal {
	w, okW := product.Attribute(p.opts.WidthAttribute)
	h, okH := product.Attribute(p.opts.HeightAttribute)
	l, okL := product.Attribute(p.opts.LengthAttribute)
	if !okW || !okH || !okL || w <= 0 || h <= 0 || l <= 0 {
		w, h, l = p.opts.DefaultBox.Width, p.opts.DefaultBox.Height, p.opts.DefaultBox.Length
	}
	box := models.ShippingContainer{Width: w, Height: h, Length: l}
	return box.Volume(p.opts.VolumePrecision)
}
