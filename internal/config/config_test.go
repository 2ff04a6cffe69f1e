package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBox(t *testing.T) {
	box, err := ParseBox("0.1x0.2X0.3")
	require.NoError(t, err)
	assert.Equal(t, Box{Width: 0.1, Height: 0.2, Length: 0.3}, box)

	_, err = ParseBox("0.1x0.2")
	assert.Error(t, err)

	_, err = ParseBox("0.1x-1x0.3")
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("SHIPPING_API_ENABLED", "")
	t.Setenv("SHIPPING_CODE_CACHE_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)

	s := cfg.Shipping
	assert.Equal(t, int32(3), s.WeightPrecision)
	assert.Equal(t, int32(3), s.VolumePrecision)
	assert.Equal(t, Box{Width: 0.1, Height: 0.1, Length: 0.1}, s.DefaultBox)
	assert.Equal(t, 1.0, s.DefaultWeight)
	assert.Equal(t, 1.3, s.VolumeRatio)
	assert.Equal(t, []string{"pecom", "emspost"}, s.APIEnabled)
	assert.Equal(t, ";", s.ListSeparator)
	assert.True(t, s.ChangeDestination)
	assert.True(t, s.IfNotFound)
	assert.Equal(t, 24*time.Hour, s.CodeCacheTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("SHIPPING_API_ENABLED", "pecom")
	t.Setenv("SHIPPING_CITY_PREFIX_SEPARATOR", "")
	t.Setenv("SHIPPING_VOLUME_RATIO", "1.5")
	t.Setenv("SHIPPING_CODE_CACHE_TTL", "10m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Shipping.IsAPIEnabled("pecom"))
	assert.False(t, cfg.Shipping.IsAPIEnabled("emspost"))
	assert.Equal(t, "", cfg.Shipping.CityPrefixSeparator)
	assert.Equal(t, 1.5, cfg.Shipping.VolumeRatio)
	assert.Equal(t, 10*time.Minute, cfg.Shipping.CodeCacheTTL)
}

func TestShippingSettingsValidate(t *testing.T) {
	valid := ShippingSettings{VolumeRatio: 1.3, DefaultOrigin: "Москва", ListSeparator: ";"}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.VolumeRatio = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.DefaultOrigin = ""
	assert.Error(t, bad.Validate())
}
