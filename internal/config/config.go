package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the shipping charge service
type Config struct {
	Server          ServerConfig
	Database        DatabaseConfig
	RedisURL        string
	NATSURL         string
	StaffServiceURL string
	CORSOrigins     []string
	LogLevel        string
	Shipping        ShippingSettings
	Carriers        CarriersConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Box is a default package size in meters
type Box struct {
	Width  float64
	Height float64
	Length float64
}

// ShippingSettings tunes packing, code resolution and destination filtering
type ShippingSettings struct {
	WeightPrecision int32
	VolumePrecision int32
	DefaultBox      Box
	DefaultWeight   float64
	VolumeRatio     float64
	DefaultOrigin   string
	APIEnabled      []string

	// CityPrefixSeparator splits a settlement prefix from the city name ("г. Москва")
	CityPrefixSeparator string
	ListSeparator       string

	// ChangeDestination offers a destination picker when the city is not found
	ChangeDestination bool
	// IfNotFound is the visibility of a filtered method when the destination resolves to nothing
	IfNotFound bool

	CodeCacheTTL time.Duration

	WeightAttribute string
	WidthAttribute  string
	HeightAttribute string
	LengthAttribute string

	// URL templates handed to clients in extra forms, %s is the method code
	LookupURL  string
	DetailsURL string
}

// CarrierEndpoint holds connection settings for one carrier API
type CarrierEndpoint struct {
	BaseURL    string
	RateLimit  float64
	Timeout    time.Duration
	MaxRetries uint64
}

// CarriersConfig holds configuration for all carrier APIs
type CarriersConfig struct {
	Pecom   CarrierEndpoint
	Emspost CarrierEndpoint
}

// Load loads configuration from environment variables, reading a .env file first when present
func Load() (*Config, error) {
	_ = godotenv.Load()

	defaultBox, err := ParseBox(getEnv("SHIPPING_DEFAULT_BOX", "0.1x0.1x0.1"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8088"),
			Env:  getEnv("NODE_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: secrets.GetDBPassword(),
			DBName:   getEnv("DB_NAME", "shipping_charges"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisURL:        getEnv("REDIS_URL", "redis://redis.redis-marketplace.svc.cluster.local:6379/0"),
		NATSURL:         getEnv("NATS_URL", "nats://nats.nats.svc.cluster.local:4222"),
		StaffServiceURL: getEnv("STAFF_SERVICE_URL", "http://staff-service:8080"),
		CORSOrigins:     getEnvAsList("CORS_ALLOWED_ORIGINS", ",", []string{"*"}),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Shipping: ShippingSettings{
			WeightPrecision:     int32(getEnvAsInt("SHIPPING_WEIGHT_PRECISION", 3)),
			VolumePrecision:     int32(getEnvAsInt("SHIPPING_VOLUME_PRECISION", 3)),
			DefaultBox:          defaultBox,
			DefaultWeight:       getEnvAsFloat("SHIPPING_DEFAULT_WEIGHT", 1),
			VolumeRatio:         getEnvAsFloat("SHIPPING_VOLUME_RATIO", 1.3),
			DefaultOrigin:       getEnv("SHIPPING_DEFAULT_ORIGIN", "Санкт-Петербург"),
			APIEnabled:          getEnvAsList("SHIPPING_API_ENABLED", ",", []string{"pecom", "emspost"}),
			CityPrefixSeparator: getEnvRaw("SHIPPING_CITY_PREFIX_SEPARATOR", ". "),
			ListSeparator:       getEnv("SHIPPING_LIST_SEPARATOR", ";"),
			ChangeDestination:   getEnvBool("SHIPPING_CHANGE_DESTINATION", true),
			IfNotFound:          getEnvBool("SHIPPING_IF_NOT_FOUND", true),
			CodeCacheTTL:        getEnvAsDuration("SHIPPING_CODE_CACHE_TTL", 24*time.Hour),
			WeightAttribute:     getEnv("SHIPPING_WEIGHT_ATTRIBUTE", "weight"),
			WidthAttribute:      getEnv("SHIPPING_WIDTH_ATTRIBUTE", "width"),
			HeightAttribute:     getEnv("SHIPPING_HEIGHT_ATTRIBUTE", "height"),
			LengthAttribute:     getEnv("SHIPPING_LENGTH_ATTRIBUTE", "length"),
			LookupURL:           getEnv("SHIPPING_LOOKUP_URL", "/api/city-lookup/%s"),
			DetailsURL:          getEnv("SHIPPING_DETAILS_URL", "/api/details/%s"),
		},
		Carriers: CarriersConfig{
			Pecom: CarrierEndpoint{
				BaseURL:    getEnv("PECOM_BASE_URL", "https://kabinet.pecom.ru/api/v1"),
				RateLimit:  getEnvAsFloat("PECOM_RATE_LIMIT", 5),
				Timeout:    getEnvAsDuration("PECOM_TIMEOUT", 30*time.Second),
				MaxRetries: uint64(getEnvAsInt("PECOM_MAX_RETRIES", 2)),
			},
			Emspost: CarrierEndpoint{
				BaseURL:    getEnv("EMSPOST_BASE_URL", "http://emspost.ru/api/rest"),
				RateLimit:  getEnvAsFloat("EMSPOST_RATE_LIMIT", 5),
				Timeout:    getEnvAsDuration("EMSPOST_TIMEOUT", 30*time.Second),
				MaxRetries: uint64(getEnvAsInt("EMSPOST_MAX_RETRIES", 2)),
			},
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	return c.Shipping.Validate()
}

// Validate validates the shipping settings
func (s ShippingSettings) Validate() error {
	if s.VolumeRatio <= 0 {
		return fmt.Errorf("SHIPPING_VOLUME_RATIO must be positive, got %v", s.VolumeRatio)
	}
	if s.DefaultWeight < 0 {
		return fmt.Errorf("SHIPPING_DEFAULT_WEIGHT must not be negative, got %v", s.DefaultWeight)
	}
	if s.WeightPrecision < 0 || s.VolumePrecision < 0 {
		return fmt.Errorf("SHIPPING_WEIGHT_PRECISION and SHIPPING_VOLUME_PRECISION must not be negative")
	}
	if s.DefaultOrigin == "" {
		return fmt.Errorf("SHIPPING_DEFAULT_ORIGIN is required")
	}
	if s.ListSeparator == "" {
		return fmt.Errorf("SHIPPING_LIST_SEPARATOR is required")
	}
	return nil
}

// IsAPIEnabled reports whether a carrier API type may be used by methods
func (s ShippingSettings) IsAPIEnabled(apiType string) bool {
	for _, enabled := range s.APIEnabled {
		if enabled == apiType {
			return true
		}
	}
	return false
}

// ParseBox parses a "WxHxL" size in meters
func ParseBox(raw string) (Box, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(raw)), "x")
	if len(parts) != 3 {
		return Box{}, fmt.Errorf("invalid box size %q: expected WIDTHxHEIGHTxLENGTH", raw)
	}
	dims := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v <= 0 {
			return Box{}, fmt.Errorf("invalid box size %q: %q is not a positive number", raw, p)
		}
		dims[i] = v
	}
	return Box{Width: dims[0], Height: dims[1], Length: dims[2]}, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvRaw is like getEnv but keeps an explicitly empty value
func getEnvRaw(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an integer environment variable or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets a float environment variable or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets a duration environment variable or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList gets a separated list environment variable or returns a default value
func getEnvAsList(key, separator string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, separator) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}
