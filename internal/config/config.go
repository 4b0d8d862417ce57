package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/weather-app/internal/recents"
	"github.com/i474232898/weather-app/internal/search"
	"github.com/i474232898/weather-app/internal/weather/providers"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverS3       = "s3"
)

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type AppConfig struct {
	WeatherAPIKey     string `validate:"required"`
	WeatherAPIBaseURL string `validate:"required,url"`
	DefaultLocation   string `validate:"required"`

	SearchDebounce time.Duration `validate:"gt=0"`
	RecentsLimit   int           `validate:"min=1"`

	// HTTPTimeout bounds outbound calls; 0 means no timeout.
	HTTPTimeout    time.Duration `validate:"gte=0"`
	RateLimitRPS   float64       `validate:"gte=0"`
	RateLimitBurst int           `validate:"min=1"`

	// RefreshInterval re-fetches the displayed location; 0 disables it.
	RefreshInterval time.Duration `validate:"gte=0"`

	StoreDriver string `validate:"oneof=memory sqlite postgres redis s3"`
	StoreDSN    string
	S3          S3Config

	KafkaBrokers []string
	KafkaTopic   string `validate:"required_with=KafkaBrokers"`

	// DeviceLocation is "lat,lon"; empty means location services are off.
	DeviceLocation string

	Port string `validate:"required,numeric"`
}

var validate = validator.New()

// Load reads configuration from the environment (and .env) with defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{
		WeatherAPIKey:     os.Getenv("WEATHERAPI_API_KEY"),
		WeatherAPIBaseURL: getenvDefault("WEATHERAPI_BASE_URL", providers.DefaultWeatherAPIBaseURL),
		DefaultLocation:   getenvDefault("DEFAULT_LOCATION", "Rome"),
		RecentsLimit:      getenvInt("RECENTS_LIMIT", recents.DefaultLimit),
		RateLimitRPS:      getenvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:    getenvInt("RATE_LIMIT_BURST", 1),
		StoreDriver:       strings.ToLower(getenvDefault("STORE_DRIVER", DriverMemory)),
		StoreDSN:          getenvDefault("STORE_DSN", "data/weather.db"),
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    getenvDefault("S3_BUCKET", "weather-app"),
			UseSSL:    getenvBool("S3_USE_SSL", true),
		},
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     getenvDefault("KAFKA_TOPIC", "favorite-cities"),
		DeviceLocation: os.Getenv("DEVICE_LOCATION"),
		Port:           getenvDefault("PORT", "8080"),
	}

	var err error
	if cfg.SearchDebounce, err = getenvDuration("SEARCH_DEBOUNCE", search.DefaultQuietPeriod); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", 0); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the per-driver requirements.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.StoreDriver == DriverS3 && (c.S3.Endpoint == "" || c.S3.AccessKey == "" || c.S3.SecretKey == "") {
		return fmt.Errorf("invalid configuration: S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY are required for the s3 store")
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
