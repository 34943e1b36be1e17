package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cauldronwatch/backend/internal/service"
)

const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
	SourceMemory   = "memory"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`

	DataSource    string        `mapstructure:"DATA_SOURCE"`
	SourceURL     string        `mapstructure:"SOURCE_URL"`
	SourceTimeout time.Duration `mapstructure:"SOURCE_TIMEOUT"`
	MemoryFixture string        `mapstructure:"MEMORY_FIXTURE"`

	GeocoderURL       string `mapstructure:"GEOCODER_URL"`
	GeocoderUserAgent string `mapstructure:"GEOCODER_USER_AGENT"`

	ForecastDecay        float64 `mapstructure:"FORECAST_DECAY"`
	DiscrepancyTolerance float64 `mapstructure:"DISCREPANCY_TOLERANCE"`
	DrainNoiseFloor      float64 `mapstructure:"DRAIN_NOISE_FLOOR"`
	RouteSpeedKmh        float64 `mapstructure:"ROUTE_SPEED_KMH"`
	RouteServiceMinutes  float64 `mapstructure:"ROUTE_SERVICE_MINUTES"`
	RouteBandMinutes     float64 `mapstructure:"ROUTE_URGENCY_BAND_MINUTES"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ADMIN_KEY", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("DATA_SOURCE", SourceHTTP)
	v.SetDefault("SOURCE_URL", "https://hackutd2025.eog.systems")
	v.SetDefault("SOURCE_TIMEOUT", "60s")
	v.SetDefault("MEMORY_FIXTURE", "")
	v.SetDefault("GEOCODER_URL", "")
	v.SetDefault("GEOCODER_USER_AGENT", "cauldron-backend")
	v.SetDefault("FORECAST_DECAY", 0.7)
	v.SetDefault("DISCREPANCY_TOLERANCE", 5)
	v.SetDefault("DRAIN_NOISE_FLOOR", 0)
	v.SetDefault("ROUTE_SPEED_KMH", 40)
	v.SetDefault("ROUTE_SERVICE_MINUTES", 0)
	v.SetDefault("ROUTE_URGENCY_BAND_MINUTES", 0)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.DataSource = strings.ToLower(strings.TrimSpace(cfg.DataSource))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DataSource {
	case SourceHTTP:
	case SourceMemory:
		if c.MemoryFixture == "" {
			return fmt.Errorf("MEMORY_FIXTURE is required when DATA_SOURCE=%s", SourceMemory)
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE=%s", SourcePostgres)
		}
	default:
		return fmt.Errorf("unknown DATA_SOURCE %q", c.DataSource)
	}
	if c.ForecastDecay <= 0 || c.ForecastDecay > 1 {
		return fmt.Errorf("FORECAST_DECAY must be in (0, 1], got %v", c.ForecastDecay)
	}
	if c.RouteSpeedKmh <= 0 {
		return fmt.Errorf("ROUTE_SPEED_KMH must be positive, got %v", c.RouteSpeedKmh)
	}
	if c.DiscrepancyTolerance < 0 || c.DrainNoiseFloor < 0 || c.RouteServiceMinutes < 0 || c.RouteBandMinutes < 0 {
		return fmt.Errorf("tolerance, noise floor, service and band minutes must not be negative")
	}
	return nil
}

// Analysis returns the tuning knobs for the analysis service.
func (c Config) Analysis() service.Options {
	return service.Options{
		Decay:          c.ForecastDecay,
		Tolerance:      c.DiscrepancyTolerance,
		NoiseFloor:     c.DrainNoiseFloor,
		SpeedKmh:       c.RouteSpeedKmh,
		ServiceMinutes: c.RouteServiceMinutes,
		BandMinutes:    c.RouteBandMinutes,
	}
}
