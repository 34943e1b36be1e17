package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_SOURCE", "HTTP")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.DataSource != SourceHTTP || cfg.MaxUploadSizeMB != 20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	opts := cfg.Analysis()
	if opts.Decay != 0.7 || opts.Tolerance != 5 || opts.SpeedKmh != 40 {
		t.Fatalf("unexpected analysis options: %+v", opts)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FORECAST_DECAY", "0.5")
	t.Setenv("ROUTE_URGENCY_BAND_MINUTES", "15")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ForecastDecay != 0.5 || cfg.RouteBandMinutes != 15 || cfg.RequestTimeout.Seconds() != 5 {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{DataSource: SourceHTTP, ForecastDecay: 0.7, RouteSpeedKmh: 40}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "decay of one", mutate: func(c *Config) { c.ForecastDecay = 1 }},
		{name: "zero decay", mutate: func(c *Config) { c.ForecastDecay = 0 }, wantErr: true},
		{name: "decay above one", mutate: func(c *Config) { c.ForecastDecay = 1.2 }, wantErr: true},
		{name: "zero speed", mutate: func(c *Config) { c.RouteSpeedKmh = 0 }, wantErr: true},
		{name: "negative tolerance", mutate: func(c *Config) { c.DiscrepancyTolerance = -1 }, wantErr: true},
		{name: "unknown source", mutate: func(c *Config) { c.DataSource = "kafka" }, wantErr: true},
		{name: "postgres without url", mutate: func(c *Config) { c.DataSource = SourcePostgres }, wantErr: true},
		{name: "memory without fixture", mutate: func(c *Config) { c.DataSource = SourceMemory }, wantErr: true},
		{name: "memory with fixture", mutate: func(c *Config) {
			c.DataSource = SourceMemory
			c.MemoryFixture = "fixture.json"
		}},
		{name: "postgres with url", mutate: func(c *Config) {
			c.DataSource = SourcePostgres
			c.DatabaseURL = "postgres://localhost/cauldron"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
