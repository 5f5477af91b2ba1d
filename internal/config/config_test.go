package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable the loader reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SERVER_HOST", "SERVER_PORT", "PORT", "SERVER_READ_TIMEOUT", "SERVER_REQUEST_TIMEOUT",
		"AIRTABLE_API_KEY", "AIRTABLE_BASE_ID", "AIRTABLE_TABLE_NAME", "AIRTABLE_VIEW_NAME",
		"AIRTABLE_API_URL", "AIRTABLE_TIMEOUT", "AIRTABLE_PAGE_SIZE",
		"CLINIC_SOURCE", "SHEET_CSV_URL",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "RELAY_CACHE_TTL", "RELAY_CACHE_REFRESH",
		"FINDER_DEFAULT_RADIUS_MILES",
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_REQUESTS_PER_MINUTE",
		"TRUSTED_PROXIES", "CORS_ALLOWED_ORIGINS", "METRICS_API_KEYS",
		"LOG_LEVEL", "LOG_FORMAT",
		"RELAY_MAX_CONCURRENT_FETCHES", "RELAY_FETCH_WAIT",
	} {
		t.Setenv(name, "")
	}
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, ShutdownTimeout: time.Second, RequestTimeout: time.Minute},
		Airtable: AirtableConfig{APIURL: "https://api.airtable.com", Timeout: 10 * time.Second},
		Source:   SourceConfig{Kind: SourceAirtable, MaxConcurrentFetches: 2, FetchWait: 20 * time.Second},
		Finder:   FinderConfig{DefaultRadiusMiles: 25},
		Rate:     RateLimitConfig{Enabled: true, RequestsPerMinute: 100},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Airtable.Timeout != 10*time.Second {
		t.Errorf("Airtable.Timeout = %v, want %v", cfg.Airtable.Timeout, 10*time.Second)
	}
	if cfg.Airtable.APIURL != "https://api.airtable.com" {
		t.Errorf("Airtable.APIURL = %q", cfg.Airtable.APIURL)
	}
	if cfg.Source.Kind != SourceAirtable {
		t.Errorf("Source.Kind = %q, want %q", cfg.Source.Kind, SourceAirtable)
	}
	if cfg.Source.MaxConcurrentFetches != 2 || cfg.Source.FetchWait != 20*time.Second {
		t.Errorf("Source fetch limits = %d/%v, want 2/20s", cfg.Source.MaxConcurrentFetches, cfg.Source.FetchWait)
	}
	if cfg.Finder.DefaultRadiusMiles != 25 {
		t.Errorf("Finder.DefaultRadiusMiles = %v, want 25", cfg.Finder.DefaultRadiusMiles)
	}
	if cfg.Cache.Enabled() {
		t.Error("Cache.Enabled() = true, want false by default")
	}
	if len(cfg.Security.CORSAllowedOrigins) != 1 || cfg.Security.CORSAllowedOrigins[0] != "*" {
		t.Errorf("Security.CORSAllowedOrigins = %v, want [*]", cfg.Security.CORSAllowedOrigins)
	}
}

func TestLoad_MissingCredentialsIsNotAnError(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Airtable.APIKey != "" {
		t.Errorf("Airtable.APIKey = %q, want empty", cfg.Airtable.APIKey)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("AIRTABLE_VIEW_NAME", "Grid view")
	t.Setenv("FINDER_DEFAULT_RADIUS_MILES", "10.5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Airtable.ViewName != "Grid view" {
		t.Errorf("Airtable.ViewName = %q, want %q", cfg.Airtable.ViewName, "Grid view")
	}
	if cfg.Finder.DefaultRadiusMiles != 10.5 {
		t.Errorf("Finder.DefaultRadiusMiles = %v, want 10.5", cfg.Finder.DefaultRadiusMiles)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 3000)
	}
}

func TestLoad_Duration(t *testing.T) {
	clearEnv(t)
	t.Setenv("AIRTABLE_TIMEOUT", "2500ms")
	t.Setenv("RELAY_CACHE_TTL", "1m30s")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Airtable.Timeout != 2500*time.Millisecond {
		t.Errorf("Airtable.Timeout = %v, want %v", cfg.Airtable.Timeout, 2500*time.Millisecond)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("Cache.TTL = %v, want %v", cfg.Cache.TTL, 90*time.Second)
	}
	if !cfg.Cache.Enabled() {
		t.Error("Cache.Enabled() = false, want true")
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("AIRTABLE_PAGE_SIZE", "lots")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for non-numeric AIRTABLE_PAGE_SIZE")
	}
	if !strings.Contains(err.Error(), "AIRTABLE_PAGE_SIZE") {
		t.Errorf("error should mention AIRTABLE_PAGE_SIZE: %v", err)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 99999

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for invalid port")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("error should mention SERVER_PORT: %v", err)
	}
}

func TestValidate_SheetSourceNeedsURL(t *testing.T) {
	cfg := validConfig()
	cfg.Source.Kind = SourceSheet

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for sheet source without URL")
	}
	if !strings.Contains(err.Error(), "SHEET_CSV_URL") {
		t.Errorf("error should mention SHEET_CSV_URL: %v", err)
	}

	cfg.Source.SheetCSVURL = "https://docs.google.com/spreadsheets/d/x/export?format=csv"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_UnknownSource(t *testing.T) {
	cfg := validConfig()
	cfg.Source.Kind = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for unknown source")
	}
	if !strings.Contains(err.Error(), "CLINIC_SOURCE") {
		t.Errorf("error should mention CLINIC_SOURCE: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	cfg.Finder.DefaultRadiusMiles = 0
	cfg.Airtable.APIURL = "api.airtable.com"
	cfg.Source.MaxConcurrentFetches = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"LOG_LEVEL", "FINDER_DEFAULT_RADIUS_MILES", "AIRTABLE_API_URL", "RELAY_MAX_CONCURRENT_FETCHES"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"localhost", 443, "localhost:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		got := cfg.Addr()
		if got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Airtable.APIKey = "patSECRETvalue"
	cfg.Cache.RedisPassword = "hunter2"

	str := cfg.String()
	if strings.Contains(str, "patSECRETvalue") || strings.Contains(str, "hunter2") {
		t.Errorf("String() leaked a secret: %s", str)
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}
