package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/reelscout/reelscout/src/internal/logging"
	"github.com/reelscout/reelscout/src/internal/validation"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelscout/config.yaml",
}

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

// WebFrontendConfig holds configuration for the Web Frontend service
type WebFrontendConfig struct {
	Server    ServerConfig    `koanf:"server"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Cache     CacheConfig     `koanf:"cache"`
	Store     StoreConfig     `koanf:"store"`
	Auth      AuthConfig      `koanf:"auth"`
	OIDC      OIDCConfig      `koanf:"oidc"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Log       logging.Config  `koanf:"log"`
}

type ServerConfig struct {
	Port            string        `koanf:"port" validate:"required,numeric"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CookieSecure    bool          `koanf:"cookie_secure"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// CatalogConfig points at the TMDB v3 API.
type CatalogConfig struct {
	BaseURL     string        `koanf:"base_url" validate:"required,url"`
	APIKey      string        `koanf:"api_key"`
	AccessToken string        `koanf:"access_token"`
	Language    string        `koanf:"language"`
	Page        int           `koanf:"page" validate:"gte=1"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
}

type CacheConfig struct {
	StaleTime        time.Duration `koanf:"stale_time" validate:"gte=0"`
	PopularStaleTime time.Duration `koanf:"popular_stale_time" validate:"gte=0"`
	GCTime           time.Duration `koanf:"gc_time" validate:"gt=0"`
	SearchDebounce   time.Duration `koanf:"search_debounce" validate:"gte=0"`
}

type StoreConfig struct {
	Backend     string `koanf:"backend" validate:"oneof=memory postgres badger"`
	DatabaseURL string `koanf:"database_url" validate:"required_if=Backend postgres"`
	BadgerDir   string `koanf:"badger_dir" validate:"required_if=Backend badger"`
}

type AuthConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout" validate:"gt=0"`
	MinPasswordLength int           `koanf:"min_password_length" validate:"gte=1"`
}

type OIDCConfig struct {
	ProviderURL  string `koanf:"provider_url" validate:"omitempty,url"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURL  string `koanf:"redirect_url" validate:"omitempty,url"`
}

// Enabled reports whether an OIDC provider is configured.
func (o OIDCConfig) Enabled() bool {
	return o.ProviderURL != "" && o.ClientID != ""
}

type RateLimitConfig struct {
	AuthRequests int           `koanf:"auth_requests" validate:"gte=0"`
	Window       time.Duration `koanf:"window" validate:"gt=0"`
}

func defaultConfig() *WebFrontendConfig {
	return &WebFrontendConfig{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Catalog: CatalogConfig{
			BaseURL:  "https://api.themoviedb.org/3",
			Language: "en-US",
			Page:     1,
			Timeout:  10 * time.Second,
		},
		Cache: CacheConfig{
			StaleTime:        5 * time.Minute,
			PopularStaleTime: 5 * time.Minute,
			GCTime:           10 * time.Minute,
			SearchDebounce:   300 * time.Millisecond,
		},
		Store: StoreConfig{
			Backend: BackendMemory,
		},
		Auth: AuthConfig{
			SessionTimeout:    24 * time.Hour,
			MinPasswordLength: 6,
		},
		RateLimit: RateLimitConfig{
			AuthRequests: 20,
			Window:       time.Minute,
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (*WebFrontendConfig, error) {
	return load(findConfigFile())
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*WebFrontendConfig, error) {
	return load(path)
}

func load(path string) (*WebFrontendConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &WebFrontendConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// DATABASE_URL alone selects postgres unless a backend was named.
	if cfg.Store.DatabaseURL != "" && cfg.Store.Backend == BackendMemory && os.Getenv("STORE_BACKEND") == "" {
		cfg.Store.Backend = BackendPostgres
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *WebFrontendConfig) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if c.Catalog.APIKey == "" && c.Catalog.AccessToken == "" {
		logging.Warn().Msg("[Config] Neither TMDB_API_KEY nor TMDB_ACCESS_TOKEN set; catalog requests will fail")
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var out []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variables to config paths. Variables not
// listed are ignored.
var envMappings = map[string]string{
	"port":                     "server.port",
	"shutdown_timeout":         "server.shutdown_timeout",
	"cookie_secure":            "server.cookie_secure",
	"cors_origins":             "server.cors_origins",
	"tmdb_base_url":            "catalog.base_url",
	"tmdb_api_key":             "catalog.api_key",
	"tmdb_access_token":        "catalog.access_token",
	"tmdb_language":            "catalog.language",
	"tmdb_timeout":             "catalog.timeout",
	"cache_stale_time":         "cache.stale_time",
	"cache_popular_stale_time": "cache.popular_stale_time",
	"cache_gc_time":            "cache.gc_time",
	"search_debounce":          "cache.search_debounce",
	"store_backend":            "store.backend",
	"database_url":             "store.database_url",
	"data_dir":                 "store.badger_dir",
	"jwt_secret":               "auth.jwt_secret",
	"session_timeout":          "auth.session_timeout",
	"min_password_length":      "auth.min_password_length",
	"oidc_provider":            "oidc.provider_url",
	"oidc_client_id":           "oidc.client_id",
	"oidc_client_secret":       "oidc.client_secret",
	"oidc_redirect_url":        "oidc.redirect_url",
	"rate_limit_auth_requests": "rate_limit.auth_requests",
	"rate_limit_window":        "rate_limit.window",
	"log_level":                "log.level",
	"log_format":               "log.format",
	"log_caller":               "log.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
