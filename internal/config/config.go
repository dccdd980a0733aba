// Package config provides configuration loading and validation for the
// recommender service and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/skill-recommender/internal/features"
	"github.com/jonathan/skill-recommender/internal/schemas"
	schemafiles "github.com/jonathan/skill-recommender/schemas"
)

// Catalog sources.
const (
	SourceUpstream = "upstream"
	SourcePostgres = "postgres"
)

// Config is the full service configuration. It can be loaded from a JSON or
// YAML file; environment variables override file values.
type Config struct {
	Server        ServerConfig      `json:"server" yaml:"server"`
	Upstream      UpstreamConfig    `json:"upstream" yaml:"upstream"`
	CatalogSource string            `json:"catalog_source" yaml:"catalog_source" validate:"oneof=upstream postgres"`
	DatabaseURL   string            `json:"database_url,omitempty" yaml:"database_url,omitempty"`
	Redis         RedisConfig       `json:"redis" yaml:"redis"`
	Recommender   RecommenderConfig `json:"recommender" yaml:"recommender"`
	LogLevel      string            `json:"log_level" yaml:"log_level" validate:"oneof=trace debug info warn error"`
	LogPretty     bool              `json:"log_pretty,omitempty" yaml:"log_pretty,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `json:"port" yaml:"port" validate:"gte=1,lte=65535"`
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
	// RateLimit is the sustained per-client request rate in requests per
	// second. Zero disables rate limiting.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	RateBurst int     `json:"rate_burst" yaml:"rate_burst" validate:"gte=0"`
	// Clients in RateLimitWhitelist are never limited; clients in
	// RateLimitBlacklist are always rejected.
	RateLimitWhitelist []string `json:"rate_limit_whitelist,omitempty" yaml:"rate_limit_whitelist,omitempty"`
	RateLimitBlacklist []string `json:"rate_limit_blacklist,omitempty" yaml:"rate_limit_blacklist,omitempty"`
	// RetrainToken protects POST /admin/retrain. Empty disables the route.
	RetrainToken string `json:"retrain_token,omitempty" yaml:"retrain_token,omitempty"`
}

// UpstreamConfig configures the data API client.
type UpstreamConfig struct {
	URL              string `json:"url" yaml:"url" validate:"omitempty,url"`
	AdminPassword    string `json:"admin_password,omitempty" yaml:"admin_password,omitempty"`
	TimeoutSeconds   int    `json:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=1"`
	Concurrency      int    `json:"concurrency" yaml:"concurrency" validate:"gte=1"`
	BreakerFailures  uint32 `json:"breaker_failures" yaml:"breaker_failures" validate:"gte=1"`
	BreakerOpenSecs  int    `json:"breaker_open_seconds" yaml:"breaker_open_seconds" validate:"gte=1"`
}

// RedisConfig configures the catalog cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr       string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password   string `json:"password,omitempty" yaml:"password,omitempty"`
	DB         int    `json:"db,omitempty" yaml:"db,omitempty" validate:"gte=0"`
	TTLSeconds int    `json:"ttl_seconds" yaml:"ttl_seconds" validate:"gte=1"`
}

// RecommenderConfig holds the ranking constants.
type RecommenderConfig struct {
	Weights       features.Weights `json:"weights" yaml:"weights"`
	ProviderBonus float64          `json:"provider_bonus" yaml:"provider_bonus" validate:"gte=0"`
	Lambda        float64          `json:"lambda" yaml:"lambda" validate:"gte=0,lte=1"`
	TopN          int              `json:"top_n" yaml:"top_n" validate:"gte=1"`
	ResponseLimit int              `json:"response_limit" yaml:"response_limit" validate:"gte=1"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:      8080,
			RateLimit: 20,
			RateBurst: 40,
		},
		Upstream: UpstreamConfig{
			TimeoutSeconds:  10,
			Concurrency:     8,
			BreakerFailures: 5,
			BreakerOpenSecs: 30,
		},
		CatalogSource: SourceUpstream,
		Redis:         RedisConfig{TTLSeconds: 3600},
		Recommender: RecommenderConfig{
			Weights:       features.DefaultWeights(),
			ProviderBonus: 0.125,
			Lambda:        0.85,
			TopN:          100,
			ResponseLimit: 5,
		},
		LogLevel: "info",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by
// extension (.yaml and .yml are YAML, anything else JSON).
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	doc := data
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
		// Schema validation works on JSON.
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
		if generic == nil {
			generic = map[string]any{}
		}
		if doc, err = json.Marshal(generic); err != nil {
			return nil, fmt.Errorf("failed to convert config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	if err := schemas.ValidateDocument(schemafiles.Config, doc); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Load builds the effective configuration: defaults, then the file at path
// (if any), then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field ranges and the settings each catalog source needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	switch c.CatalogSource {
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required when catalog_source is %q", SourcePostgres)
		}
	case SourceUpstream:
		if c.Upstream.URL == "" {
			return fmt.Errorf("config error: 'upstream.url' is required when catalog_source is %q", SourceUpstream)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from
// defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	result.CatalogSource = firstNonEmpty(result.CatalogSource, defaults.CatalogSource)
	result.DatabaseURL = firstNonEmpty(result.DatabaseURL, defaults.DatabaseURL)
	result.LogLevel = firstNonEmpty(result.LogLevel, defaults.LogLevel)
	result.Upstream.URL = firstNonEmpty(result.Upstream.URL, defaults.Upstream.URL)
	result.Upstream.AdminPassword = firstNonEmpty(result.Upstream.AdminPassword, defaults.Upstream.AdminPassword)
	result.Redis.Addr = firstNonEmpty(result.Redis.Addr, defaults.Redis.Addr)
	result.Redis.Password = firstNonEmpty(result.Redis.Password, defaults.Redis.Password)
	result.Server.RetrainToken = firstNonEmpty(result.Server.RetrainToken, defaults.Server.RetrainToken)
	if len(result.Server.AllowedOrigins) == 0 {
		result.Server.AllowedOrigins = defaults.Server.AllowedOrigins
	}

	// Numeric fields: use default if zero
	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}
	if result.Server.RateLimit == 0 {
		result.Server.RateLimit = defaults.Server.RateLimit
	}
	if result.Server.RateBurst == 0 {
		result.Server.RateBurst = defaults.Server.RateBurst
	}
	if result.Upstream.TimeoutSeconds == 0 {
		result.Upstream.TimeoutSeconds = defaults.Upstream.TimeoutSeconds
	}
	if result.Upstream.Concurrency == 0 {
		result.Upstream.Concurrency = defaults.Upstream.Concurrency
	}
	if result.Upstream.BreakerFailures == 0 {
		result.Upstream.BreakerFailures = defaults.Upstream.BreakerFailures
	}
	if result.Upstream.BreakerOpenSecs == 0 {
		result.Upstream.BreakerOpenSecs = defaults.Upstream.BreakerOpenSecs
	}
	if result.Redis.TTLSeconds == 0 {
		result.Redis.TTLSeconds = defaults.Redis.TTLSeconds
	}

	rc, dc := &result.Recommender, defaults.Recommender
	if rc.ProviderBonus == 0 {
		rc.ProviderBonus = dc.ProviderBonus
	}
	if rc.Lambda == 0 {
		rc.Lambda = dc.Lambda
	}
	if rc.TopN == 0 {
		rc.TopN = dc.TopN
	}
	if rc.ResponseLimit == 0 {
		rc.ResponseLimit = dc.ResponseLimit
	}
	rc.Weights = mergeWeights(rc.Weights, dc.Weights)

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}

func mergeWeights(w, d features.Weights) features.Weights {
	pick := func(v, def float64) float64 {
		if v == 0 {
			return def
		}
		return v
	}
	return features.Weights{
		Current:         pick(w.Current, d.Current),
		Goal:            pick(w.Goal, d.Goal),
		Position:        pick(w.Position, d.Position),
		Certificate:     pick(w.Certificate, d.Certificate),
		RepetitionBonus: pick(w.RepetitionBonus, d.RepetitionBonus),
		Priority: features.PriorityMultipliers{
			High:   pick(w.Priority.High, d.Priority.High),
			Medium: pick(w.Priority.Medium, d.Priority.Medium),
			Low:    pick(w.Priority.Low, d.Priority.Low),
		},
	}
}

func firstNonEmpty(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
