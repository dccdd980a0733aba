package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides configuration from environment variables. Unset and
// empty variables leave the current value alone. Values that fail to parse
// are reported together and leave their field unchanged.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid integer %q", key, v))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid number %q", key, v))
				return
			}
			*dst = f
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("UPSTREAM_URL", &c.Upstream.URL)
	str("UPSTREAM_ADMIN_PASSWORD", &c.Upstream.AdminPassword)
	// The data API's own variable name.
	if c.Upstream.AdminPassword == "" {
		str("ADMIN_PASSWORD_ML", &c.Upstream.AdminPassword)
	}
	num("UPSTREAM_TIMEOUT_SECONDS", &c.Upstream.TimeoutSeconds)

	str("CATALOG_SOURCE", &c.CatalogSource)
	str("DATABASE_URL", &c.DatabaseURL)

	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)
	num("CATALOG_CACHE_TTL_SECONDS", &c.Redis.TTLSeconds)

	num("PORT", &c.Server.Port)
	float("RATE_LIMIT", &c.Server.RateLimit)
	num("RATE_BURST", &c.Server.RateBurst)
	list("RATE_LIMIT_WHITELIST", &c.Server.RateLimitWhitelist)
	list("RATE_LIMIT_BLACKLIST", &c.Server.RateLimitBlacklist)
	str("RETRAIN_TOKEN", &c.Server.RetrainToken)
	list("CORS_ALLOWED_ORIGINS", &c.Server.AllowedOrigins)

	float("PROVIDER_BONUS", &c.Recommender.ProviderBonus)
	float("DIVERSITY_LAMBDA", &c.Recommender.Lambda)
	num("RESPONSE_LIMIT", &c.Recommender.ResponseLimit)

	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup("LOG_PRETTY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LOG_PRETTY: invalid boolean %q", v))
		} else {
			c.LogPretty = b
		}
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
