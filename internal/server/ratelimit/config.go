package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig overrides the default rate for one route.
type EndpointConfig struct {
	Path   string  // Endpoint path pattern (supports prefix matching)
	Method string  // HTTP method (GET, POST, etc.)
	Rate   float64 // Sustained requests per second; zero means unlimited
	Burst  int     // Burst capacity (defaults to 1 if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	Rate            float64
	Burst           int
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewConfig returns a configuration allowing rate requests per second with
// the given burst per client, plus the default endpoint overrides. A
// non-positive rate disables limiting.
func NewConfig(rate float64, burst int) *Config {
	if rate <= 0 {
		return &Config{Enabled: false}
	}
	if burst <= 0 {
		burst = int(rate)
	}
	return &Config{
		Enabled:         true,
		Rate:            rate,
		Burst:           max(burst, 1),
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Retraining reloads both catalogs.
		{Path: "/admin/retrain", Method: "POST", Rate: 1.0 / 60, Burst: 2},
	}
}

// WithAccessLists sets the clients that bypass limiting and the clients that
// are always rejected. Entries may themselves be comma-separated.
func (c *Config) WithAccessLists(whitelist, blacklist []string) *Config {
	c.Whitelist = ParseIPList(whitelist...)
	c.Blacklist = ParseIPList(blacklist...)
	return c
}

// ParseIPList parses comma-separated lists of IP addresses into a set.
func ParseIPList(lists ...string) map[string]bool {
	result := make(map[string]bool)
	for _, list := range lists {
		for _, ip := range strings.Split(list, ",") {
			if ip = strings.TrimSpace(ip); ip != "" {
				result[ip] = true
			}
		}
	}
	return result
}
