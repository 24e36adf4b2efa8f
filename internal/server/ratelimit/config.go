package ratelimit

import (
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/hired/internal/config"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // exact path, or a prefix when it ends in "/"
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// FromConfig builds the limiter configuration from the service settings.
func FromConfig(c config.RateLimitConfig) *Config {
	if !c.Enabled {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    c.DefaultLimit,
		DefaultWindow:   c.DefaultWindow,
		CleanupInterval: c.CleanupInterval,
		Whitelist:       ipSet(c.Whitelist),
		Blacklist:       ipSet(c.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the built-in per-endpoint limits.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Every model call costs money
		{Path: "/rpc/", Method: http.MethodPost, Limit: 60, Window: time.Hour, Burst: 10},
		{Path: "/interviews", Method: http.MethodPost, Limit: 20, Window: time.Hour, Burst: 3},

		{Path: "/auth/", Method: http.MethodPost, Limit: 10, Window: time.Minute, Burst: 5},

		// Live interview controls are chatty but cheap
		{Path: "/interviews/", Method: http.MethodPost, Limit: 600, Window: time.Minute, Burst: 60},
		{Path: "/interviews/", Method: http.MethodPut, Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/sessions", Method: http.MethodDelete, Limit: 10, Window: time.Minute, Burst: 2},
	}
}

// key is the bucket identity for a request path matched by c. Prefix configs share one bucket.
func (c *EndpointConfig) key(path string) string {
	if strings.HasSuffix(c.Path, "/") {
		return c.Path
	}
	return path
}

func ipSet(ips []string) map[string]bool {
	set := make(map[string]bool, len(ips))
	for _, ip := range ips {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}
