package ratelimit

import (
	"strings"
)

// MatchEndpoint returns the configuration for a request, or nil to use the
// default limit. Exact paths win over prefixes ending in "/"; GET /health is
// never limited.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return &EndpointConfig{}
	}

	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}
	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}
	return nil
}

// key groups requests sharing a prefix rule into one bucket, so
// /users/a/matches and /users/b/matches draw from the same budget.
func (c *EndpointConfig) key(path string) string {
	if c.Path != "" && strings.HasSuffix(c.Path, "/") {
		return c.Path
	}
	return path
}
