package server

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// OriginChecker accepts every origin unless an allow list is configured.
// Requests without an Origin header (non-browser clients) are always accepted.
type OriginChecker struct {
	allowedOrigins []string
}

func NewOriginChecker(allowedOrigins []string) *OriginChecker {
	normalized := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(strings.ToLower(origin))
		if origin != "" {
			normalized = append(normalized, strings.TrimSuffix(origin, "/"))
		}
	}

	return &OriginChecker{
		allowedOrigins: normalized,
	}
}

func (c *OriginChecker) Check(r *http.Request) bool {
	if len(c.allowedOrigins) == 0 || slices.Contains(c.allowedOrigins, "*") {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	return slices.Contains(c.allowedOrigins, strings.ToLower(parsed.Scheme+"://"+parsed.Host))
}
