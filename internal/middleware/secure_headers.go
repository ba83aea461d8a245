package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecureHeadersConfig contains configuration for secure headers
type SecureHeadersConfig struct {
	UseHSTS               bool
	HSTSMaxAge            time.Duration
	HSTSIncludeSubdomains bool

	// The API only serves JSON, so the policy forbids everything
	ContentSecurityPolicy string

	XFrameOptions     string
	ReferrerPolicy    string
	PermissionsPolicy string

	// Responses under these prefixes are never cached
	NoStorePrefixes []string
}

// DefaultSecureHeadersConfig returns the default secure headers configuration
func DefaultSecureHeadersConfig(production bool) SecureHeadersConfig {
	return SecureHeadersConfig{
		UseHSTS:               production,
		HSTSMaxAge:            365 * 24 * time.Hour,
		HSTSIncludeSubdomains: true,

		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",

		XFrameOptions:     "DENY",
		ReferrerPolicy:    "strict-origin-when-cross-origin",
		PermissionsPolicy: "camera=(), microphone=(), geolocation=(), interest-cohort=()",

		NoStorePrefixes: []string{"/api/users", "/api/admin", "/api/wallets", "/api/transfers", "/api/swaps"},
	}
}

// SecureHeadersMiddleware adds security headers to responses
func SecureHeadersMiddleware(config SecureHeadersConfig) gin.HandlerFunc {
	hsts := "max-age=" + strconv.FormatInt(int64(config.HSTSMaxAge.Seconds()), 10)
	if config.HSTSIncludeSubdomains {
		hsts += "; includeSubDomains"
	}

	return func(c *gin.Context) {
		if config.UseHSTS {
			c.Header("Strict-Transport-Security", hsts)
		}
		if config.ContentSecurityPolicy != "" {
			c.Header("Content-Security-Policy", config.ContentSecurityPolicy)
		}
		if config.XFrameOptions != "" {
			c.Header("X-Frame-Options", config.XFrameOptions)
		}
		c.Header("X-Content-Type-Options", "nosniff")
		if config.ReferrerPolicy != "" {
			c.Header("Referrer-Policy", config.ReferrerPolicy)
		}
		if config.PermissionsPolicy != "" {
			c.Header("Permissions-Policy", config.PermissionsPolicy)
		}

		for _, prefix := range config.NoStorePrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
				c.Header("Pragma", "no-cache")
				break
			}
		}

		c.Next()
	}
}
