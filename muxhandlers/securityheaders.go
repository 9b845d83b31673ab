package muxhandlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vitalvas/veloz/mux"
)

// ErrInvalidFrameOption is returned when SecurityHeadersConfig.FrameOption is
// not one of the valid values: "DENY", "SAMEORIGIN", or empty string.
var ErrInvalidFrameOption = errors.New("security headers: frame option must be DENY, SAMEORIGIN, or empty")

// SecurityHeadersConfig configures the Security Headers middleware behaviour.
type SecurityHeadersConfig struct {
	// DisableContentTypeNosniff disables the X-Content-Type-Options: nosniff
	// header. The header is set by default (when false).
	DisableContentTypeNosniff bool `yaml:"disable_nosniff"`

	// FrameOption sets the X-Frame-Options header value.
	// Valid values are "DENY", "SAMEORIGIN", or empty string for the
	// default "DENY".
	FrameOption string `yaml:"frame_option"`

	// ReferrerPolicy sets the Referrer-Policy header value.
	// Defaults to "strict-origin-when-cross-origin".
	ReferrerPolicy string `yaml:"referrer_policy"`

	// HSTSMaxAge sets the max-age directive for the Strict-Transport-Security
	// header in seconds. When zero, the header is not set.
	HSTSMaxAge int `yaml:"hsts_max_age"`

	// HSTSIncludeSubDomains appends the includeSubDomains directive to the
	// Strict-Transport-Security header. Only effective when HSTSMaxAge > 0.
	HSTSIncludeSubDomains bool `yaml:"hsts_include_subdomains"`

	// HSTSPreload appends the preload directive to the
	// Strict-Transport-Security header. Only effective when HSTSMaxAge > 0.
	HSTSPreload bool `yaml:"hsts_preload"`

	// CrossOriginOpenerPolicy sets the Cross-Origin-Opener-Policy header.
	// When empty, the header is not set.
	CrossOriginOpenerPolicy string `yaml:"cross_origin_opener_policy"`

	// ContentSecurityPolicy sets the Content-Security-Policy header.
	// When empty, the header is not set.
	ContentSecurityPolicy string `yaml:"content_security_policy"`

	// PermissionsPolicy sets the Permissions-Policy header.
	// When empty, the header is not set.
	PermissionsPolicy string `yaml:"permissions_policy"`
}

// Validate reports whether the configuration is usable.
func (cfg SecurityHeadersConfig) Validate() error {
	if cfg.FrameOption != "" && cfg.FrameOption != "DENY" && cfg.FrameOption != "SAMEORIGIN" {
		return fmt.Errorf("%w: %q", ErrInvalidFrameOption, cfg.FrameOption)
	}

	return nil
}

// headers returns the header name/value pairs the configuration produces.
func (cfg SecurityHeadersConfig) headers() [][2]string {
	frameOption := cfg.FrameOption
	if frameOption == "" {
		frameOption = "DENY"
	}

	referrerPolicy := cfg.ReferrerPolicy
	if referrerPolicy == "" {
		referrerPolicy = "strict-origin-when-cross-origin"
	}

	var out [][2]string

	if !cfg.DisableContentTypeNosniff {
		out = append(out, [2]string{"X-Content-Type-Options", "nosniff"})
	}

	out = append(out,
		[2]string{"X-Frame-Options", frameOption},
		[2]string{"Referrer-Policy", referrerPolicy},
	)

	if cfg.HSTSMaxAge > 0 {
		hsts := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		out = append(out, [2]string{"Strict-Transport-Security", hsts})
	}

	optional := [][2]string{
		{"Cross-Origin-Opener-Policy", cfg.CrossOriginOpenerPolicy},
		{"Content-Security-Policy", cfg.ContentSecurityPolicy},
		{"Permissions-Policy", cfg.PermissionsPolicy},
	}
	for _, h := range optional {
		if h[1] != "" {
			out = append(out, h)
		}
	}

	return out
}

// SecurityHeadersMiddleware returns a middleware that sets common security
// response headers. Headers are set before calling the next handler, so
// they are present on rendered pages and on redirect or 405 responses alike.
//
// It returns ErrInvalidFrameOption if FrameOption is set to a value other than
// "DENY", "SAMEORIGIN", or empty string.
func SecurityHeadersMiddleware(cfg SecurityHeadersConfig) (mux.MiddlewareFunc, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	headers := cfg.headers()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range headers {
				h.Set(kv[0], kv[1])
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}
