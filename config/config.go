// Package config holds the settings of a veloz application and loads them
// from YAML.
//
// A configuration starts from Default and is decoded over it, so a file
// only needs the keys it changes:
//
//	source_directory: ./site
//	listen: 127.0.0.1:8080
//	log_level: debug
//	middleware:
//	  security_headers:
//	    frame_option: SAMEORIGIN
//	  metrics:
//	    namespace: shop
//
// Unknown keys are rejected. Values are handed explicitly to the template
// engine, the application and the middleware; there is no global
// configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
	"github.com/vitalvas/veloz/muxhandlers"
	"github.com/vitalvas/veloz/view"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Default.
const (
	DefaultListen           = ":8080"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultRequestSizeLimit = "10MB"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the configuration of a veloz application.
type Config struct {
	// SourceDirectory is the directory templates are resolved against.
	SourceDirectory string `yaml:"source_directory"`

	// TemplateRootDirectory is the template root below SourceDirectory.
	TemplateRootDirectory string `yaml:"template_root_directory"`

	// TemplateFileExtension is appended to every template path.
	TemplateFileExtension string `yaml:"template_file_extension"`

	// LayoutTemplatePath is the default layout template.
	LayoutTemplatePath string `yaml:"layout_template_path"`

	// MinifyHTML minifies composed pages.
	MinifyHTML bool `yaml:"minify_html"`

	// Listen is the address the HTTP server listens on.
	Listen string `yaml:"listen"`

	// LogLevel is a slog level name such as "debug", "info" or "warn+2".
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the log handler: "text" or "json".
	LogFormat string `yaml:"log_format"`

	// SkipCleanPath disables request path cleaning before routing.
	SkipCleanPath bool `yaml:"skip_clean_path"`

	// Middleware selects the middleware installed around the application.
	Middleware Middleware `yaml:"middleware"`
}

// Middleware selects and configures the middleware installed by the
// application.
type Middleware struct {
	Recovery         bool             `yaml:"recovery"`
	RequestID        RequestID        `yaml:"request_id"`
	SecurityHeaders  SecurityHeaders  `yaml:"security_headers"`
	MethodOverride   MethodOverride   `yaml:"method_override"`
	RequestSizeLimit RequestSizeLimit `yaml:"request_size_limit"`
	AccessLog        AccessLog        `yaml:"access_log"`
	Metrics          Metrics          `yaml:"metrics"`

	// CORSMethods sets Access-Control-Allow-Methods from the route table.
	CORSMethods bool `yaml:"cors_methods"`
}

// RequestID configures request ID generation and propagation.
type RequestID struct {
	Enabled bool `yaml:"enabled"`

	muxhandlers.RequestIDConfig `yaml:",inline"`
}

// SecurityHeaders configures the security response headers.
type SecurityHeaders struct {
	Enabled bool `yaml:"enabled"`

	muxhandlers.SecurityHeadersConfig `yaml:",inline"`
}

// MethodOverride configures method override from a header or form field.
type MethodOverride struct {
	Enabled bool `yaml:"enabled"`

	muxhandlers.MethodOverrideConfig `yaml:",inline"`
}

// RequestSizeLimit configures the request body size limit.
type RequestSizeLimit struct {
	Enabled bool `yaml:"enabled"`

	muxhandlers.RequestSizeLimitConfig `yaml:",inline"`
}

// AccessLog configures the per-request log record.
type AccessLog struct {
	Enabled bool `yaml:"enabled"`

	// Level is the level of successful requests. Defaults to LogLevel's
	// default, "info".
	Level string `yaml:"level"`
}

// Metrics configures the Prometheus request metrics. Namespace and
// Subsystem prefix the metric names.
type Metrics struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		TemplateRootDirectory: view.DefaultTemplateDir,
		TemplateFileExtension: view.DefaultExtension,
		LayoutTemplatePath:    view.DefaultLayout,
		Listen:                DefaultListen,
		LogLevel:              DefaultLogLevel,
		LogFormat:             DefaultLogFormat,
		Middleware: Middleware{
			Recovery:        true,
			RequestID:       RequestID{Enabled: true},
			SecurityHeaders: SecurityHeaders{Enabled: true},
			MethodOverride:  MethodOverride{Enabled: true},
			RequestSizeLimit: RequestSizeLimit{
				Enabled:                true,
				RequestSizeLimitConfig: muxhandlers.RequestSizeLimitConfig{MaxSize: DefaultRequestSizeLimit},
			},
			AccessLog: AccessLog{Enabled: true, Level: DefaultLogLevel},
			Metrics:   Metrics{Enabled: true, Namespace: muxhandlers.DefaultMetricsNamespace},
		},
	}
}

// Load reads the YAML file at path from fs and decodes it over Default.
// A nil fs reads from the OS filesystem. The result is validated.
func Load(fs afero.Fs, path string) (Config, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML data over Default and validates the result. Empty
// data yields the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports every invalid setting, joined.
func (c Config) Validate() error {
	var errs []error

	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Listen == "" {
		invalid("listen must not be empty")
	}
	if c.TemplateFileExtension != "" && !strings.HasPrefix(c.TemplateFileExtension, ".") {
		invalid("template_file_extension %q must start with a dot", c.TemplateFileExtension)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		invalid("log_level: %v", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		invalid("log_format %q must be text or json", c.LogFormat)
	}

	mw := c.Middleware

	if mw.RequestID.Enabled {
		if _, err := muxhandlers.RequestIDGenerator(mw.RequestID.Generator); err != nil {
			invalid("request_id: %v", err)
		}
	}
	if mw.SecurityHeaders.Enabled {
		if err := mw.SecurityHeaders.SecurityHeadersConfig.Validate(); err != nil {
			invalid("security_headers: %v", err)
		}
	}
	if mw.MethodOverride.Enabled {
		if _, err := muxhandlers.MethodOverrideMiddleware(mw.MethodOverride.MethodOverrideConfig); err != nil {
			invalid("method_override: %v", err)
		}
	}
	if mw.RequestSizeLimit.Enabled {
		if _, err := mw.RequestSizeLimit.Limit(); err != nil {
			invalid("request_size_limit: %v", err)
		}
	}
	if mw.AccessLog.Enabled {
		if _, err := ParseLevel(mw.AccessLog.Level); err != nil {
			invalid("access_log level: %v", err)
		}
	}
	if mw.Metrics.Enabled && mw.Metrics.Namespace == "" {
		invalid("metrics namespace must not be empty")
	}

	return errors.Join(errs...)
}

// ViewOptions returns the template engine options described by c.
func (c Config) ViewOptions() view.Options {
	return view.Options{
		SourceDir:     c.SourceDirectory,
		TemplateDir:   c.TemplateRootDirectory,
		Extension:     c.TemplateFileExtension,
		DefaultLayout: c.LayoutTemplatePath,
		Minify:        c.MinifyHTML,
	}
}

// Logger returns a logger writing to w with the configured level and
// format.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}

	opts := &slog.HandlerOptions{Level: level}

	switch c.LogFormat {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
}

// ParseLevel parses a slog level name. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return level, nil
	}

	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}

	return level, nil
}
