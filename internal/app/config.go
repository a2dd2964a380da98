// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

package app

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Payments  PaymentsConfig  `mapstructure:"payments"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	UI        UIConfig        `mapstructure:"ui"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	BaseURL         string        `mapstructure:"base_url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxRequestSize  string        `mapstructure:"max_request_size"`
	// CORSOrigins is a comma-separated allow list for /api/*.
	CORSOrigins string `mapstructure:"cors_origins"`

	TLS struct {
		CertFile string `mapstructure:"cert_file"`
		KeyFile  string `mapstructure:"key_file"`
	} `mapstructure:"tls"`
}

// BackendConfig points at the ERP REST API.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AuthConfig holds token cookie and sign-in settings.
type AuthConfig struct {
	AccessCookie   string        `mapstructure:"access_cookie"`
	RefreshCookie  string        `mapstructure:"refresh_cookie"`
	AccessMaxAge   time.Duration `mapstructure:"access_max_age"`
	RefreshMaxAge  time.Duration `mapstructure:"refresh_max_age"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	CookieSameSite string        `mapstructure:"cookie_samesite"`
	CookieDomain   string        `mapstructure:"cookie_domain"`
	LoginRateLimit int           `mapstructure:"login_rate_limit"`

	Google struct {
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		RedirectURL  string `mapstructure:"redirect_url"`
	} `mapstructure:"google"`
}

// CacheConfig configures the option-list cache. Without a Redis URL option
// lists are fetched on every render.
type CacheConfig struct {
	RedisURL     string        `mapstructure:"redis_url"`
	OptionsTTL   time.Duration `mapstructure:"options_ttl"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// PaymentsConfig holds the customer portal settings.
type PaymentsConfig struct {
	PublishableKey string `mapstructure:"publishable_key"`
	Currency       string `mapstructure:"currency"`
}

// TelemetryConfig holds OTLP tracing settings.
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	ServiceName string  `mapstructure:"service_name"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	File   string `mapstructure:"file"`
	// Levels overrides the level per component (backend, cache, pages...).
	Levels map[string]string `mapstructure:"levels"`
}

// UIConfig holds rendering defaults.
type UIConfig struct {
	PageSize int    `mapstructure:"page_size"`
	Locale   string `mapstructure:"locale"`
	Currency string `mapstructure:"currency"`
}

// LoadConfig loads configuration from file and environment
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()

	// Config file settings
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/erpweb")
		v.AddConfigPath("$HOME/.erpweb")
		v.AddConfigPath(".")
	}

	// Environment variables
	v.SetEnvPrefix("ERPWEB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// ERPWEB_ names win, then the frontend's historical names in order.
	// Empty variables are skipped.
	_ = v.BindEnv("backend.base_url", "ERPWEB_BACKEND_BASE_URL",
		"INTERNAL_API_BASE_URL", "API_BASE_URL", "NEXT_PUBLIC_API_BASE_URL")
	_ = v.BindEnv("auth.google.client_id", "ERPWEB_AUTH_GOOGLE_CLIENT_ID",
		"GOOGLE_CLIENT_ID", "NEXT_PUBLIC_GOOGLE_CLIENT_ID")
	_ = v.BindEnv("auth.google.client_secret", "ERPWEB_AUTH_GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET")
	_ = v.BindEnv("payments.publishable_key", "ERPWEB_PAYMENTS_PUBLISHABLE_KEY",
		"STRIPE_PUBLISHABLE_KEY", "NEXT_PUBLIC_STRIPE_PUBLISHABLE_KEY")
	_ = v.BindEnv("cache.redis_url", "ERPWEB_CACHE_REDIS_URL", "REDIS_URL")
	_ = v.BindEnv("telemetry.endpoint", "ERPWEB_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, proceed with env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.normalize()

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.base_url", "http://localhost:3000")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_request_size", "10MB")

	// Backend
	v.SetDefault("backend.base_url", backend.DefaultBaseURL)
	v.SetDefault("backend.timeout", "30s")

	// Auth
	v.SetDefault("auth.access_cookie", "erp_access_token")
	v.SetDefault("auth.refresh_cookie", "erp_refresh_token")
	v.SetDefault("auth.access_max_age", "30m")
	v.SetDefault("auth.refresh_max_age", "24h")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.cookie_samesite", "lax")
	v.SetDefault("auth.login_rate_limit", 5)

	// Cache
	v.SetDefault("cache.options_ttl", "60s")
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.dial_timeout", "5s")
	v.SetDefault("cache.read_timeout", "3s")
	v.SetDefault("cache.write_timeout", "3s")

	// Payments
	v.SetDefault("payments.currency", "kwd")

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4318")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.service_name", "erpweb")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// UI
	v.SetDefault("ui.page_size", backend.DefaultPageSize)
	v.SetDefault("ui.locale", "ar-KW")
	v.SetDefault("ui.currency", "KWD")
}

// normalize fills derived values after unmarshalling.
func (c *Config) normalize() {
	c.Backend.BaseURL = backend.NormalizeBaseURL(c.Backend.BaseURL)
	c.Server.BaseURL = strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	if c.Auth.Google.RedirectURL == "" && c.Server.BaseURL != "" {
		c.Auth.Google.RedirectURL = c.Server.BaseURL + "/login/google/callback"
	}
}

// Validate validates the configuration.
// Collects all errors so the operator can fix them in one pass.
func (c *Config) Validate() error {
	var errs []error

	if err := checkHTTPURL("backend.base_url", c.Backend.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.Server.BaseURL != "" {
		if err := checkHTTPURL("server.base_url", c.Server.BaseURL); err != nil {
			errs = append(errs, err)
		}
	}

	// Port validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d is not a valid port (1-65535)", c.Server.Port))
	}

	// Duration validation
	errs = append(errs, c.validateDurations()...)

	// Enum validation
	errs = append(errs, c.validateEnums()...)

	// Relationship validation
	errs = append(errs, c.validateRelationships()...)

	if len(errs) == 0 {
		return nil
	}
	// Join all errors with newlines for readable operator output
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("config validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func checkHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s: %q is not an http(s) URL", name, raw)
	}
	return nil
}

// validateDurations checks that duration values are positive where required.
func (c *Config) validateDurations() []error {
	var errs []error
	checkPositive := func(name string, d time.Duration) {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must be non-negative, got %s", name, d))
		}
	}
	checkPositive("server.read_timeout", c.Server.ReadTimeout)
	checkPositive("server.write_timeout", c.Server.WriteTimeout)
	checkPositive("server.idle_timeout", c.Server.IdleTimeout)
	checkPositive("server.shutdown_timeout", c.Server.ShutdownTimeout)
	checkPositive("backend.timeout", c.Backend.Timeout)
	checkPositive("auth.access_max_age", c.Auth.AccessMaxAge)
	checkPositive("auth.refresh_max_age", c.Auth.RefreshMaxAge)
	checkPositive("cache.options_ttl", c.Cache.OptionsTTL)
	checkPositive("cache.dial_timeout", c.Cache.DialTimeout)
	checkPositive("cache.read_timeout", c.Cache.ReadTimeout)
	checkPositive("cache.write_timeout", c.Cache.WriteTimeout)
	return errs
}

// validateEnums checks that enum-like string fields have valid values.
func (c *Config) validateEnums() []error {
	var errs []error
	// Logging level
	if c.Logging.Level != "" {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errs = append(errs, fmt.Errorf("logging.level: %q is not valid (debug, info, warn, error)", c.Logging.Level))
		}
	}
	// Logging format
	if c.Logging.Format != "" {
		validFormats := map[string]bool{"json": true, "text": true, "console": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errs = append(errs, fmt.Errorf("logging.format: %q is not valid (json, text, console)", c.Logging.Format))
		}
	}
	// Logging output
	if c.Logging.Output != "" {
		validOutputs := map[string]bool{"stdout": true, "stderr": true, "file": true}
		if !validOutputs[strings.ToLower(c.Logging.Output)] {
			errs = append(errs, fmt.Errorf("logging.output: %q is not valid (stdout, stderr, file)", c.Logging.Output))
		}
	}
	// Cookie SameSite
	if c.Auth.CookieSameSite != "" {
		validSS := map[string]bool{"strict": true, "lax": true, "none": true}
		if !validSS[strings.ToLower(c.Auth.CookieSameSite)] {
			errs = append(errs, fmt.Errorf("auth.cookie_samesite: %q is not valid (strict, lax, none)", c.Auth.CookieSameSite))
		}
	}
	return errs
}

// validateRelationships checks cross-field constraints.
func (c *Config) validateRelationships() []error {
	var errs []error
	if strings.EqualFold(c.Logging.Output, "file") && c.Logging.File == "" {
		errs = append(errs, fmt.Errorf("logging.file is required when logging.output is file"))
	}
	if strings.EqualFold(c.Auth.CookieSameSite, "none") && !c.Auth.CookieSecure {
		errs = append(errs, fmt.Errorf("auth.cookie_samesite none requires auth.cookie_secure"))
	}
	if c.Auth.AccessMaxAge > 0 && c.Auth.RefreshMaxAge > 0 && c.Auth.RefreshMaxAge < c.Auth.AccessMaxAge {
		errs = append(errs, fmt.Errorf("auth.refresh_max_age (%s) should be >= auth.access_max_age (%s)",
			c.Auth.RefreshMaxAge, c.Auth.AccessMaxAge))
	}
	if c.Auth.Google.ClientSecret != "" && c.Auth.Google.ClientID == "" {
		errs = append(errs, fmt.Errorf("auth.google.client_secret is set without auth.google.client_id"))
	}
	if c.Auth.LoginRateLimit < 0 {
		errs = append(errs, fmt.Errorf("auth.login_rate_limit must be non-negative"))
	}
	if (c.Server.TLS.CertFile == "") != (c.Server.TLS.KeyFile == "") {
		errs = append(errs, fmt.Errorf("server.tls.cert_file and server.tls.key_file must be set together"))
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio must be between 0 and 1, got %v", c.Telemetry.SampleRatio))
	}
	if c.UI.PageSize < 0 {
		errs = append(errs, fmt.Errorf("ui.page_size must be non-negative"))
	}
	return errs
}

// PrintMasked writes the configuration with secrets masked.
func (c *Config) PrintMasked(w io.Writer) {
	fmt.Fprintf(w, "Server: %s:%d (%s)\n", c.Server.Host, c.Server.Port, c.Server.BaseURL)
	if c.Server.TLS.CertFile != "" {
		fmt.Fprintf(w, "TLS Cert: %s\n", c.Server.TLS.CertFile)
	}
	fmt.Fprintf(w, "Backend URL: %s (timeout %s)\n", maskURL(c.Backend.BaseURL), c.Backend.Timeout)
	fmt.Fprintf(w, "Cookies: %s / %s (secure: %v, samesite: %s)\n",
		c.Auth.AccessCookie, c.Auth.RefreshCookie, c.Auth.CookieSecure, c.Auth.CookieSameSite)
	fmt.Fprintf(w, "Google Client ID: %s\n", orNotSet(c.Auth.Google.ClientID))
	fmt.Fprintf(w, "Google Client Secret: %s\n", maskSecret(c.Auth.Google.ClientSecret))
	fmt.Fprintf(w, "Redis URL: %s\n", maskURL(c.Cache.RedisURL))
	fmt.Fprintf(w, "Payments Key: %s (%s)\n", maskSecret(c.Payments.PublishableKey), c.Payments.Currency)
	fmt.Fprintf(w, "Telemetry Enabled: %v\n", c.Telemetry.Enabled)
	if c.Telemetry.Enabled {
		fmt.Fprintf(w, "Telemetry Endpoint: %s\n", c.Telemetry.Endpoint)
	}
	fmt.Fprintf(w, "Log Level: %s\n", c.Logging.Level)
	fmt.Fprintf(w, "Log Format: %s\n", c.Logging.Format)
	fmt.Fprintf(w, "Locale: %s (page size %d, currency %s)\n", c.UI.Locale, c.UI.PageSize, c.UI.Currency)
}

// parseSameSite converts a config string ("strict", "lax", "none") to http.SameSite.
// Returns http.SameSiteLaxMode for unrecognized values.
func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// parseSize parses a human-readable size string (e.g., "100MB", "1GB") to bytes.
// Returns defaultBytes if the string is empty or unparseable.
func parseSize(s string, defaultBytes int64) int64 {
	if s == "" {
		return defaultBytes
	}
	s = strings.TrimSpace(strings.ToUpper(s))
	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}
	var n int64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil || n <= 0 {
		return defaultBytes
	}
	return n * multiplier
}

func orNotSet(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}

// maskSecret keeps the first four characters.
func maskSecret(s string) string {
	switch {
	case s == "":
		return "<not set>"
	case len(s) <= 8:
		return "***"
	default:
		return s[:4] + "***"
	}
}

// maskURL hides the password part of a URL.
func maskURL(raw string) string {
	if raw == "" {
		return "<not set>"
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
