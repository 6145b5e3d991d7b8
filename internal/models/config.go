// Package models - Service configuration and operational settings.
// This file defines the configuration structures for every service component.
//
// Configuration layout:
// - Server: HTTP listener settings
// - Security: version gate mode, minimum client version and abuse limits
// - Upstream: catalog credentials and endpoints
// - Logging, Metrics, Observability: operational settings
//
// Fields carry both yaml tags (config file) and env tags (environment overrides).
// Environment names follow the original deployment's .env file.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Security modes
const (
	SecurityModeLogOnly = "LOG_ONLY"
	SecurityModeStrict  = "STRICT"
)

// Default update-required presentation.
const (
	DefaultUpdateIconURL  = "https://raw.githubusercontent.com/plexrpc/plexrpc/main/assets/update.png"
	DefaultReleasePageURL = "https://github.com/plexrpc/plexrpc/releases/latest"
)

// Config is the root configuration structure containing all service settings.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`               // HTTP server configuration
	Security      SecurityConfig      `yaml:"security" json:"security"`           // Version gate and rate limiting
	Upstream      UpstreamConfig      `yaml:"upstream" json:"upstream"`           // Catalog credentials and endpoints
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`             // Logging and output configuration
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`             // Prometheus metrics endpoint
	Observability ObservabilityConfig `yaml:"observability" json:"observability"` // Tracing
}

type ServerConfig struct {
	Port            int           `yaml:"port" json:"port" env:"PORT"`
	Host            string        `yaml:"host" json:"host" env:"HOST"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	TLSEnabled      bool          `yaml:"tls_enabled" json:"tls_enabled" env:"TLS_ENABLED"`
	TLSCertFile     string        `yaml:"tls_cert_file" json:"tls_cert_file" env:"TLS_CERT_FILE"`
	TLSKeyFile      string        `yaml:"tls_key_file" json:"tls_key_file" env:"TLS_KEY_FILE"`
}

// SecurityConfig controls the version gate and the per-client rate limiter.
type SecurityConfig struct {
	Mode                string          `yaml:"mode" json:"mode" env:"SECURITY_MODE"`
	MinClientVersion    string          `yaml:"min_client_version" json:"min_client_version" env:"MIN_CLIENT_VERSION"`
	LatestClientVersion string          `yaml:"latest_client_version" json:"latest_client_version" env:"LATEST_CLIENT_VERSION"`
	UpdateIconURL       string          `yaml:"update_icon_url" json:"update_icon_url" env:"UPDATE_ICON_URL"`
	ReleasePageURL      string          `yaml:"release_page_url" json:"release_page_url" env:"RELEASE_PAGE_URL"`
	RateLimit           RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

type RateLimitConfig struct {
	Window          time.Duration `yaml:"window" json:"window" env:"RATE_LIMIT_WINDOW"`
	MaxRequests     int           `yaml:"max_requests" json:"max_requests" env:"RATE_LIMIT_MAX_REQUESTS"`
	BanDuration     time.Duration `yaml:"ban_duration" json:"ban_duration" env:"RATE_LIMIT_BAN_DURATION"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval" env:"RATE_LIMIT_CLEANUP_INTERVAL"`
}

// UpstreamConfig holds credentials and endpoints for the metadata catalogs.
// Base URLs are configurable so tests and staging can point at fakes.
type UpstreamConfig struct {
	Timeout           time.Duration     `yaml:"timeout" json:"timeout" env:"UPSTREAM_TIMEOUT"`
	RequestsPerSecond float64           `yaml:"requests_per_second" json:"requests_per_second" env:"UPSTREAM_REQUESTS_PER_SECOND"`
	Burst             int               `yaml:"burst" json:"burst" env:"UPSTREAM_BURST"`
	Spotify           SpotifyConfig     `yaml:"spotify" json:"spotify"`
	TMDB              TMDBConfig        `yaml:"tmdb" json:"tmdb"`
	GoogleBooks       GoogleBooksConfig `yaml:"google_books" json:"google_books"`
	Discord           DiscordConfig     `yaml:"discord" json:"discord"`
}

type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" json:"-" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" json:"-" env:"SPOTIFY_CLIENT_SECRET"`
	TokenURL     string `yaml:"token_url" json:"token_url" env:"SPOTIFY_TOKEN_URL"`
	APIBaseURL   string `yaml:"api_base_url" json:"api_base_url" env:"SPOTIFY_API_BASE_URL"`
}

type TMDBConfig struct {
	APIKey       string `yaml:"api_key" json:"-" env:"TMDB_API_KEY"`
	APIBaseURL   string `yaml:"api_base_url" json:"api_base_url" env:"TMDB_API_BASE_URL"`
	ImageBaseURL string `yaml:"image_base_url" json:"image_base_url" env:"TMDB_IMAGE_BASE_URL"`
	SiteURL      string `yaml:"site_url" json:"site_url" env:"TMDB_SITE_URL"`
}

type GoogleBooksConfig struct {
	APIKey     string `yaml:"api_key" json:"-" env:"GOOGLE_BOOKS_KEY"`
	APIBaseURL string `yaml:"api_base_url" json:"api_base_url" env:"GOOGLE_BOOKS_API_BASE_URL"`
}

type DiscordConfig struct {
	ClientID string `yaml:"client_id" json:"client_id" env:"DISCORD_CLIENT_ID"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level" env:"LOG_LEVEL"`
	Format   string `yaml:"format" json:"format" env:"LOG_FORMAT"`
	Output   string `yaml:"output" json:"output" env:"LOG_OUTPUT"`
	FilePath string `yaml:"file_path" json:"file_path" env:"LOG_FILE_PATH"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" env:"METRICS_ENABLED"`
	Path    string `yaml:"path" json:"path" env:"METRICS_PATH"`
	Port    int    `yaml:"port" json:"port" env:"METRICS_PORT"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name" env:"OTEL_SERVICE_NAME"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled" env:"TRACING_ENABLED"`
	Exporter     string  `yaml:"exporter" json:"exporter" env:"TRACING_EXPORTER"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate" env:"TRACING_SAMPLE_RATE"`
}

// NewDefaultConfig creates a configuration with production-ready defaults.
//
// The gate starts in LOG_ONLY so a fresh deployment observes client versions
// before it starts rejecting them. Rate limit defaults are 30 requests per
// 60 second window with a 5 minute ban.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			Mode:             SecurityModeLogOnly,
			MinClientVersion: "1.0.0",
			UpdateIconURL:    DefaultUpdateIconURL,
			ReleasePageURL:   DefaultReleasePageURL,
			RateLimit: RateLimitConfig{
				Window:          60 * time.Second,
				MaxRequests:     30,
				BanDuration:     300 * time.Second,
				CleanupInterval: 5 * time.Minute,
			},
		},
		Upstream: UpstreamConfig{
			Timeout:           10 * time.Second,
			RequestsPerSecond: 20,
			Burst:             40,
			Spotify: SpotifyConfig{
				TokenURL:   "https://accounts.spotify.com/api/token",
				APIBaseURL: "https://api.spotify.com/v1",
			},
			TMDB: TMDBConfig{
				APIBaseURL:   "https://api.themoviedb.org/3",
				ImageBaseURL: "https://image.tmdb.org/t/p/w500",
				SiteURL:      "https://www.themoviedb.org",
			},
			GoogleBooks: GoogleBooksConfig{
				APIBaseURL: "https://www.googleapis.com/books/v1",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "metaproxy",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
	}
}

// Normalize canonicalises values that are compared case-insensitively.
func (c *Config) Normalize() {
	c.Security.Mode = strings.ToUpper(strings.TrimSpace(c.Security.Mode))
	c.Security.MinClientVersion = strings.TrimSpace(c.Security.MinClientVersion)
	c.Security.LatestClientVersion = strings.TrimSpace(c.Security.LatestClientVersion)
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
}

// LatestVersion returns the version announced on the config route. It falls
// back to the minimum supported version when no newer release is configured.
func (sec *SecurityConfig) LatestVersion() string {
	if sec.LatestClientVersion != "" {
		return sec.LatestClientVersion
	}
	return sec.MinClientVersion
}

// Strict reports whether the gate enforces versions and rate limits.
func (sec *SecurityConfig) Strict() bool {
	return sec.Mode == SecurityModeStrict
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("invalid security config: %w", err)
	}

	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("invalid upstream config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 || sc.WriteTimeout < 0 || sc.IdleTimeout < 0 || sc.ShutdownTimeout < 0 {
		return errors.New("timeouts cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

func (sec *SecurityConfig) Validate() error {
	switch sec.Mode {
	case SecurityModeLogOnly, SecurityModeStrict:
	default:
		return fmt.Errorf("invalid security mode: %q (expected %s or %s)", sec.Mode, SecurityModeLogOnly, SecurityModeStrict)
	}

	if sec.MinClientVersion == "" {
		return errors.New("minimum client version cannot be empty")
	}
	if _, err := ParseVersion(sec.MinClientVersion); err != nil {
		return fmt.Errorf("invalid minimum client version: %w", err)
	}
	if sec.LatestClientVersion != "" {
		if _, err := ParseVersion(sec.LatestClientVersion); err != nil {
			return fmt.Errorf("invalid latest client version: %w", err)
		}
	}

	if sec.UpdateIconURL == "" || sec.ReleasePageURL == "" {
		return errors.New("update icon and release page URLs are required")
	}

	rl := sec.RateLimit
	if rl.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	if rl.MaxRequests <= 0 {
		return errors.New("rate limit max requests must be positive")
	}
	if rl.BanDuration <= 0 {
		return errors.New("rate limit ban duration must be positive")
	}
	if rl.CleanupInterval <= 0 {
		return errors.New("rate limit cleanup interval must be positive")
	}

	return nil
}

func (uc *UpstreamConfig) Validate() error {
	if uc.Timeout < 0 {
		return errors.New("upstream timeout cannot be negative")
	}
	if uc.RequestsPerSecond < 0 {
		return errors.New("upstream requests per second cannot be negative")
	}
	if uc.RequestsPerSecond > 0 && uc.Burst <= 0 {
		return errors.New("upstream burst must be positive when throttling is enabled")
	}

	if (uc.Spotify.ClientID == "") != (uc.Spotify.ClientSecret == "") {
		return errors.New("spotify client id and secret must be set together")
	}
	if uc.Spotify.TokenURL == "" || uc.Spotify.APIBaseURL == "" {
		return errors.New("spotify token and api URLs cannot be empty")
	}
	if uc.TMDB.APIBaseURL == "" || uc.TMDB.ImageBaseURL == "" || uc.TMDB.SiteURL == "" {
		return errors.New("tmdb URLs cannot be empty")
	}
	if uc.GoogleBooks.APIBaseURL == "" {
		return errors.New("google books api URL cannot be empty")
	}

	return nil
}

func (lc *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, lc.Level) {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, lc.Format) {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	validOutputs := []string{"stdout", "stderr", "file"}
	if !contains(validOutputs, lc.Output) {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if !oc.Tracing.Enabled {
		return nil
	}

	if oc.ServiceName == "" {
		return errors.New("service name is required when tracing is enabled")
	}

	switch oc.Tracing.Exporter {
	case "stdout":
	case "otlp":
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("otlp endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("unsupported trace exporter: %s", oc.Tracing.Exporter)
	}

	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("sample rate must be between 0 and 1")
	}

	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
