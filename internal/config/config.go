// Package config loads the roster service configuration: built-in defaults,
// then an optional YAML file with ${VAR} expansion, then ROSTER_*
// environment overrides.
package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
	"gopkg.in/yaml.v3"
)

// MinSecretLength is the shortest accepted master secret.
const MinSecretLength = 32

// ErrWeakSecret is returned when the master secret is missing or short.
var ErrWeakSecret = fmt.Errorf("auth secret must be at least %d bytes", MinSecretLength)

type Config struct {
	Env       string          `yaml:"env"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Email     EmailConfig     `yaml:"email"`
	Outbox    OutboxConfig    `yaml:"outbox"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PublicBaseURL  string        `yaml:"public_base_url"` // prefix of shared schedule links
	TrustedOrigins []string      `yaml:"trusted_origins"` // accepted by CSRF checks on form posts
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	Secret    string        `yaml:"secret"` // master secret; CSRF and token keys derive from it
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	AdminUIDs []string      `yaml:"admin_uids"` // may use the outbox admin routes
}

type EmailConfig struct {
	ResendKey string `yaml:"resend_key"` // empty selects the noop sender
	From      string `yaml:"from"`
	ReplyTo   string `yaml:"reply_to"`
}

type OutboxConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Load reads the configuration at path. An empty path uses defaults and
// environment overrides only.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  30 * time.Second,
			PublicBaseURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Path: "roster.db",
		},
		Auth: AuthConfig{
			Issuer:   "roster",
			TokenTTL: 24 * time.Hour,
		},
		Email: EmailConfig{
			From: "Roster <noreply@roster.local>",
		},
		Outbox: OutboxConfig{
			Interval: time.Minute,
		},
		RateLimit: RateLimitConfig{
			Requests: 60,
			Window:   time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ROSTER_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("ROSTER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("ROSTER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ROSTER_PUBLIC_URL"); v != "" {
		cfg.Server.PublicBaseURL = v
	}
	if v := os.Getenv("ROSTER_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("ROSTER_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("ROSTER_ADMIN_UIDS"); v != "" {
		cfg.Auth.AdminUIDs = splitList(v)
	}
	if v := os.Getenv("ROSTER_RESEND_KEY"); v != "" {
		cfg.Email.ResendKey = v
	}
	if v := os.Getenv("ROSTER_RESEND_FROM"); v != "" {
		cfg.Email.From = v
	}
	if v := os.Getenv("ROSTER_REPLY_TO"); v != "" {
		cfg.Email.ReplyTo = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsProduction reports whether Env is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() && len(c.Auth.Secret) < MinSecretLength {
		errs = append(errs, ErrWeakSecret)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit requests and window must be positive"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth token_ttl must be positive"))
	}
	return errors.Join(errs...)
}

// Keys are the per-purpose secrets derived from the master secret.
type Keys struct {
	CSRF  []byte // gorilla/csrf authentication key
	Token []byte // HMAC key for identity tokens
}

// DeriveKeys expands the master secret into independent 32-byte keys with
// HKDF-SHA256, one per purpose.
// PRE: len(Auth.Secret) >= MinSecretLength
func (c *Config) DeriveKeys() (Keys, error) {
	if len(c.Auth.Secret) < MinSecretLength {
		return Keys{}, ErrWeakSecret
	}
	csrfKey, err := derive(c.Auth.Secret, "roster csrf v1")
	if err != nil {
		return Keys{}, err
	}
	tokenKey, err := derive(c.Auth.Secret, "roster identity token v1")
	if err != nil {
		return Keys{}, err
	}
	return Keys{CSRF: csrfKey, Token: tokenKey}, nil
}

func derive(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}
