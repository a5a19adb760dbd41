package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the Tiny public API and its Keycloak realm.
const (
	DefaultAPIBaseURL  = "https://api.tiny.com.br/public-api/v3"
	DefaultAuthBaseURL = "https://accounts.tiny.com.br/realms/tiny/protocol/openid-connect"
	DefaultRedirectURI = "http://localhost:8085/callback"
	DefaultScope       = "openid"
)

// ErrMissingCredentials reports absent client credentials. This is a
// configuration problem, not an authentication failure, and is never
// retried.
var ErrMissingCredentials = errors.New("missing client credentials")

// Config carries everything the authenticated pipeline needs. It is built
// once at startup and passed by reference; there is no package-level
// instance.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthBaseURL string
	APIBaseURL  string
	Scope       string

	HTTPTimeout time.Duration
}

// AuthorizeURL returns the authorization endpoint.
func (c *Config) AuthorizeURL() string {
	return c.AuthBaseURL + "/auth"
}

// TokenURL returns the token endpoint.
func (c *Config) TokenURL() string {
	return c.AuthBaseURL + "/token"
}

// Validate checks that the client credentials are present.
func (c *Config) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "TINY_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "TINY_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Load reads configuration from the environment and an optional
// config.yaml. A config is returned even when credentials are missing, so
// the server can start and report the configuration error again on first
// use; the accompanying error wraps ErrMissingCredentials in that case.
func Load() (*Config, error) {
	clientID := strings.TrimSpace(os.Getenv("TINY_CLIENT_ID"))
	clientSecret := strings.TrimSpace(os.Getenv("TINY_CLIENT_SECRET"))

	cfg := &Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  envOrDefault("TINY_REDIRECT_URI", DefaultRedirectURI),
		AuthBaseURL:  strings.TrimRight(envOrDefault("TINY_AUTH_BASE_URL", DefaultAuthBaseURL), "/"),
		APIBaseURL:   strings.TrimRight(envOrDefault("TINY_API_BASE_URL", DefaultAPIBaseURL), "/"),
		Scope:        envOrDefault("TINY_SCOPE", DefaultScope),
		HTTPTimeout:  30 * time.Second,
	}

	applySettingsFile(cfg)

	return cfg, cfg.Validate()
}

// settingsFile is the shape of the optional config.yaml.
type settingsFile struct {
	Tiny struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"tiny"`
}

func applySettingsFile(cfg *Config) {
	path := os.Getenv("CONFIG_FILE_PATH")
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var settings settingsFile
	if err := yaml.Unmarshal(data, &settings); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring malformed %s: %v\n", path, err)
		return
	}

	if settings.Tiny.Timeout != "" {
		if d, err := time.ParseDuration(settings.Tiny.Timeout); err == nil {
			cfg.HTTPTimeout = d
		}
	}
}

func envOrDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
