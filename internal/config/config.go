// Package config loads the storefront configuration.
//
// Sources, highest priority first:
//  1. explicit --config path
//  2. CONFIG_PATH
//  3. ./local.yaml
//  4. environment only
//
// Environment variables always overlay values read from a file.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP    HTTPConfig    `yaml:"http"`
	API     APIConfig     `yaml:"api"`
	OIDC    OIDCConfig    `yaml:"oidc"`
	Session SessionConfig `yaml:"session"`
}

// HTTPConfig is the listener serving the browser
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"3000"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// APIConfig points at the API gateway
type APIConfig struct {
	URL     string        `yaml:"url"     env:"API_URL"     env-default:"http://localhost:8080"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"30s"`
}

// OIDCConfig is the Keycloak client registration
type OIDCConfig struct {
	Issuer                string   `yaml:"issuer"                   env:"KEYCLOAK_ISSUER"                env-default:"http://localhost:8181/realms/test-client"`
	ClientID              string   `yaml:"client_id"                env:"KEYCLOAK_CLIENT_ID"             env-default:"react-client"`
	ClientSecret          string   `yaml:"client_secret"            env:"KEYCLOAK_CLIENT_SECRET"`
	RedirectURL           string   `yaml:"redirect_url"             env:"OIDC_REDIRECT_URL"              env-default:"http://localhost:3000/auth/callback"`
	PostLogoutRedirectURL string   `yaml:"post_logout_redirect_url" env:"OIDC_POST_LOGOUT_REDIRECT_URL"  env-default:"http://localhost:3000"`
	Scopes                []string `yaml:"scopes"                   env:"OIDC_SCOPES"                    env-default:"openid profile offline_access" env-separator:" "`
	DisableDiscovery      bool     `yaml:"disable_discovery"        env:"OIDC_DISABLE_DISCOVERY"`
}

// SessionConfig controls the browser session cookie
type SessionConfig struct {
	TTL          time.Duration `yaml:"ttl"           env:"SESSION_TTL"           env-default:"30m"`
	CookieName   string        `yaml:"cookie_name"   env:"SESSION_COOKIE_NAME"   env-default:"storefront_session"`
	CookieSecure bool          `yaml:"cookie_secure" env:"SESSION_COOKIE_SECURE" env-default:"false"`
}

// IsLocal reports whether the process runs on a developer machine
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == "dev"
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	var errs []error

	if c.OIDC.Issuer == "" {
		errs = append(errs, errors.New("oidc issuer is required (KEYCLOAK_ISSUER)"))
	}
	if c.OIDC.ClientID == "" {
		errs = append(errs, errors.New("oidc client id is required (KEYCLOAK_CLIENT_ID)"))
	}

	urls := map[string]string{
		"api url":      c.API.URL,
		"oidc issuer":  c.OIDC.Issuer,
		"redirect url": c.OIDC.RedirectURL,
	}
	for name, raw := range urls {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s %q is not an absolute URL", name, raw))
		}
	}

	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api timeout must be positive"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}

	return errors.Join(errs...)
}

// MustLoad panics when the configuration cannot be loaded or is invalid
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads and validates the configuration
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		return &cfg, nil
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) env only
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}
	return &cfg, nil
}
