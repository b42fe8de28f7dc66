package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	libconfig "equipviz/backend/libs/config"
)

// Auth modes for the equipment API.
const (
	AuthNone  = "none"
	AuthBasic = "basic"
	AuthToken = "token"
)

// Config defines dashboard configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"DASHBOARD_HTTP_PORT"`
	} `yaml:"http"`
	Backend struct {
		URL            string `yaml:"url" env:"DASHBOARD_BACKEND_URL"`
		TimeoutSeconds int    `yaml:"timeoutSeconds" env:"DASHBOARD_BACKEND_TIMEOUT"`
	} `yaml:"backend"`
	Auth struct {
		Mode     string `yaml:"mode" env:"DASHBOARD_AUTH_MODE"`
		Username string `yaml:"username" env:"DASHBOARD_AUTH_USERNAME"`
		Password string `yaml:"password" env:"DASHBOARD_AUTH_PASSWORD"`
		TokenURL string `yaml:"tokenUrl" env:"DASHBOARD_AUTH_TOKEN_URL"`
	} `yaml:"auth"`
	Downloads struct {
		Dir string `yaml:"dir" env:"DASHBOARD_DOWNLOAD_DIR"`
	} `yaml:"downloads"`
	Notifications struct {
		TTL time.Duration `yaml:"ttl" env:"DASHBOARD_NOTIFICATION_TTL"`
	} `yaml:"notifications"`
	Charts struct {
		TrendSample int `yaml:"trendSample" env:"DASHBOARD_TREND_SAMPLE"`
	} `yaml:"charts"`
	WS struct {
		PingInterval time.Duration `yaml:"pingInterval" env:"DASHBOARD_WS_PING_INTERVAL"`
	} `yaml:"ws"`
}

// Load configuration via shared helper.
func Load() (*Config, error) {
	return load(libconfig.LoadConfig)
}

// LoadFile reads path, then applies environment overrides.
func LoadFile(path string) (*Config, error) {
	return load(func(target interface{}) error {
		return libconfig.LoadConfigFrom(path, target)
	})
}

func load(fill func(interface{}) error) (*Config, error) {
	cfg := Defaults()
	if err := fill(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Backend.URL = "http://localhost:8000/api"
	cfg.Backend.TimeoutSeconds = 30
	cfg.Auth.Mode = AuthNone
	cfg.Downloads.Dir = "downloads"
	cfg.Notifications.TTL = 4 * time.Second
	cfg.Charts.TrendSample = 10
	cfg.WS.PingInterval = 30 * time.Second
	return cfg
}

// Validate checks the backend URL and the credentials the auth mode needs.
func (c *Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.Backend.URL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("config: backend url must be absolute")
	}

	c.Auth.Mode = strings.ToLower(strings.TrimSpace(c.Auth.Mode))
	switch c.Auth.Mode {
	case "", AuthNone:
		c.Auth.Mode = AuthNone
	case AuthBasic:
		if c.Auth.Username == "" || c.Auth.Password == "" {
			return errors.New("config: basic auth requires username and password")
		}
	case AuthToken:
		if c.Auth.Username == "" || c.Auth.Password == "" {
			return errors.New("config: token auth requires username and password")
		}
	default:
		return fmt.Errorf("config: unknown auth mode %q", c.Auth.Mode)
	}

	if c.Charts.TrendSample < 0 {
		return errors.New("config: trend sample must not be negative")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// HTTPTimeout returns the backend client timeout.
func (c *Config) HTTPTimeout() time.Duration {
	if c.Backend.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// BackendURL returns the API base URL with a trailing slash.
func (c *Config) BackendURL() string {
	return strings.TrimRight(strings.TrimSpace(c.Backend.URL), "/") + "/"
}

// TokenURL returns the login endpoint, defaulting to token/ under the API base.
func (c *Config) TokenURL() string {
	if u := strings.TrimSpace(c.Auth.TokenURL); u != "" {
		return u
	}
	return c.BackendURL() + "token/"
}
