package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/clipsync/internal/client/models"
)

// Config holds runtime settings for the clipsync client.
//
// Durations are time.Duration values; flags take whole seconds.
type Config struct {
	RelayAddr    string
	DatabasePath string
	LogLevel     string
	LogFormat    string
	Hostname     string
	AutoConnect  bool

	ConnectTimeout       time.Duration
	HeartbeatInterval    time.Duration
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	MaxReconnectAttempts int
	HealthCheckTimeout   time.Duration
	HistoryLimit         int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.RelayAddr = ""
	c.DatabasePath = "clipsync.db"
	c.LogLevel = "INFO"
	c.LogFormat = "text"
	c.Hostname = ""
	c.AutoConnect = true

	c.ConnectTimeout = 10 * time.Second
	c.HeartbeatInterval = 25 * time.Second
	c.ReconnectBaseDelay = time.Second
	c.ReconnectMaxDelay = 30 * time.Second
	c.MaxReconnectAttempts = 10
	c.HealthCheckTimeout = 5 * time.Second
	c.HistoryLimit = models.DefaultHistoryLimit
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.DatabasePath) == "" {
		errs = append(errs, errors.New("database path is empty"))
	}
	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"connect timeout", c.ConnectTimeout},
		{"heartbeat interval", c.HeartbeatInterval},
		{"reconnect base delay", c.ReconnectBaseDelay},
		{"reconnect max delay", c.ReconnectMaxDelay},
		{"health check timeout", c.HealthCheckTimeout},
	} {
		if d.v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.v))
		}
	}
	if c.ReconnectMaxDelay > 0 && c.ReconnectMaxDelay < c.ReconnectBaseDelay {
		errs = append(errs, fmt.Errorf("reconnect max delay %s is below base delay %s", c.ReconnectMaxDelay, c.ReconnectBaseDelay))
	}
	if c.MaxReconnectAttempts <= 0 {
		errs = append(errs, fmt.Errorf("max reconnect attempts must be positive, got %d", c.MaxReconnectAttempts))
	}
	if c.HistoryLimit <= 0 {
		errs = append(errs, fmt.Errorf("history limit must be positive, got %d", c.HistoryLimit))
	}
	return errors.Join(errs...)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones. The result is validated.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
