package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/clipsync/internal/flagx"
	"github.com/dmitrijs2005/clipsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// zero-able fields are only copied when present, so a partial file overlays
// the defaults instead of clearing them.
type JsonConfig struct {
	RelayAddr    *string `json:"relay_addr"`
	DatabasePath *string `json:"database_path"`
	LogLevel     *string `json:"log_level"`
	LogFormat    *string `json:"log_format"`
	Hostname     *string `json:"hostname"`
	AutoConnect  *bool   `json:"auto_connect"`

	ConnectTimeout       *timex.Duration `json:"connect_timeout"`
	HeartbeatInterval    *timex.Duration `json:"heartbeat_interval"`
	ReconnectBaseDelay   *timex.Duration `json:"reconnect_base_delay"`
	ReconnectMaxDelay    *timex.Duration `json:"reconnect_max_delay"`
	MaxReconnectAttempts *int            `json:"max_reconnect_attempts"`
	HealthCheckTimeout   *timex.Duration `json:"health_check_timeout"`
	HistoryLimit         *int            `json:"history_limit"`
}

// parseJson overlays cfg with the JSON file named by -c/-config, if any.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.RelayAddr, jc.RelayAddr)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.Hostname, jc.Hostname)
	if jc.AutoConnect != nil {
		cfg.AutoConnect = *jc.AutoConnect
	}

	setDuration(&cfg.ConnectTimeout, jc.ConnectTimeout)
	setDuration(&cfg.HeartbeatInterval, jc.HeartbeatInterval)
	setDuration(&cfg.ReconnectBaseDelay, jc.ReconnectBaseDelay)
	setDuration(&cfg.ReconnectMaxDelay, jc.ReconnectMaxDelay)
	setDuration(&cfg.HealthCheckTimeout, jc.HealthCheckTimeout)
	if jc.MaxReconnectAttempts != nil {
		cfg.MaxReconnectAttempts = *jc.MaxReconnectAttempts
	}
	if jc.HistoryLimit != nil {
		cfg.HistoryLimit = *jc.HistoryLimit
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
