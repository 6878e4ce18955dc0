package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"relay_addr":             "relay.lan:9000",
		"database_path":          "/data/clipsync.db",
		"log_level":              "WARN",
		"log_format":             "json",
		"hostname":               "desk",
		"auto_connect":           false,
		"connect_timeout":        "4s",
		"heartbeat_interval":     "12s",
		"reconnect_base_delay":   "500ms",
		"reconnect_max_delay":    "1m",
		"max_reconnect_attempts": 3,
		"health_check_timeout":   float64(2 * time.Second),
		"history_limit":          7,
	})

	t.Run("loads every field", func(t *testing.T) {
		got := defaults()
		require.NoError(t, parseJson(got, []string{"-config", full}))

		want := &Config{
			RelayAddr:            "relay.lan:9000",
			DatabasePath:         "/data/clipsync.db",
			LogLevel:             "WARN",
			LogFormat:            "json",
			Hostname:             "desk",
			AutoConnect:          false,
			ConnectTimeout:       4 * time.Second,
			HeartbeatInterval:    12 * time.Second,
			ReconnectBaseDelay:   500 * time.Millisecond,
			ReconnectMaxDelay:    time.Minute,
			MaxReconnectAttempts: 3,
			HealthCheckTimeout:   2 * time.Second,
			HistoryLimit:         7,
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"relay_addr": "other.lan"})
		got := defaults()
		require.NoError(t, parseJson(got, []string{"-c", partial}))

		want := defaults()
		want.RelayAddr = "other.lan"
		assert.Empty(t, cmp.Diff(want, got))
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		got := defaults()
		require.NoError(t, parseJson(got, []string{"-a", "x"}))
		assert.Empty(t, cmp.Diff(defaults(), got))
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		assert.ErrorContains(t, parseJson(defaults(), []string{"-config", bad}), "parse config")
	})

	t.Run("invalid duration", func(t *testing.T) {
		bad := writeTempJSON(t, dir, "dur.json", map[string]any{"connect_timeout": "soon"})
		assert.ErrorContains(t, parseJson(defaults(), []string{"-c", bad}), "invalid duration")
	})

	t.Run("missing file", func(t *testing.T) {
		assert.ErrorContains(t, parseJson(defaults(), []string{"-c", filepath.Join(dir, "nope.json")}), "read config")
	})
}
