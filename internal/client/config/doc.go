// Package config loads runtime configuration for the clipsync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   relay address (host or host:port, default port 24900)
//	-d string   SQLite database path
//	-l string   log level
//	-f string   log format (text|json)
//	-n string   hostname announced to peers
//	-auto       connect at startup
//	-t int      connect timeout (seconds)
//	-p int      heartbeat interval (seconds)
//	-r int      reconnect attempts before giving up
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "25s" or
// integer nanoseconds. Every key is optional:
//
//	{
//	  "relay_addr": "relay.lan:24900",
//	  "database_path": "/var/lib/clipsync/clipsync.db",
//	  "log_level": "DEBUG",
//	  "auto_connect": true,
//	  "connect_timeout": "10s",
//	  "heartbeat_interval": "25s",
//	  "reconnect_base_delay": "1s",
//	  "reconnect_max_delay": "30s",
//	  "max_reconnect_attempts": 10,
//	  "health_check_timeout": "5s",
//	  "history_limit": 3
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
