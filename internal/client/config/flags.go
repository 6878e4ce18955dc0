package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/clipsync/internal/flagx"
)

var ownFlags = []string{"-a", "-d", "-l", "-f", "-n", "-auto", "-t", "-p", "-r"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   relay address, host or host:port
//	-d string   path of the SQLite database
//	-l string   log level (DEBUG, INFO, WARN, ERROR)
//	-f string   log format (text or json)
//	-n string   hostname announced to peers
//	-auto       connect to the relay at startup
//	-t int      connect timeout (in seconds)
//	-p int      heartbeat interval (in seconds)
//	-r int      reconnect attempts before giving up
//
// Arguments are filtered with flagx.FilterArgs first so that flags owned by
// other components (-c) do not trip the parser.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, ownFlags, "-auto")

	fs := flag.NewFlagSet("clipsync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.RelayAddr, "a", cfg.RelayAddr, "relay address (host or host:port)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the SQLite database")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format (text|json)")
	fs.StringVar(&cfg.Hostname, "n", cfg.Hostname, "hostname announced to peers")
	fs.BoolVar(&cfg.AutoConnect, "auto", cfg.AutoConnect, "connect at startup")
	connectTimeout := fs.Int("t", int(cfg.ConnectTimeout.Seconds()), "connect timeout (in seconds)")
	heartbeat := fs.Int("p", int(cfg.HeartbeatInterval.Seconds()), "heartbeat interval (in seconds)")
	fs.IntVar(&cfg.MaxReconnectAttempts, "r", cfg.MaxReconnectAttempts, "reconnect attempts before giving up")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.ConnectTimeout = time.Duration(*connectTimeout) * time.Second
	cfg.HeartbeatInterval = time.Duration(*heartbeat) * time.Second
	return nil
}
