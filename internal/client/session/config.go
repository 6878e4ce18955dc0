package session

import (
	"time"

	"github.com/dmitrijs2005/clipsync/internal/client/heartbeat"
)

// Config holds the session timing knobs.
type Config struct {
	ConnectTimeout    time.Duration
	HeartbeatInterval time.Duration
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	MaxAttempts       int
	WriteTimeout      time.Duration
	OutboxSize        int
	UserAgent         string
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout:    10 * time.Second,
		HeartbeatInterval: heartbeat.DefaultInterval,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		MaxAttempts:       10,
		WriteTimeout:      10 * time.Second,
		OutboxSize:        64,
		UserAgent:         "clipsync",
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.OutboxSize <= 0 {
		c.OutboxSize = d.OutboxSize
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	return c
}
