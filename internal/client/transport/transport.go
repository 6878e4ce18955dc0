// Package transport connects to a clipboard relay: a WebSocket carrying JSON
// text frames at ws://host:port/ws and an HTTP liveness endpoint at /health.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/dmitrijs2005/clipsync/internal/netx"
)

const (
	DefaultPort        = 24900
	WSPath             = "/ws"
	HealthPath         = "/health"
	DefaultReadLimit   = 1 << 20
	DefaultHealthLimit = 5 * time.Second
)

// Conn is one established relay connection. Read returns the next text
// frame; binary frames are skipped. *websocket.Conn-backed values returned by
// WSDialer satisfy it, as do test fakes.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// NormalizeAddress returns addr as host:port, using DefaultPort when none is
// given.
func NormalizeAddress(addr string) (string, error) {
	hp, err := netx.JoinDefaultPort(addr, DefaultPort)
	if errors.Is(err, netx.ErrEmptyHost) {
		return "", ErrEmptyAddress
	}
	if err != nil {
		return "", fmt.Errorf("relay address %q: %w", addr, err)
	}
	return hp, nil
}

// WSDialer opens relay WebSocket connections.
type WSDialer struct {
	HTTPClient *http.Client
	UserAgent  string
	ReadLimit  int64
}

// Dial connects to ws://address/ws. ctx bounds only the opening handshake.
func (d *WSDialer) Dial(ctx context.Context, address string) (Conn, error) {
	opts := &websocket.DialOptions{HTTPClient: d.HTTPClient}
	if d.UserAgent != "" {
		opts.HTTPHeader = http.Header{"User-Agent": []string{d.UserAgent}}
	}

	c, _, err := websocket.Dial(ctx, "ws://"+address+WSPath, opts) //nolint:bodyclose // websocket.Dial closes the response body
	if err != nil {
		return nil, fmt.Errorf("dialing websocket: %w", err)
	}

	limit := d.ReadLimit
	if limit <= 0 {
		limit = DefaultReadLimit
	}
	c.SetReadLimit(limit)
	return &wsConn{c: c}, nil
}

type wsConn struct {
	c *websocket.Conn
}

func (w *wsConn) Read(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := w.c.Read(ctx)
		if err != nil {
			return nil, err
		}
		if typ == websocket.MessageBinary {
			continue
		}
		return data, nil
	}
}

func (w *wsConn) Write(ctx context.Context, p []byte) error {
	return w.c.Write(ctx, websocket.MessageText, p)
}

func (w *wsConn) Close(code websocket.StatusCode, reason string) error {
	return w.c.Close(code, reason)
}

// HealthChecker probes http://address/health.
type HealthChecker struct {
	Client  *http.Client
	Timeout time.Duration
}

// Check fails with ErrUnhealthy unless the relay answers 2xx within Timeout.
func (h *HealthChecker) Check(ctx context.Context, address string) error {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultHealthLimit
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := netx.GetOK(ctx, h.Client, "http://"+address+HealthPath); err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	return nil
}
