package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/dmitrijs2005/clipsync/internal/client/history"
	"github.com/dmitrijs2005/clipsync/internal/client/models"
	"github.com/dmitrijs2005/clipsync/internal/client/transport"
	"github.com/dmitrijs2005/clipsync/internal/logging"
	"github.com/dmitrijs2005/clipsync/internal/timex/timextest"
	"github.com/stretchr/testify/require"
)

var (
	t0      = time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	localID = models.ClientIdentity{MachineID: "machine-local", Hostname: "desk"}

	errRefused = errors.New("connection refused")
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fakeConn struct {
	inbound chan []byte
	readErr chan error
	closed  chan struct{}

	mu        sync.Mutex
	writes    [][]byte
	writeErr  error
	closeCode websocket.StatusCode
	closes    int
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		readErr: make(chan error, 1),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case err := <-c.readErr:
		return nil, err
	case <-c.closed:
		return nil, websocket.CloseError{Code: c.code()}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Write(_ context.Context, p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, append([]byte(nil), p...))
	return nil
}

func (c *fakeConn) Close(code websocket.StatusCode, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	if c.closes == 1 {
		c.closeCode = code
		close(c.closed)
	}
	return nil
}

func (c *fakeConn) code() websocket.StatusCode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// push delivers an inbound frame built from v.
func (c *fakeConn) push(t *testing.T, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	c.inbound <- b
}

// frames returns the decoded outbound frames.
func (c *fakeConn) frames() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.writes))
	for _, w := range c.writes {
		var f map[string]any
		if json.Unmarshal(w, &f) == nil {
			out = append(out, f)
		}
	}
	return out
}

func (c *fakeConn) types() []string {
	var out []string
	for _, f := range c.frames() {
		s, _ := f["type"].(string)
		out = append(out, s)
	}
	return out
}

type dialFunc func(ctx context.Context, n int) (transport.Conn, error)

type fakeDialer struct {
	fn dialFunc

	mu    sync.Mutex
	dials int
	addrs []string
	conns []*fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context, address string) (transport.Conn, error) {
	d.mu.Lock()
	d.dials++
	n := d.dials
	d.addrs = append(d.addrs, address)
	d.mu.Unlock()

	conn, err := d.fn(ctx, n)
	if fc, ok := conn.(*fakeConn); ok {
		d.mu.Lock()
		d.conns = append(d.conns, fc)
		d.mu.Unlock()
	}
	return conn, err
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

func alwaysSucceed(context.Context, int) (transport.Conn, error) { return newFakeConn(), nil }

func alwaysFail(context.Context, int) (transport.Conn, error) { return nil, errRefused }

func hang(ctx context.Context, _ int) (transport.Conn, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeHealth struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (h *fakeHealth) Check(context.Context, string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	return h.err
}

type note struct {
	connected bool
	message   string
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *fakeNotifier) OnStatusChanged(connected bool, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{connected, message})
}

func (n *fakeNotifier) last() (note, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notes) == 0 {
		return note{}, false
	}
	return n.notes[len(n.notes)-1], true
}

type fakeAddresses struct {
	mu    sync.Mutex
	saved []string
}

func (a *fakeAddresses) SaveLastAddress(_ context.Context, addr string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, addr)
	return nil
}

func (a *fakeAddresses) list() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.saved...)
}

type harness struct {
	t         *testing.T
	m         *Manager
	clock     *timextest.Clock
	dialer    *fakeDialer
	health    *fakeHealth
	notes     *fakeNotifier
	addresses *fakeAddresses
	store     *history.Store
	cancel    context.CancelFunc
	done      chan struct{}
	runErr    error
}

func newHarness(t *testing.T, fn dialFunc) *harness {
	t.Helper()
	return newHarnessWith(t, fn, nil)
}

func newHarnessWith(t *testing.T, fn dialFunc, tweak func(*Options)) *harness {
	t.Helper()
	h := &harness{
		t:         t,
		clock:     timextest.New(t0),
		dialer:    &fakeDialer{fn: fn},
		health:    &fakeHealth{},
		notes:     &fakeNotifier{},
		addresses: &fakeAddresses{},
		done:      make(chan struct{}),
	}
	h.store = history.NewStore(localID, models.DefaultHistoryLimit, h.clock, nil)
	opts := Options{
		Config:    DefaultConfig(),
		Identity:  localID,
		Dialer:    h.dialer,
		Health:    h.health,
		History:   h.store,
		Notifier:  h.notes,
		Addresses: h.addresses,
		Clock:     h.clock,
		Logger:    logging.NewDiscard(),
	}
	if tweak != nil {
		tweak(&opts)
	}
	h.m = NewManager(opts)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.runErr = h.m.Run(ctx)
		close(h.done)
	}()
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(waitFor):
		h.t.Error("manager did not stop")
	}
}

func (h *harness) status() Status {
	h.t.Helper()
	st, err := h.m.Status(context.Background())
	require.NoError(h.t, err)
	return st
}

func (h *harness) waitState(s State) Status {
	h.t.Helper()
	var st Status
	require.Eventually(h.t, func() bool {
		got, err := h.m.Status(context.Background())
		if err != nil {
			return false
		}
		st = got
		return st.State == s
	}, waitFor, tick, "want state %s", s)
	return st
}

// connected runs Connect against a succeeding dialer and returns the live
// connection.
func (h *harness) connected() *fakeConn {
	h.t.Helper()
	require.NoError(h.t, h.m.Connect(context.Background(), "relay.lan"))
	h.waitState(StateConnected)
	conn := h.dialer.conn(h.dialer.count() - 1)
	require.NotNil(h.t, conn)
	require.Eventually(h.t, func() bool { return len(conn.frames()) >= 2 }, waitFor, tick)
	return conn
}
