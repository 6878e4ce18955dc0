// Package session owns the connection to the clipboard relay.
//
// A Manager runs a single event loop (Run) that holds every piece of
// lifecycle state: the current State, the live connection, the retry
// counter and all timers. Public methods, dial goroutines, connection
// reader/writer goroutines and timer callbacks never touch that state
// directly; they post events to the loop. Timer callbacks and connection
// events carry the id of the registration or connection that produced them,
// and the loop drops events whose id is no longer current.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/dmitrijs2005/clipsync/internal/client/heartbeat"
	"github.com/dmitrijs2005/clipsync/internal/client/models"
	"github.com/dmitrijs2005/clipsync/internal/client/protocol"
	"github.com/dmitrijs2005/clipsync/internal/client/transport"
	"github.com/dmitrijs2005/clipsync/internal/logging"
	"github.com/dmitrijs2005/clipsync/internal/timex"
)

// Dialer opens a relay connection to host:port.
type Dialer interface {
	Dial(ctx context.Context, address string) (transport.Conn, error)
}

// HealthChecker probes the relay before a connection attempt.
type HealthChecker interface {
	Check(ctx context.Context, address string) error
}

// HistorySink receives clipboard values announced by the relay.
type HistorySink interface {
	RecordRemote(text string, ts time.Time, machineID, hostname string) bool
	MergeSnapshot(entries []models.ClipboardEntry) bool
}

// StatusNotifier is told about user-visible connection changes. It is called
// from the event loop and must not call back into the Manager.
type StatusNotifier interface {
	OnStatusChanged(connected bool, message string)
}

// AddressSaver remembers the last relay address a connection was started to.
type AddressSaver interface {
	SaveLastAddress(ctx context.Context, address string) error
}

type Options struct {
	Config   Config
	Identity models.ClientIdentity
	Dialer   Dialer
	Health   HealthChecker
	History  HistorySink

	// Optional.
	Notifier    StatusNotifier
	Addresses   AddressSaver
	LastAddress string
	Clock       timex.Clock
	Logger      logging.Logger
}

const saveAddressTimeout = 5 * time.Second

type Manager struct {
	cfg       Config
	identity  models.ClientIdentity
	dialer    Dialer
	health    HealthChecker
	history   HistorySink
	notifier  StatusNotifier
	addresses AddressSaver
	clock     timex.Clock
	log       logging.Logger

	events  chan event
	done    chan struct{}
	running atomic.Bool
	closers sync.WaitGroup

	// Owned by the loop.
	baseCtx          context.Context
	state            State
	address          string
	lastAddress      string
	attempt          int
	lastError        string
	assignedClientID string
	gen              uint64
	link             *link
	timerSeq         uint64
	connectTimer     timerHandle
	backoffTimer     timerHandle
	hb               *heartbeat.Monitor
}

func NewManager(opts Options) *Manager {
	clock := opts.Clock
	if clock == nil {
		clock = timex.System
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewDiscard()
	}

	m := &Manager{
		cfg:         opts.Config.withDefaults(),
		identity:    opts.Identity,
		dialer:      opts.Dialer,
		health:      opts.Health,
		history:     opts.History,
		notifier:    opts.Notifier,
		addresses:   opts.Addresses,
		clock:       clock,
		log:         log.With("component", "session"),
		events:      make(chan event, 128),
		done:        make(chan struct{}),
		state:       StateIdle,
		lastAddress: opts.LastAddress,
		baseCtx:     context.Background(),
	}
	m.hb = heartbeat.New(m.cfg.HeartbeatInterval, clock, m.sendOnLoop, func(id uint64) {
		m.post(event{kind: evHeartbeat, id: id})
	})
	return m
}

// Run processes events until ctx is done, then tears down any connection and
// leaves the manager Closed. It may be called once.
func (m *Manager) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	m.baseCtx = ctx
	m.log.Debug(ctx, "session loop started")

	defer func() {
		m.shutdown(ctx)
		close(m.done)
		m.closers.Wait()
		m.log.Debug(ctx, "session loop stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-m.events:
			m.handle(ctx, ev)
		}
	}
}

// Connect starts a session with the relay at address (host or host:port).
// It fails without changing state when a session is already active or the
// relay's health endpoint does not answer.
func (m *Manager) Connect(ctx context.Context, address string) error {
	addr, err := transport.NormalizeAddress(address)
	if err != nil {
		return err
	}

	var precondition error
	if err := m.do(ctx, func() { precondition = m.canConnect() }); err != nil {
		return err
	}
	if precondition != nil {
		return precondition
	}

	if err := m.health.Check(ctx, addr); err != nil {
		m.log.Warn(ctx, "relay precheck failed", "addr", addr, "error", err)
		return fmt.Errorf("%w: %v", ErrPreflight, err)
	}

	if err := m.do(ctx, func() {
		if precondition = m.canConnect(); precondition == nil {
			m.startSession(addr)
		}
	}); err != nil {
		return err
	}
	return precondition
}

// Reconnect starts a session with the last address used.
func (m *Manager) Reconnect(ctx context.Context) error {
	var addr string
	if err := m.do(ctx, func() { addr = m.lastAddress }); err != nil {
		return err
	}
	if addr == "" {
		return ErrNoAddress
	}
	return m.Connect(ctx, addr)
}

// Disconnect cancels everything in flight and returns to Idle. Calling it
// while idle is a no-op.
func (m *Manager) Disconnect(ctx context.Context) error {
	return m.do(ctx, func() { m.disconnect(ctx) })
}

// SendLocalChange announces a locally copied entry. It reports false without
// an error when there is no connected session.
func (m *Manager) SendLocalChange(ctx context.Context, entry models.ClipboardEntry) (bool, error) {
	var (
		sent    bool
		sendErr error
	)
	err := m.do(ctx, func() {
		if m.state != StateConnected {
			return
		}
		sendErr = m.sendOnLoop(protocol.ClipboardUpdate{
			Content:   entry.Content,
			Timestamp: entry.Timestamp,
			Source:    models.SourceLocal,
			MachineID: m.identity.MachineID,
			Hostname:  m.identity.Hostname,
		})
		sent = sendErr == nil
	})
	if err != nil {
		return false, err
	}
	return sent, sendErr
}

// RequestHistory asks the relay to resend its retained history.
func (m *Manager) RequestHistory(ctx context.Context) error {
	var sendErr error
	if err := m.do(ctx, func() {
		if m.state != StateConnected {
			sendErr = ErrNotConnected
			return
		}
		sendErr = m.sendOnLoop(protocol.GetHistory{})
	}); err != nil {
		return err
	}
	return sendErr
}

func (m *Manager) Status(ctx context.Context) (Status, error) {
	var st Status
	err := m.do(ctx, func() { st = m.status() })
	return st, err
}

// do runs fn on the loop and waits for it to finish.
func (m *Manager) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	ev := event{kind: evCommand, fn: func() {
		fn()
		close(finished)
	}}

	select {
	case m.events <- ev:
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-m.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post delivers an internal event. It reports false once the loop is gone.
func (m *Manager) post(ev event) bool {
	select {
	case m.events <- ev:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) status() Status {
	return Status{
		State:            m.state,
		Address:          m.address,
		Attempt:          m.attempt,
		LastError:        m.lastError,
		AssignedClientID: m.assignedClientID,
	}
}

func (m *Manager) canConnect() error {
	switch m.state {
	case StateConnecting, StateHandshaking, StateReconnecting:
		return ErrAlreadyConnecting
	case StateConnected:
		return ErrAlreadyConnected
	case StateClosed:
		return ErrClosed
	default:
		return nil
	}
}

func (m *Manager) startSession(addr string) {
	m.attempt = 0
	m.lastError = ""
	m.address = addr
	m.lastAddress = addr
	m.saveAddress(addr)
	m.dial()
}

func (m *Manager) saveAddress(addr string) {
	if m.addresses == nil {
		return
	}
	base := context.WithoutCancel(m.baseCtx)
	go func() {
		ctx, cancel := context.WithTimeout(base, saveAddressTimeout)
		defer cancel()
		if err := m.addresses.SaveLastAddress(ctx, addr); err != nil {
			m.log.Warn(ctx, "saving relay address failed", "addr", addr, "error", err)
		}
	}()
}

func (m *Manager) disconnect(ctx context.Context) {
	if m.state == StateIdle {
		return
	}
	m.stopAll(websocket.StatusNormalClosure, "client disconnect")
	m.attempt = 0
	m.lastError = ""
	m.setState(ctx, StateIdle)
	m.notify(false, "Disconnected")
}

func (m *Manager) shutdown(ctx context.Context) {
	m.stopAll(websocket.StatusGoingAway, "client shutdown")
	m.setState(ctx, StateClosed)
}

// stopAll cancels every timer and closes the current connection, if any.
func (m *Manager) stopAll(code websocket.StatusCode, reason string) {
	m.connectTimer.stop()
	m.backoffTimer.stop()
	m.hb.Stop()
	m.dropLink(code, reason)
	m.assignedClientID = ""
}

func (m *Manager) setState(ctx context.Context, s State) {
	if m.state == s {
		return
	}
	m.log.Debug(ctx, "state change", "from", m.state.String(), "to", s.String(), "attempt", m.attempt)
	m.state = s
}

func (m *Manager) notify(connected bool, message string) {
	if m.notifier != nil {
		m.notifier.OnStatusChanged(connected, message)
	}
}
