package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/dmitrijs2005/clipsync/internal/client/heartbeat"
	"github.com/dmitrijs2005/clipsync/internal/client/protocol"
	"github.com/dmitrijs2005/clipsync/internal/client/transport"
	"github.com/dmitrijs2005/clipsync/internal/timex"
)

type eventKind int

const (
	evCommand eventKind = iota
	evDialResult
	evFrame
	evReadError
	evWriteError
	evConnectTimeout
	evBackoff
	evHeartbeat
)

type event struct {
	kind eventKind

	// gen identifies the connection for dial/frame/read/write events.
	gen uint64
	// id identifies the timer registration for timer events.
	id uint64

	conn transport.Conn
	data []byte
	err  error
	fn   func()
}

type timerHandle struct {
	id    uint64
	timer timex.Timer
}

func (h *timerHandle) stop() {
	if h.timer != nil {
		h.timer.Stop()
	}
	*h = timerHandle{}
}

func (h timerHandle) matches(id uint64) bool {
	return h.timer != nil && h.id == id
}

func (m *Manager) arm(d time.Duration, kind eventKind) timerHandle {
	m.timerSeq++
	id := m.timerSeq
	t := m.clock.AfterFunc(d, func() {
		m.post(event{kind: kind, id: id})
	})
	return timerHandle{id: id, timer: t}
}

func (m *Manager) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evCommand:
		ev.fn()
	case evDialResult:
		m.onDialResult(ctx, ev)
	case evFrame:
		m.onFrame(ctx, ev)
	case evReadError:
		m.onReadError(ctx, ev)
	case evWriteError:
		if m.isCurrent(ev.gen) {
			m.fail(ctx, fmt.Errorf("write: %w", ev.err), websocket.StatusGoingAway)
		}
	case evConnectTimeout:
		if !m.connectTimer.matches(ev.id) || m.state != StateConnecting {
			m.log.Debug(ctx, "stale connect timeout ignored", "id", ev.id)
			return
		}
		m.connectTimer = timerHandle{}
		m.log.Warn(ctx, "connection attempt timed out", "addr", m.address, "timeout", m.cfg.ConnectTimeout)
		m.fail(ctx, ErrConnectTimeout, websocket.StatusGoingAway)
	case evBackoff:
		if !m.backoffTimer.matches(ev.id) || m.state != StateReconnecting {
			m.log.Debug(ctx, "stale backoff timer ignored", "id", ev.id)
			return
		}
		m.backoffTimer = timerHandle{}
		m.log.Info(ctx, "reconnecting", "addr", m.address, "attempt", m.attempt)
		m.dial()
	case evHeartbeat:
		m.onHeartbeat(ctx, ev.id)
	}
}

func (m *Manager) isCurrent(gen uint64) bool {
	return m.link != nil && m.link.gen == gen
}

// dial starts a connection attempt to m.address guarded by the connect timer.
func (m *Manager) dial() {
	m.gen++
	gen := m.gen
	ctx, cancel := context.WithCancel(m.baseCtx)
	m.link = &link{gen: gen, ctx: ctx, cancel: cancel}
	m.assignedClientID = ""

	m.setState(m.baseCtx, StateConnecting)
	m.connectTimer = m.arm(m.cfg.ConnectTimeout, evConnectTimeout)

	addr := m.address
	go func() {
		conn, err := m.dialer.Dial(ctx, addr)
		if !m.post(event{kind: evDialResult, gen: gen, conn: conn, err: err}) && conn != nil {
			_ = conn.Close(websocket.StatusGoingAway, "client shutdown")
		}
	}()
}

func (m *Manager) onDialResult(ctx context.Context, ev event) {
	if !m.isCurrent(ev.gen) || m.state != StateConnecting {
		if ev.conn != nil {
			m.log.Debug(ctx, "closing stale connection", "gen", ev.gen)
			m.closeAsync(ev.conn, websocket.StatusNormalClosure, "stale connection", nil)
		}
		return
	}
	m.connectTimer.stop()

	if ev.err != nil {
		m.log.Warn(ctx, "dial failed", "addr", m.address, "error", ev.err)
		m.fail(ctx, ev.err, websocket.StatusGoingAway)
		return
	}

	l := m.link
	l.conn = ev.conn
	l.outbox = make(chan []byte, m.cfg.OutboxSize)
	m.setState(ctx, StateHandshaking)

	go m.readLoop(l)
	go m.writeLoop(l)

	if err := m.handshake(); err != nil {
		m.fail(ctx, err, websocket.StatusInternalError)
		return
	}
	m.hb.Start()

	m.attempt = 0
	m.lastError = ""
	m.setState(ctx, StateConnected)
	m.log.Info(ctx, "connected to relay", "addr", m.address)
	m.notify(true, "Connected to "+m.address)
}

func (m *Manager) handshake() error {
	if err := m.sendOnLoop(protocol.ClientIdentify{
		MachineID: m.identity.MachineID,
		Hostname:  m.identity.Hostname,
		UserAgent: m.cfg.UserAgent,
	}); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	if err := m.sendOnLoop(protocol.GetHistory{}); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	return nil
}

func (m *Manager) onReadError(ctx context.Context, ev event) {
	if !m.isCurrent(ev.gen) {
		return
	}

	if websocket.CloseStatus(ev.err) == websocket.StatusNormalClosure {
		m.log.Info(ctx, "relay closed the connection", "addr", m.address)
		m.stopAll(websocket.StatusNormalClosure, "")
		m.attempt = 0
		m.lastError = ""
		m.setState(ctx, StateIdle)
		m.notify(false, "Relay closed the connection")
		return
	}

	m.log.Warn(ctx, "connection lost", "addr", m.address, "error", ev.err)
	m.fail(ctx, fmt.Errorf("read: %w", ev.err), websocket.StatusGoingAway)
}

func (m *Manager) onHeartbeat(ctx context.Context, id uint64) {
	switch m.hb.Tick(id) {
	case heartbeat.VerdictSuspect:
		m.log.Warn(ctx, "relay silent for a full heartbeat interval", "addr", m.address, "interval", m.cfg.HeartbeatInterval)
		m.fail(ctx, ErrHeartbeatTimeout, websocket.StatusGoingAway)
	case heartbeat.VerdictPing:
		m.log.Debug(ctx, "ping sent", "rtt", m.hb.RTT())
	}
}

// fail ends the current attempt or session and schedules the next retry,
// or gives up once the attempt ceiling is reached.
func (m *Manager) fail(ctx context.Context, err error, code websocket.StatusCode) {
	m.stopAll(code, "reconnecting")
	m.lastError = err.Error()
	m.attempt++

	if m.attempt >= m.cfg.MaxAttempts {
		m.setState(ctx, StateFailed)
		m.log.Error(ctx, "giving up on relay", "addr", m.address, "attempts", m.attempt, "error", err)
		m.notify(false, fmt.Sprintf("Connection failed after %d attempts: %v", m.attempt, err))
		return
	}

	delay := Backoff(m.attempt-1, m.cfg.BaseDelay, m.cfg.MaxDelay)
	m.setState(ctx, StateReconnecting)
	m.backoffTimer = m.arm(delay, evBackoff)
	m.log.Info(ctx, "retry scheduled", "addr", m.address, "attempt", m.attempt, "delay", delay)
	m.notify(false, fmt.Sprintf("Reconnecting in %s (attempt %d/%d): %v", delay, m.attempt, m.cfg.MaxAttempts, err))
}

// sendOnLoop queues msg on the current connection without blocking.
func (m *Manager) sendOnLoop(msg protocol.Message) error {
	if m.link == nil || m.link.outbox == nil {
		return ErrNotConnected
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	select {
	case m.link.outbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// dropLink detaches the current connection and closes it off the loop.
func (m *Manager) dropLink(code websocket.StatusCode, reason string) {
	l := m.link
	if l == nil {
		return
	}
	m.link = nil
	if l.conn == nil {
		l.cancel()
		return
	}
	m.closeAsync(l.conn, code, reason, l.cancel)
}

func (m *Manager) closeAsync(conn transport.Conn, code websocket.StatusCode, reason string, after func()) {
	m.closers.Add(1)
	go func() {
		defer m.closers.Done()
		if err := conn.Close(code, reason); err != nil && !errors.Is(err, context.Canceled) {
			m.log.Debug(context.Background(), "close connection", "error", err)
		}
		if after != nil {
			after()
		}
	}()
}
