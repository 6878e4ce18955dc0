// Package heartbeat implements connection liveness for a relay session.
//
// A Monitor pings the relay on a fixed interval and declares the connection
// suspect when a whole interval passes without any inbound frame. It is not
// safe for concurrent use; the session event loop owns it. Timer callbacks
// only report the registration id through the fire function, and the loop
// feeds that id back into Tick.
package heartbeat

import (
	"time"

	"github.com/dmitrijs2005/clipsync/internal/client/protocol"
	"github.com/dmitrijs2005/clipsync/internal/timex"
)

// DefaultInterval is the ping period used by the relay client.
const DefaultInterval = 25 * time.Second

// Verdict is the outcome of a heartbeat tick.
type Verdict int

const (
	// VerdictIgnore means the tick belonged to a stopped or restarted monitor.
	VerdictIgnore Verdict = iota
	// VerdictPing means traffic was seen and a new ping has been sent.
	VerdictPing
	// VerdictSuspect means the connection should be dropped.
	VerdictSuspect
)

func (v Verdict) String() string {
	switch v {
	case VerdictIgnore:
		return "ignore"
	case VerdictPing:
		return "ping"
	case VerdictSuspect:
		return "suspect"
	default:
		return "unknown"
	}
}

// Sender queues an outbound message on the current connection.
type Sender func(msg protocol.Message) error

type Monitor struct {
	interval time.Duration
	clock    timex.Clock
	send     Sender
	fire     func(id uint64)

	id      uint64
	timer   timex.Timer
	running bool
	traffic bool
	rtt     time.Duration
}

// New returns a stopped monitor. fire is called from the clock's timer
// goroutine with the registration id of the tick that elapsed.
func New(interval time.Duration, clock timex.Clock, send Sender, fire func(id uint64)) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = timex.System
	}
	return &Monitor{interval: interval, clock: clock, send: send, fire: fire}
}

// Start (re)arms the monitor for a fresh connection. Ticks from any previous
// registration become stale.
func (m *Monitor) Start() {
	m.Stop()
	m.id++
	m.running = true
	m.traffic = false
	m.rtt = 0
	m.arm()
}

// Stop cancels the pending tick. Safe to call repeatedly.
func (m *Monitor) Stop() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.running = false
}

// Observe records inbound traffic of any kind.
func (m *Monitor) Observe() {
	m.traffic = true
}

// Tick evaluates the interval that just ended for registration id.
func (m *Monitor) Tick(id uint64) Verdict {
	if !m.running || id != m.id {
		return VerdictIgnore
	}
	m.timer = nil

	if !m.traffic {
		m.running = false
		return VerdictSuspect
	}
	m.traffic = false

	if err := m.send(protocol.Ping{Timestamp: m.clock.Now().UnixMilli()}); err != nil {
		m.running = false
		return VerdictSuspect
	}
	m.arm()
	return VerdictPing
}

// HandlePing answers a relay ping with a pong echoing its timestamp.
func (m *Monitor) HandlePing(p protocol.Ping) error {
	return m.send(protocol.Pong{Timestamp: p.Timestamp})
}

// HandlePong records the round trip of one of our pings.
func (m *Monitor) HandlePong(p protocol.Pong) {
	if p.Timestamp <= 0 {
		return
	}
	if rtt := m.clock.Now().Sub(time.UnixMilli(p.Timestamp)); rtt >= 0 {
		m.rtt = rtt
	}
}

// RTT returns the last measured ping round trip, or zero.
func (m *Monitor) RTT() time.Duration { return m.rtt }

func (m *Monitor) arm() {
	id := m.id
	m.timer = m.clock.AfterFunc(m.interval, func() { m.fire(id) })
}
