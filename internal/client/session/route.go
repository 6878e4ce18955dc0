package session

import (
	"context"

	"github.com/dmitrijs2005/clipsync/internal/client/protocol"
)

func (m *Manager) onFrame(ctx context.Context, ev event) {
	if !m.isCurrent(ev.gen) || m.state != StateConnected {
		return
	}
	m.hb.Observe()

	msg, err := protocol.Decode(ev.data)
	if err != nil {
		m.log.Warn(ctx, "dropping inbound frame", "error", err, "size", len(ev.data))
		return
	}

	switch msg := msg.(type) {
	case protocol.ClientID:
		m.assignedClientID = msg.ClientID
		m.log.Debug(ctx, "relay assigned client id", "client_id", msg.ClientID)

	case protocol.ClipboardUpdate:
		if msg.MachineID == m.identity.MachineID {
			m.log.Debug(ctx, "ignoring own clipboard update")
			return
		}
		ts := msg.Timestamp
		if ts.IsZero() {
			ts = m.clock.Now()
		}
		if m.history.RecordRemote(msg.Content, ts, msg.MachineID, msg.Hostname) {
			m.log.Debug(ctx, "remote clipboard recorded", "machine_id", msg.MachineID, "size", len(msg.Content))
		}

	case protocol.HistorySnapshot:
		changed := m.history.MergeSnapshot(msg.Entries)
		m.log.Debug(ctx, "relay history merged", "entries", len(msg.Entries), "changed", changed)

	case protocol.Ping:
		if err := m.hb.HandlePing(msg); err != nil {
			m.log.Warn(ctx, "pong not sent", "error", err)
		}

	case protocol.Pong:
		m.hb.HandlePong(msg)

	case protocol.Heartbeat, protocol.Status:
		m.log.Debug(ctx, "relay notice", "type", string(msg.MessageType()))

	default:
		m.log.Debug(ctx, "ignoring unexpected message", "type", string(msg.MessageType()))
	}
}
