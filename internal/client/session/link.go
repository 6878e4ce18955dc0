package session

import (
	"context"

	"github.com/dmitrijs2005/clipsync/internal/client/transport"
)

// link is one connection generation. ctx covers the dial and, once
// established, the reader and writer goroutines.
type link struct {
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
	conn   transport.Conn
	outbox chan []byte
}

func (m *Manager) readLoop(l *link) {
	for {
		data, err := l.conn.Read(l.ctx)
		if err != nil {
			m.post(event{kind: evReadError, gen: l.gen, err: err})
			return
		}
		if !m.post(event{kind: evFrame, gen: l.gen, data: data}) {
			return
		}
	}
}

func (m *Manager) writeLoop(l *link) {
	for {
		select {
		case <-l.ctx.Done():
			return
		case data := <-l.outbox:
			wctx, cancel := context.WithTimeout(l.ctx, m.cfg.WriteTimeout)
			err := l.conn.Write(wctx, data)
			cancel()
			if err != nil {
				m.post(event{kind: evWriteError, gen: l.gen, err: err})
				return
			}
		}
	}
}
