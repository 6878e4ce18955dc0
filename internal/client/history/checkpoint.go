package history

import (
	"context"
	"time"

	"github.com/dmitrijs2005/clipsync/internal/client/models"
	"github.com/dmitrijs2005/clipsync/internal/logging"
)

// Saver persists a full history snapshot.
type Saver interface {
	SaveHistory(ctx context.Context, entries []models.ClipboardEntry) error
}

const flushTimeout = 5 * time.Second

// AsyncCheckpointer writes history snapshots from its own goroutine. Only the
// most recent pending snapshot is kept; older ones are overwritten.
type AsyncCheckpointer struct {
	saver Saver
	log   logging.Logger
	slot  chan []models.ClipboardEntry
}

func NewAsyncCheckpointer(saver Saver, log logging.Logger) *AsyncCheckpointer {
	return &AsyncCheckpointer{
		saver: saver,
		log:   log.With("component", "checkpoint"),
		slot:  make(chan []models.ClipboardEntry, 1),
	}
}

// Request queues entries for saving, replacing any snapshot not yet written.
func (c *AsyncCheckpointer) Request(entries []models.ClipboardEntry) {
	for {
		select {
		case c.slot <- entries:
			return
		default:
		}
		select {
		case <-c.slot:
		default:
		}
	}
}

// Run writes queued snapshots until ctx is done, then flushes whatever is
// still pending.
func (c *AsyncCheckpointer) Run(ctx context.Context) error {
	for {
		select {
		case entries := <-c.slot:
			c.save(ctx, entries)
		case <-ctx.Done():
			select {
			case entries := <-c.slot:
				fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
				c.save(fctx, entries)
				cancel()
			default:
			}
			return nil
		}
	}
}

func (c *AsyncCheckpointer) save(ctx context.Context, entries []models.ClipboardEntry) {
	if err := c.saver.SaveHistory(ctx, entries); err != nil {
		c.log.Warn(ctx, "history checkpoint failed", "error", err, "entries", len(entries))
		return
	}
	c.log.Debug(ctx, "history checkpointed", "entries", len(entries))
}
