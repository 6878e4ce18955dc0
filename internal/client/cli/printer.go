package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/clipsync/internal/client/models"
)

const previewLen = 60

// Printer serializes user-facing output. It doubles as the services.Observer
// so notifications from background goroutines do not interleave with
// command output.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Println(a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, a...)
}

func (p *Printer) Printf(format string, a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, a...)
}

func (p *Printer) OnHistoryChanged(entries []models.ClipboardEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, "* history updated")
	writeHistory(p.w, entries)
}

func (p *Printer) OnStatusChanged(connected bool, message string) {
	tag := "offline"
	if connected {
		tag = "online"
	}
	p.Printf("* [%s] %s\n", tag, message)
}

func writeHistory(w io.Writer, entries []models.ClipboardEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "  (history is empty)")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(w, "  %d. %s\n", i+1, formatEntry(e))
	}
}

func formatEntry(e models.ClipboardEntry) string {
	origin := string(e.Source)
	if e.Source == models.SourceRemote && e.Hostname != "" {
		origin = "from " + e.Hostname
	}
	return fmt.Sprintf("[%s, %s] %s", e.Timestamp.Local().Format("2006-01-02 15:04:05"), origin, e.Preview(previewLen))
}
