package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/clipsync/internal/client/services"
	"github.com/dmitrijs2005/clipsync/internal/client/session"
	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

const statusTimeout = time.Second

type App struct {
	svc services.SyncService
	out *Printer
}

func NewApp(svc services.SyncService, out *Printer) *App {
	return &App{svc: svc, out: out}
}

// Run reads commands from in until EOF or exit.
func (a *App) Run(ctx context.Context, in io.Reader) {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = isTerminal(int(f.Fd()))
	}

	id := a.svc.Identity()
	a.out.Printf("clipsync on %s (%s). Type 'help' for commands.\n", id.Hostname, id.MachineID)

	runREPL(ctx, a, a.prompt, bufio.NewScanner(in), interactive)
}

func (a *App) prompt() string {
	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	st, err := a.svc.Status(ctx)
	if err != nil {
		return "clipsync> "
	}
	if st.Address != "" && st.State != session.StateIdle {
		return fmt.Sprintf("clipsync (%s %s)> ", st.State, st.Address)
	}
	return fmt.Sprintf("clipsync (%s)> ", st.State)
}

func (a *App) Connect(ctx context.Context, address string) error {
	var err error
	if address == "" {
		err = a.svc.Reconnect(ctx)
	} else {
		err = a.svc.Connect(ctx, address)
	}

	switch {
	case errors.Is(err, session.ErrNoAddress):
		a.out.Println("Usage: connect <host[:port]>")
	case err != nil:
		a.out.Println("Connect failed:", err)
	default:
		a.out.Println("Connecting...")
	}
	return err
}

func (a *App) Disconnect(ctx context.Context) error {
	if err := a.svc.Disconnect(ctx); err != nil {
		a.out.Println("Disconnect failed:", err)
		return err
	}
	return nil
}

func (a *App) Reconnect(ctx context.Context) error {
	return a.Connect(ctx, "")
}

func (a *App) Copy(ctx context.Context, text string) error {
	if _, err := a.svc.RecordLocalChange(ctx, text); err != nil {
		a.out.Println("Nothing copied:", err)
		return err
	}
	return nil
}

func (a *App) History(context.Context) error {
	entries := a.svc.GetHistory()
	a.out.mu.Lock()
	defer a.out.mu.Unlock()
	writeHistory(a.out.w, entries)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.svc.RefreshHistory(ctx); err != nil {
		a.out.Println("Refresh failed:", err)
		return err
	}
	return nil
}

func (a *App) Clear(context.Context) error {
	a.svc.ClearHistory()
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st, err := a.svc.Status(ctx)
	if err != nil {
		a.out.Println("Status unavailable:", err)
		return err
	}

	id := a.svc.Identity()
	a.out.Printf("state:    %s\n", st.State)
	if st.Address != "" {
		a.out.Printf("relay:    %s\n", st.Address)
	}
	if st.Attempt > 0 {
		a.out.Printf("attempt:  %d\n", st.Attempt)
	}
	if st.LastError != "" {
		a.out.Printf("error:    %s\n", st.LastError)
	}
	if st.AssignedClientID != "" {
		a.out.Printf("relay id: %s\n", st.AssignedClientID)
	}
	a.out.Printf("machine:  %s (%s)\n", id.MachineID, id.Hostname)
	return nil
}
