package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/clipsync/internal/client/history"
	"github.com/dmitrijs2005/clipsync/internal/client/models"
	"github.com/dmitrijs2005/clipsync/internal/client/session"
	"github.com/dmitrijs2005/clipsync/internal/logging"
	"github.com/dmitrijs2005/clipsync/internal/timex"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Storage is the durable store the service needs. storage.Storage
// implements it.
type Storage interface {
	LoadIdentity(ctx context.Context) (*models.ClientIdentity, error)
	SaveIdentity(ctx context.Context, id models.ClientIdentity) error
	LoadHistory(ctx context.Context) ([]models.ClipboardEntry, error)
	SaveHistory(ctx context.Context, entries []models.ClipboardEntry) error
	LoadLastAddress(ctx context.Context) (string, error)
	SaveLastAddress(ctx context.Context, address string) error
}

// Observer receives history and connection notifications. Both methods may be
// called from internal goroutines and must not block for long.
type Observer interface {
	OnHistoryChanged(entries []models.ClipboardEntry)
	OnStatusChanged(connected bool, message string)
}

type SyncService interface {
	// Run drives the connection manager and the history checkpointer until
	// ctx is done.
	Run(ctx context.Context) error

	Connect(ctx context.Context, address string) error
	Disconnect(ctx context.Context) error
	Reconnect(ctx context.Context) error

	// RecordLocalChange stores text copied on this machine and forwards it
	// to the relay when connected.
	RecordLocalChange(ctx context.Context, text string) (models.ClipboardEntry, error)
	GetHistory() []models.ClipboardEntry
	RefreshHistory(ctx context.Context) error
	ClearHistory()

	Status(ctx context.Context) (session.Status, error)
	Identity() models.ClientIdentity
}

type Options struct {
	Storage Storage
	Dialer  session.Dialer
	Health  session.HealthChecker

	Session      session.Config
	HistoryLimit int

	// Hostname overrides os.Hostname for the identity label.
	Hostname string
	// RelayAddr is preferred over the remembered address for AutoConnect.
	RelayAddr   string
	AutoConnect bool

	Observer Observer
	Clock    timex.Clock
	Logger   logging.Logger
}

// Test seams.
var (
	newMachineID = uuid.NewString
	osHostname   = os.Hostname
)

type syncService struct {
	store   *history.Store
	cp      *history.AsyncCheckpointer
	manager *session.Manager
	ident   models.ClientIdentity
	log     logging.Logger

	autoConnect bool
	autoAddr    string
}

// NewSyncService loads (or creates) the identity and the history checkpoint
// and wires the store, checkpointer and connection manager together. Only an
// unusable identity is fatal; a history or address load failure starts from
// empty.
func NewSyncService(ctx context.Context, opts Options) (SyncService, error) {
	log := opts.Logger
	if log == nil {
		log = logging.NewDiscard()
	}
	log = log.With("component", "sync")

	ident, err := bootstrapIdentity(ctx, opts.Storage, opts.Hostname)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	log.Info(ctx, "client identity", "machine_id", ident.MachineID, "hostname", ident.Hostname)

	cp := history.NewAsyncCheckpointer(opts.Storage, log)
	store := history.NewStore(ident, opts.HistoryLimit, opts.Clock, cp)

	saved, err := opts.Storage.LoadHistory(ctx)
	if err != nil {
		log.Warn(ctx, "history checkpoint unreadable, starting empty", "error", err)
	}
	store.Restore(saved)
	log.Debug(ctx, "history restored", "entries", store.Len())

	lastAddr, err := opts.Storage.LoadLastAddress(ctx)
	if err != nil {
		log.Warn(ctx, "last relay address unreadable", "error", err)
	}

	var notifier session.StatusNotifier
	if opts.Observer != nil {
		store.Subscribe(opts.Observer.OnHistoryChanged)
		notifier = opts.Observer
	}

	manager := session.NewManager(session.Options{
		Config:      opts.Session,
		Identity:    ident,
		Dialer:      opts.Dialer,
		Health:      opts.Health,
		History:     store,
		Notifier:    notifier,
		Addresses:   opts.Storage,
		LastAddress: lastAddr,
		Clock:       opts.Clock,
		Logger:      opts.Logger,
	})

	autoAddr := strings.TrimSpace(opts.RelayAddr)
	if autoAddr == "" {
		autoAddr = lastAddr
	}

	return &syncService{
		store:       store,
		cp:          cp,
		manager:     manager,
		ident:       ident,
		log:         log,
		autoConnect: opts.AutoConnect,
		autoAddr:    autoAddr,
	}, nil
}

func bootstrapIdentity(ctx context.Context, st Storage, hostOverride string) (models.ClientIdentity, error) {
	hostOverride = strings.TrimSpace(hostOverride)

	saved, err := st.LoadIdentity(ctx)
	if err != nil {
		return models.ClientIdentity{}, err
	}
	if saved != nil && saved.MachineID != "" {
		if hostOverride == "" || hostOverride == saved.Hostname {
			return *saved, nil
		}
		id := models.ClientIdentity{MachineID: saved.MachineID, Hostname: hostOverride}
		return id, st.SaveIdentity(ctx, id)
	}

	id := models.ClientIdentity{MachineID: newMachineID(), Hostname: hostOverride}
	if id.Hostname == "" {
		id.Hostname = localHostname()
	}
	if err := st.SaveIdentity(ctx, id); err != nil {
		return models.ClientIdentity{}, err
	}
	return id, nil
}

func localHostname() string {
	h, err := osHostname()
	if err != nil || strings.TrimSpace(h) == "" {
		return "unknown"
	}
	return h
}

func (s *syncService) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.manager.Run(gctx) })
	g.Go(func() error { return s.cp.Run(gctx) })

	if s.autoConnect && s.autoAddr != "" {
		g.Go(func() error {
			if err := s.manager.Connect(gctx, s.autoAddr); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Warn(gctx, "auto-connect failed", "addr", s.autoAddr, "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func (s *syncService) Connect(ctx context.Context, address string) error {
	return s.manager.Connect(ctx, address)
}

func (s *syncService) Disconnect(ctx context.Context) error {
	return s.manager.Disconnect(ctx)
}

func (s *syncService) Reconnect(ctx context.Context) error {
	return s.manager.Reconnect(ctx)
}

func (s *syncService) RecordLocalChange(ctx context.Context, text string) (models.ClipboardEntry, error) {
	entry, err := s.store.RecordLocal(text)
	if err != nil {
		return models.ClipboardEntry{}, err
	}

	sent, err := s.manager.SendLocalChange(ctx, entry)
	switch {
	case err != nil:
		s.log.Warn(ctx, "clipboard update not sent", "error", err)
	case !sent:
		s.log.Debug(ctx, "not connected, clipboard update kept locally")
	}
	return entry, nil
}

func (s *syncService) GetHistory() []models.ClipboardEntry {
	return s.store.Snapshot()
}

func (s *syncService) RefreshHistory(ctx context.Context) error {
	return s.manager.RequestHistory(ctx)
}

func (s *syncService) ClearHistory() {
	n := s.store.Len()
	s.store.Clear()
	s.log.Info(context.Background(), "history cleared", "entries", n)
}

func (s *syncService) Status(ctx context.Context) (session.Status, error) {
	return s.manager.Status(ctx)
}

func (s *syncService) Identity() models.ClientIdentity {
	return s.ident
}
