// Package history keeps the bounded, content-deduplicated clipboard history
// shared by local copies and relay broadcasts.
//
// Entries are ordered most-recent-first by timestamp. A content value appears
// at most once; re-observing it moves it to the front only when the new
// occurrence is at least as recent as the stored one.
package history

import (
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/clipsync/internal/client/models"
	"github.com/dmitrijs2005/clipsync/internal/timex"
)

// Checkpointer accepts history snapshots for durable storage. Request must
// not block.
type Checkpointer interface {
	Request(entries []models.ClipboardEntry)
}

// Observer is called with a copy of the history after every change.
type Observer func(entries []models.ClipboardEntry)

type Store struct {
	mu        sync.RWMutex
	entries   []models.ClipboardEntry
	limit     int
	identity  models.ClientIdentity
	clock     timex.Clock
	cp        Checkpointer
	observers []Observer
}

// NewStore returns an empty store bounded to limit entries
// (models.DefaultHistoryLimit when limit <= 0). cp may be nil.
func NewStore(identity models.ClientIdentity, limit int, clock timex.Clock, cp Checkpointer) *Store {
	if limit <= 0 {
		limit = models.DefaultHistoryLimit
	}
	if clock == nil {
		clock = timex.System
	}
	return &Store{
		limit:    limit,
		identity: identity,
		clock:    clock,
		cp:       cp,
	}
}

// Subscribe registers fn to be called after every change.
func (s *Store) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// RecordLocal stores text copied on this machine and returns the new entry.
func (s *Store) RecordLocal(text string) (models.ClipboardEntry, error) {
	if models.IsBlank(text) {
		return models.ClipboardEntry{}, ErrEmptyContent
	}

	e := models.ClipboardEntry{
		Content:   text,
		Timestamp: s.clock.Now(),
		Source:    models.SourceLocal,
		MachineID: s.identity.MachineID,
		Hostname:  s.identity.Hostname,
	}
	s.apply([]models.ClipboardEntry{e})
	return e, nil
}

// RecordRemote merges a peer's clipboard value. It is a no-op for blank text
// and for entries carrying the local machine id. A zero ts means "now".
// Reports whether the history changed.
func (s *Store) RecordRemote(text string, ts time.Time, machineID, hostname string) bool {
	return s.MergeSnapshot([]models.ClipboardEntry{{
		Content:   text,
		Timestamp: ts,
		MachineID: machineID,
		Hostname:  hostname,
	}})
}

// MergeSnapshot folds a relay history into the store, notifying and
// checkpointing at most once.
func (s *Store) MergeSnapshot(entries []models.ClipboardEntry) bool {
	now := s.clock.Now()

	candidates := make([]models.ClipboardEntry, 0, len(entries))
	for _, e := range entries {
		if models.IsBlank(e.Content) || s.isSelf(e.MachineID) {
			continue
		}
		e.Source = models.SourceRemote
		if e.Timestamp.IsZero() {
			e.Timestamp = now
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return false
	}
	return s.apply(candidates)
}

// Snapshot returns a copy of the current history.
func (s *Store) Snapshot() []models.ClipboardEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Restore replaces the history with entries loaded from storage. It neither
// notifies observers nor requests a checkpoint.
func (s *Store) Restore(entries []models.ClipboardEntry) {
	var h []models.ClipboardEntry
	for _, e := range entries {
		if models.IsBlank(e.Content) {
			continue
		}
		if !e.Source.Valid() {
			e.Source = models.SourceRemote
		}
		h = merge(h, e, s.limit)
	}

	s.mu.Lock()
	s.entries = h
	s.mu.Unlock()
}

// Clear empties the history.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.checkpoint()
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	notify(observers, nil)
}

func (s *Store) apply(candidates []models.ClipboardEntry) bool {
	s.mu.Lock()
	h := s.entries
	for _, c := range candidates {
		h = merge(h, c, s.limit)
	}
	if sameHistory(h, s.entries) {
		s.mu.Unlock()
		return false
	}
	s.entries = h
	s.checkpoint()
	snapshot := slices.Clone(h)
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	notify(observers, snapshot)
	return true
}

// checkpoint must be called with s.mu held so that requests reach the
// checkpointer in mutation order.
func (s *Store) checkpoint() {
	if s.cp != nil {
		s.cp.Request(slices.Clone(s.entries))
	}
}

func (s *Store) isSelf(machineID string) bool {
	return s.identity.MachineID != "" && machineID == s.identity.MachineID
}

func notify(observers []Observer, snapshot []models.ClipboardEntry) {
	for _, fn := range observers {
		fn(slices.Clone(snapshot))
	}
}
