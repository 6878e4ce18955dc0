// Package models defines the client-side data shared by the history store,
// the wire codec and durable storage.
package models

import (
	"strings"
	"time"
)

// DefaultHistoryLimit is the number of distinct clipboard values kept.
const DefaultHistoryLimit = 3

// Source says where a clipboard value was first observed.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	return s == SourceLocal || s == SourceRemote
}

// ClipboardEntry is one distinct clipboard value in the history.
type ClipboardEntry struct {
	// Content is the copied text. Never blank once inside the store.
	Content string

	// Timestamp is when the value was copied (local) or announced (remote).
	Timestamp time.Time

	// Source is local for values copied on this machine.
	Source Source

	// MachineID identifies the producing machine, used for self-echo checks.
	MachineID string

	// Hostname is a human label for the producing machine. Optional.
	Hostname string
}

// IsBlank reports whether text is empty or whitespace-only.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// Preview returns content shortened to at most n runes for display,
// with newlines flattened.
func (e ClipboardEntry) Preview(n int) string {
	s := strings.Join(strings.Fields(e.Content), " ")
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
