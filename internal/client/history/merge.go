package history

import (
	"slices"
	"sort"

	"github.com/dmitrijs2005/clipsync/internal/client/models"
)

// merge folds candidate into h and returns the new history. h is not
// modified. An existing entry with the same content survives only when it
// is strictly newer than the candidate.
func merge(h []models.ClipboardEntry, candidate models.ClipboardEntry, limit int) []models.ClipboardEntry {
	idx := slices.IndexFunc(h, func(e models.ClipboardEntry) bool {
		return e.Content == candidate.Content
	})
	if idx >= 0 && h[idx].Timestamp.After(candidate.Timestamp) {
		return h
	}

	out := make([]models.ClipboardEntry, 0, len(h)+1)
	out = append(out, candidate)
	for i, e := range h {
		if i == idx {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sameEntry(a, b models.ClipboardEntry) bool {
	return a.Content == b.Content &&
		a.Timestamp.Equal(b.Timestamp) &&
		a.Source == b.Source &&
		a.MachineID == b.MachineID &&
		a.Hostname == b.Hostname
}

func sameHistory(a, b []models.ClipboardEntry) bool {
	return slices.EqualFunc(a, b, sameEntry)
}
