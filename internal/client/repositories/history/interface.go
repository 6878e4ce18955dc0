package history

import (
	"context"

	"github.com/dmitrijs2005/clipsync/internal/client/models"
)

type Repository interface {
	// ReplaceAll makes the table hold exactly entries. Run it in a
	// transaction so readers never see a partial snapshot.
	ReplaceAll(ctx context.Context, entries []models.ClipboardEntry) error
	// List returns every stored entry, newest first.
	List(ctx context.Context) ([]models.ClipboardEntry, error)
	Clear(ctx context.Context) error
}
