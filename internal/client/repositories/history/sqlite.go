package history

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clipsync/internal/client/models"
	"github.com/dmitrijs2005/clipsync/internal/dbx"
	"golang.org/x/crypto/blake2b"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ContentHash returns the hex BLAKE2b-256 digest used as the row key.
func ContentHash(content string) string {
	sum := blake2b.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, entries []models.ClipboardEntry) error {
	if err := r.Clear(ctx); err != nil {
		return err
	}

	for _, e := range entries {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO history (content_hash, content, timestamp, source, machine_id, hostname)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(content_hash) DO UPDATE SET
				timestamp  = excluded.timestamp,
				source     = excluded.source,
				machine_id = excluded.machine_id,
				hostname   = excluded.hostname
			WHERE excluded.timestamp >= history.timestamp
		`, ContentHash(e.Content), e.Content, e.Timestamp.UnixNano(), string(e.Source), e.MachineID, e.Hostname)
		if err != nil {
			return fmt.Errorf("failed to insert history entry: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.ClipboardEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT content, timestamp, source, machine_id, hostname
		FROM history
		ORDER BY timestamp DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var result []models.ClipboardEntry
	for rows.Next() {
		var (
			e      models.ClipboardEntry
			ts     int64
			source string
		)
		if err := rows.Scan(&e.Content, &ts, &source, &e.MachineID, &e.Hostname); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		e.Source = models.Source(source)
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
