// Package storage is the client's durable store: a SQLite database holding
// the machine identity, the last relay address and the history checkpoint.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/clipsync/internal/client/migrations"
	"github.com/dmitrijs2005/clipsync/internal/client/models"
	historyrepo "github.com/dmitrijs2005/clipsync/internal/client/repositories/history"
	"github.com/dmitrijs2005/clipsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/clipsync/internal/dbx"
	"github.com/dmitrijs2005/clipsync/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

type Storage struct {
	db *sql.DB
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Open opens (creating if needed) the SQLite database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	if _, err := filex.EnsureParentDir(dsn); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and ":memory:" is
	// per-connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Storage{db: db}, nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// LoadIdentity returns (nil, nil) on first run.
func (s *Storage) LoadIdentity(ctx context.Context) (*models.ClientIdentity, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	id, err := repo.GetString(ctx, metadata.KeyMachineID)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	host, err := repo.GetString(ctx, metadata.KeyHostname)
	if err != nil {
		return nil, err
	}
	return &models.ClientIdentity{MachineID: id, Hostname: host}, nil
}

func (s *Storage) SaveIdentity(ctx context.Context, id models.ClientIdentity) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.SetString(ctx, metadata.KeyMachineID, id.MachineID); err != nil {
			return err
		}
		return repo.SetString(ctx, metadata.KeyHostname, id.Hostname)
	})
}

func (s *Storage) LoadHistory(ctx context.Context) ([]models.ClipboardEntry, error) {
	return historyrepo.NewSQLiteRepository(s.db).List(ctx)
}

// SaveHistory replaces the stored checkpoint with entries atomically.
func (s *Storage) SaveHistory(ctx context.Context, entries []models.ClipboardEntry) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return historyrepo.NewSQLiteRepository(tx).ReplaceAll(ctx, entries)
	})
}

func (s *Storage) LoadLastAddress(ctx context.Context) (string, error) {
	return metadata.NewSQLiteRepository(s.db).GetString(ctx, metadata.KeyLastAddress)
}

func (s *Storage) SaveLastAddress(ctx context.Context, address string) error {
	return metadata.NewSQLiteRepository(s.db).SetString(ctx, metadata.KeyLastAddress, address)
}
