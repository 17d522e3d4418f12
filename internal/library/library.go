// Package library records imported items in a sqlite database.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "mbpseudo"
	dbFileName = "library.db"
)

// ErrNotFound is returned when no item is recorded for a path.
var ErrNotFound = errors.New("library: item not found")

// Record is one imported file.
type Record struct {
	ID          int64
	Path        string
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	TrackNumber int
	DiscNumber  int
	Length      time.Duration
	MBAlbumID   string
	MBTrackID   string
	DataSource  string // metadata source applied at import, empty for as-is imports
	AddedAt     time.Time
}

// AlbumSummary groups the records that share an album.
type AlbumSummary struct {
	MBAlbumID   string
	Album       string
	AlbumArtist string
	DataSource  string
	Tracks      int
	Length      time.Duration
	AddedAt     time.Time
}

type Library struct {
	db  *sql.DB
	now func() time.Time
}

// New wraps an open database whose schema is already initialized.
func New(db *sql.DB) *Library {
	return &Library{db: db, now: time.Now}
}

// DefaultPath returns the database location under the XDG data directory.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// Open opens (creating if needed) the library database at path, or at
// DefaultPath when path is empty.
func Open(ctx context.Context, path string) (*Library, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init library schema: %w", err)
	}

	return New(db), nil
}

func (l *Library) Close() error {
	return l.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			album_artist TEXT NOT NULL,
			album TEXT NOT NULL,
			track_number INTEGER,
			disc_number INTEGER,
			length_ms INTEGER,
			mb_albumid TEXT,
			mb_trackid TEXT,
			data_source TEXT,
			added_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_mb_albumid ON items(mb_albumid)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
