package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/llehouerou/mbpseudo/internal/db"
)

const recordColumns = `id, path, title, artist, album_artist, album, track_number, disc_number,
	length_ms, mb_albumid, mb_trackid, data_source, added_at`

// Add records items in one transaction. A path already in the library is
// updated in place and keeps its original AddedAt.
func (l *Library) Add(ctx context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	now := l.now().Unix()

	return db.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO items (path, title, artist, album_artist, album, track_number, disc_number,
				length_ms, mb_albumid, mb_trackid, data_source, added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				title = excluded.title,
				artist = excluded.artist,
				album_artist = excluded.album_artist,
				album = excluded.album,
				track_number = excluded.track_number,
				disc_number = excluded.disc_number,
				length_ms = excluded.length_ms,
				mb_albumid = excluded.mb_albumid,
				mb_trackid = excluded.mb_trackid,
				data_source = excluded.data_source
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			_, err := stmt.ExecContext(ctx,
				r.Path, r.Title, r.Artist, r.AlbumArtist, r.Album,
				db.NullInt64(int64(r.TrackNumber)), db.NullInt64(int64(r.DiscNumber)),
				db.NullInt64(r.Length.Milliseconds()),
				db.NullString(r.MBAlbumID), db.NullString(r.MBTrackID), db.NullString(r.DataSource),
				now,
			)
			if err != nil {
				return fmt.Errorf("add %s: %w", r.Path, err)
			}
		}
		return nil
	})
}

// Get returns the record for path, or ErrNotFound.
func (l *Library) Get(ctx context.Context, path string) (*Record, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM items WHERE path = ?`, path)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Items returns every record ordered by path.
func (l *Library) Items(ctx context.Context) ([]Record, error) {
	return l.queryRecords(ctx, `SELECT `+recordColumns+` FROM items ORDER BY path`)
}

// AlbumItems returns the records tagged with a MusicBrainz album ID, in disc
// and track order.
func (l *Library) AlbumItems(ctx context.Context, albumID string) ([]Record, error) {
	return l.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM items
		WHERE mb_albumid = ?
		ORDER BY disc_number, track_number, path
	`, albumID)
}

// Albums summarizes the library by album, most recently added first.
func (l *Library) Albums(ctx context.Context) ([]AlbumSummary, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT COALESCE(mb_albumid, ''), album, album_artist, COALESCE(MAX(data_source), ''),
			COUNT(*), COALESCE(SUM(length_ms), 0), MIN(added_at)
		FROM items
		GROUP BY COALESCE(mb_albumid, ''), album, album_artist
		ORDER BY MIN(added_at) DESC, album COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var albums []AlbumSummary
	for rows.Next() {
		var (
			a        AlbumSummary
			lengthMS int64
			addedAt  int64
		)
		if err := rows.Scan(&a.MBAlbumID, &a.Album, &a.AlbumArtist, &a.DataSource,
			&a.Tracks, &lengthMS, &addedAt); err != nil {
			return nil, err
		}
		a.Length = time.Duration(lengthMS) * time.Millisecond
		a.AddedAt = time.Unix(addedAt, 0)
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

func (l *Library) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var (
		r                               Record
		trackNumber, discNumber, length sql.NullInt64
		albumID, trackID, dataSource    sql.NullString
		addedAt                         int64
	)
	err := s.Scan(&r.ID, &r.Path, &r.Title, &r.Artist, &r.AlbumArtist, &r.Album,
		&trackNumber, &discNumber, &length, &albumID, &trackID, &dataSource, &addedAt)
	if err != nil {
		return nil, err
	}

	r.TrackNumber = int(db.NullInt64Value(trackNumber))
	r.DiscNumber = int(db.NullInt64Value(discNumber))
	r.Length = time.Duration(db.NullInt64Value(length)) * time.Millisecond
	r.MBAlbumID = db.NullStringValue(albumID)
	r.MBTrackID = db.NullStringValue(trackID)
	r.DataSource = db.NullStringValue(dataSource)
	r.AddedAt = time.Unix(addedAt, 0)
	return &r, nil
}
