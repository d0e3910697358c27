package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mapping associates an RFID identifier with a music directory.
type Mapping struct {
	RFID       string
	MusicDir   string
	AlbumTitle string
	Artist     string
	CoverPath  string
	CreatedAt  time.Time
	LastPlayed *time.Time
}

const mappingColumns = "rfid, music_dir, album_title, artist, cover_path, created_at, last_played"

// Get returns the mapping for one identifier.
func (s *Store) Get(ctx context.Context, rfid string) (*Mapping, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+mappingColumns+" FROM rfid_map WHERE rfid = ?", rfid)
	mapping, err := scanMapping(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rfid)
	}
	return mapping, err
}

// List returns all mappings, newest first.
func (s *Store) List(ctx context.Context) ([]*Mapping, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+mappingColumns+" FROM rfid_map ORDER BY created_at DESC, rfid")
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*Mapping
	for rows.Next() {
		mapping, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, mapping)
	}
	return mappings, rows.Err()
}

// Create inserts a new mapping. An existing identifier yields ErrDuplicate.
func (s *Store) Create(ctx context.Context, m *Mapping) error {
	_, err := s.execWithRetry(ctx,
		"INSERT INTO rfid_map (rfid, music_dir, album_title, artist, cover_path) VALUES (?, ?, ?, ?, ?)",
		m.RFID, m.MusicDir, nullable(m.AlbumTitle), nullable(m.Artist), nullable(m.CoverPath))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicate, m.RFID)
		}
		return fmt.Errorf("create mapping: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an existing mapping.
func (s *Store) Update(ctx context.Context, m *Mapping) error {
	res, err := s.execWithRetry(ctx,
		"UPDATE rfid_map SET music_dir = ?, album_title = ?, artist = ?, cover_path = ? WHERE rfid = ?",
		m.MusicDir, nullable(m.AlbumTitle), nullable(m.Artist), nullable(m.CoverPath), m.RFID)
	if err != nil {
		return fmt.Errorf("update mapping: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update mapping: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, m.RFID)
	}
	return nil
}

// Delete removes a mapping.
func (s *Store) Delete(ctx context.Context, rfid string) error {
	res, err := s.execWithRetry(ctx, "DELETE FROM rfid_map WHERE rfid = ?", rfid)
	if err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, rfid)
	}
	return nil
}

// TouchLastPlayed records a playback trigger for the identifier.
func (s *Store) TouchLastPlayed(ctx context.Context, rfid string) error {
	_, err := s.execWithRetry(ctx,
		"UPDATE rfid_map SET last_played = datetime('now') WHERE rfid = ?", rfid)
	if err != nil {
		return fmt.Errorf("touch last played: %w", err)
	}
	return nil
}

// AssignedDirs returns the set of music directories that already have a
// mapping.
func (s *Store) AssignedDirs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT music_dir FROM rfid_map")
	if err != nil {
		return nil, fmt.Errorf("list assigned directories: %w", err)
	}
	defer rows.Close()

	assigned := make(map[string]struct{})
	for rows.Next() {
		var dir string
		if err := rows.Scan(&dir); err != nil {
			return nil, err
		}
		assigned[dir] = struct{}{}
	}
	return assigned, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMapping(row rowScanner) (*Mapping, error) {
	var (
		m          Mapping
		albumTitle sql.NullString
		artist     sql.NullString
		coverPath  sql.NullString
		createdAt  string
		lastPlayed sql.NullString
	)
	if err := row.Scan(&m.RFID, &m.MusicDir, &albumTitle, &artist, &coverPath, &createdAt, &lastPlayed); err != nil {
		return nil, err
	}
	m.AlbumTitle = albumTitle.String
	m.Artist = artist.String
	m.CoverPath = coverPath.String
	if ts, err := time.Parse(timeLayout, createdAt); err == nil {
		m.CreatedAt = ts
	}
	if lastPlayed.Valid {
		if ts, err := time.Parse(timeLayout, lastPlayed.String); err == nil {
			m.LastPlayed = &ts
		}
	}
	return &m, nil
}

func nullable(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
