package setlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store errors surfaced to callers.
var (
	ErrNotFound     = errors.New("setlist not found")
	ErrSongNotFound = errors.New("song not in setlist")
	ErrWrongBand    = errors.New("song belongs to a different band")
)

// Store provides database operations for master setlists and their ordered
// song entries.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const setlistColumns = `id, band_id, name, description, is_active, created_at, updated_at`

func scanSetlist(row pgx.Row) (*MasterSetlist, error) {
	ms := &MasterSetlist{}
	var description sql.NullString
	err := row.Scan(&ms.ID, &ms.BandID, &ms.Name, &description, &ms.IsActive, &ms.CreatedAt, &ms.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ms.Description = description.String
	return ms, nil
}

// Create inserts a new setlist and returns the full row.
func (s *Store) Create(ctx context.Context, in CreateSetlistInput) (*MasterSetlist, error) {
	query := fmt.Sprintf(`INSERT INTO master_setlists (band_id, name, description)
		 VALUES ($1, $2, NULLIF($3, '')) RETURNING %s`, setlistColumns)

	ms, err := scanSetlist(s.pool.QueryRow(ctx, query, in.BandID, in.Name, in.Description))
	if err != nil {
		return nil, fmt.Errorf("creating setlist: %w", err)
	}
	return ms, nil
}

// GetByID retrieves a setlist with its song count.
func (s *Store) GetByID(ctx context.Context, id string) (*MasterSetlist, error) {
	query := fmt.Sprintf(`SELECT %s FROM master_setlists WHERE id = $1`, setlistColumns)
	ms, err := scanSetlist(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting setlist: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT count(*) FROM setlist_songs WHERE setlist_id = $1`, id,
	).Scan(&ms.SongCount)
	if err != nil {
		return nil, fmt.Errorf("counting setlist songs: %w", err)
	}
	return ms, nil
}

// ListByBand returns the active setlists of a band with their song counts.
func (s *Store) ListByBand(ctx context.Context, bandID string) ([]*MasterSetlist, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ms.id, ms.band_id, ms.name, ms.description, ms.is_active,
			ms.created_at, ms.updated_at, count(ss.song_id)
		 FROM master_setlists ms
		 LEFT JOIN setlist_songs ss ON ss.setlist_id = ms.id
		 WHERE ms.band_id = $1 AND ms.is_active
		 GROUP BY ms.id
		 ORDER BY ms.created_at`, bandID)
	if err != nil {
		return nil, fmt.Errorf("listing setlists: %w", err)
	}
	defer rows.Close()

	var setlists []*MasterSetlist
	for rows.Next() {
		ms := &MasterSetlist{}
		var description sql.NullString
		err := rows.Scan(&ms.ID, &ms.BandID, &ms.Name, &description, &ms.IsActive,
			&ms.CreatedAt, &ms.UpdatedAt, &ms.SongCount)
		if err != nil {
			return nil, fmt.Errorf("scanning setlist: %w", err)
		}
		ms.Description = description.String
		setlists = append(setlists, ms)
	}
	return setlists, rows.Err()
}

// Update applies a partial update to a setlist and returns the updated row.
func (s *Store) Update(ctx context.Context, id string, in UpdateSetlistInput) (*MasterSetlist, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if in.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *in.Name)
		argIdx++
	}
	if in.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = NULLIF($%d, '')", argIdx))
		args = append(args, *in.Description)
		argIdx++
	}

	if len(setClauses) == 0 {
		return s.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE master_setlists SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, setlistColumns)

	ms, err := scanSetlist(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating setlist: %w", err)
	}
	return ms, nil
}

// Delete removes a setlist. Its join rows go with it via cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM master_setlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting setlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSongs returns the setlist's songs in position order.
func (s *Store) ListSongs(ctx context.Context, setlistID string) ([]SetlistSong, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT sg.id, sg.title, sg.scale, sg.genre, ss.position
		 FROM setlist_songs ss
		 JOIN songs sg ON sg.id = ss.song_id
		 WHERE ss.setlist_id = $1
		 ORDER BY ss.position, sg.title`, setlistID)
	if err != nil {
		return nil, fmt.Errorf("listing setlist songs: %w", err)
	}
	defer rows.Close()

	var songs []SetlistSong
	for rows.Next() {
		var entry SetlistSong
		var scale, genre sql.NullString
		if err := rows.Scan(&entry.SongID, &entry.Title, &scale, &genre, &entry.Position); err != nil {
			return nil, fmt.Errorf("scanning setlist song: %w", err)
		}
		entry.Scale = scale.String
		entry.Genre = genre.String
		songs = append(songs, entry)
	}
	return songs, rows.Err()
}

// AddSong appends a song to the end of a setlist. Adding a song that is
// already present is a no-op; a song from another band maps to ErrWrongBand.
func (s *Store) AddSong(ctx context.Context, setlistID, songID string) error {
	var setlistBand, songBand string
	err := s.pool.QueryRow(ctx,
		`SELECT ms.band_id, sg.band_id
		 FROM master_setlists ms, songs sg
		 WHERE ms.id = $1 AND sg.id = $2`, setlistID, songID,
	).Scan(&setlistBand, &songBand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("checking setlist and song: %w", err)
	}
	if setlistBand != songBand {
		return ErrWrongBand
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO setlist_songs (setlist_id, song_id, position)
		 SELECT $1, $2, coalesce(max(position), 0) + 1
		 FROM setlist_songs WHERE setlist_id = $1
		 ON CONFLICT (setlist_id, song_id) DO NOTHING`,
		setlistID, songID)
	if err != nil {
		return fmt.Errorf("adding song to setlist: %w", err)
	}
	return nil
}

// RemoveSong removes a song from a setlist.
func (s *Store) RemoveSong(ctx context.Context, setlistID, songID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM setlist_songs WHERE setlist_id = $1 AND song_id = $2`,
		setlistID, songID)
	if err != nil {
		return fmt.Errorf("removing song from setlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSongNotFound
	}
	return nil
}

// Reorder rewrites the positions of a setlist's songs to match the given
// song id order. Songs missing from the list keep their rows but are pushed
// after the reordered ones.
func (s *Store) Reorder(ctx context.Context, setlistID string, songIDs []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, songID := range songIDs {
		_, err := tx.Exec(ctx,
			`UPDATE setlist_songs SET position = $1
			 WHERE setlist_id = $2 AND song_id = $3`,
			i+1, setlistID, songID)
		if err != nil {
			return fmt.Errorf("reordering setlist: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE setlist_songs SET position = $1 + sub.rn
		 FROM (
			SELECT song_id, row_number() OVER (ORDER BY position) AS rn
			FROM setlist_songs
			WHERE setlist_id = $2 AND song_id <> ALL($3)
		 ) sub
		 WHERE setlist_songs.setlist_id = $2 AND setlist_songs.song_id = sub.song_id`,
		len(songIDs), setlistID, songIDs)
	if err != nil {
		return fmt.Errorf("reordering remaining songs: %w", err)
	}

	return tx.Commit(ctx)
}
