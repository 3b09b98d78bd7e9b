package song

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when the requested song does not exist.
var ErrNotFound = errors.New("song not found")

// Store provides database operations for songs.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const songColumns = `id, band_id, title, description, scale, genre, lyrics,
	chord_structure, lyrics_with_chords, is_active, created_at, updated_at`

func scanSong(row pgx.Row) (*Song, error) {
	s := &Song{}
	var description, scale, genre, lyrics, chords, lyricsChords sql.NullString
	err := row.Scan(&s.ID, &s.BandID, &s.Title, &description, &scale, &genre,
		&lyrics, &chords, &lyricsChords, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Description = description.String
	s.Scale = scale.String
	s.Genre = genre.String
	s.Lyrics = lyrics.String
	s.ChordStructure = chords.String
	s.LyricsWithChords = lyricsChords.String
	return s, nil
}

// Create inserts a new song and returns the full row.
func (s *Store) Create(ctx context.Context, in CreateSongInput) (*Song, error) {
	query := fmt.Sprintf(`INSERT INTO songs
		(band_id, title, description, scale, genre, lyrics, chord_structure, lyrics_with_chords)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
		RETURNING %s`, songColumns)

	sg, err := scanSong(s.pool.QueryRow(ctx, query,
		in.BandID, in.Title, in.Description, in.Scale, in.Genre,
		in.Lyrics, in.ChordStructure, in.LyricsWithChords))
	if err != nil {
		return nil, fmt.Errorf("creating song: %w", err)
	}
	return sg, nil
}

// GetByID retrieves a song by its ID.
func (s *Store) GetByID(ctx context.Context, id string) (*Song, error) {
	query := fmt.Sprintf(`SELECT %s FROM songs WHERE id = $1`, songColumns)
	sg, err := scanSong(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting song: %w", err)
	}
	return sg, nil
}

// ListByBand returns the active songs of a band ordered by title.
func (s *Store) ListByBand(ctx context.Context, bandID string) ([]*Song, error) {
	query := fmt.Sprintf(`SELECT %s FROM songs
		 WHERE band_id = $1 AND is_active ORDER BY title`, songColumns)

	rows, err := s.pool.Query(ctx, query, bandID)
	if err != nil {
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	defer rows.Close()

	var songs []*Song
	for rows.Next() {
		sg, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning song: %w", err)
		}
		songs = append(songs, sg)
	}
	return songs, rows.Err()
}

// Update applies a partial update to a song and returns the updated row.
func (s *Store) Update(ctx context.Context, id string, in UpdateSongInput) (*Song, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	set := func(col string, v *string) {
		if v == nil {
			return
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = NULLIF($%d, '')", col, argIdx))
		args = append(args, *v)
		argIdx++
	}

	if in.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argIdx))
		args = append(args, *in.Title)
		argIdx++
	}
	set("description", in.Description)
	set("scale", in.Scale)
	set("genre", in.Genre)
	set("lyrics", in.Lyrics)
	set("chord_structure", in.ChordStructure)
	set("lyrics_with_chords", in.LyricsWithChords)

	if len(setClauses) == 0 {
		return s.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE songs SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, songColumns)

	sg, err := scanSong(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating song: %w", err)
	}
	return sg, nil
}

// Delete removes a song. Setlist join rows are removed by the schema's
// cascade constraint.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM songs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting song: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSetlists returns the setlists a song currently belongs to.
func (s *Store) ListSetlists(ctx context.Context, songID string) ([]SetlistBrief, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ms.id, ms.name FROM master_setlists ms
		 JOIN setlist_songs ss ON ss.setlist_id = ms.id
		 WHERE ss.song_id = $1 ORDER BY ms.name`, songID)
	if err != nil {
		return nil, fmt.Errorf("listing song setlists: %w", err)
	}
	defer rows.Close()

	var setlists []SetlistBrief
	for rows.Next() {
		var b SetlistBrief
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("scanning setlist: %w", err)
		}
		setlists = append(setlists, b)
	}
	return setlists, rows.Err()
}
