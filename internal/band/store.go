package band

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when the requested band does not exist.
var ErrNotFound = errors.New("band not found")

// Store provides database operations for bands.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const bandColumns = `id, name, description, logo_path, founded_on, created_at, updated_at`

func scanBand(row pgx.Row) (*Band, error) {
	b := &Band{}
	var description, logoPath sql.NullString
	var foundedOn sql.NullTime
	err := row.Scan(&b.ID, &b.Name, &description, &logoPath, &foundedOn, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Description = description.String
	b.LogoPath = logoPath.String
	if foundedOn.Valid {
		t := foundedOn.Time
		b.FoundedOn = &t
	}
	return b, nil
}

// CreateWithAdmin creates a band and its first member (the creating user,
// as an active admin) in one transaction.
func (s *Store) CreateWithAdmin(ctx context.Context, in CreateBandInput, userID, userName, userEmail string) (*Band, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`INSERT INTO bands (name, description, founded_on)
		 VALUES ($1, $2, $3) RETURNING %s`, bandColumns)
	b, err := scanBand(tx.QueryRow(ctx, query, in.Name, nullIfEmpty(in.Description), in.FoundedOn))
	if err != nil {
		return nil, fmt.Errorf("creating band: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO band_members (band_id, user_id, name, email, is_admin, is_active)
		 VALUES ($1, $2, $3, $4, TRUE, TRUE)`,
		b.ID, userID, userName, userEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("creating admin member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return b, nil
}

// GetByID retrieves a band by its ID.
func (s *Store) GetByID(ctx context.Context, id string) (*Band, error) {
	query := fmt.Sprintf(`SELECT %s FROM bands WHERE id = $1`, bandColumns)
	b, err := scanBand(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting band: %w", err)
	}
	return b, nil
}

// ListForUser returns the bands where the user has an active membership,
// ordered by creation time.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]*Band, error) {
	query := fmt.Sprintf(`SELECT %s FROM bands b
		 WHERE EXISTS (
			SELECT 1 FROM band_members m
			WHERE m.band_id = b.id AND m.user_id = $1 AND m.is_active
		 )
		 ORDER BY b.created_at`, prefixedBandColumns("b"))

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing bands: %w", err)
	}
	defer rows.Close()

	var bands []*Band
	for rows.Next() {
		b, err := scanBand(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning band: %w", err)
		}
		bands = append(bands, b)
	}
	return bands, rows.Err()
}

// Update applies a partial update to a band and returns the updated row.
func (s *Store) Update(ctx context.Context, id string, in UpdateBandInput) (*Band, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if in.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *in.Name)
		argIdx++
	}
	if in.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *in.Description)
		argIdx++
	}
	if in.FoundedOn != nil {
		setClauses = append(setClauses, fmt.Sprintf("founded_on = $%d", argIdx))
		args = append(args, *in.FoundedOn)
		argIdx++
	}

	if len(setClauses) == 0 {
		return s.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE bands SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, bandColumns)

	b, err := scanBand(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating band: %w", err)
	}
	return b, nil
}

// SetLogo stores the logo reference on the band, returning the previous
// reference so callers can remove the old blob.
func (s *Store) SetLogo(ctx context.Context, id, logoPath string) (string, error) {
	var previous sql.NullString
	err := s.pool.QueryRow(ctx, `SELECT logo_path FROM bands WHERE id = $1`, id).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("getting band logo: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE bands SET logo_path = NULLIF($1, ''), updated_at = now() WHERE id = $2`,
		logoPath, id,
	)
	if err != nil {
		return "", fmt.Errorf("setting band logo: %w", err)
	}
	return previous.String, nil
}

// ClearLogo removes the logo reference from the band, returning the path
// that was cleared so callers can delete the blob.
func (s *Store) ClearLogo(ctx context.Context, id string) (string, error) {
	return s.SetLogo(ctx, id, "")
}

// Delete removes a band. Members, songs, setlists, and shows are removed by
// the schema's cascade constraints.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bands WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting band: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func prefixedBandColumns(alias string) string {
	cols := strings.Split(bandColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Exists reports whether a band with the given id exists.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bands WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking band existence: %w", err)
	}
	return ok, nil
}
