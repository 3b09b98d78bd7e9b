package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Registry errors surfaced to callers.
var (
	ErrNotFound   = errors.New("member not found")
	ErrEmailTaken = errors.New("a member with this email already exists in this band")
	ErrLastAdmin  = errors.New("cannot remove the only admin")
)

// DB is the subset of pgxpool.Pool the member store and linker use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store maintains the per-band member roster.
type Store struct {
	db DB
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const memberColumns = `id, band_id, user_id, name, email, phone, role, is_admin, is_active, joined_at`

func scanMember(row pgx.Row) (*Member, error) {
	m := &Member{}
	var userID, email, phone, role sql.NullString
	err := row.Scan(&m.ID, &m.BandID, &userID, &m.Name, &email, &phone, &role, &m.IsAdmin, &m.IsActive, &m.JoinedAt)
	if err != nil {
		return nil, err
	}
	m.UserID = userID.String
	m.Email = email.String
	m.Phone = phone.String
	m.Role = role.String
	return m, nil
}

// Create adds a member to a band. An active member with the same email in
// the same band maps to ErrEmailTaken; uniqueness is band-scoped, the same
// email is fine in a different band. The partial unique index on
// band_members backs the check against concurrent inserts.
func (s *Store) Create(ctx context.Context, bandID string, in CreateMemberInput) (*Member, error) {
	if in.Email != "" {
		var exists bool
		err := s.db.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT 1 FROM band_members
				WHERE band_id = $1 AND lower(email) = lower($2) AND is_active
			 )`, bandID, in.Email,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("checking member email: %w", err)
		}
		if exists {
			return nil, ErrEmailTaken
		}
	}

	query := fmt.Sprintf(`INSERT INTO band_members (band_id, name, email, phone, role, is_admin, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		 RETURNING %s`, memberColumns)

	m, err := scanMember(s.db.QueryRow(ctx, query,
		bandID, in.Name, nullIfEmpty(in.Email), nullIfEmpty(in.Phone), nullIfEmpty(in.Role), in.IsAdmin))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating member: %w", err)
	}
	return m, nil
}

// GetByID retrieves a member by its ID.
func (s *Store) GetByID(ctx context.Context, id string) (*Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM band_members WHERE id = $1`, memberColumns)
	m, err := scanMember(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting member: %w", err)
	}
	return m, nil
}

// ListByBand returns the active members of a band.
func (s *Store) ListByBand(ctx context.Context, bandID string) ([]*Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM band_members
		 WHERE band_id = $1 AND is_active ORDER BY joined_at`, memberColumns)

	rows, err := s.db.Query(ctx, query, bandID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Membership reports whether the user is an active member of the band and
// whether that membership carries admin rights.
func (s *Store) Membership(ctx context.Context, bandID, userID string) (bool, bool, error) {
	var isAdmin bool
	err := s.db.QueryRow(ctx,
		`SELECT is_admin FROM band_members
		 WHERE band_id = $1 AND user_id = $2 AND is_active`,
		bandID, userID,
	).Scan(&isAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("checking membership: %w", err)
	}
	return true, isAdmin, nil
}

// Update applies a partial update to a member and returns the updated row.
func (s *Store) Update(ctx context.Context, id string, in UpdateMemberInput) (*Member, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if in.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *in.Name)
		argIdx++
	}
	if in.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = NULLIF($%d, '')", argIdx))
		args = append(args, *in.Email)
		argIdx++
	}
	if in.Phone != nil {
		setClauses = append(setClauses, fmt.Sprintf("phone = NULLIF($%d, '')", argIdx))
		args = append(args, *in.Phone)
		argIdx++
	}
	if in.Role != nil {
		setClauses = append(setClauses, fmt.Sprintf("role = NULLIF($%d, '')", argIdx))
		args = append(args, *in.Role)
		argIdx++
	}
	if in.IsAdmin != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_admin = $%d", argIdx))
		args = append(args, *in.IsAdmin)
		argIdx++
	}

	if len(setClauses) == 0 {
		return s.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE band_members SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, memberColumns)

	m, err := scanMember(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("updating member: %w", err)
	}
	return m, nil
}

// Delete soft-deletes a member. When the target is the acting user's own
// admin membership, at least one other active admin must remain in the band;
// the admin count runs inside the transaction with the band's member rows
// locked so concurrent removals cannot both pass the check.
func (s *Store) Delete(ctx context.Context, id, actingUserID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`SELECT %s FROM band_members WHERE id = $1 FOR UPDATE`, memberColumns)
	m, err := scanMember(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("getting member: %w", err)
	}

	if m.UserID == actingUserID && m.IsAdmin {
		var otherAdmins int
		err := tx.QueryRow(ctx,
			`SELECT count(*) FROM (
				SELECT 1 FROM band_members
				WHERE band_id = $1 AND id <> $2 AND is_admin AND is_active
				FOR UPDATE
			 ) locked`,
			m.BandID, id,
		).Scan(&otherAdmins)
		if err != nil {
			return fmt.Errorf("counting admins: %w", err)
		}
		if otherAdmins == 0 {
			return ErrLastAdmin
		}
	}

	_, err = tx.Exec(ctx, `UPDATE band_members SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivating member: %w", err)
	}

	return tx.Commit(ctx)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
