package show

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a show does not exist.
	ErrNotFound = errors.New("show not found")
	// ErrPaymentNotFound is returned when a show payment does not exist.
	ErrPaymentNotFound = errors.New("show payment not found")
	// ErrInvalidDate is returned when a show date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid show date")
)

const dateLayout = "2006-01-02"

// Store provides PostgreSQL-backed persistence for shows and their payments.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a show store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const showColumns = `id, band_id, venue, show_date, show_time, event_manager,
	show_members, payment::text, band_fund_amount::text, piece_count, status,
	poster, description, created_at, updated_at`

func scanShow(row pgx.Row) (*Show, error) {
	var (
		s        Show
		showTime sql.NullString
		manager  sql.NullString
		members  []byte
		payment  sql.NullString
		bandFund sql.NullString
		poster   sql.NullString
		desc     sql.NullString
	)
	err := row.Scan(&s.ID, &s.BandID, &s.Venue, &s.ShowDate, &showTime, &manager,
		&members, &payment, &bandFund, &s.PieceCount, &s.Status,
		&poster, &desc, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.ShowTime = showTime.String
	s.EventManager = manager.String
	s.Payment = payment.String
	s.BandFundAmount = bandFund.String
	s.Poster = poster.String
	s.Description = desc.String
	s.ShowMembers = []string{}
	if len(members) > 0 {
		if err := json.Unmarshal(members, &s.ShowMembers); err != nil {
			return nil, fmt.Errorf("decoding show members: %w", err)
		}
	}
	return &s, nil
}

// Create inserts a new show for a band.
func (s *Store) Create(ctx context.Context, in CreateShowInput) (*Show, error) {
	showDate, err := time.Parse(dateLayout, in.ShowDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if in.Status == "" {
		in.Status = StatusUpcoming
	}
	if in.ShowMembers == nil {
		in.ShowMembers = []string{}
	}
	members, err := json.Marshal(in.ShowMembers)
	if err != nil {
		return nil, fmt.Errorf("encoding show members: %w", err)
	}

	query := `
		INSERT INTO shows (band_id, venue, show_date, show_time, event_manager,
			show_members, payment, band_fund_amount, piece_count, status, description)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6,
			NULLIF($7, '')::numeric, NULLIF($8, '')::numeric, $9, $10, NULLIF($11, ''))
		RETURNING ` + showColumns

	row := s.pool.QueryRow(ctx, query, in.BandID, in.Venue, showDate, in.ShowTime,
		in.EventManager, members, in.Payment, in.BandFundAmount, in.PieceCount,
		in.Status, in.Description)
	created, err := scanShow(row)
	if err != nil {
		return nil, fmt.Errorf("creating show: %w", err)
	}
	return created, nil
}

// GetByID retrieves a show by its ID.
func (s *Store) GetByID(ctx context.Context, id string) (*Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows WHERE id = $1`
	found, err := scanShow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting show: %w", err)
	}
	return found, nil
}

// ListByBand returns a band's shows, most recent date first.
func (s *Store) ListByBand(ctx context.Context, bandID string) ([]*Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows WHERE band_id = $1
		ORDER BY show_date DESC, created_at DESC`

	rows, err := s.pool.Query(ctx, query, bandID)
	if err != nil {
		return nil, fmt.Errorf("listing shows: %w", err)
	}
	defer rows.Close()

	shows := []*Show{}
	for rows.Next() {
		sh, err := scanShow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning show: %w", err)
		}
		shows = append(shows, sh)
	}
	return shows, rows.Err()
}

// Update applies a partial update to a show.
func (s *Store) Update(ctx context.Context, id string, in UpdateShowInput) (*Show, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if in.Venue != nil {
		sets = append(sets, "venue = "+arg(*in.Venue))
	}
	if in.ShowDate != nil {
		showDate, err := time.Parse(dateLayout, *in.ShowDate)
		if err != nil {
			return nil, ErrInvalidDate
		}
		sets = append(sets, "show_date = "+arg(showDate))
	}
	if in.ShowTime != nil {
		sets = append(sets, fmt.Sprintf("show_time = NULLIF(%s, '')", arg(*in.ShowTime)))
	}
	if in.EventManager != nil {
		sets = append(sets, fmt.Sprintf("event_manager = NULLIF(%s, '')", arg(*in.EventManager)))
	}
	if in.ShowMembers != nil {
		members, err := json.Marshal(*in.ShowMembers)
		if err != nil {
			return nil, fmt.Errorf("encoding show members: %w", err)
		}
		sets = append(sets, "show_members = "+arg(members))
	}
	if in.Payment != nil {
		sets = append(sets, fmt.Sprintf("payment = NULLIF(%s, '')::numeric", arg(*in.Payment)))
	}
	if in.BandFundAmount != nil {
		sets = append(sets, fmt.Sprintf("band_fund_amount = NULLIF(%s, '')::numeric", arg(*in.BandFundAmount)))
	}
	if in.PieceCount != nil {
		sets = append(sets, "piece_count = "+arg(*in.PieceCount))
	}
	if in.Status != nil {
		sets = append(sets, "status = "+arg(*in.Status))
	}
	if in.Description != nil {
		sets = append(sets, fmt.Sprintf("description = NULLIF(%s, '')", arg(*in.Description)))
	}

	query := `UPDATE shows SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1 RETURNING ` + showColumns

	updated, err := scanShow(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating show: %w", err)
	}
	return updated, nil
}

// SetPoster stores the poster path for a show and returns the previous path,
// empty when the show had none.
func (s *Store) SetPoster(ctx context.Context, id, posterPath string) (string, error) {
	var previous sql.NullString
	err := s.pool.QueryRow(ctx, `SELECT poster FROM shows WHERE id = $1`, id).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("getting show poster: %w", err)
	}

	_, err = s.pool.Exec(ctx, `UPDATE shows SET poster = NULLIF($2, ''), updated_at = now()
		WHERE id = $1`, id, posterPath)
	if err != nil {
		return "", fmt.Errorf("setting show poster: %w", err)
	}
	return previous.String, nil
}

// ClearPoster removes the poster reference from the show, returning the path
// that was cleared so callers can delete the blob.
func (s *Store) ClearPoster(ctx context.Context, id string) (string, error) {
	return s.SetPoster(ctx, id, "")
}

// Delete removes a show. Its payments go with it via cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM shows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting show: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const paymentColumns = `id, show_id, member_name, amount::text, notes, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var (
		p     Payment
		notes sql.NullString
	)
	err := row.Scan(&p.ID, &p.ShowID, &p.MemberName, &p.Amount, &notes,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Notes = notes.String
	return &p, nil
}

// CreatePayment records a payment against a show.
func (s *Store) CreatePayment(ctx context.Context, showID string, in CreatePaymentInput) (*Payment, error) {
	query := `
		INSERT INTO show_payments (show_id, member_name, amount, notes)
		VALUES ($1, $2, $3::numeric, NULLIF($4, ''))
		RETURNING ` + paymentColumns

	created, err := scanPayment(s.pool.QueryRow(ctx, query, showID, in.MemberName, in.Amount, in.Notes))
	if err != nil {
		return nil, fmt.Errorf("creating show payment: %w", err)
	}
	return created, nil
}

// GetPayment retrieves a payment by its ID.
func (s *Store) GetPayment(ctx context.Context, id string) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM show_payments WHERE id = $1`
	found, err := scanPayment(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("getting show payment: %w", err)
	}
	return found, nil
}

// ListPayments returns the payments recorded for a show.
func (s *Store) ListPayments(ctx context.Context, showID string) ([]*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM show_payments WHERE show_id = $1
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, showID)
	if err != nil {
		return nil, fmt.Errorf("listing show payments: %w", err)
	}
	defer rows.Close()

	payments := []*Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning show payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// UpdatePayment applies a partial update to a payment.
func (s *Store) UpdatePayment(ctx context.Context, id string, in UpdatePaymentInput) (*Payment, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if in.MemberName != nil {
		sets = append(sets, "member_name = "+arg(*in.MemberName))
	}
	if in.Amount != nil {
		sets = append(sets, fmt.Sprintf("amount = %s::numeric", arg(*in.Amount)))
	}
	if in.Notes != nil {
		sets = append(sets, fmt.Sprintf("notes = NULLIF(%s, '')", arg(*in.Notes)))
	}

	query := `UPDATE show_payments SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1 RETURNING ` + paymentColumns

	updated, err := scanPayment(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("updating show payment: %w", err)
	}
	return updated, nil
}

// DeletePayment removes a payment record.
func (s *Store) DeletePayment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM show_payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting show payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
