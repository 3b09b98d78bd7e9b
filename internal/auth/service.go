package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gigroom/greenroom/internal/user"
)

// Service errors surfaced to callers.
var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInactiveAccount    = errors.New("account is inactive")
)

// UserStore is the subset of the user store the auth service needs.
type UserStore interface {
	Create(ctx context.Context, in user.CreateUserInput) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*user.User, error)
	AttachGoogleID(ctx context.Context, id, googleID string) (*user.User, error)
}

// Linker binds pre-existing guest members to a newly created account.
type Linker interface {
	Link(ctx context.Context, userID, email, name string, syncName bool) (int64, error)
}

// Service implements signup, login, and federated-login reconciliation.
type Service struct {
	users  UserStore
	linker Linker
	tokens *TokenIssuer
}

// NewService creates an auth service.
func NewService(users UserStore, linker Linker, tokens *TokenIssuer) *Service {
	return &Service{users: users, linker: linker, tokens: tokens}
}

// SignupInput holds the fields for a password signup.
type SignupInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Signup registers a new password account. A taken email surfaces
// user.ErrEmailTaken. On success, guest members matching the email are
// linked to the new account and a token is issued.
func (s *Service) Signup(ctx context.Context, in SignupInput) (string, *user.User, error) {
	u, err := s.users.Create(ctx, user.CreateUserInput{
		Email:    in.Email,
		Name:     in.Name,
		Password: in.Password,
	})
	if err != nil {
		return "", nil, err
	}

	// Signup path keeps the name originally entered by whoever created
	// the guest member rows.
	linked, err := s.linker.Link(ctx, u.ID, u.Email, u.Name, false)
	if err != nil {
		return "", nil, fmt.Errorf("linking members: %w", err)
	}
	if linked > 0 {
		slog.Info("linked guest members to new account", "user_id", u.ID, "count", linked)
	}

	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Login authenticates a password account and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !user.CheckPassword(u, password) {
		return "", nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return "", nil, ErrInactiveAccount
	}

	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// GoogleLogin reconciles a federated identity against existing accounts:
// a user already carrying the google id logs straight in; a user matched by
// email gets the google id attached; otherwise a new passwordless account is
// created and guest members are linked with their display name synced from
// the Google profile.
func (s *Service) GoogleLogin(ctx context.Context, identity *GoogleIdentity) (string, *user.User, error) {
	// Providers report emails with arbitrary casing; accounts are keyed by
	// the lowercase form, same as password signup.
	email := strings.ToLower(strings.TrimSpace(identity.Email))

	u, err := s.users.GetByGoogleID(ctx, identity.ID)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return "", nil, err
	}

	if u == nil || errors.Is(err, user.ErrNotFound) {
		existing, err := s.users.GetByEmail(ctx, email)
		switch {
		case err == nil:
			u, err = s.users.AttachGoogleID(ctx, existing.ID, identity.ID)
			if err != nil {
				return "", nil, err
			}
		case errors.Is(err, user.ErrNotFound):
			u, err = s.users.Create(ctx, user.CreateUserInput{
				Email:    email,
				Name:     identity.Name,
				GoogleID: identity.ID,
			})
			if err != nil {
				return "", nil, err
			}

			linked, err := s.linker.Link(ctx, u.ID, u.Email, u.Name, true)
			if err != nil {
				return "", nil, fmt.Errorf("linking members: %w", err)
			}
			if linked > 0 {
				slog.Info("linked guest members to new account", "user_id", u.ID, "count", linked)
			}
		default:
			return "", nil, err
		}
	}

	if !u.IsActive {
		return "", nil, ErrInactiveAccount
	}

	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}
