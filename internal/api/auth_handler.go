package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gigroom/greenroom/internal/auth"
	"github.com/gigroom/greenroom/internal/metrics"
	"github.com/gigroom/greenroom/internal/user"
)

// authHandler groups authentication HTTP handlers.
type authHandler struct {
	auth        *auth.Service
	google      *auth.GoogleClient
	metrics     *metrics.Metrics
	frontendURL string
}

func newAuthHandler(svc *auth.Service, google *auth.GoogleClient, m *metrics.Metrics, frontendURL string) *authHandler {
	return &authHandler{
		auth:        svc,
		google:      google,
		metrics:     m,
		frontendURL: frontendURL,
	}
}

// tokenResponse is returned by every endpoint that establishes a session.
type tokenResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// Signup handles POST /api/v1/auth/signup.
func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "a valid email is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "name is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "password must be at least 8 characters")
		return
	}

	token, u, err := h.auth.Signup(r.Context(), req)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "conflict", "an account with this email already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create account")
		return
	}

	h.metrics.IncAuthSuccess("signup")
	auditLog(r, "signup", "user", u.ID)
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, User: u})
}

// Login handles POST /api/v1/auth/login.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	token, u, err := h.auth.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			h.metrics.IncAuthFailure("password")
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		case errors.Is(err, auth.ErrInactiveAccount):
			h.metrics.IncAuthFailure("password")
			writeError(w, http.StatusForbidden, "account_disabled", "this account has been disabled")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to log in")
		}
		return
	}

	h.metrics.IncAuthSuccess("password")
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: u})
}

// Me handles GET /api/v1/auth/me.
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

const stateCookie = "greenroom_oauth_state"

// GoogleRedirect handles GET /api/v1/auth/google. It sets a state cookie and
// sends the browser to Google's consent screen.
func (h *authHandler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback handles GET /api/v1/auth/google/callback. Google redirects
// here with a code; on success the browser is sent to the frontend with a
// session token in the fragment-free query string.
func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.metrics.IncAuthFailure("google")
		writeError(w, http.StatusBadRequest, "invalid_state", "oauth state mismatch")
		return
	}
	// One-shot state.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		h.metrics.IncAuthFailure("google")
		writeError(w, http.StatusBadRequest, "invalid_code", "missing authorization code")
		return
	}

	token, u, err := h.exchangeAndLogin(w, r, code)
	if err != nil {
		return
	}

	auditLog(r, "google_login", "user", u.ID)
	redirect := strings.TrimSuffix(h.frontendURL, "/") + "/auth/callback?token=" + url.QueryEscape(token)
	http.Redirect(w, r, redirect, http.StatusTemporaryRedirect)
}

// GoogleToken handles POST /api/v1/auth/google. SPA clients that ran the
// consent flow themselves post the authorization code and get a token back
// as JSON.
func (h *authHandler) GoogleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := readJSON(r, &req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "authorization code is required")
		return
	}

	token, u, err := h.exchangeAndLogin(w, r, req.Code)
	if err != nil {
		return
	}

	auditLog(r, "google_login", "user", u.ID)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: u})
}

// exchangeAndLogin trades the authorization code for a Google identity and
// reconciles it into an account. It writes the error response itself and
// returns a non-nil error when that happened.
func (h *authHandler) exchangeAndLogin(w http.ResponseWriter, r *http.Request, code string) (string, *user.User, error) {
	identity, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.metrics.IncAuthFailure("google")
		writeError(w, http.StatusUnauthorized, "invalid_code", "failed to verify Google authorization code")
		return "", nil, err
	}

	token, u, err := h.auth.GoogleLogin(r.Context(), identity)
	if err != nil {
		if errors.Is(err, auth.ErrInactiveAccount) {
			h.metrics.IncAuthFailure("google")
			writeError(w, http.StatusForbidden, "account_disabled", "this account has been disabled")
			return "", nil, err
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to log in with Google")
		return "", nil, err
	}

	h.metrics.IncAuthSuccess("google")
	return token, u, nil
}

// generateState produces a random state value for the OAuth flow.
func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
