package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gigroom/greenroom/internal/auth"
	"github.com/gigroom/greenroom/internal/blob"
	"github.com/gigroom/greenroom/internal/metrics"
	"github.com/gigroom/greenroom/internal/ratelimit"
	"github.com/gigroom/greenroom/internal/user"
	"golang.org/x/crypto/bcrypt"
)

// memUserStore backs the auth service with an in-memory account map.
type memUserStore struct {
	byEmail map[string]*user.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byEmail: map[string]*user.User{}}
}

func (m *memUserStore) Create(_ context.Context, in user.CreateUserInput) (*user.User, error) {
	if _, ok := m.byEmail[in.Email]; ok {
		return nil, user.ErrEmailTaken
	}
	u := &user.User{
		ID:       "u-" + in.Email,
		Email:    in.Email,
		Name:     in.Name,
		GoogleID: in.GoogleID,
		IsActive: true,
	}
	if in.Password != "" {
		hash, _ := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.MinCost)
		u.PasswordHash = string(hash)
	}
	m.byEmail[u.Email] = u
	return u, nil
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func (m *memUserStore) GetByGoogleID(_ context.Context, googleID string) (*user.User, error) {
	for _, u := range m.byEmail {
		if u.GoogleID == googleID {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *memUserStore) AttachGoogleID(_ context.Context, id, googleID string) (*user.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			u.GoogleID = googleID
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

type noopLinker struct{}

func (noopLinker) Link(context.Context, string, string, string, bool) (int64, error) {
	return 0, nil
}

func newTestRouter(t *testing.T, limiterRate int) http.Handler {
	t.Helper()

	blobs, err := blob.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	svc := auth.NewService(newMemUserStore(), noopLinker{}, tokens)

	return NewRouter(RouterDeps{
		Gate:           nil,
		Auth:           svc,
		Tokens:         tokens,
		Blobs:          blobs,
		Limiter:        ratelimit.New(limiterRate, time.Minute),
		Metrics:        metrics.New(),
		FrontendURL:    "http://localhost:3000",
		AllowedOrigins: []string{"*"},
		MaxUploadSize:  1 << 20,
	})
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, 100)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}
}

func TestSignupLoginFlow(t *testing.T) {
	router := newTestRouter(t, 100)

	do := func(path string, body map[string]string) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := do("/api/v1/auth/signup", map[string]string{
		"email":    "Ana@Example.com",
		"name":     "Ana",
		"password": "correct horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Token string     `json:"token"`
		User  *user.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Token == "" {
		t.Error("expected a session token")
	}
	if created.User.Email != "ana@example.com" {
		t.Errorf("expected normalized email, got %q", created.User.Email)
	}

	if rec := do("/api/v1/auth/signup", map[string]string{
		"email": "ana@example.com", "name": "Ana", "password": "correct horse",
	}); rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup: expected 409, got %d", rec.Code)
	}

	if rec := do("/api/v1/auth/login", map[string]string{
		"email": "ana@example.com", "password": "correct horse",
	}); rec.Code != http.StatusOK {
		t.Errorf("login: expected 200, got %d", rec.Code)
	}

	if rec := do("/api/v1/auth/login", map[string]string{
		"email": "ana@example.com", "password": "wrong",
	}); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login: expected 401, got %d", rec.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	router := newTestRouter(t, 100)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"bad email", map[string]string{"email": "not-an-email", "name": "A", "password": "long enough"}},
		{"missing name", map[string]string{"email": "a@b.co", "name": "", "password": "long enough"}},
		{"short password", map[string]string{"email": "a@b.co", "name": "A", "password": "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(raw))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rec.Code)
			}
		})
	}
}

func TestAuthRequiredRoutes(t *testing.T) {
	router := newTestRouter(t, 100)

	// A 401 (rather than chi's 404/405) proves the route is registered
	// inside the authenticated subtree.
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodGet, "/api/v1/bands"},
		{http.MethodPost, "/api/v1/bands/b-1/logo"},
		{http.MethodDelete, "/api/v1/bands/b-1/logo"},
		{http.MethodPost, "/api/v1/bands/b-1/shows/s-1/poster"},
		{http.MethodDelete, "/api/v1/bands/b-1/shows/s-1/poster"},
	}

	for _, rt := range routes {
		req := httptest.NewRequest(rt.method, rt.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without a token, got %d", rt.method, rt.path, rec.Code)
		}
	}
}

func TestAuthRateLimit(t *testing.T) {
	router := newTestRouter(t, 2)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.9:1234"
		last = httptest.NewRecorder()
		router.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on the third attempt, got %d", last.Code)
	}
	if last.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected exhausted rate limit headers, got %q", last.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestGetFile(t *testing.T) {
	blobs, err := blob.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	name, err := blobs.Save(strings.NewReader("fake png"), "poster.png")
	if err != nil {
		t.Fatal(err)
	}

	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	router := NewRouter(RouterDeps{
		Auth:          auth.NewService(newMemUserStore(), noopLinker{}, tokens),
		Tokens:        tokens,
		Blobs:         blobs,
		Limiter:       ratelimit.New(100, time.Minute),
		Metrics:       metrics.New(),
		MaxUploadSize: 1 << 20,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/"+name, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if rec.Body.String() != "fake png" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/files/missing.png", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a missing file, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, 100)

	// Generate one request so the summary has something to report.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summary map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("metrics summary is not JSON: %v", err)
	}
	if _, ok := summary["http"]; !ok {
		t.Error("expected an http section in the summary")
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, 100)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected wildcard allow origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
