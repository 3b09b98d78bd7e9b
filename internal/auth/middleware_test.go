package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gigroom/greenroom/internal/user"
)

type mockUserLookup struct {
	users map[string]*user.User
}

func (m *mockUserLookup) GetByID(_ context.Context, id string) (*user.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	lookup := &mockUserLookup{users: map[string]*user.User{
		"u-1": {ID: "u-1", Email: "ana@example.com", IsActive: true},
		"u-2": {ID: "u-2", Email: "off@example.com", IsActive: false},
	}}

	activeToken, err := issuer.Issue("u-1", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	inactiveToken, err := issuer.Issue("u-2", "off@example.com")
	if err != nil {
		t.Fatal(err)
	}
	goneToken, err := issuer.Issue("u-gone", "gone@example.com")
	if err != nil {
		t.Fatal(err)
	}

	var gotUser *user.User
	handler := Middleware(issuer, lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"deleted account", "Bearer " + goneToken, http.StatusUnauthorized},
		{"inactive account", "Bearer " + inactiveToken, http.StatusForbidden},
		{"valid token", "Bearer " + activeToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK {
				if gotUser == nil || gotUser.ID != "u-1" {
					t.Errorf("expected user u-1 in context, got %+v", gotUser)
				}
			} else if gotUser != nil {
				t.Errorf("handler ran despite rejection")
			}
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"no scheme", "abc123", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"bearer", "Bearer abc123", "abc123"},
		{"case insensitive scheme", "bearer abc123", "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := ExtractBearerToken(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
