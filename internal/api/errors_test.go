package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gigroom/greenroom/internal/band"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusConflict, "conflict", "already exists")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var env errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Error.Code != "conflict" || env.Error.Message != "already exists" {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestWriteGateError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"missing band reads as not found", band.ErrNotFound, http.StatusNotFound, "not_found"},
		{"non-member", band.ErrNotMember, http.StatusForbidden, "forbidden"},
		{"member without admin", band.ErrNotAdmin, http.StatusForbidden, "forbidden"},
		{"unexpected error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeGateError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var env errorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatal(err)
			}
			if env.Error.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, env.Error.Code)
			}
		})
	}
}

func TestReadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ana"}`))
	var v struct {
		Name string `json:"name"`
	}
	if err := readJSON(req, &v); err != nil {
		t.Fatal(err)
	}
	if v.Name != "Ana" {
		t.Errorf("got %q", v.Name)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))
	if err := readJSON(req, &v); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}
