package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestReadUpload(t *testing.T) {
	body, contentType := multipartBody(t, "file", "logo.PNG", "png bytes")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	file, header, err := readUpload(rec, req, 1<<20)
	if err != nil {
		t.Fatalf("readUpload failed: %v (%s)", err, rec.Body.String())
	}
	defer file.Close()

	if header.Filename != "logo.PNG" {
		t.Errorf("unexpected filename %q", header.Filename)
	}
	data, _ := io.ReadAll(file)
	if string(data) != "png bytes" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestReadUploadRejectsExtension(t *testing.T) {
	body, contentType := multipartBody(t, "file", "malware.exe", "nope")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	if _, _, err := readUpload(rec, req, 1<<20); err == nil {
		t.Fatal("expected rejection of non-image extension")
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestReadUploadMissingField(t *testing.T) {
	body, contentType := multipartBody(t, "attachment", "logo.png", "png bytes")
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	if _, _, err := readUpload(rec, req, 1<<20); err == nil {
		t.Fatal("expected an error for a missing file field")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReadUploadTooLarge(t *testing.T) {
	body, contentType := multipartBody(t, "file", "big.png", string(bytes.Repeat([]byte{'a'}, 4096)))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	if _, _, err := readUpload(rec, req, 128); err == nil {
		t.Fatal("expected an error for an oversized upload")
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestValidAmount(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"0", true},
		{"125.50", true},
		{"-1", false},
		{"abc", false},
	}
	for _, tt := range tests {
		if got := validAmount(tt.in); got != tt.want {
			t.Errorf("validAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
