package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gigroom/greenroom/internal/blob"
	"github.com/go-chi/chi/v5"
)

// imageExtensions lists the upload extensions the service accepts for logos
// and posters.
var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// readUpload parses a multipart "file" field, enforcing the size limit and
// image extension whitelist. It writes the error response itself and returns
// a non-nil error when that happened.
func readUpload(w http.ResponseWriter, r *http.Request, maxSize int64) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", "uploaded file exceeds the size limit")
			return nil, nil, err
		}
		writeError(w, http.StatusBadRequest, "invalid_body", "expected a multipart form with a file field")
		return nil, nil, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "missing file field")
		return nil, nil, err
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := imageExtensions[ext]; !ok {
		file.Close()
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "only jpg, png, gif, and webp images are accepted")
		return nil, nil, errors.New("unsupported file extension")
	}

	return file, header, nil
}

// filesHandler serves stored uploads back to clients.
type filesHandler struct {
	blobs blob.Store
}

func newFilesHandler(blobs blob.Store) *filesHandler {
	return &filesHandler{blobs: blobs}
}

// GetFile handles GET /api/v1/files/{name}.
func (h *filesHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	f, err := h.blobs.Open(name)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "file not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to open file")
		return
	}
	defer f.Close()

	if ct, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = io.Copy(w, f)
}
