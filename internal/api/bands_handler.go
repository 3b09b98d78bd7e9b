package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gigroom/greenroom/internal/auth"
	"github.com/gigroom/greenroom/internal/band"
	"github.com/gigroom/greenroom/internal/blob"
	"github.com/gigroom/greenroom/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// bandsHandler groups band HTTP handlers.
type bandsHandler struct {
	bands         *band.Store
	gate          *band.Gate
	blobs         blob.Store
	metrics       *metrics.Metrics
	maxUploadSize int64
}

func newBandsHandler(bands *band.Store, gate *band.Gate, blobs blob.Store, m *metrics.Metrics, maxUploadSize int64) *bandsHandler {
	return &bandsHandler{
		bands:         bands,
		gate:          gate,
		blobs:         blobs,
		metrics:       m,
		maxUploadSize: maxUploadSize,
	}
}

// CreateBand handles POST /api/v1/bands. The creator becomes the band's
// first admin member.
func (h *bandsHandler) CreateBand(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	var req band.CreateBandInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "band name is required")
		return
	}

	created, err := h.bands.CreateWithAdmin(r.Context(), req, u.ID, u.Name, u.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create band")
		return
	}

	auditLog(r, "create", "band", created.ID, "name", created.Name)
	writeJSON(w, http.StatusCreated, created)
}

// ListBands handles GET /api/v1/bands — the caller's bands only.
func (h *bandsHandler) ListBands(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	bands, err := h.bands.ListForUser(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list bands")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bands": bands})
}

// GetBand handles GET /api/v1/bands/{bandID}.
func (h *bandsHandler) GetBand(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	b, err := h.bands.GetByID(r.Context(), bandID)
	if err != nil {
		if errors.Is(err, band.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "band not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get band")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// UpdateBand handles PUT /api/v1/bands/{bandID}.
func (h *bandsHandler) UpdateBand(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireAdmin(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	var req band.UpdateBandInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "band name cannot be empty")
		return
	}

	updated, err := h.bands.Update(r.Context(), bandID, req)
	if err != nil {
		if errors.Is(err, band.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "band not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update band")
		return
	}

	auditLog(r, "update", "band", bandID)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteBand handles DELETE /api/v1/bands/{bandID}. Members, songs, setlists,
// and shows go with it.
func (h *bandsHandler) DeleteBand(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireAdmin(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	if err := h.bands.Delete(r.Context(), bandID); err != nil {
		if errors.Is(err, band.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "band not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete band")
		return
	}

	auditLog(r, "delete", "band", bandID)
	w.WriteHeader(http.StatusNoContent)
}

// UploadLogo handles POST /api/v1/bands/{bandID}/logo. Expects a multipart
// form with a "file" field.
func (h *bandsHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireAdmin(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	file, header, err := readUpload(w, r, h.maxUploadSize)
	if err != nil {
		return
	}
	defer file.Close()

	path, err := h.blobs.Save(file, header.Filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to store logo")
		return
	}

	previous, err := h.bands.SetLogo(r.Context(), bandID, path)
	if err != nil {
		_ = h.blobs.Remove(path)
		if errors.Is(err, band.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "band not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update band logo")
		return
	}
	if previous != "" && previous != path {
		_ = h.blobs.Remove(previous)
	}

	h.metrics.IncUpload("logo")
	auditLog(r, "upload_logo", "band", bandID, "path", path)
	writeJSON(w, http.StatusOK, map[string]string{"logo_path": path})
}

// DeleteLogo handles DELETE /api/v1/bands/{bandID}/logo.
func (h *bandsHandler) DeleteLogo(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireAdmin(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	previous, err := h.bands.ClearLogo(r.Context(), bandID)
	if err != nil {
		if errors.Is(err, band.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "band not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to remove band logo")
		return
	}
	if previous != "" {
		_ = h.blobs.Remove(previous)
	}

	auditLog(r, "delete_logo", "band", bandID)
	w.WriteHeader(http.StatusNoContent)
}
