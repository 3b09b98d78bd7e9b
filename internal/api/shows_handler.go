package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gigroom/greenroom/internal/auth"
	"github.com/gigroom/greenroom/internal/band"
	"github.com/gigroom/greenroom/internal/blob"
	"github.com/gigroom/greenroom/internal/metrics"
	"github.com/gigroom/greenroom/internal/show"
	"github.com/go-chi/chi/v5"
)

// showsHandler groups show and show payment HTTP handlers.
type showsHandler struct {
	shows         *show.Store
	gate          *band.Gate
	blobs         blob.Store
	metrics       *metrics.Metrics
	maxUploadSize int64
}

func newShowsHandler(shows *show.Store, gate *band.Gate, blobs blob.Store, m *metrics.Metrics, maxUploadSize int64) *showsHandler {
	return &showsHandler{
		shows:         shows,
		gate:          gate,
		blobs:         blobs,
		metrics:       m,
		maxUploadSize: maxUploadSize,
	}
}

// CreateShow handles POST /api/v1/bands/{bandID}/shows.
func (h *showsHandler) CreateShow(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	var req show.CreateShowInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	req.BandID = bandID
	req.Venue = strings.TrimSpace(req.Venue)
	if req.Venue == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "venue is required")
		return
	}
	if req.ShowDate == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "show date is required")
		return
	}
	if req.Status != "" && !show.ValidStatus(req.Status) {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "unknown show status")
		return
	}
	if !validAmount(req.Payment) || !validAmount(req.BandFundAmount) {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "amounts must be decimal numbers")
		return
	}

	created, err := h.shows.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, show.ErrInvalidDate) {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "show date must be YYYY-MM-DD")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create show")
		return
	}

	auditLog(r, "create", "show", created.ID, "band_id", bandID)
	writeJSON(w, http.StatusCreated, created)
}

// ListShows handles GET /api/v1/bands/{bandID}/shows.
func (h *showsHandler) ListShows(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	shows, err := h.shows.ListByBand(r.Context(), bandID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list shows")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"shows": shows})
}

// GetShow handles GET /api/v1/bands/{bandID}/shows/{showID}.
func (h *showsHandler) GetShow(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sh, err := h.loadShow(w, r, bandID)
	if err != nil {
		return
	}
	writeJSON(w, http.StatusOK, sh)
}

// UpdateShow handles PUT /api/v1/bands/{bandID}/shows/{showID}.
func (h *showsHandler) UpdateShow(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sh, err := h.loadShow(w, r, bandID)
	if err != nil {
		return
	}

	var req show.UpdateShowInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Venue != nil && strings.TrimSpace(*req.Venue) == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "venue cannot be empty")
		return
	}
	if req.Status != nil && !show.ValidStatus(*req.Status) {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "unknown show status")
		return
	}
	if (req.Payment != nil && !validAmount(*req.Payment)) ||
		(req.BandFundAmount != nil && !validAmount(*req.BandFundAmount)) {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "amounts must be decimal numbers")
		return
	}

	updated, err := h.shows.Update(r.Context(), sh.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, show.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "show not found")
		case errors.Is(err, show.ErrInvalidDate):
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "show date must be YYYY-MM-DD")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to update show")
		}
		return
	}

	auditLog(r, "update", "show", sh.ID, "band_id", bandID)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteShow handles DELETE /api/v1/bands/{bandID}/shows/{showID}.
func (h *showsHandler) DeleteShow(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sh, err := h.loadShow(w, r, bandID)
	if err != nil {
		return
	}

	if err := h.shows.Delete(r.Context(), sh.ID); err != nil {
		if errors.Is(err, show.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "show not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete show")
		return
	}
	if sh.Poster != "" {
		_ = h.blobs.Remove(sh.Poster)
	}

	auditLog(r, "delete", "show", sh.ID, "band_id", bandID)
	w.WriteHeader(http.StatusNoContent)
}

// UploadPoster handles POST /api/v1/bands/{bandID}/shows/{showID}/poster.
func (h *showsHandler) UploadPoster(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sh, err := h.loadShow(w, r, bandID)
	if err != nil {
		return
	}

	file, header, err := readUpload(w, r, h.maxUploadSize)
	if err != nil {
		return
	}
	defer file.Close()

	path, err := h.blobs.Save(file, header.Filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to store poster")
		return
	}

	previous, err := h.shows.SetPoster(r.Context(), sh.ID, path)
	if err != nil {
		_ = h.blobs.Remove(path)
		if errors.Is(err, show.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "show not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update show poster")
		return
	}
	if previous != "" && previous != path {
		_ = h.blobs.Remove(previous)
	}

	h.metrics.IncUpload("poster")
	auditLog(r, "upload_poster", "show", sh.ID, "path", path)
	writeJSON(w, http.StatusOK, map[string]string{"poster": path})
}

// DeletePoster handles DELETE /api/v1/bands/{bandID}/shows/{showID}/poster.
func (h *showsHandler) DeletePoster(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sh, err := h.loadShow(w, r, bandID)
	if err != nil {
		return
	}

	previous, err := h.shows.ClearPoster(r.Context(), sh.ID)
	if err != nil {
		if errors.Is(err, show.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "show not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to remove show poster")
		return
	}
	if previous != "" {
		_ = h.blobs.Remove(previous)
	}

	auditLog(r, "delete_poster", "show", sh.ID)
	w.WriteHeader(http.StatusNoContent)
}

// CreatePayment handles POST /api/v1/bands/{bandID}/shows/{showID}/payments.
func (h *showsHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sh, err := h.loadShow(w, r, bandID)
	if err != nil {
		return
	}

	var req show.CreatePaymentInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	req.MemberName = strings.TrimSpace(req.MemberName)
	if req.MemberName == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "member name is required")
		return
	}
	if req.Amount == "" || !validAmount(req.Amount) {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "amount must be a decimal number")
		return
	}

	created, err := h.shows.CreatePayment(r.Context(), sh.ID, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to record payment")
		return
	}

	auditLog(r, "create", "show_payment", created.ID, "show_id", sh.ID)
	writeJSON(w, http.StatusCreated, created)
}

// ListPayments handles GET /api/v1/bands/{bandID}/shows/{showID}/payments.
func (h *showsHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sh, err := h.loadShow(w, r, bandID)
	if err != nil {
		return
	}

	payments, err := h.shows.ListPayments(r.Context(), sh.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list payments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
}

// UpdatePayment handles PUT /api/v1/bands/{bandID}/shows/{showID}/payments/{paymentID}.
func (h *showsHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sh, err := h.loadShow(w, r, bandID)
	if err != nil {
		return
	}

	p, err := h.loadPayment(w, r, sh.ID)
	if err != nil {
		return
	}

	var req show.UpdatePaymentInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.MemberName != nil && strings.TrimSpace(*req.MemberName) == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "member name cannot be empty")
		return
	}
	if req.Amount != nil && (*req.Amount == "" || !validAmount(*req.Amount)) {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "amount must be a decimal number")
		return
	}

	updated, err := h.shows.UpdatePayment(r.Context(), p.ID, req)
	if err != nil {
		if errors.Is(err, show.ErrPaymentNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "payment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update payment")
		return
	}

	auditLog(r, "update", "show_payment", p.ID, "show_id", sh.ID)
	writeJSON(w, http.StatusOK, updated)
}

// DeletePayment handles DELETE /api/v1/bands/{bandID}/shows/{showID}/payments/{paymentID}.
func (h *showsHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sh, err := h.loadShow(w, r, bandID)
	if err != nil {
		return
	}

	p, err := h.loadPayment(w, r, sh.ID)
	if err != nil {
		return
	}

	if err := h.shows.DeletePayment(r.Context(), p.ID); err != nil {
		if errors.Is(err, show.ErrPaymentNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "payment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete payment")
		return
	}

	auditLog(r, "delete", "show_payment", p.ID, "show_id", sh.ID)
	w.WriteHeader(http.StatusNoContent)
}

// loadShow fetches the show from the URL and checks it belongs to the band
// in the URL. It writes the error response itself and returns a non-nil
// error when that happened.
func (h *showsHandler) loadShow(w http.ResponseWriter, r *http.Request, bandID string) (*show.Show, error) {
	sh, err := h.shows.GetByID(r.Context(), chi.URLParam(r, "showID"))
	if err != nil {
		if errors.Is(err, show.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "show not found")
			return nil, err
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get show")
		return nil, err
	}
	if sh.BandID != bandID {
		writeError(w, http.StatusNotFound, "not_found", "show not found")
		return nil, errors.New("show belongs to a different band")
	}
	return sh, nil
}

// loadPayment fetches the payment from the URL and checks it belongs to the
// show in the URL.
func (h *showsHandler) loadPayment(w http.ResponseWriter, r *http.Request, showID string) (*show.Payment, error) {
	p, err := h.shows.GetPayment(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		if errors.Is(err, show.ErrPaymentNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "payment not found")
			return nil, err
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get payment")
		return nil, err
	}
	if p.ShowID != showID {
		writeError(w, http.StatusNotFound, "not_found", "payment not found")
		return nil, errors.New("payment belongs to a different show")
	}
	return p, nil
}

// validAmount accepts empty strings and non-negative decimal numbers.
func validAmount(s string) bool {
	if s == "" {
		return true
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f >= 0
}
