package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gigroom/greenroom/internal/auth"
	"github.com/gigroom/greenroom/internal/band"
	"github.com/gigroom/greenroom/internal/setlist"
	"github.com/go-chi/chi/v5"
)

// setlistsHandler groups master setlist HTTP handlers.
type setlistsHandler struct {
	setlists *setlist.Store
	gate     *band.Gate
}

func newSetlistsHandler(setlists *setlist.Store, gate *band.Gate) *setlistsHandler {
	return &setlistsHandler{setlists: setlists, gate: gate}
}

// setlistResponse is a setlist together with its ordered songs.
type setlistResponse struct {
	*setlist.MasterSetlist
	Songs []setlist.SetlistSong `json:"songs"`
}

// CreateSetlist handles POST /api/v1/bands/{bandID}/setlists.
func (h *setlistsHandler) CreateSetlist(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	var req setlist.CreateSetlistInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	req.BandID = bandID
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "setlist name is required")
		return
	}

	created, err := h.setlists.Create(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create setlist")
		return
	}

	auditLog(r, "create", "setlist", created.ID, "band_id", bandID)
	writeJSON(w, http.StatusCreated, created)
}

// ListSetlists handles GET /api/v1/bands/{bandID}/setlists.
func (h *setlistsHandler) ListSetlists(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	setlists, err := h.setlists.ListByBand(r.Context(), bandID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list setlists")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"setlists": setlists})
}

// GetSetlist handles GET /api/v1/bands/{bandID}/setlists/{setlistID},
// returning the setlist with its ordered songs.
func (h *setlistsHandler) GetSetlist(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sl, err := h.loadSetlist(w, r, bandID)
	if err != nil {
		return
	}

	songs, err := h.setlists.ListSongs(r.Context(), sl.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list setlist songs")
		return
	}
	if songs == nil {
		songs = []setlist.SetlistSong{}
	}
	writeJSON(w, http.StatusOK, setlistResponse{MasterSetlist: sl, Songs: songs})
}

// UpdateSetlist handles PUT /api/v1/bands/{bandID}/setlists/{setlistID}.
func (h *setlistsHandler) UpdateSetlist(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sl, err := h.loadSetlist(w, r, bandID)
	if err != nil {
		return
	}

	var req setlist.UpdateSetlistInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "setlist name cannot be empty")
		return
	}

	updated, err := h.setlists.Update(r.Context(), sl.ID, req)
	if err != nil {
		if errors.Is(err, setlist.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "setlist not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update setlist")
		return
	}

	auditLog(r, "update", "setlist", sl.ID, "band_id", bandID)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteSetlist handles DELETE /api/v1/bands/{bandID}/setlists/{setlistID}.
// Songs themselves survive; only the collection goes away.
func (h *setlistsHandler) DeleteSetlist(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sl, err := h.loadSetlist(w, r, bandID)
	if err != nil {
		return
	}

	if err := h.setlists.Delete(r.Context(), sl.ID); err != nil {
		if errors.Is(err, setlist.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "setlist not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete setlist")
		return
	}

	auditLog(r, "delete", "setlist", sl.ID, "band_id", bandID)
	w.WriteHeader(http.StatusNoContent)
}

// AddSong handles POST /api/v1/bands/{bandID}/setlists/{setlistID}/songs/{songID}.
// The song is appended at the end; adding it twice is a no-op.
func (h *setlistsHandler) AddSong(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sl, err := h.loadSetlist(w, r, bandID)
	if err != nil {
		return
	}

	songID := chi.URLParam(r, "songID")
	if err := h.setlists.AddSong(r.Context(), sl.ID, songID); err != nil {
		switch {
		case errors.Is(err, setlist.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "song not found")
		case errors.Is(err, setlist.ErrWrongBand):
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "song does not belong to this band")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to add song to setlist")
		}
		return
	}

	auditLog(r, "add_song", "setlist", sl.ID, "song_id", songID)
	w.WriteHeader(http.StatusNoContent)
}

// RemoveSong handles DELETE /api/v1/bands/{bandID}/setlists/{setlistID}/songs/{songID}.
func (h *setlistsHandler) RemoveSong(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sl, err := h.loadSetlist(w, r, bandID)
	if err != nil {
		return
	}

	songID := chi.URLParam(r, "songID")
	if err := h.setlists.RemoveSong(r.Context(), sl.ID, songID); err != nil {
		if errors.Is(err, setlist.ErrSongNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "song is not on this setlist")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to remove song from setlist")
		return
	}

	auditLog(r, "remove_song", "setlist", sl.ID, "song_id", songID)
	w.WriteHeader(http.StatusNoContent)
}

// ReorderSongs handles PUT /api/v1/bands/{bandID}/setlists/{setlistID}/order.
// The body carries song IDs in their new order; songs left out keep their
// relative order after the listed ones.
func (h *setlistsHandler) ReorderSongs(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	sl, err := h.loadSetlist(w, r, bandID)
	if err != nil {
		return
	}

	var req struct {
		SongIDs []string `json:"song_ids"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	if err := h.setlists.Reorder(r.Context(), sl.ID, req.SongIDs); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to reorder setlist")
		return
	}

	songs, err := h.setlists.ListSongs(r.Context(), sl.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list setlist songs")
		return
	}
	if songs == nil {
		songs = []setlist.SetlistSong{}
	}

	auditLog(r, "reorder", "setlist", sl.ID, "band_id", bandID)
	writeJSON(w, http.StatusOK, setlistResponse{MasterSetlist: sl, Songs: songs})
}

// loadSetlist fetches the setlist from the URL and checks it belongs to the
// band in the URL. It writes the error response itself and returns a non-nil
// error when that happened.
func (h *setlistsHandler) loadSetlist(w http.ResponseWriter, r *http.Request, bandID string) (*setlist.MasterSetlist, error) {
	sl, err := h.setlists.GetByID(r.Context(), chi.URLParam(r, "setlistID"))
	if err != nil {
		if errors.Is(err, setlist.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "setlist not found")
			return nil, err
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get setlist")
		return nil, err
	}
	if sl.BandID != bandID {
		writeError(w, http.StatusNotFound, "not_found", "setlist not found")
		return nil, errors.New("setlist belongs to a different band")
	}
	return sl, nil
}
