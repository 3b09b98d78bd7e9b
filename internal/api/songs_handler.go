package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gigroom/greenroom/internal/auth"
	"github.com/gigroom/greenroom/internal/band"
	"github.com/gigroom/greenroom/internal/setlist"
	"github.com/gigroom/greenroom/internal/song"
	"github.com/go-chi/chi/v5"
)

// songsHandler groups song HTTP handlers.
type songsHandler struct {
	songs    *song.Store
	setlists *setlist.Store
	gate     *band.Gate
}

func newSongsHandler(songs *song.Store, setlists *setlist.Store, gate *band.Gate) *songsHandler {
	return &songsHandler{songs: songs, setlists: setlists, gate: gate}
}

// songResponse is a song together with the setlists it appears on.
type songResponse struct {
	*song.Song
	Setlists []song.SetlistBrief `json:"setlists"`
}

// CreateSong handles POST /api/v1/bands/{bandID}/songs. Setlist IDs in the
// body attach the new song to those setlists.
func (h *songsHandler) CreateSong(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	var req song.CreateSongInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	req.BandID = bandID
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "song title is required")
		return
	}

	created, err := h.songs.Create(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create song")
		return
	}

	for _, setlistID := range req.SetlistIDs {
		if err := h.setlists.AddSong(r.Context(), setlistID, created.ID); err != nil {
			switch {
			case errors.Is(err, setlist.ErrNotFound), errors.Is(err, setlist.ErrWrongBand):
				writeError(w, http.StatusUnprocessableEntity, "validation_error", "setlist "+setlistID+" does not belong to this band")
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", "failed to add song to setlist")
			}
			return
		}
	}

	auditLog(r, "create", "song", created.ID, "band_id", bandID)
	h.writeSongWithSetlists(w, r, http.StatusCreated, created)
}

// ListSongs handles GET /api/v1/bands/{bandID}/songs.
func (h *songsHandler) ListSongs(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	songs, err := h.songs.ListByBand(r.Context(), bandID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list songs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"songs": songs})
}

// GetSong handles GET /api/v1/bands/{bandID}/songs/{songID}.
func (h *songsHandler) GetSong(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	s, err := h.loadSong(w, r, bandID)
	if err != nil {
		return
	}
	h.writeSongWithSetlists(w, r, http.StatusOK, s)
}

// UpdateSong handles PUT /api/v1/bands/{bandID}/songs/{songID}.
func (h *songsHandler) UpdateSong(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	s, err := h.loadSong(w, r, bandID)
	if err != nil {
		return
	}

	var req song.UpdateSongInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "song title cannot be empty")
		return
	}

	updated, err := h.songs.Update(r.Context(), s.ID, req)
	if err != nil {
		if errors.Is(err, song.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "song not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update song")
		return
	}

	auditLog(r, "update", "song", s.ID, "band_id", bandID)
	h.writeSongWithSetlists(w, r, http.StatusOK, updated)
}

// UpdateSongSetlists handles PUT /api/v1/bands/{bandID}/songs/{songID}/setlists.
// The body carries the full set of setlist IDs the song should appear on;
// membership is reconciled against it.
func (h *songsHandler) UpdateSongSetlists(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	s, err := h.loadSong(w, r, bandID)
	if err != nil {
		return
	}

	var req struct {
		SetlistIDs []string `json:"setlist_ids"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	current, err := h.songs.ListSetlists(r.Context(), s.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list song setlists")
		return
	}

	wanted := make(map[string]bool, len(req.SetlistIDs))
	for _, id := range req.SetlistIDs {
		wanted[id] = true
	}
	existing := make(map[string]bool, len(current))
	for _, sl := range current {
		existing[sl.ID] = true
	}

	for _, sl := range current {
		if !wanted[sl.ID] {
			if err := h.setlists.RemoveSong(r.Context(), sl.ID, s.ID); err != nil {
				writeError(w, http.StatusInternalServerError, "internal_error", "failed to remove song from setlist")
				return
			}
		}
	}
	for _, id := range req.SetlistIDs {
		if existing[id] {
			continue
		}
		if err := h.setlists.AddSong(r.Context(), id, s.ID); err != nil {
			switch {
			case errors.Is(err, setlist.ErrNotFound), errors.Is(err, setlist.ErrWrongBand):
				writeError(w, http.StatusUnprocessableEntity, "validation_error", "setlist "+id+" does not belong to this band")
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", "failed to add song to setlist")
			}
			return
		}
	}

	auditLog(r, "update_setlists", "song", s.ID, "band_id", bandID)
	h.writeSongWithSetlists(w, r, http.StatusOK, s)
}

// DeleteSong handles DELETE /api/v1/bands/{bandID}/songs/{songID}.
func (h *songsHandler) DeleteSong(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	s, err := h.loadSong(w, r, bandID)
	if err != nil {
		return
	}

	if err := h.songs.Delete(r.Context(), s.ID); err != nil {
		if errors.Is(err, song.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "song not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete song")
		return
	}

	auditLog(r, "delete", "song", s.ID, "band_id", bandID)
	w.WriteHeader(http.StatusNoContent)
}

// loadSong fetches the song from the URL and checks it belongs to the band
// in the URL. It writes the error response itself and returns a non-nil
// error when that happened.
func (h *songsHandler) loadSong(w http.ResponseWriter, r *http.Request, bandID string) (*song.Song, error) {
	s, err := h.songs.GetByID(r.Context(), chi.URLParam(r, "songID"))
	if err != nil {
		if errors.Is(err, song.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "song not found")
			return nil, err
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get song")
		return nil, err
	}
	if s.BandID != bandID {
		writeError(w, http.StatusNotFound, "not_found", "song not found")
		return nil, errors.New("song belongs to a different band")
	}
	return s, nil
}

func (h *songsHandler) writeSongWithSetlists(w http.ResponseWriter, r *http.Request, status int, s *song.Song) {
	setlists, err := h.songs.ListSetlists(r.Context(), s.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list song setlists")
		return
	}
	if setlists == nil {
		setlists = []song.SetlistBrief{}
	}
	writeJSON(w, status, songResponse{Song: s, Setlists: setlists})
}
