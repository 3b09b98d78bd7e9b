package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gigroom/greenroom/internal/auth"
	"github.com/gigroom/greenroom/internal/band"
	"github.com/gigroom/greenroom/internal/member"
	"github.com/go-chi/chi/v5"
)

// membersHandler groups band member HTTP handlers.
type membersHandler struct {
	members *member.Store
	gate    *band.Gate
}

func newMembersHandler(members *member.Store, gate *band.Gate) *membersHandler {
	return &membersHandler{members: members, gate: gate}
}

// CreateMember handles POST /api/v1/bands/{bandID}/members. New members
// start as unlinked guests; signup or Google login under the same email
// links them later.
func (h *membersHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireAdmin(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	var req member.CreateMemberInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "member name is required")
		return
	}
	if req.Email != "" && !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "member email is invalid")
		return
	}

	created, err := h.members.Create(r.Context(), bandID, req)
	if err != nil {
		if errors.Is(err, member.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "conflict", "a member with this email already exists in this band")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to add member")
		return
	}

	auditLog(r, "create", "member", created.ID, "band_id", bandID)
	writeJSON(w, http.StatusCreated, created)
}

// ListMembers handles GET /api/v1/bands/{bandID}/members.
func (h *membersHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	members, err := h.members.ListByBand(r.Context(), bandID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list members")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

// GetMember handles GET /api/v1/bands/{bandID}/members/{memberID}.
func (h *membersHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireMember(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	m, err := h.loadMember(w, r, bandID)
	if err != nil {
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// UpdateMember handles PUT /api/v1/bands/{bandID}/members/{memberID}.
func (h *membersHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireAdmin(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	m, err := h.loadMember(w, r, bandID)
	if err != nil {
		return
	}

	var req member.UpdateMemberInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "member name cannot be empty")
		return
	}

	updated, err := h.members.Update(r.Context(), m.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, member.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "member not found")
		case errors.Is(err, member.ErrEmailTaken):
			writeError(w, http.StatusConflict, "conflict", "a member with this email already exists in this band")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to update member")
		}
		return
	}

	auditLog(r, "update", "member", m.ID, "band_id", bandID)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteMember handles DELETE /api/v1/bands/{bandID}/members/{memberID}.
// Admins removing their own membership are refused when no other admin
// would remain.
func (h *membersHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	bandID := chi.URLParam(r, "bandID")

	if err := h.gate.RequireAdmin(r.Context(), bandID, u.ID); err != nil {
		writeGateError(w, err)
		return
	}

	m, err := h.loadMember(w, r, bandID)
	if err != nil {
		return
	}

	if err := h.members.Delete(r.Context(), m.ID, u.ID); err != nil {
		switch {
		case errors.Is(err, member.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "member not found")
		case errors.Is(err, member.ErrLastAdmin):
			writeError(w, http.StatusPreconditionFailed, "precondition_failed", "cannot remove the last band admin")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to remove member")
		}
		return
	}

	auditLog(r, "delete", "member", m.ID, "band_id", bandID)
	w.WriteHeader(http.StatusNoContent)
}

// loadMember fetches the member from the URL and checks it belongs to the
// band in the URL. It writes the error response itself and returns a non-nil
// error when that happened.
func (h *membersHandler) loadMember(w http.ResponseWriter, r *http.Request, bandID string) (*member.Member, error) {
	m, err := h.members.GetByID(r.Context(), chi.URLParam(r, "memberID"))
	if err != nil {
		if errors.Is(err, member.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "member not found")
			return nil, err
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get member")
		return nil, err
	}
	if m.BandID != bandID {
		writeError(w, http.StatusNotFound, "not_found", "member not found")
		return nil, errors.New("member belongs to a different band")
	}
	return m, nil
}
