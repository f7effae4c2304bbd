package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/civiclist/server/internal/api/problem"
	"github.com/civiclist/server/internal/domain/events"
	"github.com/civiclist/server/internal/domain/users"
)

// AdminHandler owns the administrative mutations: event approval and
// cancellation, and user flag changes. Routes are gated by RequireAdmin,
// except Cancel which also admits the owning user.
type AdminHandler struct {
	Events *events.Service
	Users  *users.Service
	Env    string
}

func NewAdminHandler(eventsSvc *events.Service, usersSvc *users.Service, env string) *AdminHandler {
	return &AdminHandler{Events: eventsSvc, Users: usersSvc, Env: env}
}

// ApproveEvent handles POST /api/v1/admin/events/{id}/approve.
func (h *AdminHandler) ApproveEvent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Events == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Events.Approve(r.Context(), id)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, eventToPayload(*event))
}

// CancelEvent handles POST /api/v1/events/{id}/cancel. Admins may cancel
// any event; other users only their own.
func (h *AdminHandler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Events == nil || h.Users == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	actor, err := currentUser(r, h.Users)
	if err != nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", err, h.Env)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Events.Cancel(r.Context(), actor, id)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrNotFound):
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
		case errors.Is(err, events.ErrNotAuthenticated):
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", err, h.Env)
		case errors.Is(err, events.ErrForbidden):
			problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		}
		return
	}

	writeJSON(w, http.StatusOK, eventToPayload(*event))
}

type flagsRequest struct {
	IsAdmin           *bool `json:"is_admin"`
	IsBanned          *bool `json:"is_banned"`
	VerifiedOrganizer *bool `json:"verified_organizer"`
}

// UpdateUserFlags handles PATCH /api/v1/admin/users/{id}/flags. Fields left
// out of the body are untouched.
func (h *AdminHandler) UpdateUserFlags(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Users == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	var req flagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	if req.IsAdmin == nil && req.IsBanned == nil && req.VerifiedOrganizer == nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "At least one flag is required", nil, h.Env)
		return
	}

	user, err := h.Users.UpdateFlags(r.Context(), id, users.FlagUpdate{
		IsAdmin:           req.IsAdmin,
		IsBanned:          req.IsBanned,
		VerifiedOrganizer: req.VerifiedOrganizer,
	})
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, userToPayload(user))
}
