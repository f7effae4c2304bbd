package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/civiclist/server/internal/api/problem"
	"github.com/civiclist/server/internal/domain/events"
	"github.com/civiclist/server/internal/domain/participants"
	"github.com/civiclist/server/internal/domain/users"
)

// ParticipantsHandler records signups against events and lets the event
// owner (or an admin) read them back.
type ParticipantsHandler struct {
	Participants *participants.Service
	Events       *events.Service
	Users        *users.Service
	Env          string
}

func NewParticipantsHandler(participantsSvc *participants.Service, eventsSvc *events.Service, usersSvc *users.Service, env string) *ParticipantsHandler {
	return &ParticipantsHandler{Participants: participantsSvc, Events: eventsSvc, Users: usersSvc, Env: env}
}

type registerRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Guests int    `json:"guests"`
}

type participantPayload struct {
	ID      int64  `json:"id"`
	EventID int64  `json:"event_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Guests  int    `json:"guests"`
}

func participantToPayload(p participants.Participant) participantPayload {
	return participantPayload{
		ID:      p.ID,
		EventID: p.EventID,
		Name:    p.Name,
		Email:   p.Email,
		Phone:   p.Phone,
		Guests:  p.Guests,
	}
}

// Register handles POST /api/v1/events/{id}/participants.
func (h *ParticipantsHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Participants == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	eventID, err := pathID(r, "id")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	participant, err := h.Participants.Register(r.Context(), participants.RegisterParams{
		EventID: eventID,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Guests:  req.Guests,
	})
	if err != nil {
		switch {
		case errors.Is(err, participants.ErrEventNotFound):
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
		case writeValidationProblem(w, r, err, h.Env):
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		}
		return
	}

	writeJSON(w, http.StatusCreated, participantToPayload(*participant))
}

// List handles GET /api/v1/events/{id}/participants. Admins and the owning
// user only.
func (h *ParticipantsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Participants == nil || h.Events == nil || h.Users == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	actor, err := currentUser(r, h.Users)
	if err != nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", err, h.Env)
		return
	}

	eventID, err := pathID(r, "id")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Events.GetByID(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	if !actor.IsAdmin && event.CreatedBy != actor.ID {
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", problem.ErrForbidden, h.Env)
		return
	}

	items, err := h.Participants.ListByEvent(r.Context(), eventID)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	payload := make([]participantPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, participantToPayload(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": payload})
}
