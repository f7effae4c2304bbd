package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/civiclist/server/internal/api/problem"
	"github.com/civiclist/server/internal/domain/events"
	"github.com/civiclist/server/internal/domain/users"
	"github.com/civiclist/server/internal/metrics"
)

// EventsHandler serves the public listings and authenticated submission.
type EventsHandler struct {
	Events *events.Service
	Users  *users.Service
	Env    string
}

func NewEventsHandler(eventsSvc *events.Service, usersSvc *users.Service, env string) *EventsHandler {
	return &EventsHandler{Events: eventsSvc, Users: usersSvc, Env: env}
}

type submitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Date        string `json:"date"`
}

type submitResponse struct {
	Event  eventPayload `json:"event"`
	Status string       `json:"status"`
}

type listResponse struct {
	Items []eventPayload `json:"items"`
}

type upcomingResponse struct {
	Items      []eventPayload `json:"items"`
	Categories []string       `json:"categories"`
}

// Recent handles GET /api/v1/events/recent: the landing view, up to five
// published events with the latest dates first.
func (h *EventsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Events == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	items, err := h.Events.ListRecent(r.Context(), events.DefaultRecentLimit)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Items: eventsToPayload(items)})
}

// Upcoming handles GET /api/v1/events?category=: published events soonest
// first, plus the category set for a filter control.
func (h *EventsHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Events == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	result, err := h.Events.ListUpcoming(r.Context(), category)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	categories := result.Categories
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, upcomingResponse{
		Items:      eventsToPayload(result.Events),
		Categories: categories,
	})
}

// Get handles GET /api/v1/events/{id}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Events == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	event, err := h.Events.GetByID(r.Context(), id)
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

// Submit handles POST /api/v1/events. The response status field tells the
// caller whether the event is already published or waiting on approval.
func (h *EventsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Events == nil || h.Users == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	actor, err := currentUser(r, h.Users)
	if err != nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", err, h.Env)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	result, err := h.Events.Submit(r.Context(), actor, events.SubmitParams{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Date:        req.Date,
	})
	if err != nil {
		switch {
		case errors.Is(err, events.ErrInvalidDate):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeInvalidDate, "Date must match format "+events.DateLayout, err, h.Env)
		case errors.Is(err, events.ErrNotAuthenticated):
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", err, h.Env)
		case errors.Is(err, events.ErrForbidden):
			problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Submission not allowed", err, h.Env)
		case writeValidationProblem(w, r, err, h.Env):
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		}
		return
	}

	status := "pending"
	if result.Published {
		status = "published"
	}
	metrics.EventsSubmitted.WithLabelValues(status).Inc()

	writeJSON(w, http.StatusCreated, submitResponse{
		Event:  eventToPayload(*result.Event),
		Status: status,
	})
}
