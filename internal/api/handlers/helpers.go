package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/civiclist/server/internal/api/middleware"
	"github.com/civiclist/server/internal/api/problem"
	"github.com/civiclist/server/internal/domain/events"
	"github.com/civiclist/server/internal/domain/users"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(key))
	if raw == "" {
		return 0, errors.New("missing id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// writeValidationProblem renders field-level validator failures as a 400
// with an errors map, keeping storage and library detail off the wire.
func writeValidationProblem(w http.ResponseWriter, r *http.Request, err error, env string) bool {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return false
	}

	fields := make(map[string]interface{}, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[strings.ToLower(fe.Field())] = "failed " + fe.Tag() + " validation"
	}
	problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env, problem.WithErrors(fields))
	return true
}

type userPayload struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	IsAdmin           bool   `json:"is_admin"`
	IsBanned          bool   `json:"is_banned"`
	VerifiedOrganizer bool   `json:"verified_organizer"`
}

func userToPayload(u *users.User) userPayload {
	return userPayload{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		IsAdmin:           u.IsAdmin,
		IsBanned:          u.IsBanned,
		VerifiedOrganizer: u.VerifiedOrganizer,
	}
}

type eventPayload struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	StartsAt    string `json:"starts_at"`
	CreatedAt   string `json:"created_at"`
	CreatedBy   int64  `json:"created_by"`
	Approved    bool   `json:"approved"`
	Cancelled   bool   `json:"cancelled"`
}

func eventToPayload(e events.Event) eventPayload {
	return eventPayload{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Category:    e.Category,
		Location:    e.Location,
		StartsAt:    e.StartsAt.Format(time.RFC3339),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		CreatedBy:   e.CreatedBy,
		Approved:    e.Approved,
		Cancelled:   e.Cancelled,
	}
}

func eventsToPayload(items []events.Event) []eventPayload {
	payload := make([]eventPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, eventToPayload(item))
	}
	return payload
}

// currentUser resolves the session claims into a full user record.
func currentUser(r *http.Request, svc *users.Service) (*users.User, error) {
	claims := middleware.SessionClaims(r)
	if claims == nil {
		return nil, problem.ErrUnauthorized
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, problem.ErrUnauthorized
	}
	return svc.GetByID(r.Context(), id)
}
