package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/civiclist/server/internal/domain/users"
)

func newParticipantsHandler(f *fixture) *ParticipantsHandler {
	return NewParticipantsHandler(f.participantsSvc, f.eventsSvc, f.usersSvc, testEnv)
}

func registerBody() *strings.Reader {
	return strings.NewReader(`{"name":"Dana","email":"dana@example.com","phone":"555-0100","guests":2}`)
}

func participantsRequest(method string, eventID int64, body *strings.Reader) *http.Request {
	target := "/api/v1/events/" + strconv.FormatInt(eventID, 10) + "/participants"
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.SetPathValue("id", strconv.FormatInt(eventID, 10))
	return req
}

func TestRegisterParticipant(t *testing.T) {
	f := newFixture()
	h := newParticipantsHandler(f)

	event := seedEvent(f, 1, "community", time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC), true)

	rec := doRequest(h.Register, participantsRequest(http.MethodPost, event.ID, registerBody()))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp participantPayload
	decodeJSON(t, rec.Body, &resp)
	require.Equal(t, event.ID, resp.EventID)
	require.Equal(t, "Dana", resp.Name)
	require.Equal(t, 2, resp.Guests)
}

func TestRegisterParticipantMissingEvent(t *testing.T) {
	f := newFixture()
	h := newParticipantsHandler(f)

	rec := doRequest(h.Register, participantsRequest(http.MethodPost, 99, registerBody()))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterParticipantValidation(t *testing.T) {
	f := newFixture()
	h := newParticipantsHandler(f)

	event := seedEvent(f, 1, "community", time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC), true)

	body := strings.NewReader(`{"name":"","email":"nope","guests":-1}`)
	rec := doRequest(h.Register, participantsRequest(http.MethodPost, event.ID, body))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]any
	decodeJSON(t, rec.Body, &resp)
	require.Contains(t, resp, "errors")
}

func TestListParticipantsAsOwner(t *testing.T) {
	f := newFixture()
	h := newParticipantsHandler(f)

	owner := f.userRepo.add(users.User{Username: "owner", Email: "owner@example.com"})
	event := seedEvent(f, owner.ID, "community", time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC), true)

	rec := doRequest(h.Register, participantsRequest(http.MethodPost, event.ID, registerBody()))
	require.Equal(t, http.StatusCreated, rec.Code)

	req := asUser(participantsRequest(http.MethodGet, event.ID, nil), owner)
	rec = doRequest(h.List, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []participantPayload `json:"items"`
	}
	decodeJSON(t, rec.Body, &resp)
	require.Len(t, resp.Items, 1)
	require.Equal(t, "dana@example.com", resp.Items[0].Email)
}

func TestListParticipantsAsAdmin(t *testing.T) {
	f := newFixture()
	h := newParticipantsHandler(f)

	admin := f.userRepo.add(users.User{Username: "root", Email: "root@example.com", IsAdmin: true})
	event := seedEvent(f, 1, "community", time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC), true)

	req := asUser(participantsRequest(http.MethodGet, event.ID, nil), admin)
	rec := doRequest(h.List, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListParticipantsForbiddenForStranger(t *testing.T) {
	f := newFixture()
	h := newParticipantsHandler(f)

	stranger := f.userRepo.add(users.User{Username: "eve", Email: "eve@example.com"})
	event := seedEvent(f, 999, "community", time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC), true)

	req := asUser(participantsRequest(http.MethodGet, event.ID, nil), stranger)
	rec := doRequest(h.List, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListParticipantsAnonymous(t *testing.T) {
	f := newFixture()
	h := newParticipantsHandler(f)

	event := seedEvent(f, 1, "community", time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC), true)

	rec := doRequest(h.List, participantsRequest(http.MethodGet, event.ID, nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListParticipantsMissingEvent(t *testing.T) {
	f := newFixture()
	h := newParticipantsHandler(f)

	admin := f.userRepo.add(users.User{Username: "root", Email: "root@example.com", IsAdmin: true})

	req := asUser(participantsRequest(http.MethodGet, 99, nil), admin)
	rec := doRequest(h.List, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
