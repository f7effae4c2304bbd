package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/civiclist/server/internal/api/middleware"
	"github.com/civiclist/server/internal/auth"
	"github.com/civiclist/server/internal/domain/events"
	"github.com/civiclist/server/internal/domain/participants"
	"github.com/civiclist/server/internal/domain/users"
)

const testEnv = "test"

// Shared in-memory fixtures. Handlers are exercised against real services
// backed by these stubs so the full decode/validate/respond path runs.

type stubUserRepo struct {
	byID   map[int64]*users.User
	nextID int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[int64]*users.User), nextID: 1}
}

func (r *stubUserRepo) add(user users.User) *users.User {
	user.ID = r.nextID
	r.nextID++
	stored := user
	r.byID[stored.ID] = &stored
	return &stored
}

func (r *stubUserRepo) Create(_ context.Context, params users.CreateParams) (*users.User, error) {
	return r.add(users.User{
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    time.Now(),
	}), nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id int64) (*users.User, error) {
	if user, ok := r.byID[id]; ok {
		return user, nil
	}
	return nil, users.ErrNotFound
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	for _, user := range r.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, users.ErrNotFound
}

func (r *stubUserRepo) GetByUsername(_ context.Context, username string) (*users.User, error) {
	for _, user := range r.byID {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, users.ErrNotFound
}

func (r *stubUserRepo) UpdateFlags(_ context.Context, id int64, update users.FlagUpdate) (*users.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	if update.IsAdmin != nil {
		user.IsAdmin = *update.IsAdmin
	}
	if update.IsBanned != nil {
		user.IsBanned = *update.IsBanned
	}
	if update.VerifiedOrganizer != nil {
		user.VerifiedOrganizer = *update.VerifiedOrganizer
	}
	return user, nil
}

type stubEventRepo struct {
	byID   map[int64]*events.Event
	nextID int64
}

func newStubEventRepo() *stubEventRepo {
	return &stubEventRepo{byID: make(map[int64]*events.Event), nextID: 1}
}

func (r *stubEventRepo) add(event events.Event) *events.Event {
	event.ID = r.nextID
	r.nextID++
	stored := event
	r.byID[stored.ID] = &stored
	return &stored
}

func (r *stubEventRepo) Create(_ context.Context, params events.CreateParams) (*events.Event, error) {
	return r.add(events.Event{
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		Location:    params.Location,
		StartsAt:    params.StartsAt,
		CreatedAt:   time.Now(),
		CreatedBy:   params.CreatedBy,
		Approved:    params.Approved,
	}), nil
}

func (r *stubEventRepo) GetByID(_ context.Context, id int64) (*events.Event, error) {
	if event, ok := r.byID[id]; ok {
		return event, nil
	}
	return nil, events.ErrNotFound
}

func (r *stubEventRepo) ListRecent(_ context.Context, limit int) ([]events.Event, error) {
	items := r.listable()
	sort.Slice(items, func(i, j int) bool { return items[i].StartsAt.After(items[j].StartsAt) })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r *stubEventRepo) ListUpcoming(_ context.Context, category string) ([]events.Event, error) {
	var items []events.Event
	for _, event := range r.listable() {
		if category == "" || event.Category == category {
			items = append(items, event)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].StartsAt.Before(items[j].StartsAt) })
	return items, nil
}

func (r *stubEventRepo) Categories(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var categories []string
	for _, event := range r.byID {
		if !seen[event.Category] {
			seen[event.Category] = true
			categories = append(categories, event.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *stubEventRepo) SetApproved(_ context.Context, id int64) (*events.Event, error) {
	event, ok := r.byID[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	event.Approved = true
	return event, nil
}

func (r *stubEventRepo) SetCancelled(_ context.Context, id int64) (*events.Event, error) {
	event, ok := r.byID[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	event.Cancelled = true
	return event, nil
}

func (r *stubEventRepo) listable() []events.Event {
	var items []events.Event
	for _, event := range r.byID {
		if event.Listable() {
			items = append(items, *event)
		}
	}
	return items
}

type stubParticipantRepo struct {
	events  *stubEventRepo
	byEvent map[int64][]participants.Participant
	nextID  int64
}

func newStubParticipantRepo(eventRepo *stubEventRepo) *stubParticipantRepo {
	return &stubParticipantRepo{
		events:  eventRepo,
		byEvent: make(map[int64][]participants.Participant),
		nextID:  1,
	}
}

func (r *stubParticipantRepo) Create(_ context.Context, params participants.CreateParams) (*participants.Participant, error) {
	if _, ok := r.events.byID[params.EventID]; !ok {
		return nil, participants.ErrEventNotFound
	}
	participant := participants.Participant{
		ID:      r.nextID,
		EventID: params.EventID,
		Name:    params.Name,
		Email:   params.Email,
		Phone:   params.Phone,
		Guests:  params.Guests,
	}
	r.nextID++
	r.byEvent[params.EventID] = append(r.byEvent[params.EventID], participant)
	return &participant, nil
}

func (r *stubParticipantRepo) ListByEvent(_ context.Context, eventID int64) ([]participants.Participant, error) {
	return r.byEvent[eventID], nil
}

// fixture bundles services and stub repositories for a handler test.
type fixture struct {
	userRepo        *stubUserRepo
	eventRepo       *stubEventRepo
	participantRepo *stubParticipantRepo

	usersSvc        *users.Service
	eventsSvc       *events.Service
	participantsSvc *participants.Service

	jwtManager *auth.JWTManager
}

func newFixture() *fixture {
	userRepo := newStubUserRepo()
	eventRepo := newStubEventRepo()
	participantRepo := newStubParticipantRepo(eventRepo)

	logger := zerolog.Nop()
	usersTx := func(_ context.Context, fn func(users.Repository) error) error {
		return fn(userRepo)
	}
	return &fixture{
		userRepo:        userRepo,
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		usersSvc:        users.NewService(userRepo, usersTx, logger),
		eventsSvc:       events.NewService(eventRepo, logger),
		participantsSvc: participants.NewService(participantRepo, logger),
		jwtManager:      auth.NewJWTManager("test-secret", time.Hour, "civiclist-test"),
	}
}

// asUser binds session claims for the given user to the request, the way
// SessionAuth does after validating a token.
func asUser(r *http.Request, user *users.User) *http.Request {
	role := auth.RoleMember
	if user.IsAdmin {
		role = auth.RoleAdmin
	}
	claims := &auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: strconv.FormatInt(user.ID, 10),
		},
	}
	return r.WithContext(middleware.ContextWithSessionClaims(r.Context(), claims))
}

func decodeJSON(t *testing.T, body io.Reader, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(out))
}

func doRequest(handler http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler(rec, r)
	return rec
}
