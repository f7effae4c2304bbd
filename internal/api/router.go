package api

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/civiclist/server/internal/api/handlers"
	"github.com/civiclist/server/internal/api/middleware"
	"github.com/civiclist/server/internal/auth"
	"github.com/civiclist/server/internal/config"
	"github.com/civiclist/server/internal/domain/events"
	"github.com/civiclist/server/internal/domain/participants"
	"github.com/civiclist/server/internal/domain/users"
	"github.com/civiclist/server/internal/metrics"
	"github.com/civiclist/server/internal/storage"
	"github.com/civiclist/server/internal/storage/postgres"
)

// NewRouter wires repositories, services, and handlers onto a ServeMux
// wrapped by the ambient middleware chain.
func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool) (http.Handler, error) {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, err
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Server.BaseURL)

	usersService := users.NewService(repo.Users(), usersTxRunner(repo), logger)
	eventsService := events.NewService(repo.Events(), logger)
	participantsService := participants.NewService(repo.Participants(), logger)

	authHandler := handlers.NewAuthHandler(usersService, jwtManager, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(eventsService, usersService, cfg.Environment)
	participantsHandler := handlers.NewParticipantsHandler(participantsService, eventsService, usersService, cfg.Environment)
	adminHandler := handlers.NewAdminHandler(eventsService, usersService, cfg.Environment)

	requireSession := middleware.RequireSession(cfg.Environment)
	requireAdmin := middleware.RequireAdmin(cfg.Environment)

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(pool))
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/api/v1/auth/signup", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Signup),
	}))
	mux.Handle("/api/v1/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Login),
	}))
	mux.Handle("/api/v1/auth/logout", methodMux(map[string]http.Handler{
		http.MethodPost: requireSession(http.HandlerFunc(authHandler.Logout)),
	}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(eventsHandler.Upcoming),
		http.MethodPost: requireSession(http.HandlerFunc(eventsHandler.Submit)),
	}))
	mux.Handle("/api/v1/events/recent", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(eventsHandler.Recent),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(eventsHandler.Get),
	}))
	mux.Handle("/api/v1/events/{id}/cancel", methodMux(map[string]http.Handler{
		http.MethodPost: requireSession(http.HandlerFunc(adminHandler.CancelEvent)),
	}))
	mux.Handle("/api/v1/events/{id}/participants", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(participantsHandler.Register),
		http.MethodGet:  requireSession(http.HandlerFunc(participantsHandler.List)),
	}))

	mux.Handle("/api/v1/admin/events/{id}/approve", methodMux(map[string]http.Handler{
		http.MethodPost: requireAdmin(http.HandlerFunc(adminHandler.ApproveEvent)),
	}))
	mux.Handle("/api/v1/admin/users/{id}/flags", methodMux(map[string]http.Handler{
		http.MethodPatch: requireAdmin(http.HandlerFunc(adminHandler.UpdateUserFlags)),
	}))

	var handler http.Handler = mux
	handler = middleware.SessionAuth(jwtManager)(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogger(logger)(handler)
	return handler, nil
}

// usersTxRunner narrows the grouped transaction helper to the user
// repository, so the users service can run multi-statement operations
// atomically without depending on the storage package.
func usersTxRunner(repo storage.Repository) users.TxRunner {
	return func(ctx context.Context, fn func(users.Repository) error) error {
		return repo.WithTx(ctx, func(ctx context.Context, txRepo storage.Repository) error {
			return fn(txRepo.Users())
		})
	}
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
