package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/civiclist/server/internal/api/middleware"
	"github.com/civiclist/server/internal/api/problem"
	"github.com/civiclist/server/internal/auth"
	"github.com/civiclist/server/internal/domain/users"
)

// AuthHandler owns signup, login, and logout.
type AuthHandler struct {
	Users      *users.Service
	JWTManager *auth.JWTManager
	Env        string
}

func NewAuthHandler(usersSvc *users.Service, jwtManager *auth.JWTManager, env string) *AuthHandler {
	return &AuthHandler{Users: usersSvc, JWTManager: jwtManager, Env: env}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string      `json:"token"`
	ExpiresAt string      `json:"expires_at"`
	User      userPayload `json:"user"`
}

// Signup handles POST /api/v1/auth/signup. A successful signup starts a
// session immediately.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Users == nil || h.JWTManager == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	user, err := h.Users.Register(r.Context(), users.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			problem.Write(w, r, http.StatusConflict, problem.TypeDuplicate, "Email is already registered", err, h.Env)
		case errors.Is(err, users.ErrUsernameTaken):
			problem.Write(w, r, http.StatusConflict, problem.TypeDuplicate, "Username is already taken", err, h.Env)
		case writeValidationProblem(w, r, err, h.Env):
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		}
		return
	}

	h.writeSession(w, r, user, http.StatusCreated)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Users == nil || h.JWTManager == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	if req.Email == "" || req.Password == "" {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Email and password are required", nil, h.Env)
		return
	}

	user, err := h.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid email or password", nil, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	h.writeSession(w, r, user, http.StatusOK)
}

// Logout handles POST /api/v1/auth/logout. Requires an active session; the
// cookie is cleared and the token is no longer honored by new requests once
// expired.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, r *http.Request, user *users.User, status int) {
	role := auth.RoleMember
	if user.IsAdmin {
		role = auth.RoleAdmin
	}

	token, err := h.JWTManager.Generate(user.ID, role)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	expiresAt := time.Now().Add(h.JWTManager.Expiry())

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, status, sessionResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		User:      userToPayload(user),
	})
}
