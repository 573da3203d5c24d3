package handler

import (
	"net/http"
	"time"

	"github.com/rentdesk/rentdesk/internal/httputil"
	"github.com/rentdesk/rentdesk/internal/model"
	"github.com/rentdesk/rentdesk/internal/service"
)

type authHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *authHandler {
	return &authHandler{
		authService: authService,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Message   string      `json:"message"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// Register creates an unapproved account
// POST /api/register
func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body", err)
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]any{
		"message": "registration successful, awaiting approval",
		"user":    user,
	})
}

// Login checks credentials and issues a session token
// POST /api/login
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request body", err)
		return
	}

	if req.Username == "" || req.Password == "" {
		badRequest(w, "username and password are required", nil)
		return
	}

	user, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	token, expiresAt, err := h.authService.GenerateJWT(user)
	if err != nil {
		handleError(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sessionResponse{
		Message:   "login successful",
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}
