// Package handlers contains the HTTP handlers of the REST API. Handlers
// parse and validate the wire shape, delegate to the application
// services and translate errors; authorization rules live below.
package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"lumina-backend/application/services"
	"lumina-backend/interfaces/http/rest/middleware"
	"lumina-backend/pkg/common"
	apperrors "lumina-backend/pkg/errors"
	"lumina-backend/pkg/observability"
	"lumina-backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// AuthHandler handles registration, login and session lifecycle.
type AuthHandler struct {
	auth         *services.AuthService
	users        *services.UserService
	cookieName   string
	secureCookie bool
	metrics      *observability.Metrics
	errors       *apperrors.ErrorHandler
	logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	auth *services.AuthService,
	users *services.UserService,
	cookieName string,
	secureCookie bool,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		users:        users,
		cookieName:   cookieName,
		secureCookie: secureCookie,
		metrics:      metrics,
		errors:       apperrors.NewErrorHandler(logger),
		logger:       logger,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := common.ParseJSONBody(r, &input, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	user, err := h.users.Register(r.Context(), input)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, user)
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	h.metrics.IncrementCount(observability.MetricLoginAttempts)
	result, err := h.auth.Login(r.Context(), req.Email, req.Password, middleware.ClientIP(r))
	if err != nil {
		h.metrics.IncrementCount(observability.MetricLoginFailures)
		h.errors.Handle(w, r, err)
		return
	}

	h.setSessionCookie(w, result.Token, result.ExpiresAt)
	common.RespondJSON(w, http.StatusOK, result)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}
	if err := h.auth.Logout(r.Context(), identity); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.clearSessionCookie(w)
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}
	user, err := h.users.Get(r.Context(), identity.UserID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.users.TouchLastActive(r.Context(), identity.UserID)
	common.RespondJSON(w, http.StatusOK, user)
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword handles POST /auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.GetIdentity(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.NewUnauthorizedError("missing caller identity"))
		return
	}

	var req ChangePasswordRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	if err := h.users.ChangePassword(r.Context(), identity, req.CurrentPassword, req.NewPassword); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token, expiresAt string) {
	expires, err := utils.ParseRFC3339(expiresAt)
	if err != nil {
		expires = time.Now().UTC().Add(24 * time.Hour)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
