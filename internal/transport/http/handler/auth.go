package handler

import (
	"net/http"
	"time"

	"github.com/taskflow-api/internal/application/auth"
	"github.com/taskflow-api/internal/domain"
	"github.com/taskflow-api/internal/transport/http/middleware"
)

// PendingRegistrationCookie carries the signed profile between register and verify.
const PendingRegistrationCookie = "pending_registration"

// CookieOptions controls the session and pending-registration cookies.
type CookieOptions struct {
	Secure     bool
	SessionTTL time.Duration
	PendingTTL time.Duration
}

// AuthHandler handles registration, code verification and login.
type AuthHandler struct {
	svc     auth.Service
	cookies CookieOptions
}

func NewAuthHandler(svc auth.Service, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	pending, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	h.setCookie(w, PendingRegistrationCookie, pending, h.cookies.PendingTTL)
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "confirmation code sent"})
}

func (h *AuthHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResendCode(r.Context(), cookieValue(r, PendingRegistrationCookie)); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "confirmation code sent"})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyRequest
	if !decode(w, r, &req) {
		return
	}
	u, token, err := h.svc.ConfirmRegistration(r.Context(), cookieValue(r, PendingRegistrationCookie), req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	h.clearCookie(w, PendingRegistrationCookie)
	h.setCookie(w, middleware.AccessTokenCookie, token, h.cookies.SessionTTL)
	writeJSON(w, http.StatusCreated, UserEnvelope{Message: "registration confirmed", User: u})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	u, token, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	h.setCookie(w, middleware.AccessTokenCookie, token, h.cookies.SessionTTL)
	writeJSON(w, http.StatusOK, UserEnvelope{User: u})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.clearCookie(w, middleware.AccessTokenCookie)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
