package httpapi

import (
	"errors"
	"net/http"
	"time"

	"pharmadesk.org/internal/auth"
	"pharmadesk.org/internal/store"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	LoggedInAt time.Time `json:"logged_in_at"`
	Token      string    `json:"token,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
}

func sessionPayload(sess auth.Session) sessionResponse {
	return sessionResponse{
		UserID:     sess.Identity.ID,
		Name:       sess.Identity.Name,
		Email:      sess.Identity.Email,
		Role:       sess.Identity.Role,
		LoggedInAt: sess.LoggedInAt,
		Token:      sess.Token,
		ExpiresAt:  sess.ExpiresAt,
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}

	a.store.SetSession(store.Session{
		UserID: sess.Identity.ID,
		Name:   sess.Identity.Name,
		Email:  sess.Identity.Email,
		Role:   sess.Identity.Role,
	})
	writeJSON(w, http.StatusOK, sessionPayload(sess))
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.auth.Logout()
	a.store.ClearSession()
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sess, err := a.auth.Current()
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(sess))
}
