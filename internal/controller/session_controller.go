package controller

import (
	"net/http"

	"github.com/cassiomorais/qrpay/internal/session"
)

// SessionController manages the gateway's backend session tokens.
type SessionController struct {
	sessions *session.Store
}

// NewSessionController creates a SessionController.
func NewSessionController(sessions *session.Store) *SessionController {
	return &SessionController{sessions: sessions}
}

// Get handles GET /api/v1/session
func (h *SessionController) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SessionResponse{
		Authenticated: h.sessions.IsAuthenticated(),
		UserID:        h.sessions.UserID(),
	})
}

// Set handles PUT /api/v1/session
func (h *SessionController) Set(w http.ResponseWriter, r *http.Request) {
	var req SetSessionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	h.sessions.SetTokens(r.Context(), req.AccessToken, req.RefreshToken, req.UserID)
	writeJSON(w, http.StatusOK, SessionResponse{
		Authenticated: h.sessions.IsAuthenticated(),
		UserID:        h.sessions.UserID(),
	})
}

// Clear handles DELETE /api/v1/session
func (h *SessionController) Clear(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(r.Context())
	writeJSON(w, http.StatusOK, SessionResponse{Authenticated: false})
}
